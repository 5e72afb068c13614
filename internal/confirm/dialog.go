// Package confirm asks a yes/no question in a modal and reports a single
// boolean back to the caller, optionally running an action before saying yes.
package confirm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/adminpanel/internal/modal"
	"github.com/jask/adminpanel/internal/notify"
)

type Variant int

const (
	Destructive Variant = iota
	Success
)

type Options struct {
	Title       string
	Description string
	Variant     Variant
	ConfirmText string
	CancelText  string
	// OnConfirm runs after the user confirms. While it runs the dialog is busy
	// and ignores input. An error resolves the dialog to false.
	OnConfirm func(ctx context.Context) error
}

// Dialog opens confirmations on an orchestrator.
type Dialog struct {
	orch     *modal.Orchestrator
	notifier notify.Notifier
	timeout  time.Duration
	log      *slog.Logger
	seq      atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]Options // running actions, by dialog id
}

// New builds a dialog. timeout bounds OnConfirm actions; zero means none.
func New(orch *modal.Orchestrator, notifier notify.Notifier, timeout time.Duration, logger *slog.Logger) *Dialog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dialog{
		orch:     orch,
		notifier: notifier,
		timeout:  timeout,
		log:      logger.With("component", "confirm"),
		pending:  map[uint64]Options{},
	}
}

// Update reports the outcome of actions whose dialog was replaced while they
// ran. It must see messages after the orchestrator does; results the open
// dialog already handled are ignored. Callbacks of replaced dialogs still
// never fire.
func (d *Dialog) Update(msg tea.Msg) tea.Cmd {
	done, ok := msg.(actionDoneMsg)
	if !ok {
		return nil
	}
	opts, ok := d.settle(done.id)
	if !ok || done.err == nil {
		return nil
	}
	return d.fail(opts, done.err)
}

func (d *Dialog) track(id uint64, opts Options) {
	d.mu.Lock()
	d.pending[id] = opts
	d.mu.Unlock()
}

// settle removes id from the running actions and reports whether it was
// still there.
func (d *Dialog) settle(id uint64) (Options, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	opts, ok := d.pending[id]
	delete(d.pending, id)
	return opts, ok
}

func (d *Dialog) fail(opts Options, err error) tea.Cmd {
	d.log.Error("confirm action failed", "title", opts.Title, "err", err)
	if d.notifier == nil {
		return nil
	}
	return d.notifier.NotifyError(fmt.Errorf("%s: %w", label(opts), err))
}

// Confirm opens the dialog and calls then exactly once with the outcome:
// false on cancel or a failed action, true otherwise. If another modal
// replaces the dialog before it resolves, then is never called.
func (d *Dialog) Confirm(opts Options, then func(ok bool) tea.Cmd) tea.Cmd {
	resolve := once(then)
	id := d.seq.Add(1)
	factory := func(_ any, done modal.Done) modal.Content {
		return newContent(d, id, opts, done)
	}
	mopts := modal.Options{Title: opts.Title, Size: modal.Small}
	return d.orch.Open(factory, nil, mopts, func(result any) tea.Cmd {
		ok, _ := result.(bool)
		return resolve(ok)
	})
}

// once guards then so that it fires a single time however often it is called.
func once(then func(bool) tea.Cmd) func(bool) tea.Cmd {
	var fired bool
	return func(ok bool) tea.Cmd {
		if fired || then == nil {
			fired = true
			return nil
		}
		fired = true
		return then(ok)
	}
}

type actionDoneMsg struct {
	id  uint64
	err error
}

type content struct {
	d       *Dialog
	id      uint64
	opts    Options
	done    modal.Done
	focus   int // 0 cancel, 1 confirm
	busy    bool
	spinner spinner.Model
}

func newContent(d *Dialog, id uint64, opts Options, done modal.Done) *content {
	c := &content{d: d, id: id, opts: opts, done: done, spinner: spinner.New(spinner.WithSpinner(spinner.Dot))}
	if opts.Variant == Success {
		c.focus = 1
	}
	return c
}

func (c *content) Busy() bool { return c.busy }

func (c *content) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case actionDoneMsg:
		if msg.id != c.id || !c.busy {
			return nil
		}
		c.busy = false
		c.d.settle(c.id)
		if msg.err == nil {
			return c.done(true)
		}
		return tea.Batch(c.d.fail(c.opts, msg.err), c.done(false))
	case spinner.TickMsg:
		if !c.busy {
			return nil
		}
		var cmd tea.Cmd
		c.spinner, cmd = c.spinner.Update(msg)
		return cmd
	case tea.KeyMsg:
		if c.busy {
			return nil
		}
		switch msg.String() {
		case "left", "right", "tab", "shift+tab", "h", "l":
			c.focus = 1 - c.focus
		case "y":
			return c.accept()
		case "n":
			return c.done(false)
		case "enter":
			if c.focus == 1 {
				return c.accept()
			}
			return c.done(false)
		}
	}
	return nil
}

func (c *content) accept() tea.Cmd {
	if c.opts.OnConfirm == nil {
		return c.done(true)
	}
	c.busy = true
	c.d.track(c.id, c.opts)
	action, timeout, id := c.opts.OnConfirm, c.d.timeout, c.id
	run := func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = actionDoneMsg{id: id, err: fmt.Errorf("confirm: action panicked: %v", r)}
			}
		}()
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return actionDoneMsg{id: id, err: action(ctx)}
	}
	return tea.Batch(c.spinner.Tick, run)
}

func (c *content) label() string { return label(c.opts) }

func label(opts Options) string {
	if opts.ConfirmText != "" {
		return opts.ConfirmText
	}
	if opts.Variant == Destructive {
		return "Delete"
	}
	return "Confirm"
}

func (c *content) cancelLabel() string {
	if c.opts.CancelText != "" {
		return c.opts.CancelText
	}
	return "Cancel"
}

var (
	buttonStyle       = lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.RoundedBorder())
	buttonFocused     = buttonStyle.Bold(true).BorderForeground(lipgloss.Color("#cdd6f4"))
	destructiveButton = buttonFocused.Foreground(lipgloss.Color("#f38ba8")).BorderForeground(lipgloss.Color("#f38ba8"))
	successButton     = buttonFocused.Foreground(lipgloss.Color("#a6e3a1")).BorderForeground(lipgloss.Color("#a6e3a1"))
	mutedStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086"))
)

func (c *content) View(width int) string {
	var b strings.Builder
	if c.opts.Description != "" {
		b.WriteString(lipgloss.NewStyle().Width(width).Render(c.opts.Description))
		b.WriteString("\n\n")
	}
	if c.busy {
		b.WriteString(c.spinner.View() + " " + mutedStyle.Render("working…"))
		return b.String()
	}
	cancel, ok := buttonStyle, buttonStyle
	if c.focus == 0 {
		cancel = buttonFocused
	} else if c.opts.Variant == Destructive {
		ok = destructiveButton
	} else {
		ok = successButton
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center,
		cancel.Render(c.cancelLabel()), " ", ok.Render(c.label())))
	b.WriteString("\n" + mutedStyle.Render("y confirm · n cancel"))
	return b.String()
}
