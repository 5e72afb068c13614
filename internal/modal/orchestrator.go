// Package modal keeps the single overlay of the application. Opening a modal
// while another is shown replaces it: there is no stack and no queue, and the
// replaced modal's OnClose never fires.
package modal

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultExitDelay is how long closed content is retained before it is
// cleared.
const DefaultExitDelay = 300 * time.Millisecond

type Size int

const (
	Medium Size = iota
	Small
	Large
	Full
)

type Options struct {
	Size            Size
	ShowCloseButton bool
	Title           string
}

// Done is injected into modal content. Calling it asks the orchestrator to
// close with result; it is the content's only way to talk to its opener.
// Done must be called on the update loop. Calls after the modal closed, or
// after it was replaced, do nothing.
type Done func(result any) tea.Cmd

// Content is what a modal renders and routes input to.
type Content interface {
	Update(msg tea.Msg) tea.Cmd
	View(width int) string
}

// Initer is implemented by content that needs a command when opened, such as
// a blinking cursor.
type Initer interface {
	Init() tea.Cmd
}

// Busy is implemented by content that cannot be dismissed right now.
type Busy interface {
	Busy() bool
}

// Factory builds content from the opener's payload and the injected Done.
type Factory func(data any, done Done) Content

// OnClose receives the result of a modal. A nil result means cancelled.
type OnClose func(result any) tea.Cmd

type clearMsg struct {
	gen uint64
}

// Orchestrator owns the current modal slot. Open and Close are its only
// mutators; it lives on the update loop and is not safe for concurrent use.
type Orchestrator struct {
	exitDelay time.Duration
	log       *slog.Logger

	gen     uint64
	open    bool
	content Content
	data    any
	opts    Options
	onClose OnClose

	width, height int
}

func New(exitDelay time.Duration, logger *slog.Logger) *Orchestrator {
	if exitDelay <= 0 {
		exitDelay = DefaultExitDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{exitDelay: exitDelay, log: logger.With("component", "modal")}
}

// Open shows the content built by factory, replacing any open modal outright.
func (o *Orchestrator) Open(factory Factory, data any, opts Options, onClose OnClose) tea.Cmd {
	if o.open {
		o.log.Debug("modal replaced", "title", o.opts.Title, "by", opts.Title)
	}
	o.gen++
	gen := o.gen
	o.open = true
	o.data = data
	o.opts = opts
	o.onClose = onClose
	o.content = factory(data, func(result any) tea.Cmd {
		if gen != o.gen {
			return nil
		}
		return o.Close(result)
	})
	if in, ok := o.content.(Initer); ok {
		return in.Init()
	}
	return nil
}

// Close closes the open modal and hands result to its OnClose, which fires at
// most once per Open. Content, data and callback are cleared after the exit
// delay unless another modal was opened meanwhile.
func (o *Orchestrator) Close(result any) tea.Cmd {
	if !o.open {
		return nil
	}
	o.open = false
	cb := o.onClose
	o.onClose = nil
	gen := o.gen
	expire := tea.Tick(o.exitDelay, func(time.Time) tea.Msg { return clearMsg{gen: gen} })
	if cb == nil {
		return expire
	}
	return tea.Batch(cb(result), expire)
}

// Update routes msg to the open content. Key presses are consumed while a
// modal is open; esc cancels unless the content is busy. Other messages are
// forwarded and left for the rest of the program as well.
func (o *Orchestrator) Update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case clearMsg:
		if msg.gen == o.gen && !o.open {
			o.content, o.data = nil, nil
		}
		return nil, true
	case tea.WindowSizeMsg:
		o.width, o.height = msg.Width, msg.Height
	case tea.KeyMsg:
		if !o.open {
			return nil, false
		}
		if msg.String() == "esc" {
			if b, ok := o.content.(Busy); ok && b.Busy() {
				return nil, true
			}
			return o.Close(nil), true
		}
		return o.content.Update(msg), true
	}
	if !o.open {
		return nil, false
	}
	return o.content.Update(msg), false
}

func (o *Orchestrator) IsOpen() bool { return o.open }

// Title returns the title of the open modal.
func (o *Orchestrator) Title() string {
	if !o.open {
		return ""
	}
	return o.opts.Title
}

// Retained reports whether closed content is still held, waiting for the
// exit delay.
func (o *Orchestrator) Retained() bool { return !o.open && o.content != nil }

// Data returns the payload of the open modal.
func (o *Orchestrator) Data() any {
	if !o.open {
		return nil
	}
	return o.data
}
