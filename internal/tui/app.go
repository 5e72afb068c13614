package tui

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/adminpanel/internal/config"
	"github.com/jask/adminpanel/internal/confirm"
	"github.com/jask/adminpanel/internal/modal"
	"github.com/jask/adminpanel/internal/notify"
	"github.com/jask/adminpanel/internal/prefs"
	"github.com/jask/adminpanel/internal/table"
)

// Options configures the app.
type Options struct {
	UI config.UIConfig
	// FetchTimeout bounds each list request; zero means none.
	FetchTimeout time.Duration
	Logger       *slog.Logger
	// View is an initial view link, "screen?query". It wins over a saved view
	// of the same screen and selects the starting tab.
	View string
	// Views are the views saved on the last quit, keyed by screen.
	Views map[string]prefs.View
	// SaveViews persists the view of every opened screen on quit.
	SaveViews bool
	// Identity is shown in the header, e.g. the admin e-mail.
	Identity string
}

// App is the root model: a row of entity tabs sharing one modal slot and one
// toast center.
type App struct {
	ctx     context.Context
	screens []Screen
	started []bool
	active  int

	orch     *modal.Orchestrator
	dialog   *confirm.Dialog
	notes    *notify.Center
	keys     keyMap
	help     help.Model
	showHelp bool
	opts     Options
	log      *slog.Logger

	width, height int
}

func New(ctx context.Context, res Resources, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := opts.UI.Location()
	if err != nil {
		return nil, err
	}
	notes := notify.NewCenter(opts.UI.ToastTTL)
	orch := modal.New(opts.UI.ModalExitDelay, logger)
	dialog := confirm.New(orch, notes, opts.UI.ConfirmTimeout, logger)
	ctx = modal.WithOrchestrator(ctx, orch)
	ctx = confirm.WithDialog(ctx, dialog)

	env := screenEnv{
		ctx:   ctx,
		notes: notes,
		table: table.Options{
			PageSize: opts.UI.PageSize,
			Debounce: opts.UI.Debounce,
			Timeout:  opts.FetchTimeout,
			Location: loc,
		},
		times: timeFormat{layout: opts.UI.DateFormat, loc: loc},
		log:   logger,
	}
	a := &App{
		ctx:    ctx,
		orch:   orch,
		dialog: dialog,
		notes:  notes,
		keys:   defaultKeys(),
		help:   help.New(),
		opts:   opts,
		log:    logger.With("component", "app"),
	}
	a.screens = newScreens(env, res)
	a.started = make([]bool, len(a.screens))

	for _, s := range a.screens {
		v, ok := opts.Views[s.Name()]
		if !ok {
			continue
		}
		if err := a.seed(s, v.Query); err != nil {
			a.log.Warn("ignoring saved view", "screen", s.Name(), "err", err)
		}
	}
	if strings.TrimSpace(opts.View) != "" {
		v := prefs.ParseLink(opts.View)
		i := a.index(v.Screen)
		if i < 0 {
			return nil, fmt.Errorf("unknown screen %q in view link", v.Screen)
		}
		if err := a.seed(a.screens[i], v.Query); err != nil {
			return nil, fmt.Errorf("view link %q: %w", opts.View, err)
		}
		a.active = i
	}
	return a, nil
}

func (a *App) seed(s Screen, raw string) error {
	v, err := url.ParseQuery(raw)
	if err != nil {
		return err
	}
	return s.Seed(v)
}

func (a *App) index(name string) int {
	for i, s := range a.screens {
		if s.Name() == name {
			return i
		}
	}
	return -1
}

func (a *App) Init() tea.Cmd {
	return a.activate(a.active)
}

// activate switches tabs, loading a screen the first time it is shown.
func (a *App) activate(i int) tea.Cmd {
	a.active = i
	if a.started[i] {
		return nil
	}
	a.started[i] = true
	return a.screens[i].Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m, ok := msg.(tea.WindowSizeMsg); ok {
		a.width, a.height = m.Width, m.Height
		a.help.Width = m.Width
	}
	modalCmd, consumed := a.orch.Update(msg)
	if consumed {
		return a, modalCmd
	}
	if cmd := a.dialog.Update(msg); cmd != nil {
		return a, tea.Batch(modalCmd, cmd)
	}
	if a.notes.Update(msg) {
		return a, modalCmd
	}
	if m, ok := msg.(tea.KeyMsg); ok {
		return a, a.handleKey(m)
	}
	for _, s := range a.screens {
		if cmd, ok := s.Update(msg); ok {
			return a, tea.Batch(modalCmd, cmd)
		}
	}
	return a, modalCmd
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	s := a.screens[a.active]
	if s.Capturing() {
		return s.HandleKey(msg)
	}
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a.quit()
	case key.Matches(msg, a.keys.NextTab):
		return a.activate((a.active + 1) % len(a.screens))
	case key.Matches(msg, a.keys.PrevTab):
		return a.activate((a.active + len(a.screens) - 1) % len(a.screens))
	case key.Matches(msg, a.keys.Help):
		a.showHelp = !a.showHelp
		return nil
	}
	if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= len(a.screens) {
		return a.activate(n - 1)
	}
	return s.HandleKey(msg)
}

func (a *App) quit() tea.Cmd {
	for i, s := range a.screens {
		if a.opts.SaveViews && a.started[i] {
			if err := prefs.SaveView(s.Link()); err != nil {
				a.log.Warn("save view", "screen", s.Name(), "err", err)
			}
		}
		s.Close()
	}
	return tea.Quit
}

// Active is the screen currently shown.
func (a *App) Active() Screen { return a.screens[a.active] }

func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Loading…"
	}
	header := a.header()
	footer := a.footer()
	toasts := a.notes.View(min(48, a.width))
	bodyHeight := a.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if toasts != "" {
		bodyHeight -= lipgloss.Height(toasts)
	}
	body := a.screens[a.active].View(a.width, max(1, bodyHeight))
	parts := []string{header, body}
	if toasts != "" {
		parts = append(parts, lipgloss.PlaceHorizontal(a.width, lipgloss.Right, toasts))
	}
	parts = append(parts, footer)
	base := lipgloss.JoinVertical(lipgloss.Left, parts...)
	return a.orch.View(base, a.width, a.height)
}

func (a *App) header() string {
	tabs := make([]string, 0, len(a.screens))
	for i, s := range a.screens {
		label := fmt.Sprintf("%d %s", i+1, s.Title())
		if i == a.active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	title := headerAppStyle.Render("adminpanel")
	if a.opts.Identity != "" {
		title += mutedStyle.Render(" " + a.opts.Identity)
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, append([]string{title, " "}, tabs...)...)
	return headerBarStyle.Width(a.width).Render(ansi.Truncate(row, a.width, "…"))
}

func (a *App) footer() string {
	hm := helpMap{keyMap: a.keys, extra: a.screens[a.active].Bindings()}
	if a.showHelp {
		return a.help.FullHelpView(hm.FullHelp())
	}
	return statusBarStyle.Width(a.width).Render(a.help.ShortHelpView(hm.ShortHelp()))
}

// helpMap adds the active screen's row actions to the global bindings.
type helpMap struct {
	keyMap
	extra []key.Binding
}

func (h helpMap) ShortHelp() []key.Binding {
	return append(h.keyMap.ShortHelp(), h.extra...)
}

func (h helpMap) FullHelp() [][]key.Binding {
	full := h.keyMap.FullHelp()
	if len(h.extra) > 0 {
		full = append(full, h.extra)
	}
	return full
}
