package tui

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/adminpanel/internal/confirm"
	"github.com/jask/adminpanel/internal/fetch"
	"github.com/jask/adminpanel/internal/modal"
	"github.com/jask/adminpanel/internal/notify"
	"github.com/jask/adminpanel/internal/prefs"
	"github.com/jask/adminpanel/internal/query"
	"github.com/jask/adminpanel/internal/table"
)

// Resource is the remote collection behind a screen.
type Resource[T any] interface {
	fetch.Lister[T]
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, fields map[string]any) (T, error)
	Update(ctx context.Context, id string, fields map[string]any) (T, error)
	Delete(ctx context.Context, id string) error
}

// Screen is one tab of the app.
type Screen interface {
	Name() string
	Title() string
	Init() tea.Cmd
	// Update sees every message that is not a key press and reports whether
	// it belonged to the screen.
	Update(msg tea.Msg) (tea.Cmd, bool)
	HandleKey(msg tea.KeyMsg) tea.Cmd
	// Capturing reports whether the screen is taking text input, in which
	// case app-level shortcuts are suspended.
	Capturing() bool
	View(width, height int) string
	Bindings() []key.Binding
	Link() prefs.View
	Seed(v url.Values) error
	Close()
}

type field struct {
	label string
	value string
}

// action is a row operation bound to a key. rows is the selection when there
// is one and the action takes it, else the row under the cursor.
type action[T any] struct {
	binding key.Binding
	bulk    bool
	// free actions, such as creating a record, run without a row.
	free bool
	run  func(s *entityScreen[T], rows []T) tea.Cmd
}

type entityDef[T any] struct {
	name     string
	title    string
	columns  []table.Column[T]
	rowID    func(T) string
	detail   func(T) []field
	actions  []action[T]
	syncKeys []string
}

type mutationDoneMsg struct {
	owner string
	label string
	err   error
}

var pageSizes = []int{5, 10, 25, 50, 100}

type entityScreen[T any] struct {
	def   entityDef[T]
	ctx   context.Context
	res   Resource[T]
	ctl   *table.Controller[T]
	keys  keyMap
	notes *notify.Center
	log   *slog.Logger

	search    textinput.Model
	searching bool
	cursor    int
	focus     int
	spin      spinner.Model
	spinning  bool
	link      url.Values
}

type screenEnv struct {
	ctx   context.Context
	notes *notify.Center
	table table.Options
	times timeFormat
	log   *slog.Logger
}

// timeFormat renders timestamps in the configured zone and layout.
type timeFormat struct {
	layout string
	loc    *time.Location
}

func (f timeFormat) format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	layout, loc := f.layout, f.loc
	if layout == "" {
		layout = "2006-01-02 15:04"
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(layout)
}

func newEntityScreen[T any](env screenEnv, res Resource[T], def entityDef[T]) *entityScreen[T] {
	opts := env.table
	opts.Notifier = env.notes
	opts.SyncKeys = def.syncKeys
	opts.Logger = env.log
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search " + def.title
	ti.CharLimit = 120
	logger := env.log
	if logger == nil {
		logger = slog.Default()
	}
	return &entityScreen[T]{
		def:    def,
		ctx:    env.ctx,
		res:    res,
		ctl:    table.New(env.ctx, def.columns, fetch.Lister[T](res), def.rowID, opts),
		keys:   defaultKeys(),
		notes:  env.notes,
		log:    logger.With("screen", def.name),
		search: ti,
		spin:   spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(accentStyle)),
		link:   url.Values{},
	}
}

func (s *entityScreen[T]) Name() string  { return s.def.name }
func (s *entityScreen[T]) Title() string { return s.def.title }

func (s *entityScreen[T]) Init() tea.Cmd {
	return s.track(s.ctl.Init())
}

// track starts the loading spinner when cmd issued a fetch.
func (s *entityScreen[T]) track(cmd tea.Cmd) tea.Cmd {
	if cmd == nil || !s.ctl.Loading() || s.spinning {
		return cmd
	}
	s.spinning = true
	return tea.Batch(cmd, s.spin.Tick)
}

func (s *entityScreen[T]) Update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if msg.ID != s.spin.ID() {
			return nil, false
		}
		if !s.ctl.Loading() {
			s.spinning = false
			return nil, true
		}
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(msg)
		return cmd, true
	case mutationDoneMsg:
		if msg.owner != s.ctl.ID() {
			return nil, false
		}
		if msg.err != nil {
			s.log.Warn("mutation failed", "action", msg.label, "err", msg.err)
			return s.notes.NotifyError(fmt.Errorf("%s: %w", msg.label, msg.err)), true
		}
		return tea.Batch(s.notes.Success(msg.label), s.track(s.ctl.Refetch())), true
	}
	cmd, ok := s.ctl.Update(msg)
	if ok {
		s.clampCursor()
	}
	return s.track(cmd), ok
}

func (s *entityScreen[T]) Capturing() bool { return s.searching }

func (s *entityScreen[T]) HandleKey(msg tea.KeyMsg) tea.Cmd {
	if s.searching {
		return s.searchKey(msg)
	}
	k := s.keys
	switch {
	case key.Matches(msg, k.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(msg, k.Down):
		if s.cursor < len(s.ctl.Rows())-1 {
			s.cursor++
		}
	case key.Matches(msg, k.Search):
		s.searching = true
		s.search.SetValue(s.ctl.SearchInput())
		s.search.CursorEnd()
		return s.search.Focus()
	case key.Matches(msg, k.NextPage):
		return s.track(s.ctl.NextPage())
	case key.Matches(msg, k.PrevPage):
		return s.track(s.ctl.PrevPage())
	case key.Matches(msg, k.Grow):
		return s.resize(+1)
	case key.Matches(msg, k.Shrink):
		return s.resize(-1)
	case key.Matches(msg, k.ColLeft):
		if s.focus > 0 {
			s.focus--
		}
	case key.Matches(msg, k.ColRight):
		if s.focus < len(s.ctl.VisibleColumns())-1 {
			s.focus++
		}
	case key.Matches(msg, k.Sort):
		return s.sortFocused()
	case key.Matches(msg, k.Filter):
		return s.openFilter()
	case key.Matches(msg, k.Clear):
		return s.track(s.ctl.ClearFilters())
	case key.Matches(msg, k.Columns):
		return s.openColumns()
	case key.Matches(msg, k.Refetch):
		return s.track(s.ctl.Refetch())
	case key.Matches(msg, k.Detail):
		if row, ok := s.current(); ok && s.def.detail != nil {
			return openDetail(s.ctx, s.def.title, s.def.detail(row))
		}
	case key.Matches(msg, k.Select):
		if row, ok := s.current(); ok {
			s.ctl.Toggle(row)
		}
	case key.Matches(msg, k.SelectAll):
		s.ctl.TogglePage()
	default:
		for _, a := range s.def.actions {
			if key.Matches(msg, a.binding) {
				rows := s.targets(a.bulk)
				if len(rows) == 0 && !a.free {
					return nil
				}
				return a.run(s, rows)
			}
		}
	}
	return nil
}

func (s *entityScreen[T]) searchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		s.searching = false
		s.search.Blur()
		return nil
	case "enter":
		s.searching = false
		s.search.Blur()
		return s.track(s.ctl.FlushSearch())
	}
	before := s.search.Value()
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(msg)
	if s.search.Value() == before {
		return cmd
	}
	return tea.Batch(cmd, s.ctl.SetSearch(s.search.Value()))
}

func (s *entityScreen[T]) resize(step int) tea.Cmd {
	cur := s.ctl.Page().Size
	next := cur
	if step > 0 {
		for _, n := range pageSizes {
			if n > cur {
				next = n
				break
			}
		}
	} else {
		for i := len(pageSizes) - 1; i >= 0; i-- {
			if pageSizes[i] < cur {
				next = pageSizes[i]
				break
			}
		}
	}
	if next == cur {
		return nil
	}
	cmd, err := s.ctl.SetPageSize(next)
	if err != nil {
		return s.notes.NotifyError(err)
	}
	s.cursor = 0
	return s.track(cmd)
}

func (s *entityScreen[T]) focused() (table.Column[T], bool) {
	cols := s.ctl.VisibleColumns()
	if len(cols) == 0 {
		return table.Column[T]{}, false
	}
	s.focus = max(0, min(s.focus, len(cols)-1))
	return cols[s.focus], true
}

func (s *entityScreen[T]) sortFocused() tea.Cmd {
	col, ok := s.focused()
	if !ok {
		return nil
	}
	if !col.Sortable {
		return s.notes.Info(col.Label + " cannot be sorted")
	}
	cmd, err := s.ctl.ToggleSort(col.ID)
	if err != nil {
		return s.notes.NotifyError(err)
	}
	return s.track(cmd)
}

func (s *entityScreen[T]) current() (T, bool) {
	rows := s.ctl.Rows()
	if s.cursor < 0 || s.cursor >= len(rows) {
		var zero T
		return zero, false
	}
	return rows[s.cursor], true
}

// targets resolves the rows an action applies to. Selected ids that are not
// on the current page are skipped.
func (s *entityScreen[T]) targets(bulk bool) []T {
	if bulk {
		if ids := s.ctl.Selected(); len(ids) > 0 {
			var rows []T
			for _, r := range s.ctl.Rows() {
				if s.ctl.IsSelected(r) {
					rows = append(rows, r)
				}
			}
			if len(rows) > 0 {
				return rows
			}
		}
	}
	if row, ok := s.current(); ok {
		return []T{row}
	}
	return nil
}

func (s *entityScreen[T]) clampCursor() {
	if n := len(s.ctl.Rows()); s.cursor >= n {
		s.cursor = max(0, n-1)
	}
}

func (s *entityScreen[T]) Bindings() []key.Binding {
	out := make([]key.Binding, 0, len(s.def.actions))
	for _, a := range s.def.actions {
		out = append(out, a.binding)
	}
	return out
}

// Link is the screen's shareable view: the seeded link with the synced
// parameters rewritten to the current state.
func (s *entityScreen[T]) Link() prefs.View {
	return prefs.View{Screen: s.def.name, Query: s.ctl.Mirror(s.link).Encode()}
}

func (s *entityScreen[T]) Seed(v url.Values) error {
	s.link = v
	return s.ctl.Seed(v)
}

func (s *entityScreen[T]) Close() { s.ctl.Close() }

// mutate runs fn off the update loop and reports back with label.
func (s *entityScreen[T]) mutate(label string, fn func(ctx context.Context) error) tea.Cmd {
	owner, ctx := s.ctl.ID(), s.ctx
	return func() tea.Msg {
		return mutationDoneMsg{owner: owner, label: label, err: fn(ctx)}
	}
}

// confirmThen asks first, runs act inside the dialog and reloads on success.
func (s *entityScreen[T]) confirmThen(opts confirm.Options, success string) tea.Cmd {
	return confirm.FromContext(s.ctx).Confirm(opts, func(ok bool) tea.Cmd {
		if !ok {
			return nil
		}
		s.ctl.ClearSelection()
		return tea.Batch(s.notes.Success(success), s.track(s.ctl.Refetch()))
	})
}

func (s *entityScreen[T]) openFilter() tea.Cmd {
	col, ok := s.focused()
	if !ok {
		return nil
	}
	if col.Filter == query.FilterNone {
		return s.notes.Info(col.Label + " cannot be filtered")
	}
	current := ""
	if v, ok := s.ctl.Filter(col.ID); ok {
		current = v.String()
	}
	data := filterData{column: col.ColumnDef, label: col.Label, current: current}
	return modal.FromContext(s.ctx).Open(newFilterEditor, data, modal.Options{Title: "Filter " + col.Label, ShowCloseButton: true}, func(result any) tea.Cmd {
		raw, ok := result.(string)
		if !ok {
			return nil
		}
		v, err := s.ctl.Query().ParseFilter(col.ID, raw)
		if err != nil {
			return s.notes.NotifyError(err)
		}
		cmd, err := s.ctl.SetFilter(col.ID, v)
		if err != nil {
			return s.notes.NotifyError(err)
		}
		s.cursor = 0
		return cmd
	})
}

func (s *entityScreen[T]) openColumns() tea.Cmd {
	cols := s.ctl.Columns()
	states := make([]columnState, 0, len(cols))
	for _, c := range cols {
		states = append(states, columnState{id: c.ID, label: c.Label, hidden: c.Hidden, pinned: c.Pinned})
	}
	return modal.FromContext(s.ctx).Open(newColumnChooser, states, modal.Options{Title: "Columns", ShowCloseButton: true}, func(result any) tea.Cmd {
		chosen, ok := result.([]columnState)
		if !ok {
			return nil
		}
		for _, c := range chosen {
			if err := s.ctl.SetHidden(c.id, c.hidden); err != nil {
				return s.notes.NotifyError(err)
			}
			if err := s.ctl.SetPinned(c.id, c.pinned); err != nil {
				return s.notes.NotifyError(err)
			}
		}
		s.focus = 0
		return nil
	})
}

// openForm collects fields in a modal and submits them through fn.
func (s *entityScreen[T]) openForm(title string, fields []formField, success string, fn func(ctx context.Context, values map[string]any) error) tea.Cmd {
	return modal.FromContext(s.ctx).Open(newForm, fields, modal.Options{Title: title, Size: modal.Large, ShowCloseButton: true}, func(result any) tea.Cmd {
		values, ok := result.(map[string]any)
		if !ok {
			return nil
		}
		return s.mutate(success, func(ctx context.Context) error { return fn(ctx, values) })
	})
}
