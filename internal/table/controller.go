// Package table binds a query model, debounced input and a fetch coordinator
// into the controller behind one remote-data table screen.
package table

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jask/adminpanel/internal/debounce"
	"github.com/jask/adminpanel/internal/fetch"
	"github.com/jask/adminpanel/internal/notify"
	"github.com/jask/adminpanel/internal/query"
)

// Column describes one table column. The embedded ColumnDef is what the
// server sees; the rest is local chrome.
type Column[T any] struct {
	query.ColumnDef
	Label  string
	Value  func(T) string
	Width  int
	Hidden bool
	Pinned bool
}

type Options struct {
	PageSize int
	// Debounce is the quiescence window for search and filter input.
	// Negative selects debounce.DefaultWindow.
	Debounce time.Duration
	Timeout  time.Duration
	Location *time.Location
	Notifier notify.Notifier
	Logger   *slog.Logger
	// SyncKeys are the parameters Seed and Mirror exchange with a view link.
	// Empty means all of them.
	SyncKeys []string
}

type Controller[T any] struct {
	id      string
	cols    []Column[T]
	rowID   func(T) string
	q       *query.Model
	fetch   *fetch.Coordinator[T]
	search  *debounce.Gate[string]
	filters *debounce.Gate[struct{}]
	staged  map[string]query.Value
	syncKey []string

	selected map[string]bool
	started  bool
	log      *slog.Logger
}

// New builds a controller for rows of T read through lister. rowID gives the
// identity rows are selected by; it must be stable across pages.
func New[T any](ctx context.Context, cols []Column[T], lister fetch.Lister[T], rowID func(T) string, opts Options) *Controller[T] {
	defs := make([]query.ColumnDef, 0, len(cols))
	for _, c := range cols {
		defs = append(defs, c.ColumnDef)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	q := query.New(defs, opts.PageSize)
	q.SetLocation(opts.Location)
	c := &Controller[T]{
		id:    id,
		cols:  append([]Column[T](nil), cols...),
		rowID: rowID,
		q:     q,
		fetch: fetch.New(ctx, id, lister, fetch.Options{
			Timeout:  opts.Timeout,
			Notifier: opts.Notifier,
			Logger:   logger,
		}),
		search:   debounce.New[string](opts.Debounce),
		filters:  debounce.New[struct{}](opts.Debounce),
		staged:   map[string]query.Value{},
		syncKey:  opts.SyncKeys,
		selected: map[string]bool{},
		log:      logger.With("component", "table"),
	}
	if len(c.syncKey) == 0 {
		c.syncKey = append(c.syncKey, query.ParamSearch, query.ParamSort, query.ParamPage, query.ParamPerPage)
		for _, d := range defs {
			if d.Filter != query.FilterNone {
				c.syncKey = append(c.syncKey, d.ID)
			}
		}
	}
	return c
}

// Init issues the first fetch.
func (c *Controller[T]) Init() tea.Cmd {
	return c.sync(true)
}

// Update routes debounce ticks and fetch results addressed to this controller.
// It reports whether msg was one of them.
func (c *Controller[T]) Update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case debounce.FiredMsg:
		if c.search.Owns(msg) {
			s, ok := c.search.Resolve(msg)
			if !ok {
				return nil, true
			}
			c.q.SetSearch(s)
			return c.sync(false), true
		}
		if c.filters.Owns(msg) {
			if _, ok := c.filters.Resolve(msg); !ok {
				return nil, true
			}
			return c.applyStaged(), true
		}
	case fetch.ResultMsg[T]:
		if !c.fetch.Owns(msg) {
			return nil, false
		}
		committed, cmd := c.fetch.Commit(msg)
		if !committed || msg.Err != nil {
			return cmd, true
		}
		if c.q.SetTotalPages(c.fetch.PageCount()) {
			// The result set shrank under the current page.
			c.log.Debug("page clamped", "page", c.q.Page().Index, "pages", c.q.TotalPages())
			return c.sync(false), true
		}
		return cmd, true
	}
	return nil, false
}

// sync issues a fetch when the serialized query differs from the last issued
// one, or unconditionally when force is set.
func (c *Controller[T]) sync(force bool) tea.Cmd {
	p := c.q.Params()
	if !force && c.started && p.Equal(c.fetch.Issued()) {
		return nil
	}
	c.started = true
	return c.fetch.Issue(p)
}

// Refetch starts a new fetch cycle with unchanged parameters, as after a
// successful edit.
func (c *Controller[T]) Refetch() tea.Cmd {
	return c.sync(true)
}

// SetSearch arms the search debounce. The value reaches the query when the
// input has been quiet for the debounce window.
func (c *Controller[T]) SetSearch(s string) tea.Cmd {
	return c.search.Arm(s)
}

// FlushSearch applies any pending search text now.
func (c *Controller[T]) FlushSearch() tea.Cmd {
	s, ok := c.search.Flush()
	if !ok {
		return nil
	}
	c.q.SetSearch(s)
	return c.sync(false)
}

// SearchInput returns the search text as typed, pending or applied.
func (c *Controller[T]) SearchInput() string {
	if s, ok := c.search.Pending(); ok {
		return s
	}
	return c.q.Search()
}

// SetFilter validates v against column id and stages it. Staged filters reach
// the query together once the debounce window passes; an invalid value is
// rejected here and never staged.
func (c *Controller[T]) SetFilter(id string, v query.Value) (tea.Cmd, error) {
	if err := c.q.Validate(id, v); err != nil {
		return nil, err
	}
	c.staged[id] = v
	return c.filters.Arm(struct{}{}), nil
}

// ApplyFilter sets a filter immediately, bypassing the debounce.
func (c *Controller[T]) ApplyFilter(id string, v query.Value) (tea.Cmd, error) {
	if err := c.q.SetFilter(id, v); err != nil {
		return nil, err
	}
	delete(c.staged, id)
	return c.sync(false), nil
}

func (c *Controller[T]) applyStaged() tea.Cmd {
	ids := make([]string, 0, len(c.staged))
	for id := range c.staged {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := c.q.SetFilter(id, c.staged[id]); err != nil {
			c.log.Warn("staged filter rejected", "column", id, "err", err)
		}
	}
	c.staged = map[string]query.Value{}
	return c.sync(false)
}

// Filter returns the filter on id, staged or applied.
func (c *Controller[T]) Filter(id string) (query.Value, bool) {
	if v, ok := c.staged[id]; ok {
		return v, v.IsSet()
	}
	return c.q.Filter(id)
}

// ClearFilters drops applied and staged filters at once.
func (c *Controller[T]) ClearFilters() tea.Cmd {
	c.filters.Cancel()
	c.staged = map[string]query.Value{}
	c.q.ClearFilters()
	return c.sync(false)
}

// SetSort replaces the sort sequence.
func (c *Controller[T]) SetSort(seq []query.Sort) (tea.Cmd, error) {
	if err := c.q.SetSort(seq); err != nil {
		return nil, err
	}
	return c.sync(false), nil
}

// ToggleSort cycles column id through asc, desc and unsorted, making it the
// only sort key.
func (c *Controller[T]) ToggleSort(id string) (tea.Cmd, error) {
	var next []query.Sort
	cur := c.q.Sort()
	switch {
	case len(cur) == 0 || cur[0].Column != id:
		next = []query.Sort{{Column: id, Direction: query.Asc}}
	case cur[0].Direction == query.Asc:
		next = []query.Sort{{Column: id, Direction: query.Desc}}
	}
	return c.SetSort(next)
}

func (c *Controller[T]) SetPage(index int) tea.Cmd {
	c.q.SetPage(index)
	return c.sync(false)
}

func (c *Controller[T]) NextPage() tea.Cmd { return c.SetPage(c.q.Page().Index + 1) }

func (c *Controller[T]) PrevPage() tea.Cmd { return c.SetPage(c.q.Page().Index - 1) }

// SetPageSize changes the page size; the index returns to the first page
// before the next fetch is issued.
func (c *Controller[T]) SetPageSize(size int) (tea.Cmd, error) {
	if err := c.q.SetPageSize(size); err != nil {
		return nil, err
	}
	return c.sync(false), nil
}

// Seed loads the sync keys from a view link's parameters.
func (c *Controller[T]) Seed(v url.Values) error {
	return c.q.Seed(v, c.syncKey...)
}

// Mirror writes the sync keys into a copy of v, keeping its other keys.
func (c *Controller[T]) Mirror(v url.Values) url.Values {
	return c.q.Mirror(v, c.syncKey...)
}

// Close cancels pending debounced input. Ticks still in flight resolve to
// nothing.
func (c *Controller[T]) Close() {
	c.search.Cancel()
	c.filters.Cancel()
	c.staged = map[string]query.Value{}
}

func (c *Controller[T]) ID() string { return c.id }

// Query exposes the query model for reading. Mutate through the controller.
func (c *Controller[T]) Query() *query.Model { return c.q }

func (c *Controller[T]) Params() query.Params { return c.q.Params() }

func (c *Controller[T]) Sort() []query.Sort { return c.q.Sort() }

func (c *Controller[T]) Page() query.Pagination { return c.q.Page() }

func (c *Controller[T]) PageCount() int { return c.fetch.PageCount() }

func (c *Controller[T]) Loading() bool { return c.fetch.Loading() }

func (c *Controller[T]) Rows() []T { return c.fetch.Items() }

func (c *Controller[T]) Meta() *fetch.Meta { return c.fetch.Meta() }

func (c *Controller[T]) Err() error { return c.fetch.Err() }

// Issued returns the parameters of the latest fetch.
func (c *Controller[T]) Issued() query.Params { return c.fetch.Issued() }

// Columns returns every column in declaration order.
func (c *Controller[T]) Columns() []Column[T] {
	return append([]Column[T](nil), c.cols...)
}

// VisibleColumns returns the shown columns, pinned ones first, each group in
// declaration order.
func (c *Controller[T]) VisibleColumns() []Column[T] {
	var pinned, rest []Column[T]
	for _, col := range c.cols {
		switch {
		case col.Hidden:
		case col.Pinned:
			pinned = append(pinned, col)
		default:
			rest = append(rest, col)
		}
	}
	return append(pinned, rest...)
}

func (c *Controller[T]) SetHidden(id string, hidden bool) error {
	i, err := c.column(id)
	if err != nil {
		return err
	}
	c.cols[i].Hidden = hidden
	return nil
}

func (c *Controller[T]) SetPinned(id string, pinned bool) error {
	i, err := c.column(id)
	if err != nil {
		return err
	}
	c.cols[i].Pinned = pinned
	return nil
}

func (c *Controller[T]) column(id string) (int, error) {
	for i, col := range c.cols {
		if col.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", query.ErrUnknownColumn, id)
}

// Toggle flips the selection of row.
func (c *Controller[T]) Toggle(row T) {
	id := c.rowID(row)
	if c.selected[id] {
		delete(c.selected, id)
	} else {
		c.selected[id] = true
	}
}

func (c *Controller[T]) IsSelected(row T) bool {
	return c.selected[c.rowID(row)]
}

// TogglePage selects every row of the current page, or clears them when all
// are already selected.
func (c *Controller[T]) TogglePage() {
	rows := c.fetch.Items()
	all := len(rows) > 0
	for _, r := range rows {
		if !c.selected[c.rowID(r)] {
			all = false
			break
		}
	}
	for _, r := range rows {
		if all {
			delete(c.selected, c.rowID(r))
		} else {
			c.selected[c.rowID(r)] = true
		}
	}
}

// Selected returns the selected row ids in sorted order. Selection survives
// paging: ids may refer to rows not on the current page.
func (c *Controller[T]) Selected() []string {
	ids := make([]string, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Controller[T]) ClearSelection() {
	c.selected = map[string]bool{}
}
