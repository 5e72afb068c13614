// Package query holds the filter, sort and pagination state of one remote
// table and its deterministic serialization to transport parameters.
package query

import (
	"fmt"
	"strings"
	"time"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort orders results by one column. In a sequence the first entry is primary.
type Sort struct {
	Column    string
	Direction Direction
}

// Option is one choice of a select or multiSelect column.
type Option struct {
	Value string
	Label string
}

// ColumnDef is the server-facing part of a column: what can be filtered and
// sorted and how.
type ColumnDef struct {
	ID       string
	Filter   FilterVariant
	Options  []Option
	Sortable bool
}

// Pagination is the 0-based page index and page size.
type Pagination struct {
	Index int
	Size  int
}

const DefaultPageSize = 10

// reserved parameter names that columns may not shadow.
var reserved = map[string]bool{
	ParamPage:    true,
	ParamPerPage: true,
	ParamSort:    true,
	ParamSearch:  true,
}

// Model is the query state of one table. It is not safe for concurrent use;
// it lives on the UI event loop.
type Model struct {
	columns    map[string]ColumnDef
	order      []string
	filters    map[string]Value
	search     string
	sort       []Sort
	page       Pagination
	totalPages int
	totalKnown bool
	loc        *time.Location
}

// New builds a Model for the given columns. It panics when a column id is
// empty, duplicated, or collides with a reserved parameter name: column sets
// are static and such a collision is a wiring bug.
func New(cols []ColumnDef, pageSize int) *Model {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	m := &Model{
		columns: make(map[string]ColumnDef, len(cols)),
		filters: map[string]Value{},
		page:    Pagination{Size: pageSize},
		loc:     time.Local,
	}
	for _, c := range cols {
		switch {
		case c.ID == "":
			panic("query: column with empty id")
		case reserved[c.ID]:
			panic(fmt.Sprintf("query: column id %q shadows a reserved parameter", c.ID))
		}
		if _, dup := m.columns[c.ID]; dup {
			panic(fmt.Sprintf("query: duplicate column id %q", c.ID))
		}
		m.columns[c.ID] = c
		m.order = append(m.order, c.ID)
	}
	return m
}

// SetLocation sets the zone used to turn dates into calendar days. Nil means
// time.Local.
func (m *Model) SetLocation(loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	m.loc = loc
}

func (m *Model) Location() *time.Location { return m.loc }

// Column returns the definition for id.
func (m *Model) Column(id string) (ColumnDef, bool) {
	c, ok := m.columns[id]
	return c, ok
}

// Validate checks that v may be stored as the filter for column id without
// mutating anything. An unset v is always valid for a filterable column.
func (m *Model) Validate(id string, v Value) error {
	col, ok := m.columns[id]
	if !ok {
		return unknownColumn(id, m.order)
	}
	if col.Filter == FilterNone {
		return fmt.Errorf("%w: %s", ErrNotFilterable, id)
	}
	if !v.IsSet() {
		return nil
	}
	if !v.accepts(col.Filter) {
		return fmt.Errorf("%w: %s is %s", ErrShapeMismatch, id, col.Filter)
	}
	if from, to := v.Bounds(); v.kind == kindRange && !from.IsZero() && !to.IsZero() &&
		formatDay(from, m.loc) > formatDay(to, m.loc) {
		return fmt.Errorf("%w: %s starts after it ends", ErrShapeMismatch, id)
	}
	if col.Filter == FilterSelect && len(col.Options) > 0 && !hasOption(col.Options, v.encode(m.loc)) {
		return fmt.Errorf("%w: %q is not an option of %s", ErrShapeMismatch, v.encode(m.loc), id)
	}
	if col.Filter == FilterMultiSelect && len(col.Options) > 0 {
		for _, it := range v.list {
			if !hasOption(col.Options, it) {
				return fmt.Errorf("%w: %q is not an option of %s", ErrShapeMismatch, it, id)
			}
		}
	}
	return nil
}

// SetFilter replaces or clears the filter on column id and resets the page
// index. Clearing removes the key entirely.
func (m *Model) SetFilter(id string, v Value) error {
	if err := m.Validate(id, v); err != nil {
		return err
	}
	if v.IsSet() {
		m.filters[id] = v
	} else {
		delete(m.filters, id)
	}
	m.page.Index = 0
	return nil
}

// ClearFilters drops every column filter and resets the page index.
func (m *Model) ClearFilters() {
	m.filters = map[string]Value{}
	m.page.Index = 0
}

// Filter returns the active filter for id.
func (m *Model) Filter(id string) (Value, bool) {
	v, ok := m.filters[id]
	return v, ok
}

// Filters returns a copy of the active filters.
func (m *Model) Filters() map[string]Value {
	out := make(map[string]Value, len(m.filters))
	for k, v := range m.filters {
		out[k] = v
	}
	return out
}

// SetSearch sets the free-text search and resets the page index.
func (m *Model) SetSearch(s string) {
	m.search = strings.TrimSpace(s)
	m.page.Index = 0
}

func (m *Model) Search() string { return m.search }

// SetSort replaces the whole sort sequence and resets the page index.
func (m *Model) SetSort(seq []Sort) error {
	seen := make(map[string]bool, len(seq))
	for _, s := range seq {
		col, ok := m.columns[s.Column]
		if !ok {
			return unknownColumn(s.Column, m.order)
		}
		if !col.Sortable {
			return fmt.Errorf("%w: %s", ErrNotSortable, s.Column)
		}
		if s.Direction != Asc && s.Direction != Desc {
			return fmt.Errorf("%w: got %q", ErrInvalidDirection, s.Direction)
		}
		if seen[s.Column] {
			return fmt.Errorf("%w: %s", ErrDuplicateSort, s.Column)
		}
		seen[s.Column] = true
	}
	m.sort = append([]Sort(nil), seq...)
	m.page.Index = 0
	return nil
}

// Sort returns a copy of the sort sequence.
func (m *Model) Sort() []Sort {
	return append([]Sort(nil), m.sort...)
}

// SetPage moves to page index, clamped to the known page range. Before the
// first result any non-negative index is allowed.
func (m *Model) SetPage(index int) {
	m.page.Index = m.clamp(index)
}

// SetPageSize changes the page size and returns to the first page.
func (m *Model) SetPageSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPageSize, size)
	}
	m.page.Size = size
	m.page.Index = 0
	return nil
}

// SetTotalPages records the server-reported page count. It reports whether
// the current index had to be clamped into the new range.
func (m *Model) SetTotalPages(n int) bool {
	if n < 0 {
		n = 0
	}
	m.totalPages = n
	m.totalKnown = true
	clamped := m.clamp(m.page.Index)
	if clamped != m.page.Index {
		m.page.Index = clamped
		return true
	}
	return false
}

func (m *Model) TotalPages() int { return m.totalPages }

func (m *Model) Page() Pagination { return m.page }

func (m *Model) clamp(index int) int {
	if index < 0 {
		return 0
	}
	if !m.totalKnown {
		return index
	}
	// An empty result set still has a first page.
	return min(index, max(m.totalPages-1, 0))
}

func hasOption(opts []Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}
