package query

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func paymentColumns() []ColumnDef {
	return []ColumnDef{
		{ID: "reference", Filter: FilterText, Sortable: true},
		{ID: "status", Filter: FilterSelect, Options: []Option{{Value: "paid"}, {Value: "pending"}, {Value: "failed"}}},
		{ID: "method", Filter: FilterMultiSelect},
		{ID: "paid_on", Filter: FilterDate},
		{ID: "created_at", Filter: FilterDateRange, Sortable: true},
		{ID: "refunded", Filter: FilterBoolean},
		{ID: "amount", Sortable: true},
	}
}

func newModel(t *testing.T) *Model {
	t.Helper()
	m := New(paymentColumns(), 10)
	m.SetLocation(time.UTC)
	return m
}

func TestParamsDefaults(t *testing.T) {
	m := newModel(t)
	require.Equal(t, Params{"page": "1", "per_page": "10"}, m.Params())
}

func TestParamsDeterministic(t *testing.T) {
	m := newModel(t)
	require.NoError(t, m.SetFilter("method", List("card", "bank")))
	require.NoError(t, m.SetFilter("status", Text("paid")))
	require.NoError(t, m.SetSort([]Sort{{Column: "created_at", Direction: Desc}, {Column: "amount", Direction: Asc}}))
	m.SetSearch("acme")

	first := m.Params()
	second := m.Params()
	require.Equal(t, first, second)
	require.Equal(t, first.Encode(), second.Encode())
	require.Equal(t, "card,bank", first["method"])
	require.Equal(t, "created_at:desc,amount:asc", first["sort"])
	require.Equal(t, "acme", first["search"])
}

func TestSortSerialization(t *testing.T) {
	m := newModel(t)
	require.NoError(t, m.SetSort([]Sort{{Column: "created_at", Direction: Desc}}))
	require.Equal(t, "created_at:desc", m.Params()["sort"])

	require.NoError(t, m.SetSort(nil))
	_, ok := m.Params()["sort"]
	require.False(t, ok, "empty sort must be omitted")
}

func TestDateRangeSameDayCollapses(t *testing.T) {
	m := newModel(t)
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, m.SetFilter("created_at", Range(day, day)))
	require.Equal(t, "2024-01-05", m.Params()["created_at"])

	require.NoError(t, m.SetFilter("created_at", Range(day, day.AddDate(0, 0, 5))))
	require.Equal(t, "2024-01-05,2024-01-10", m.Params()["created_at"])
}

func TestDateRangeOpenEndsAndOrder(t *testing.T) {
	m := newModel(t)
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, m.SetFilter("created_at", Range(day, time.Time{})))
	require.Equal(t, "2024-01-05,", m.Params()["created_at"])
	require.NoError(t, m.SetFilter("created_at", Range(time.Time{}, day)))
	require.Equal(t, ",2024-01-05", m.Params()["created_at"])

	require.ErrorIs(t, m.SetFilter("created_at", Range(day, day.AddDate(0, 0, -1))), ErrShapeMismatch)
	require.Equal(t, ",2024-01-05", m.Params()["created_at"])
}

func TestDatesUseModelLocation(t *testing.T) {
	m := New(paymentColumns(), 10)
	loc := time.FixedZone("AEDT", 11*3600)
	m.SetLocation(loc)
	// 20:00 UTC on the 4th is already the 5th in a +11 zone.
	require.NoError(t, m.SetFilter("paid_on", Date(time.Date(2024, 1, 4, 20, 0, 0, 0, time.UTC))))
	require.Equal(t, "2024-01-05", m.Params()["paid_on"])
}

func TestClearFilterRemovesKey(t *testing.T) {
	m := newModel(t)
	require.NoError(t, m.SetFilter("reference", Text("INV-1")))
	require.Contains(t, m.Params(), "reference")

	require.NoError(t, m.SetFilter("reference", Value{}))
	require.NotContains(t, m.Params(), "reference")

	require.NoError(t, m.SetFilter("method", List("card")))
	require.NoError(t, m.SetFilter("method", List()))
	require.NotContains(t, m.Params(), "method")

	require.NoError(t, m.SetFilter("reference", Text("   ")))
	_, ok := m.Filter("reference")
	require.False(t, ok)
}

func TestSetFilterRejectsMismatchedShapes(t *testing.T) {
	m := newModel(t)
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	require.ErrorIs(t, m.SetFilter("method", Text("card")), ErrShapeMismatch)
	require.ErrorIs(t, m.SetFilter("paid_on", Range(day, day)), ErrShapeMismatch)
	require.ErrorIs(t, m.SetFilter("created_at", Date(day)), ErrShapeMismatch)
	require.ErrorIs(t, m.SetFilter("refunded", Text("yes")), ErrShapeMismatch)
	require.ErrorIs(t, m.SetFilter("status", Text("lost")), ErrShapeMismatch)
	require.ErrorIs(t, m.SetFilter("amount", Number(3)), ErrNotFilterable)
	require.Empty(t, m.Filters())
}

func TestUnknownColumnSuggestsClosest(t *testing.T) {
	m := newModel(t)
	err := m.SetFilter("stauts", Text("paid"))
	require.ErrorIs(t, err, ErrUnknownColumn)
	require.Contains(t, err.Error(), `did you mean "status"`)

	err = m.SetSort([]Sort{{Column: "zzzzzzzzzz", Direction: Asc}})
	require.ErrorIs(t, err, ErrUnknownColumn)
	require.NotContains(t, err.Error(), "did you mean")
}

func TestSetSortValidation(t *testing.T) {
	m := newModel(t)
	require.ErrorIs(t, m.SetSort([]Sort{{Column: "status", Direction: Asc}}), ErrNotSortable)
	require.ErrorIs(t, m.SetSort([]Sort{{Column: "amount", Direction: "up"}}), ErrInvalidDirection)
	require.ErrorIs(t, m.SetSort([]Sort{{Column: "amount", Direction: Asc}, {Column: "amount", Direction: Desc}}), ErrDuplicateSort)
}

func TestFilterAndSortChangesResetPage(t *testing.T) {
	m := newModel(t)
	m.SetTotalPages(10)

	m.SetPage(4)
	require.NoError(t, m.SetFilter("status", Text("paid")))
	require.Equal(t, 0, m.Page().Index)

	m.SetPage(4)
	require.NoError(t, m.SetSort([]Sort{{Column: "amount", Direction: Desc}}))
	require.Equal(t, 0, m.Page().Index)

	m.SetPage(4)
	m.SetSearch("x")
	require.Equal(t, 0, m.Page().Index)

	m.SetPage(4)
	m.ClearFilters()
	require.Equal(t, 0, m.Page().Index)
}

func TestPageSizeChangeResetsIndex(t *testing.T) {
	m := newModel(t)
	m.SetTotalPages(8)
	m.SetPage(3)
	require.Equal(t, "4", m.Params()["page"])

	require.NoError(t, m.SetPageSize(25))
	require.Equal(t, Pagination{Index: 0, Size: 25}, m.Page())
	require.Equal(t, "1", m.Params()["page"])
	require.Equal(t, "25", m.Params()["per_page"])

	require.ErrorIs(t, m.SetPageSize(0), ErrInvalidPageSize)
}

func TestPageClamping(t *testing.T) {
	m := newModel(t)
	m.SetPage(-3)
	require.Equal(t, 0, m.Page().Index)

	// Unknown total: any non-negative index is allowed.
	m.SetPage(7)
	require.Equal(t, 7, m.Page().Index)

	require.True(t, m.SetTotalPages(3))
	require.Equal(t, 2, m.Page().Index)

	m.SetPage(99)
	require.Equal(t, 2, m.Page().Index)
	require.False(t, m.SetTotalPages(5))
}

func TestEmptyResultPinsFirstPage(t *testing.T) {
	m := newModel(t)
	m.SetPage(3)

	require.True(t, m.SetTotalPages(0))
	require.Equal(t, 0, m.Page().Index)
	require.Equal(t, "1", m.Params()["page"])

	m.SetPage(1)
	require.Equal(t, 0, m.Page().Index)
	require.False(t, m.SetTotalPages(0))
}

func TestNewPanicsOnReservedColumn(t *testing.T) {
	require.Panics(t, func() { New([]ColumnDef{{ID: "page"}}, 10) })
	require.Panics(t, func() { New([]ColumnDef{{ID: "a"}, {ID: "a"}}, 10) })
}

func TestSeedAndMirror(t *testing.T) {
	m := newModel(t)
	keys := []string{"search", "status", "method", "created_at", "sort", "page", "per_page"}
	v, err := url.ParseQuery("status=paid&method=card,bank&created_at=2024-01-05&sort=created_at:desc&page=3&per_page=25&tab=payments")
	require.NoError(t, err)

	require.NoError(t, m.Seed(v, keys...))
	require.Equal(t, Pagination{Index: 2, Size: 25}, m.Page())
	require.Equal(t, []Sort{{Column: "created_at", Direction: Desc}}, m.Sort())
	p := m.Params()
	require.Equal(t, "paid", p["status"])
	require.Equal(t, "card,bank", p["method"])
	require.Equal(t, "2024-01-05", p["created_at"])
	require.NotContains(t, p, "tab")

	require.NoError(t, m.SetFilter("status", Value{}))
	out := m.Mirror(v, keys...)
	require.Equal(t, "payments", out.Get("tab"), "unrelated parameters survive")
	require.False(t, out.Has("status"))
	require.Equal(t, "1", out.Get("page"))
	require.Equal(t, "paid", v.Get("status"), "input values are not mutated")
}

func TestSeedReportsInvalidEntries(t *testing.T) {
	m := newModel(t)
	v := url.Values{}
	v.Set("status", "lost")
	v.Set("reference", "INV-9")
	v.Set("per_page", "zero")

	err := m.Seed(v, "status", "reference", "per_page")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrShapeMismatch)
	require.ErrorIs(t, err, ErrInvalidPageSize)
	require.Equal(t, "INV-9", m.Params()["reference"])
}

func TestDecodeSort(t *testing.T) {
	require.Equal(t, []Sort{{Column: "a", Direction: Asc}, {Column: "b", Direction: Desc}}, DecodeSort("a, b:DESC,"))
	require.Nil(t, DecodeSort(""))
}
