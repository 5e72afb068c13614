package query

import (
	"strconv"
	"strings"
	"time"
)

// FilterVariant declares which filter editor and value shape a column accepts.
type FilterVariant string

const (
	FilterNone        FilterVariant = ""
	FilterText        FilterVariant = "text"
	FilterSelect      FilterVariant = "select"
	FilterMultiSelect FilterVariant = "multiSelect"
	FilterDate        FilterVariant = "date"
	FilterDateRange   FilterVariant = "dateRange"
	FilterBoolean     FilterVariant = "boolean"
)

type valueKind int

const (
	kindUnset valueKind = iota
	kindText
	kindList
	kindNumber
	kindDate
	kindRange
	kindBool
)

// Value is a single column filter value. The zero Value means "no filter".
type Value struct {
	kind valueKind
	text string
	list []string
	num  float64
	from time.Time
	to   time.Time
	b    bool
}

// Text builds a free-text or single-option value.
func Text(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}
	}
	return Value{kind: kindText, text: s}
}

// List builds a multi-option value. Blank entries are dropped; an empty list is unset.
func List(items ...string) Value {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		return Value{}
	}
	return Value{kind: kindList, list: out}
}

func Number(n float64) Value {
	return Value{kind: kindNumber, num: n}
}

// Date builds a single-day value. A zero time is unset.
func Date(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{kind: kindDate, from: t}
}

// Range builds a date range. Either bound may be zero for an open end; both
// zero is unset.
func Range(from, to time.Time) Value {
	if from.IsZero() && to.IsZero() {
		return Value{}
	}
	return Value{kind: kindRange, from: from, to: to}
}

func Bool(b bool) Value {
	return Value{kind: kindBool, b: b}
}

// IsSet reports whether v carries a filter.
func (v Value) IsSet() bool { return v.kind != kindUnset }

// Items returns the options of a list value.
func (v Value) Items() []string {
	if v.kind != kindList {
		return nil
	}
	return append([]string(nil), v.list...)
}

// Bounds returns the range bounds, or the single date twice for a date value.
func (v Value) Bounds() (time.Time, time.Time) {
	switch v.kind {
	case kindRange:
		return v.from, v.to
	case kindDate:
		return v.from, v.from
	}
	return time.Time{}, time.Time{}
}

// Equal compares two values by their serialized form in loc.
func (v Value) Equal(o Value, loc *time.Location) bool {
	if v.kind != o.kind {
		return false
	}
	return v.encode(loc) == o.encode(loc)
}

// accepts reports whether v has a shape compatible with the variant.
func (v Value) accepts(variant FilterVariant) bool {
	switch variant {
	case FilterText, FilterSelect:
		return v.kind == kindText || v.kind == kindNumber
	case FilterMultiSelect:
		return v.kind == kindList
	case FilterDate:
		return v.kind == kindDate
	case FilterDateRange:
		return v.kind == kindRange
	case FilterBoolean:
		return v.kind == kindBool
	}
	return false
}

// String renders the value for display (not for the wire).
func (v Value) String() string {
	return v.encode(time.Local)
}

func (v Value) encode(loc *time.Location) string {
	switch v.kind {
	case kindText:
		return v.text
	case kindList:
		return strings.Join(v.list, ",")
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindDate:
		return formatDay(v.from, loc)
	case kindRange:
		from, to := formatDay(v.from, loc), formatDay(v.to, loc)
		// Same-day ranges go out as a single date; the list endpoints expect it.
		if from == to {
			return from
		}
		return from + "," + to
	case kindBool:
		return strconv.FormatBool(v.b)
	}
	return ""
}

const dayLayout = "2006-01-02"

func formatDay(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(dayLayout)
}
