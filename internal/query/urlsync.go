package query

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ParseFilter parses the wire form of a filter for column id, the inverse of
// serialization. Empty input yields an unset Value.
func (m *Model) ParseFilter(id, raw string) (Value, error) {
	col, ok := m.columns[id]
	if !ok {
		return Value{}, unknownColumn(id, m.order)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Value{}, nil
	}
	switch col.Filter {
	case FilterText, FilterSelect:
		return Text(raw), nil
	case FilterMultiSelect:
		return List(strings.Split(raw, ",")...), nil
	case FilterDate:
		d, err := m.ParseDay(raw)
		if err != nil {
			return Value{}, err
		}
		return Date(d), nil
	case FilterDateRange:
		fromRaw, toRaw, found := strings.Cut(raw, ",")
		if !found {
			toRaw = fromRaw
		}
		var from, to time.Time
		var err error
		if s := strings.TrimSpace(fromRaw); s != "" {
			if from, err = m.ParseDay(s); err != nil {
				return Value{}, err
			}
		}
		if s := strings.TrimSpace(toRaw); s != "" {
			if to, err = m.ParseDay(s); err != nil {
				return Value{}, err
			}
		}
		return Range(from, to), nil
	case FilterBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %s expects true or false", ErrShapeMismatch, id)
		}
		return Bool(b), nil
	}
	return Value{}, fmt.Errorf("%w: %s", ErrNotFilterable, id)
}

// ParseDay parses YYYY-MM-DD as a calendar day in the model's location.
func (m *Model) ParseDay(raw string) (time.Time, error) {
	d, err := time.ParseInLocation(dayLayout, strings.TrimSpace(raw), m.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrShapeMismatch, raw)
	}
	return d, nil
}

// Seed applies the listed keys from v onto the model, the way a screen seeds
// itself from a shared link on mount. Keys absent from v are left alone.
// Invalid entries are skipped and reported together; valid ones still apply.
// Page size and page index are applied last so the filter page resets do not
// undo them.
func (m *Model) Seed(v url.Values, keys ...string) error {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	var errs []error
	if want[ParamSearch] && v.Has(ParamSearch) {
		m.SetSearch(v.Get(ParamSearch))
	}
	for _, id := range m.order {
		if !want[id] || !v.Has(id) {
			continue
		}
		val, err := m.ParseFilter(id, v.Get(id))
		if err == nil {
			err = m.SetFilter(id, val)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if want[ParamSort] && v.Has(ParamSort) {
		if err := m.SetSort(DecodeSort(v.Get(ParamSort))); err != nil {
			errs = append(errs, err)
		}
	}
	if want[ParamPerPage] && v.Has(ParamPerPage) {
		n, err := strconv.Atoi(v.Get(ParamPerPage))
		if err == nil {
			err = m.SetPageSize(n)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: per_page %q", ErrInvalidPageSize, v.Get(ParamPerPage)))
		}
	}
	if want[ParamPage] && v.Has(ParamPage) {
		if n, err := strconv.Atoi(v.Get(ParamPage)); err == nil {
			m.SetPage(n - 1)
		} else {
			errs = append(errs, fmt.Errorf("query: page %q is not a number", v.Get(ParamPage)))
		}
	}
	return errors.Join(errs...)
}

// Mirror writes the listed keys of the current Params into a copy of v.
// Listed keys that are now unset are removed; every other key in v is kept.
func (m *Model) Mirror(v url.Values, keys ...string) url.Values {
	out := make(url.Values, len(v)+len(keys))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	p := m.Params()
	for _, k := range keys {
		if val, ok := p[k]; ok {
			out.Set(k, val)
		} else {
			out.Del(k)
		}
	}
	return out
}
