package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Wire parameter names.
const (
	ParamPage    = "page"
	ParamPerPage = "per_page"
	ParamSort    = "sort"
	ParamSearch  = "search"
)

// Params is the flat, transport-ready form of a Model. It is derived, never
// edited by hand.
type Params map[string]string

// Params serializes the model. The result depends only on model state: the
// same state always yields an equal Params.
func (m *Model) Params() Params {
	p := Params{
		ParamPage:    strconv.Itoa(m.page.Index + 1),
		ParamPerPage: strconv.Itoa(m.page.Size),
	}
	if len(m.sort) > 0 {
		p[ParamSort] = EncodeSort(m.sort)
	}
	if m.search != "" {
		p[ParamSearch] = m.search
	}
	for id, v := range m.filters {
		if enc := v.encode(m.loc); enc != "" {
			p[id] = enc
		}
	}
	return p
}

// EncodeSort renders a sort sequence as "col:dir,col:dir".
func EncodeSort(seq []Sort) string {
	parts := make([]string, 0, len(seq))
	for _, s := range seq {
		parts = append(parts, s.Column+":"+string(s.Direction))
	}
	return strings.Join(parts, ",")
}

// DecodeSort parses "col:dir,col:dir". A token without a direction sorts asc.
func DecodeSort(raw string) []Sort {
	var out []Sort
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		col, dir, found := strings.Cut(tok, ":")
		d := Asc
		if found {
			d = Direction(strings.ToLower(strings.TrimSpace(dir)))
		}
		out = append(out, Sort{Column: strings.TrimSpace(col), Direction: d})
	}
	return out
}

// Values converts p to url.Values.
func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for k, val := range p {
		v.Set(k, val)
	}
	return v
}

// Encode renders p as a query string with keys in sorted order, so equal
// Params always encode identically.
func (p Params) Encode() string {
	return p.Values().Encode()
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether p and o carry the same parameters.
func (p Params) Equal(o Params) bool {
	if len(p) != len(o) {
		return false
	}
	for k, v := range p {
		if ov, ok := o[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Int reads an integer parameter, returning def when absent or malformed.
func (p Params) Int(key string, def int) int {
	if raw, ok := p[key]; ok {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return def
}
