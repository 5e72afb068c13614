package repository

import "github.com/jask/adminpanel/internal/query"

// Kind is the storage type of a field.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindReal
	KindBool
	KindTime
)

// Field describes one column of a table and what the list endpoint may do
// with it.
type Field struct {
	Name   string
	Kind   Kind
	Filter query.FilterVariant
	Search bool // matched by the free-text search
	Sort   bool
	Write  bool // accepted on create and update
}

// Table describes a stored entity.
type Table struct {
	Name        string
	Fields      []Field
	DefaultSort []query.Sort
	ReadOnly    bool
	// Derive fills computed fields from the writable ones before a write.
	Derive func(Record)
}

// Field returns the field called name.
func (t Table) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (t Table) columns() []string {
	out := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		out = append(out, f.Name)
	}
	return out
}

var newestFirst = []query.Sort{{Column: "created_at", Direction: query.Desc}}

func id() Field      { return Field{Name: "id", Kind: KindText} }
func created() Field { return Field{Name: "created_at", Kind: KindTime, Filter: query.FilterDateRange, Sort: true} }

var (
	Users = Table{
		Name: "users",
		Fields: []Field{
			id(),
			{Name: "name", Kind: KindText, Search: true, Sort: true, Write: true},
			{Name: "email", Kind: KindText, Search: true, Sort: true, Write: true},
			{Name: "role", Kind: KindText, Filter: query.FilterSelect, Write: true},
			{Name: "status", Kind: KindText, Filter: query.FilterSelect, Write: true},
			{Name: "verified", Kind: KindBool, Filter: query.FilterBoolean, Write: true},
			created(),
		},
		DefaultSort: newestFirst,
	}

	Vendors = Table{
		Name: "vendors",
		Fields: []Field{
			id(),
			{Name: "name", Kind: KindText, Search: true, Sort: true, Write: true},
			{Name: "email", Kind: KindText, Search: true, Write: true},
			{Name: "category", Kind: KindText, Filter: query.FilterMultiSelect, Write: true},
			{Name: "status", Kind: KindText, Filter: query.FilterSelect, Write: true},
			{Name: "rating", Kind: KindReal, Sort: true, Write: true},
			created(),
		},
		DefaultSort: newestFirst,
	}

	Posts = Table{
		Name: "posts",
		Fields: []Field{
			id(),
			{Name: "title", Kind: KindText, Search: true, Sort: true, Write: true},
			{Name: "author", Kind: KindText, Filter: query.FilterText, Search: true, Write: true},
			{Name: "body", Kind: KindText, Write: true},
			{Name: "body_html", Kind: KindText},
			{Name: "published", Kind: KindBool, Filter: query.FilterBoolean, Write: true},
			created(),
		},
		DefaultSort: newestFirst,
	}

	Feedback = Table{
		Name: "feedback",
		Fields: []Field{
			id(),
			{Name: "user_email", Kind: KindText, Search: true, Write: true},
			{Name: "subject", Kind: KindText, Search: true, Sort: true, Write: true},
			{Name: "message", Kind: KindText, Search: true, Write: true},
			{Name: "rating", Kind: KindInt, Filter: query.FilterSelect, Sort: true, Write: true},
			{Name: "resolved", Kind: KindBool, Filter: query.FilterBoolean, Write: true},
			created(),
		},
		DefaultSort: newestFirst,
	}

	OTPs = Table{
		Name: "otps",
		Fields: []Field{
			id(),
			{Name: "phone", Kind: KindText, Search: true},
			{Name: "code", Kind: KindText},
			{Name: "purpose", Kind: KindText, Filter: query.FilterSelect},
			{Name: "used", Kind: KindBool, Filter: query.FilterBoolean},
			{Name: "expires_at", Kind: KindTime, Filter: query.FilterDate, Sort: true},
			created(),
		},
		DefaultSort: newestFirst,
		ReadOnly:    true,
	}

	Payments = Table{
		Name: "payments",
		Fields: []Field{
			id(),
			{Name: "reference", Kind: KindText, Search: true, Sort: true},
			{Name: "user_email", Kind: KindText, Search: true},
			{Name: "amount", Kind: KindReal, Sort: true},
			{Name: "currency", Kind: KindText},
			{Name: "method", Kind: KindText, Filter: query.FilterMultiSelect},
			{Name: "status", Kind: KindText, Filter: query.FilterSelect, Write: true},
			created(),
		},
		DefaultSort: newestFirst,
	}

	Locations = Table{
		Name: "locations",
		Fields: []Field{
			id(),
			{Name: "name", Kind: KindText, Search: true, Sort: true, Write: true},
			{Name: "city", Kind: KindText, Filter: query.FilterText, Search: true, Sort: true, Write: true},
			{Name: "country", Kind: KindText, Filter: query.FilterSelect, Sort: true, Write: true},
			{Name: "latitude", Kind: KindReal, Write: true},
			{Name: "longitude", Kind: KindReal, Write: true},
			{Name: "active", Kind: KindBool, Filter: query.FilterBoolean, Write: true},
			created(),
		},
		DefaultSort: newestFirst,
	}
)

// Tables lists every entity table by name.
var Tables = map[string]Table{
	Users.Name:     Users,
	Vendors.Name:   Vendors,
	Posts.Name:     Posts,
	Feedback.Name:  Feedback,
	OTPs.Name:      OTPs,
	Payments.Name:  Payments,
	Locations.Name: Locations,
}
