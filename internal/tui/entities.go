package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/adminpanel/internal/api"
	"github.com/jask/adminpanel/internal/confirm"
	"github.com/jask/adminpanel/internal/prefs"
	"github.com/jask/adminpanel/internal/preview"
	"github.com/jask/adminpanel/internal/query"
	"github.com/jask/adminpanel/internal/table"
)

// Resources are the collections behind each screen.
type Resources struct {
	Users     Resource[api.User]
	Vendors   Resource[api.Vendor]
	Posts     Resource[api.Post]
	Feedback  Resource[api.Feedback]
	OTPs      Resource[api.OTP]
	Payments  Resource[api.Payment]
	Locations Resource[api.Location]
}

func ResourcesFrom(e api.Entities) Resources {
	return Resources{
		Users:     e.Users,
		Vendors:   e.Vendors,
		Posts:     e.Posts,
		Feedback:  e.Feedback,
		OTPs:      e.OTPs,
		Payments:  e.Payments,
		Locations: e.Locations,
	}
}

func newScreens(env screenEnv, res Resources) []Screen {
	return []Screen{
		newEntityScreen(env, res.Users, usersDef(env.times)),
		newEntityScreen(env, res.Vendors, vendorsDef(env.times)),
		newEntityScreen(env, res.Posts, postsDef(env.times)),
		newEntityScreen(env, res.Feedback, feedbackDef(env.times)),
		newEntityScreen(env, res.OTPs, otpsDef(env.times)),
		newEntityScreen(env, res.Payments, paymentsDef(env.times)),
		newEntityScreen(env, res.Locations, locationsDef(env.times)),
	}
}

func optionList(values ...string) []query.Option {
	out := make([]query.Option, 0, len(values))
	for _, v := range values {
		out = append(out, query.Option{Value: v, Label: v})
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func bind(k, help string) key.Binding {
	return key.NewBinding(key.WithKeys(k), key.WithHelp(k, help))
}

func createdColumn[T any](at func(T) string) table.Column[T] {
	return table.Column[T]{
		ColumnDef: query.ColumnDef{ID: "created_at", Filter: query.FilterDateRange, Sortable: true},
		Label:     "Created",
		Value:     func(r T) string { return at(r) },
		Width:     16,
	}
}

var (
	userRoles    = []string{"admin", "editor", "member"}
	userStatuses = []string{"active", "suspended", "invited"}
)

func usersDef(times timeFormat) entityDef[api.User] {
	form := func(u api.User) []formField {
		role, status := u.Role, u.Status
		if role == "" {
			role, status = "member", "active"
		}
		return []formField{
			{key: "name", label: "Name", value: u.Name, required: true},
			{key: "email", label: "Email", value: u.Email, required: true},
			{key: "role", label: "Role", kind: fieldChoice, value: role, choices: userRoles},
			{key: "status", label: "Status", kind: fieldChoice, value: status, choices: userStatuses},
			{key: "verified", label: "Verified", kind: fieldBool, value: yesNo(u.Verified)},
		}
	}
	return entityDef[api.User]{
		name:  "users",
		title: "Users",
		columns: []table.Column[api.User]{
			{ColumnDef: query.ColumnDef{ID: "name", Sortable: true}, Label: "Name", Value: func(u api.User) string { return u.Name }, Width: 24, Pinned: true},
			{ColumnDef: query.ColumnDef{ID: "email", Sortable: true}, Label: "Email", Value: func(u api.User) string { return u.Email }, Width: 32},
			{ColumnDef: query.ColumnDef{ID: "role", Filter: query.FilterSelect, Options: optionList(userRoles...)}, Label: "Role", Value: func(u api.User) string { return u.Role }},
			{ColumnDef: query.ColumnDef{ID: "status", Filter: query.FilterSelect, Options: optionList(userStatuses...)}, Label: "Status", Value: func(u api.User) string { return u.Status }},
			{ColumnDef: query.ColumnDef{ID: "verified", Filter: query.FilterBoolean}, Label: "Verified", Value: func(u api.User) string { return yesNo(u.Verified) }},
			createdColumn(func(u api.User) string { return times.format(u.CreatedAt) }),
		},
		rowID: func(u api.User) string { return u.ID },
		detail: func(u api.User) []field {
			return []field{
				{"ID", u.ID}, {"Name", u.Name}, {"Email", u.Email}, {"Role", u.Role},
				{"Status", u.Status}, {"Verified", yesNo(u.Verified)}, {"Created", times.format(u.CreatedAt)},
			}
		},
		actions: []action[api.User]{
			{binding: bind("n", "new user"), free: true, run: func(s *entityScreen[api.User], _ []api.User) tea.Cmd {
				return s.openForm("New user", form(api.User{}), "User created", func(ctx context.Context, v map[string]any) error {
					_, err := s.res.Create(ctx, v)
					return err
				})
			}},
			{binding: bind("e", "edit"), run: func(s *entityScreen[api.User], rows []api.User) tea.Cmd {
				u := rows[0]
				return s.openForm("Edit "+u.Name, form(u), "User saved", func(ctx context.Context, v map[string]any) error {
					_, err := s.res.Update(ctx, u.ID, v)
					return err
				})
			}},
			deleteAction("user", func(u api.User) string { return u.ID }, func(u api.User) string { return u.Email }),
		},
	}
}

var (
	vendorCategories = []string{"food", "retail", "transport", "services", "health"}
	vendorStatuses   = []string{"pending", "approved", "rejected"}
)

func vendorsDef(times timeFormat) entityDef[api.Vendor] {
	id := func(v api.Vendor) string { return v.ID }
	return entityDef[api.Vendor]{
		name:  "vendors",
		title: "Vendors",
		columns: []table.Column[api.Vendor]{
			{ColumnDef: query.ColumnDef{ID: "name", Sortable: true}, Label: "Name", Value: func(v api.Vendor) string { return v.Name }, Width: 24, Pinned: true},
			{ColumnDef: query.ColumnDef{ID: "email"}, Label: "Email", Value: func(v api.Vendor) string { return v.Email }, Width: 30},
			{ColumnDef: query.ColumnDef{ID: "category", Filter: query.FilterMultiSelect, Options: optionList(vendorCategories...)}, Label: "Category", Value: func(v api.Vendor) string { return v.Category }},
			{ColumnDef: query.ColumnDef{ID: "status", Filter: query.FilterSelect, Options: optionList(vendorStatuses...)}, Label: "Status", Value: func(v api.Vendor) string { return v.Status }},
			{ColumnDef: query.ColumnDef{ID: "rating", Sortable: true}, Label: "Rating", Value: func(v api.Vendor) string { return strconv.FormatFloat(v.Rating, 'f', 1, 64) }},
			createdColumn(func(v api.Vendor) string { return times.format(v.CreatedAt) }),
		},
		rowID: id,
		detail: func(v api.Vendor) []field {
			return []field{
				{"ID", v.ID}, {"Name", v.Name}, {"Email", v.Email}, {"Category", v.Category},
				{"Status", v.Status}, {"Rating", strconv.FormatFloat(v.Rating, 'f', 1, 64)}, {"Created", times.format(v.CreatedAt)},
			}
		},
		actions: []action[api.Vendor]{
			{binding: bind("A", "approve"), bulk: true, run: func(s *entityScreen[api.Vendor], rows []api.Vendor) tea.Cmd {
				return s.confirmUpdate(ids(rows, id), map[string]any{"status": "approved"}, confirm.Options{
					Title:       "Approve " + plural(len(rows), "vendor") + "?",
					Description: names(rows, func(v api.Vendor) string { return v.Name }),
					Variant:     confirm.Success,
					ConfirmText: "Approve",
				}, "Approved "+plural(len(rows), "vendor"))
			}},
			{binding: bind("R", "reject"), bulk: true, run: func(s *entityScreen[api.Vendor], rows []api.Vendor) tea.Cmd {
				return s.confirmUpdate(ids(rows, id), map[string]any{"status": "rejected"}, confirm.Options{
					Title:       "Reject " + plural(len(rows), "vendor") + "?",
					Description: names(rows, func(v api.Vendor) string { return v.Name }),
					Variant:     confirm.Destructive,
					ConfirmText: "Reject",
				}, "Rejected "+plural(len(rows), "vendor"))
			}},
			deleteAction("vendor", id, func(v api.Vendor) string { return v.Name }),
		},
	}
}

func postsDef(times timeFormat) entityDef[api.Post] {
	id := func(p api.Post) string { return p.ID }
	return entityDef[api.Post]{
		name:  "posts",
		title: "Posts",
		columns: []table.Column[api.Post]{
			{ColumnDef: query.ColumnDef{ID: "title", Sortable: true}, Label: "Title", Value: func(p api.Post) string { return p.Title }, Width: 28, Pinned: true},
			{ColumnDef: query.ColumnDef{ID: "author", Filter: query.FilterText}, Label: "Author", Value: func(p api.Post) string { return p.Author }, Width: 28},
			{ColumnDef: query.ColumnDef{ID: "body"}, Label: "Excerpt", Value: func(p api.Post) string { return preview.Text(p.Body, 40) }},
			{ColumnDef: query.ColumnDef{ID: "published", Filter: query.FilterBoolean}, Label: "Published", Value: func(p api.Post) string { return yesNo(p.Published) }},
			createdColumn(func(p api.Post) string { return times.format(p.CreatedAt) }),
		},
		rowID: id,
		detail: func(p api.Post) []field {
			return []field{
				{"ID", p.ID}, {"Title", p.Title}, {"Author", p.Author},
				{"Published", yesNo(p.Published)}, {"Created", times.format(p.CreatedAt)},
				{"Excerpt", preview.Text(p.Body, 200)},
			}
		},
		actions: []action[api.Post]{
			{binding: bind("p", "preview"), run: func(s *entityScreen[api.Post], rows []api.Post) tea.Cmd {
				p := rows[0]
				return openDetail(s.ctx, p.Title, []field{
					{"Author", p.Author},
					{"", ""},
					{"", strings.Join(preview.Lines(p.Body, 70), "\n")},
				})
			}},
			{binding: bind("P", "publish/unpublish"), run: func(s *entityScreen[api.Post], rows []api.Post) tea.Cmd {
				p := rows[0]
				verb, variant := "Publish", confirm.Success
				if p.Published {
					verb, variant = "Unpublish", confirm.Destructive
				}
				return s.confirmUpdate([]string{p.ID}, map[string]any{"published": !p.Published}, confirm.Options{
					Title:       verb + " post?",
					Description: p.Title,
					Variant:     variant,
					ConfirmText: verb,
				}, verb+"ed "+p.Title)
			}},
			deleteAction("post", id, func(p api.Post) string { return p.Title }),
		},
	}
}

func feedbackDef(times timeFormat) entityDef[api.Feedback] {
	id := func(f api.Feedback) string { return f.ID }
	return entityDef[api.Feedback]{
		name:  "feedback",
		title: "Feedback",
		columns: []table.Column[api.Feedback]{
			{ColumnDef: query.ColumnDef{ID: "subject", Sortable: true}, Label: "Subject", Value: func(f api.Feedback) string { return f.Subject }, Width: 26, Pinned: true},
			{ColumnDef: query.ColumnDef{ID: "user_email"}, Label: "From", Value: func(f api.Feedback) string { return f.UserEmail }, Width: 30},
			{ColumnDef: query.ColumnDef{ID: "rating", Filter: query.FilterSelect, Options: optionList("1", "2", "3", "4", "5"), Sortable: true}, Label: "Rating", Value: func(f api.Feedback) string { return strings.Repeat("★", max(0, f.Rating)) }},
			{ColumnDef: query.ColumnDef{ID: "resolved", Filter: query.FilterBoolean}, Label: "Resolved", Value: func(f api.Feedback) string { return yesNo(f.Resolved) }},
			createdColumn(func(f api.Feedback) string { return times.format(f.CreatedAt) }),
		},
		rowID: id,
		detail: func(f api.Feedback) []field {
			return []field{
				{"ID", f.ID}, {"From", f.UserEmail}, {"Subject", f.Subject}, {"Message", f.Message},
				{"Rating", strconv.Itoa(f.Rating)}, {"Resolved", yesNo(f.Resolved)}, {"Created", times.format(f.CreatedAt)},
			}
		},
		actions: []action[api.Feedback]{
			{binding: bind("v", "resolve"), bulk: true, run: func(s *entityScreen[api.Feedback], rows []api.Feedback) tea.Cmd {
				return s.confirmUpdate(ids(rows, id), map[string]any{"resolved": true}, confirm.Options{
					Title:       "Resolve " + plural(len(rows), "item") + "?",
					Description: names(rows, func(f api.Feedback) string { return f.Subject }),
					Variant:     confirm.Success,
					ConfirmText: "Resolve",
				}, "Resolved "+plural(len(rows), "item"))
			}},
			deleteAction("feedback item", id, func(f api.Feedback) string { return f.Subject }),
		},
	}
}

func otpsDef(times timeFormat) entityDef[api.OTP] {
	return entityDef[api.OTP]{
		name:  "otps",
		title: "OTPs",
		columns: []table.Column[api.OTP]{
			{ColumnDef: query.ColumnDef{ID: "phone"}, Label: "Phone", Value: func(o api.OTP) string { return o.Phone }, Width: 16, Pinned: true},
			{ColumnDef: query.ColumnDef{ID: "code"}, Label: "Code", Value: func(o api.OTP) string { return o.Code }, Hidden: true},
			{ColumnDef: query.ColumnDef{ID: "purpose", Filter: query.FilterSelect, Options: optionList("login", "signup", "reset")}, Label: "Purpose", Value: func(o api.OTP) string { return o.Purpose }},
			{ColumnDef: query.ColumnDef{ID: "used", Filter: query.FilterBoolean}, Label: "Used", Value: func(o api.OTP) string { return yesNo(o.Used) }},
			{ColumnDef: query.ColumnDef{ID: "expires_at", Filter: query.FilterDate, Sortable: true}, Label: "Expires", Value: func(o api.OTP) string { return times.format(o.ExpiresAt) }, Width: 16},
			createdColumn(func(o api.OTP) string { return times.format(o.CreatedAt) }),
		},
		rowID: func(o api.OTP) string { return o.ID },
		detail: func(o api.OTP) []field {
			return []field{
				{"ID", o.ID}, {"Phone", o.Phone}, {"Code", o.Code}, {"Purpose", o.Purpose},
				{"Used", yesNo(o.Used)}, {"Expires", times.format(o.ExpiresAt)}, {"Created", times.format(o.CreatedAt)},
			}
		},
	}
}

// paymentSyncKeys are mirrored into the payments view link.
var paymentSyncKeys = []string{query.ParamSearch, "status", "method", "created_at", query.ParamSort, query.ParamPage, query.ParamPerPage}

func paymentsDef(times timeFormat) entityDef[api.Payment] {
	amount := func(p api.Payment) string { return strconv.FormatFloat(p.Amount, 'f', 2, 64) + " " + p.Currency }
	return entityDef[api.Payment]{
		name:  "payments",
		title: "Payments",
		columns: []table.Column[api.Payment]{
			{ColumnDef: query.ColumnDef{ID: "reference", Sortable: true}, Label: "Reference", Value: func(p api.Payment) string { return p.Reference }, Pinned: true},
			{ColumnDef: query.ColumnDef{ID: "user_email"}, Label: "Customer", Value: func(p api.Payment) string { return p.UserEmail }, Width: 30},
			{ColumnDef: query.ColumnDef{ID: "amount", Sortable: true}, Label: "Amount", Value: amount},
			{ColumnDef: query.ColumnDef{ID: "method", Filter: query.FilterMultiSelect, Options: optionList("card", "bank", "wallet")}, Label: "Method", Value: func(p api.Payment) string { return p.Method }},
			{ColumnDef: query.ColumnDef{ID: "status", Filter: query.FilterSelect, Options: optionList("paid", "pending", "failed", "refunded")}, Label: "Status", Value: func(p api.Payment) string { return p.Status }},
			createdColumn(func(p api.Payment) string { return times.format(p.CreatedAt) }),
		},
		rowID:    func(p api.Payment) string { return p.ID },
		syncKeys: paymentSyncKeys,
		detail: func(p api.Payment) []field {
			return []field{
				{"ID", p.ID}, {"Reference", p.Reference}, {"Customer", p.UserEmail}, {"Amount", amount(p)},
				{"Method", p.Method}, {"Status", p.Status}, {"Created", times.format(p.CreatedAt)},
			}
		},
		actions: []action[api.Payment]{
			{binding: bind("F", "refund"), run: func(s *entityScreen[api.Payment], rows []api.Payment) tea.Cmd {
				p := rows[0]
				if p.Status != "paid" {
					return s.notes.Info("Only paid payments can be refunded")
				}
				return s.confirmUpdate([]string{p.ID}, map[string]any{"status": "refunded"}, confirm.Options{
					Title:       "Refund " + p.Reference + "?",
					Description: fmt.Sprintf("%s will be returned to %s.", amount(p), p.UserEmail),
					Variant:     confirm.Destructive,
					ConfirmText: "Refund",
				}, "Refunded "+p.Reference)
			}},
			{binding: bind("y", "copy view link"), free: true, run: func(s *entityScreen[api.Payment], _ []api.Payment) tea.Cmd {
				view := s.Link()
				if err := prefs.SaveView(view); err != nil {
					s.log.Warn("save view", "err", err)
				}
				if err := clipboard.WriteAll(view.Link()); err != nil {
					return s.notes.Info("View link: " + view.Link())
				}
				return s.notes.Success("Copied " + view.Link())
			}},
		},
	}
}

var countries = []string{"FR", "JP", "KE", "NO", "PT", "US"}

func locationsDef(times timeFormat) entityDef[api.Location] {
	id := func(l api.Location) string { return l.ID }
	coord := func(f float64) string { return strconv.FormatFloat(f, 'f', 4, 64) }
	form := func(l api.Location) []formField {
		country := l.Country
		if country == "" {
			country = countries[0]
		}
		active := l.Active || l.ID == ""
		return []formField{
			{key: "name", label: "Name", value: l.Name, required: true},
			{key: "city", label: "City", value: l.City, required: true},
			{key: "country", label: "Country", kind: fieldChoice, value: country, choices: countries},
			{key: "latitude", label: "Latitude", kind: fieldNumber, value: coord(l.Latitude)},
			{key: "longitude", label: "Longitude", kind: fieldNumber, value: coord(l.Longitude)},
			{key: "active", label: "Active", kind: fieldBool, value: yesNo(active)},
		}
	}
	return entityDef[api.Location]{
		name:  "locations",
		title: "Locations",
		columns: []table.Column[api.Location]{
			{ColumnDef: query.ColumnDef{ID: "name", Sortable: true}, Label: "Name", Value: func(l api.Location) string { return l.Name }, Width: 24, Pinned: true},
			{ColumnDef: query.ColumnDef{ID: "city", Filter: query.FilterText, Sortable: true}, Label: "City", Value: func(l api.Location) string { return l.City }},
			{ColumnDef: query.ColumnDef{ID: "country", Filter: query.FilterSelect, Options: optionList(countries...), Sortable: true}, Label: "Country", Value: func(l api.Location) string { return l.Country }},
			{ColumnDef: query.ColumnDef{ID: "latitude"}, Label: "Lat", Value: func(l api.Location) string { return coord(l.Latitude) }},
			{ColumnDef: query.ColumnDef{ID: "longitude"}, Label: "Lng", Value: func(l api.Location) string { return coord(l.Longitude) }},
			{ColumnDef: query.ColumnDef{ID: "active", Filter: query.FilterBoolean}, Label: "Active", Value: func(l api.Location) string { return yesNo(l.Active) }},
			createdColumn(func(l api.Location) string { return times.format(l.CreatedAt) }),
		},
		rowID: id,
		detail: func(l api.Location) []field {
			return []field{
				{"ID", l.ID}, {"Name", l.Name}, {"City", l.City}, {"Country", l.Country},
				{"Coordinates", coord(l.Latitude) + ", " + coord(l.Longitude)}, {"Active", yesNo(l.Active)},
				{"Created", times.format(l.CreatedAt)},
			}
		},
		actions: []action[api.Location]{
			{binding: bind("n", "new location"), free: true, run: func(s *entityScreen[api.Location], _ []api.Location) tea.Cmd {
				return s.openForm("New location", form(api.Location{}), "Location created", func(ctx context.Context, v map[string]any) error {
					_, err := s.res.Create(ctx, v)
					return err
				})
			}},
			{binding: bind("e", "edit"), run: func(s *entityScreen[api.Location], rows []api.Location) tea.Cmd {
				l := rows[0]
				return s.openForm("Edit "+l.Name, form(l), "Location saved", func(ctx context.Context, v map[string]any) error {
					_, err := s.res.Update(ctx, l.ID, v)
					return err
				})
			}},
			{binding: bind("t", "toggle active"), run: func(s *entityScreen[api.Location], rows []api.Location) tea.Cmd {
				l := rows[0]
				verb, variant := "Activate", confirm.Success
				if l.Active {
					verb, variant = "Deactivate", confirm.Destructive
				}
				return s.confirmUpdate([]string{l.ID}, map[string]any{"active": !l.Active}, confirm.Options{
					Title:       verb + " " + l.Name + "?",
					Variant:     variant,
					ConfirmText: verb,
				}, verb+"d "+l.Name)
			}},
			deleteAction("location", id, func(l api.Location) string { return l.Name }),
		},
	}
}

// deleteAction removes the selected rows, or the row under the cursor.
func deleteAction[T any](noun string, id, name func(T) string) action[T] {
	return action[T]{
		binding: bind("d", "delete"),
		bulk:    true,
		run: func(s *entityScreen[T], rows []T) tea.Cmd {
			return s.confirmThen(confirm.Options{
				Title:       "Delete " + plural(len(rows), noun) + "?",
				Description: names(rows, name) + "\nThis cannot be undone.",
				Variant:     confirm.Destructive,
				ConfirmText: "Delete " + noun,
				OnConfirm: func(ctx context.Context) error {
					for _, r := range rows {
						if err := s.res.Delete(ctx, id(r)); err != nil {
							return err
						}
					}
					return nil
				},
			}, "Deleted "+plural(len(rows), noun))
		},
	}
}

// confirmUpdate asks, then writes fields to every id inside the dialog.
func (s *entityScreen[T]) confirmUpdate(ids []string, fields map[string]any, opts confirm.Options, success string) tea.Cmd {
	opts.OnConfirm = func(ctx context.Context) error {
		for _, id := range ids {
			if _, err := s.res.Update(ctx, id, fields); err != nil {
				return err
			}
		}
		return nil
	}
	return s.confirmThen(opts, success)
}

func ids[T any](rows []T, id func(T) string) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, id(r))
	}
	return out
}

// names lists up to three row names.
func names[T any](rows []T, name func(T) string) string {
	var out []string
	for i, r := range rows {
		if i == 3 {
			out = append(out, fmt.Sprintf("and %d more", len(rows)-3))
			break
		}
		out = append(out, name(r))
	}
	return strings.Join(out, ", ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
