package testdata

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jask/adminpanel/internal/database/repository"
	"github.com/jask/adminpanel/internal/preview"
)

// Options controls Seed. The same Seed value and Now always produce the same
// rows.
type Options struct {
	Rows          int
	Seed          int64
	Now           time.Time
	AdminEmail    string
	AdminPassword string
}

// Seed installs the admin account and, on an empty database, sample rows for
// every entity table.
func Seed(ctx context.Context, store *repository.Store, admins *repository.AdminRepo, opts Options) error {
	if opts.AdminEmail != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		if err := admins.Upsert(ctx, repository.Admin{ID: uuid.NewString(), Email: opts.AdminEmail, PasswordHash: string(hash)}); err != nil {
			return err
		}
	}

	_, existing, err := store.List(ctx, repository.Users, repository.ListQuery{PerPage: 1})
	if err != nil {
		return err
	}
	if existing > 0 || opts.Rows <= 0 {
		return nil
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC().Truncate(time.Second)
	}
	g := &gen{rng: rand.New(rand.NewSource(opts.Seed)), now: opts.Now}
	return store.Tx(ctx, func(tx *repository.Store) error {
		for i := 0; i < opts.Rows; i++ {
			for _, row := range []struct {
				t   repository.Table
				rec repository.Record
			}{
				{repository.Users, g.user(i)},
				{repository.Vendors, g.vendor()},
				{repository.Posts, g.post()},
				{repository.Feedback, g.feedback()},
				{repository.OTPs, g.otp()},
				{repository.Payments, g.payment(i)},
				{repository.Locations, g.location()},
			} {
				row.rec["id"] = g.id()
				if _, err := tx.Put(ctx, row.t, row.rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

var (
	firstNames = []string{"Ada", "Grace", "Linus", "Margaret", "Ken", "Barbara", "Dennis", "Radia", "Alan", "Frances"}
	lastNames  = []string{"Lovelace", "Hopper", "Torvalds", "Hamilton", "Thompson", "Liskov", "Ritchie", "Perlman", "Turing", "Allen"}
	roles      = []string{"admin", "editor", "member", "member", "member"}
	userStates = []string{"active", "active", "active", "suspended", "invited"}
	categories = []string{"food", "retail", "transport", "services", "health"}
	vendorStat = []string{"pending", "approved", "approved", "rejected"}
	topics     = []string{"Release notes", "Maintenance window", "New payment methods", "Vendor onboarding", "Holiday hours"}
	subjects   = []string{"Checkout failed", "Love the new app", "Refund is slow", "Map is wrong", "Cannot log in"}
	purposes   = []string{"login", "signup", "reset"}
	methods    = []string{"card", "bank", "wallet"}
	payStates  = []string{"paid", "paid", "paid", "pending", "failed", "refunded"}
	places     = []struct{ city, country string }{{"Oslo", "NO"}, {"Lisbon", "PT"}, {"Nairobi", "KE"}, {"Osaka", "JP"}, {"Denver", "US"}, {"Lyon", "FR"}}
)

type gen struct {
	rng *rand.Rand
	now time.Time
}

func (g *gen) pick(xs []string) string { return xs[g.rng.Intn(len(xs))] }

func (g *gen) id() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// created spreads rows over the last 90 days.
func (g *gen) created() time.Time {
	return g.now.Add(-time.Duration(g.rng.Intn(90*24*60)) * time.Minute)
}

func (g *gen) email(first, last string) string {
	return strings.ToLower(fmt.Sprintf("%s.%s@example.com", first, last))
}

func (g *gen) user(i int) repository.Record {
	first, last := g.pick(firstNames), g.pick(lastNames)
	return repository.Record{
		"name":       first + " " + last,
		"email":      strings.ToLower(fmt.Sprintf("%s.%s.%d@example.com", first, last, i)),
		"role":       g.pick(roles),
		"status":     g.pick(userStates),
		"verified":   g.rng.Intn(3) > 0,
		"created_at": g.created(),
	}
}

func (g *gen) vendor() repository.Record {
	name := g.pick(lastNames) + " " + capitalize(g.pick(categories))
	return repository.Record{
		"name":       name,
		"email":      "hello@" + strings.ToLower(strings.ReplaceAll(name, " ", "")) + ".test",
		"category":   g.pick(categories),
		"status":     g.pick(vendorStat),
		"rating":     float64(g.rng.Intn(41)+10) / 10,
		"created_at": g.created(),
	}
}

func (g *gen) post() repository.Record {
	topic := g.pick(topics)
	body := fmt.Sprintf("## %s\n\nHello **team**, a short update about *%s*.\n\n- item one\n- item two\n", topic, strings.ToLower(topic))
	html, err := preview.HTML(body)
	if err != nil {
		html = ""
	}
	return repository.Record{
		"title":      topic,
		"author":     g.email(g.pick(firstNames), g.pick(lastNames)),
		"body":       body,
		"body_html":  html,
		"published":  g.rng.Intn(2) == 0,
		"created_at": g.created(),
	}
}

func (g *gen) feedback() repository.Record {
	return repository.Record{
		"user_email": g.email(g.pick(firstNames), g.pick(lastNames)),
		"subject":    g.pick(subjects),
		"message":    "Reported from the mobile app.",
		"rating":     g.rng.Intn(5) + 1,
		"resolved":   g.rng.Intn(4) == 0,
		"created_at": g.created(),
	}
}

func (g *gen) otp() repository.Record {
	created := g.created()
	return repository.Record{
		"phone":      fmt.Sprintf("+1555%07d", g.rng.Intn(10_000_000)),
		"code":       fmt.Sprintf("%06d", g.rng.Intn(1_000_000)),
		"purpose":    g.pick(purposes),
		"used":       g.rng.Intn(2) == 0,
		"expires_at": created.Add(10 * time.Minute),
		"created_at": created,
	}
}

func (g *gen) payment(i int) repository.Record {
	return repository.Record{
		"reference":  fmt.Sprintf("PAY-%05d", i+1),
		"user_email": g.email(g.pick(firstNames), g.pick(lastNames)),
		"amount":     float64(g.rng.Intn(50000)+100) / 100,
		"currency":   "USD",
		"method":     g.pick(methods),
		"status":     g.pick(payStates),
		"created_at": g.created(),
	}
}

func (g *gen) location() repository.Record {
	p := places[g.rng.Intn(len(places))]
	return repository.Record{
		"name":       p.city + " " + g.pick([]string{"Depot", "Hub", "Store", "Office"}),
		"city":       p.city,
		"country":    p.country,
		"latitude":   float64(g.rng.Intn(18000)-9000) / 100,
		"longitude":  float64(g.rng.Intn(36000)-18000) / 100,
		"active":     g.rng.Intn(5) > 0,
		"created_at": g.created(),
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
