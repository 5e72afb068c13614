package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/adminpanel/internal/api"
	"github.com/jask/adminpanel/internal/config"
	"github.com/jask/adminpanel/internal/fetch"
	"github.com/jask/adminpanel/internal/logging"
	"github.com/jask/adminpanel/internal/notify"
	"github.com/jask/adminpanel/internal/query"
)

// memResource is an in-memory Resource. match decides which rows a list
// request returns; paging follows the wire parameters.
type memResource[T any] struct {
	mu      sync.Mutex
	rows    []T
	id      func(T) string
	match   func(T, query.Params) bool
	calls   []query.Params
	created []map[string]any
	updated map[string]map[string]any
	deleted []string
	failOn  string
}

func newMem[T any](id func(T) string, rows ...T) *memResource[T] {
	return &memResource[T]{rows: rows, id: id, updated: map[string]map[string]any{}}
}

func (m *memResource[T]) List(_ context.Context, p query.Params) (fetch.Page[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, p)
	hits := []T{}
	for _, r := range m.rows {
		if m.match == nil || m.match(r, p) {
			hits = append(hits, r)
		}
	}
	per := p.Int(query.ParamPerPage, query.DefaultPageSize)
	page := p.Int(query.ParamPage, 1)
	start := min(len(hits), (page-1)*per)
	end := min(len(hits), start+per)
	return fetch.Page[T]{
		Items: hits[start:end],
		Meta: &fetch.Meta{
			TotalPages:  (len(hits) + per - 1) / per,
			TotalItems:  len(hits),
			CurrentPage: page,
			PerPage:     per,
		},
	}, nil
}

func (m *memResource[T]) Get(_ context.Context, id string) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if m.id(r) == id {
			return r, nil
		}
	}
	var zero T
	return zero, errors.New("not found")
}

func (m *memResource[T]) Create(_ context.Context, fields map[string]any) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, fields)
	var zero T
	return zero, nil
}

func (m *memResource[T]) Update(_ context.Context, id string, fields map[string]any) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated[id] = fields
	var zero T
	return zero, nil
}

func (m *memResource[T]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == m.failOn {
		return errors.New("boom")
	}
	m.deleted = append(m.deleted, id)
	kept := m.rows[:0]
	for _, r := range m.rows {
		if m.id(r) != id {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

func (m *memResource[T]) lastCall(t *testing.T) query.Params {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.calls, "no list request was made")
	return m.calls[len(m.calls)-1]
}

func (m *memResource[T]) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type fakes struct {
	users     *memResource[api.User]
	vendors   *memResource[api.Vendor]
	posts     *memResource[api.Post]
	feedback  *memResource[api.Feedback]
	otps      *memResource[api.OTP]
	payments  *memResource[api.Payment]
	locations *memResource[api.Location]
}

func newFakes() *fakes {
	created := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	f := &fakes{
		users: newMem(func(u api.User) string { return u.ID },
			api.User{ID: "u1", Name: "Ada Lovelace", Email: "ada@example.com", Role: "admin", Status: "active", CreatedAt: created},
			api.User{ID: "u2", Name: "Grace Hopper", Email: "grace@example.com", Role: "member", Status: "active", CreatedAt: created},
			api.User{ID: "u3", Name: "Ken Thompson", Email: "ken@example.com", Role: "member", Status: "invited", CreatedAt: created},
		),
		vendors:   newMem(func(v api.Vendor) string { return v.ID }),
		posts:     newMem(func(p api.Post) string { return p.ID }),
		feedback:  newMem(func(f api.Feedback) string { return f.ID }),
		otps:      newMem(func(o api.OTP) string { return o.ID }),
		payments:  newMem(func(p api.Payment) string { return p.ID }),
		locations: newMem(func(l api.Location) string { return l.ID }),
	}
	statuses := []string{"paid", "pending", "failed"}
	for i := 0; i < 12; i++ {
		f.payments.rows = append(f.payments.rows, api.Payment{
			ID:        fmt.Sprintf("p%02d", i),
			Reference: fmt.Sprintf("PAY-%05d", i+1),
			UserEmail: "ada@example.com",
			Amount:    float64(10 * (i + 1)),
			Currency:  "USD",
			Method:    "card",
			Status:    statuses[i%3],
			CreatedAt: created,
		})
	}
	f.payments.match = func(p api.Payment, q query.Params) bool {
		if s := q[query.ParamSearch]; s != "" && !strings.Contains(p.Reference+p.UserEmail, s) {
			return false
		}
		if s := q["status"]; s != "" && p.Status != s {
			return false
		}
		return true
	}
	f.users.match = func(u api.User, q query.Params) bool {
		return q["role"] == "" || u.Role == q["role"]
	}
	return f
}

func (f *fakes) resources() Resources {
	return Resources{
		Users:     f.users,
		Vendors:   f.vendors,
		Posts:     f.posts,
		Feedback:  f.feedback,
		OTPs:      f.otps,
		Payments:  f.payments,
		Locations: f.locations,
	}
}

func testUI() config.UIConfig {
	return config.UIConfig{
		PageSize:       5,
		Debounce:       5 * time.Millisecond,
		ModalExitDelay: time.Millisecond,
		ToastTTL:       time.Minute,
		ConfirmTimeout: time.Second,
		Timezone:       "UTC",
		DateFormat:     "2006-01-02",
	}
}

// cmdWait bounds how long the harness waits on one command. Cursor blinks,
// spinner frames and toast expiry take longer and are dropped.
const cmdWait = 50 * time.Millisecond

type harness struct {
	t     *testing.T
	app   *App
	fakes *fakes
	seen  []notify.Toast
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	f := newFakes()
	if opts.UI == (config.UIConfig{}) {
		opts.UI = testUI()
	}
	opts.Logger = logging.Discard()
	app, err := New(context.Background(), f.resources(), opts)
	require.NoError(t, err)
	h := &harness{t: t, app: app, fakes: f}
	h.drain(tea.WindowSizeMsg{Width: 140, Height: 40})
	h.drain(nil, app.Init())
	return h
}

func run(cmd tea.Cmd) (tea.Msg, bool) {
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	select {
	case msg := <-out:
		return msg, true
	case <-time.After(cmdWait):
		return nil, false
	}
}

// drain delivers msg, runs the given commands and everything they lead to
// until the program is quiet.
func (h *harness) drain(msg tea.Msg, cmds ...tea.Cmd) {
	h.t.Helper()
	var queue []tea.Msg
	if msg != nil {
		queue = append(queue, msg)
	}
	pending := append([]tea.Cmd(nil), cmds...)
	for steps := 0; len(queue) > 0 || len(pending) > 0; steps++ {
		require.Less(h.t, steps, 1000, "update loop did not settle")
		if len(pending) > 0 {
			cmd := pending[0]
			pending = pending[1:]
			if cmd == nil {
				continue
			}
			if m, ok := run(cmd); ok && m != nil {
				queue = append(queue, m)
			}
			continue
		}
		m := queue[0]
		queue = queue[1:]
		if batch, ok := m.(tea.BatchMsg); ok {
			pending = append(pending, batch...)
			continue
		}
		_, cmd := h.app.Update(m)
		h.record()
		if cmd != nil {
			pending = append(pending, cmd)
		}
	}
}

func (h *harness) record() {
	for _, t := range h.app.notes.Toasts() {
		known := false
		for _, s := range h.seen {
			if s.ID == t.ID {
				known = true
				break
			}
		}
		if !known {
			h.seen = append(h.seen, t)
		}
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press delivers each key and drains after each one.
func (h *harness) press(keys ...string) {
	h.t.Helper()
	for _, k := range keys {
		h.drain(keyMsg(k))
	}
}

// typeBurst delivers keys without running any command in between, then
// drains everything at once, the way a fast typist beats the debounce.
func (h *harness) typeBurst(keys ...string) {
	h.t.Helper()
	var cmds []tea.Cmd
	for _, k := range keys {
		_, cmd := h.app.Update(keyMsg(k))
		cmds = append(cmds, cmd)
	}
	h.drain(nil, cmds...)
}

func (h *harness) toastTexts(level notify.Level) []string {
	var out []string
	for _, t := range h.seen {
		if t.Level == level {
			out = append(out, t.Text)
		}
	}
	return out
}
