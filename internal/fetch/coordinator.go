// Package fetch turns resolved query parameters into remote reads and commits
// only the result of the most recently issued read.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/adminpanel/internal/notify"
	"github.com/jask/adminpanel/internal/query"
)

// Meta is the server-reported paging summary.
type Meta struct {
	TotalPages  int `json:"total_pages"`
	TotalItems  int `json:"total_items"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
}

// Page is one list response. A nil Meta means the items are the whole set.
type Page[T any] struct {
	Items []T `json:"items"`
	Meta  *Meta `json:"meta,omitempty"`
}

// PageCount derives the number of pages: one when Meta is absent.
func (p Page[T]) PageCount() int {
	if p.Meta == nil {
		return 1
	}
	if p.Meta.TotalPages < 0 {
		return 0
	}
	return p.Meta.TotalPages
}

// Lister is the remote read a coordinator drives.
type Lister[T any] interface {
	List(ctx context.Context, p query.Params) (Page[T], error)
}

// ListFunc adapts a function to Lister.
type ListFunc[T any] func(ctx context.Context, p query.Params) (Page[T], error)

func (f ListFunc[T]) List(ctx context.Context, p query.Params) (Page[T], error) {
	return f(ctx, p)
}

// ResultMsg carries one read back to the update loop.
type ResultMsg[T any] struct {
	Owner  string
	Seq    uint64
	Params query.Params
	Page   Page[T]
	Err    error
}

type Options struct {
	// Timeout bounds each read. Zero means no bound.
	Timeout  time.Duration
	Notifier notify.Notifier
	Logger   *slog.Logger
}

// Coordinator holds the committed rows of one table. Each Issue is stamped
// with a sequence number; Commit accepts only the latest stamp, so an
// outdated response never overwrites a newer one whatever order they arrive in.
type Coordinator[T any] struct {
	ctx      context.Context
	owner    string
	lister   Lister[T]
	timeout  time.Duration
	notifier notify.Notifier
	log      *slog.Logger

	seq       uint64
	issued    query.Params
	committed query.Params
	loading   bool
	items     []T
	meta      *Meta
	pageCount int
	err       error
}

func New[T any](ctx context.Context, owner string, lister Lister[T], opts Options) *Coordinator[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator[T]{
		ctx:      ctx,
		owner:    owner,
		lister:   lister,
		timeout:  opts.Timeout,
		notifier: opts.Notifier,
		log:      logger.With("component", "fetch", "owner", owner),
	}
}

// Issue starts a read for p and marks the coordinator loading. Any read issued
// earlier is superseded: its result will be discarded on arrival.
func (c *Coordinator[T]) Issue(p query.Params) tea.Cmd {
	c.seq++
	c.loading = true
	c.issued = p
	seq, owner, lister := c.seq, c.owner, c.lister
	ctx, timeout := c.ctx, c.timeout
	c.log.Debug("fetch issued", "seq", seq, "params", p.Encode())
	return func() (msg tea.Msg) {
		res := ResultMsg[T]{Owner: owner, Seq: seq, Params: p}
		defer func() {
			if r := recover(); r != nil {
				res.Err = fmt.Errorf("fetch: list panicked: %v", r)
				msg = res
			}
		}()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		res.Page, res.Err = lister.List(ctx, p)
		return res
	}
}

// Owns reports whether msg was produced by this coordinator.
func (c *Coordinator[T]) Owns(msg ResultMsg[T]) bool {
	return msg.Owner == c.owner
}

// Commit applies msg if it answers the latest issued read. On failure the last
// good rows are kept, loading ends, and the error goes to the notifier once.
// It reports whether msg was committed.
func (c *Coordinator[T]) Commit(msg ResultMsg[T]) (bool, tea.Cmd) {
	if msg.Owner != c.owner {
		return false, nil
	}
	if msg.Seq != c.seq {
		c.log.Debug("fetch discarded", "seq", msg.Seq, "latest", c.seq)
		return false, nil
	}
	c.loading = false
	if msg.Err != nil {
		c.err = msg.Err
		c.log.Error("fetch failed", "seq", msg.Seq, "params", msg.Params.Encode(), "err", msg.Err)
		if c.notifier != nil {
			return true, c.notifier.NotifyError(fmt.Errorf("load failed: %w", msg.Err))
		}
		return true, nil
	}
	c.err = nil
	c.items = msg.Page.Items
	c.meta = msg.Page.Meta
	c.pageCount = msg.Page.PageCount()
	c.committed = msg.Params
	c.log.Debug("fetch committed", "seq", msg.Seq, "items", len(msg.Page.Items), "pages", c.pageCount)
	return true, nil
}

func (c *Coordinator[T]) Loading() bool { return c.loading }

// Items returns the committed rows.
func (c *Coordinator[T]) Items() []T { return c.items }

func (c *Coordinator[T]) PageCount() int { return c.pageCount }

// Meta returns the committed paging summary, nil when the server sent none.
func (c *Coordinator[T]) Meta() *Meta { return c.meta }

// Err returns the error of the latest committed read, nil after a success.
func (c *Coordinator[T]) Err() error { return c.err }

// Issued returns the parameters of the latest issued read.
func (c *Coordinator[T]) Issued() query.Params { return c.issued }

// Committed returns the parameters behind the committed rows.
func (c *Coordinator[T]) Committed() query.Params { return c.committed }

// Seq returns the latest issued stamp.
func (c *Coordinator[T]) Seq() uint64 { return c.seq }
