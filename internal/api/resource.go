package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jask/adminpanel/internal/fetch"
	"github.com/jask/adminpanel/internal/query"
)

// Resource is one entity collection, such as /users.
type Resource[T any] struct {
	c    *Client
	path string
}

func NewResource[T any](c *Client, path string) *Resource[T] {
	return &Resource[T]{c: c, path: path}
}

// List reads one page. It satisfies fetch.Lister.
func (r *Resource[T]) List(ctx context.Context, p query.Params) (fetch.Page[T], error) {
	var page fetch.Page[T]
	if err := r.c.do(ctx, http.MethodGet, r.path, p.Values(), nil, &page); err != nil {
		return fetch.Page[T]{}, err
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page, nil
}

func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := r.c.do(ctx, http.MethodGet, r.item(id), nil, nil, &out)
	return out, err
}

// Create posts fields and returns the stored record.
func (r *Resource[T]) Create(ctx context.Context, fields map[string]any) (T, error) {
	var out T
	err := r.c.do(ctx, http.MethodPost, r.path, nil, fields, &out)
	return out, err
}

// Update changes the given fields and returns the stored record.
func (r *Resource[T]) Update(ctx context.Context, id string, fields map[string]any) (T, error) {
	var out T
	err := r.c.do(ctx, http.MethodPut, r.item(id), nil, fields, &out)
	return out, err
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, http.MethodDelete, r.item(id), nil, nil, nil)
}

func (r *Resource[T]) item(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

// Entities groups the resources of every admin screen.
type Entities struct {
	Users     *Resource[User]
	Vendors   *Resource[Vendor]
	Posts     *Resource[Post]
	Feedback  *Resource[Feedback]
	OTPs      *Resource[OTP]
	Payments  *Resource[Payment]
	Locations *Resource[Location]
}

func (c *Client) Entities() Entities {
	return Entities{
		Users:     NewResource[User](c, "/users"),
		Vendors:   NewResource[Vendor](c, "/vendors"),
		Posts:     NewResource[Post](c, "/posts"),
		Feedback:  NewResource[Feedback](c, "/feedback"),
		OTPs:      NewResource[OTP](c, "/otps"),
		Payments:  NewResource[Payment](c, "/payments"),
		Locations: NewResource[Location](c, "/locations"),
	}
}
