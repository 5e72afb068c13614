package confirm

import (
	"context"

	"github.com/jask/adminpanel/internal/modal"
)

type ctxKey struct{}

func WithDialog(ctx context.Context, d *Dialog) context.Context {
	return context.WithValue(ctx, ctxKey{}, d)
}

// FromContext returns the installed dialog. Like modal.FromContext it panics
// with modal.ErrNoOrchestrator when nothing was installed.
func FromContext(ctx context.Context) *Dialog {
	if ctx != nil {
		if d, ok := ctx.Value(ctxKey{}).(*Dialog); ok && d != nil {
			return d
		}
	}
	panic(modal.ErrNoOrchestrator)
}
