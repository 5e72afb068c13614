package modal

import (
	"context"
	"errors"
)

// ErrNoOrchestrator is the panic value of FromContext when nothing was
// installed. It marks a wiring bug, not a runtime condition.
var ErrNoOrchestrator = errors.New("modal: no orchestrator installed in context")

type ctxKey struct{}

func WithOrchestrator(ctx context.Context, o *Orchestrator) context.Context {
	return context.WithValue(ctx, ctxKey{}, o)
}

// FromContext returns the installed orchestrator and panics when there is none.
func FromContext(ctx context.Context) *Orchestrator {
	if ctx != nil {
		if o, ok := ctx.Value(ctxKey{}).(*Orchestrator); ok && o != nil {
			return o
		}
	}
	panic(ErrNoOrchestrator)
}
