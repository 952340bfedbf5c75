package runtime

import (
	"context"

	"github.com/parley-ai/parley/pkg/domain"
)

// streamBuffer bounds the event channel so a slow consumer applies
// backpressure to emitting nodes instead of growing memory.
const streamBuffer = 16

// Result carries the outcome of a streamed invocation, delivered after the
// event channel closes.
type Result struct {
	State *domain.State
	Err   error
}

// Stream runs the same execution as Invoke, but nodes may emit typed events
// through cfg.Emit while their bodies still execute. Events are forwarded in
// emission order per node as a lazy, single-pass, non-restartable sequence.
//
// The event channel closes when execution finishes or the context is
// canceled; the result channel then yields exactly one Result carrying the
// final state or the invocation error.
func (g *Graph) Stream(ctx context.Context, state *domain.State, cfg Config) (<-chan domain.Event, <-chan Result) {
	events := make(chan domain.Event, streamBuffer)
	results := make(chan Result, 1)

	go func() {
		defer close(events)
		final, err := g.run(ctx, state, cfg.withEmitter(ctx, events))
		results <- Result{State: final, Err: err}
	}()

	return events, results
}
