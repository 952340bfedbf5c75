package runtime

import (
	"context"

	"github.com/parley-ai/parley/pkg/domain"
)

// Config is the per-invocation configuration handed to every node. ThreadID
// and UserID are immutable within a turn.
type Config struct {
	ThreadID  string
	UserID    string
	SessionID string
	Metadata  map[string]string

	emit func(domain.Event)
}

// Emit sends a typed event to the invocation's streaming channel. Under
// Invoke (no streaming consumer) it is a no-op, so nodes can emit
// unconditionally.
func (c Config) Emit(ev domain.Event) {
	if c.emit != nil {
		c.emit(ev)
	}
}

// Streaming reports whether this invocation has a streaming consumer.
func (c Config) Streaming() bool {
	return c.emit != nil
}

func (c Config) withEmitter(ctx context.Context, ch chan<- domain.Event) Config {
	c.emit = func(ev domain.Event) {
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	}
	return c
}
