package domain

import (
	"context"
	"time"
)

// EventType defines the category of a streaming event.
type EventType string

const (
	EventQuestionChunk   EventType = "question_chunk"
	EventCompletionChunk EventType = "completion_chunk"
	EventError           EventType = "error"
)

// Event is a typed chunk emitted to the streaming channel while a node body
// still executes. Events from a single node preserve emission order; no order
// is guaranteed across concurrently executing nodes.
type Event struct {
	Type    EventType `json:"type"`
	Content string    `json:"content,omitempty"`
	Message string    `json:"message,omitempty"`
}

// ErrorEvent builds the terminal event streaming callers receive instead of
// an error value.
func ErrorEvent(err error) Event {
	return Event{Type: EventError, Message: err.Error()}
}

// NodeEvent describes node entry or exit, for observability hooks.
type NodeEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	ThreadID  string        `json:"thread_id"`
	Node      string        `json:"node"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// LifecycleHooks defines optional callbacks for engine observability. All
// fields may be nil.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
}
