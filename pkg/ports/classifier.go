package ports

import (
	"context"

	"github.com/parley-ai/parley/pkg/domain"
)

// Classifier is the classification port: an opaque capability that turns
// freeform text into structured results. Both methods must honor context
// cancellation and the caller's timeout; schema-adherence failures surface as
// errors and are absorbed by the calling node, never by the engine.
type Classifier interface {
	// ClassifyIntent classifies the conversation context against the fixed
	// intent taxonomy.
	ClassifyIntent(ctx context.Context, contextText string) (*domain.Classification, error)

	// ExtractSlots extracts values for the missing fields from freeform text.
	// It returns only the keys it found; absent keys are left untouched by
	// the caller's key-wise upsert.
	ExtractSlots(ctx context.Context, current map[string]any, missing []string, contextText string) (map[string]any, error)
}

// Responder generates the terminal free-form response for a turn. The respond
// node substitutes a deterministic template when it fails, so implementations
// may simply return an error on any trouble.
type Responder interface {
	Respond(ctx context.Context, state *domain.State) (string, error)
}
