package ports

import (
	"context"

	"github.com/parley-ai/parley/pkg/domain"
)

// CheckpointStore persists execution state per conversation thread, enabling
// "stop & resume" across turns and process restarts. The latest snapshot for
// a thread wins; implementations must be safe for concurrent use across
// threads (the façade serializes writers per thread).
type CheckpointStore interface {
	// Save upserts the latest state for a thread. A single Save is one atomic
	// write.
	Save(ctx context.Context, threadID string, state *domain.State) error

	// Load retrieves the most recent snapshot.
	// Returns domain.ErrThreadNotFound for a new thread.
	Load(ctx context.Context, threadID string) (*domain.State, error)

	// Delete removes the checkpoint for a thread. Administrative operation.
	Delete(ctx context.Context, threadID string) error

	// List returns the thread IDs with a stored checkpoint.
	List(ctx context.Context) ([]string, error)
}
