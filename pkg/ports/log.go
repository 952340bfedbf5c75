package ports

import (
	"context"
	"time"

	"github.com/parley-ai/parley/pkg/domain"
)

// ConversationLog is the append-only human-audit log of user inputs, kept in
// storage independent from checkpoints so concurrent writers in one
// invocation cannot corrupt either. Append failures are reported, never
// raised past the logging node.
type ConversationLog interface {
	// Append stores one entry. Append-only: identical entries yield distinct
	// rows.
	Append(ctx context.Context, entry domain.LogEntry) error

	// Entries returns a thread's entries, oldest first. limit <= 0 means all.
	Entries(ctx context.Context, threadID string, limit int) ([]domain.LogEntry, error)

	// Threads lists logged conversations, most recently active first,
	// optionally filtered by user. limit <= 0 means all.
	Threads(ctx context.Context, userID string, limit int) ([]domain.ThreadInfo, error)

	// Delete removes a conversation and all its entries.
	Delete(ctx context.Context, threadID string) error

	// Purge deletes conversations with no activity since the cutoff and
	// returns how many were removed.
	Purge(ctx context.Context, olderThan time.Time) (int, error)

	// Search performs a full-text search over logged user inputs.
	Search(ctx context.Context, query string, limit int) ([]domain.LogEntry, error)
}
