package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/parley-ai/parley/pkg/domain"
)

// CheckpointStore implements ports.CheckpointStore on the checkpoints table.
type CheckpointStore struct {
	db *sql.DB
}

// Save upserts the latest state for a thread as a single atomic write.
func (s *CheckpointStore) Save(ctx context.Context, threadID string, state *domain.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (thread_id, serialized_state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			serialized_state = excluded.serialized_state,
			updated_at = excluded.updated_at`,
		threadID, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load retrieves the most recent snapshot for a thread.
func (s *CheckpointStore) Load(ctx context.Context, threadID string) (*domain.State, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT serialized_state FROM checkpoints WHERE thread_id = ?`,
		threadID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	var state domain.State
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("failed to deserialize checkpoint: %w", err)
	}
	return &state, nil
}

// Delete removes the checkpoint for a thread.
func (s *CheckpointStore) Delete(ctx context.Context, threadID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM checkpoints WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// List returns the thread IDs with a stored checkpoint.
func (s *CheckpointStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT thread_id FROM checkpoints ORDER BY thread_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
