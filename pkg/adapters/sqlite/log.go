package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parley-ai/parley/pkg/domain"
)

// ConversationLog implements ports.ConversationLog on the conversations and
// conversation_entries tables.
type ConversationLog struct {
	db *sql.DB
}

// Append stores one log entry in a single transaction, creating or touching
// the conversation row. Append-only: identical entries yield distinct rows.
func (l *ConversationLog) Append(ctx context.Context, entry domain.LogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	var metadata any
	if len(entry.Metadata) > 0 {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to serialize metadata: %w", err)
		}
		metadata = string(raw)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (thread_id, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			updated_at = excluded.updated_at,
			user_id = COALESCE(NULLIF(excluded.user_id, ''), conversations.user_id)`,
		entry.ThreadID, entry.UserID, entry.Timestamp, entry.Timestamp); err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO conversation_entries (id, thread_id, user_id, session_id, user_input, timestamp, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ThreadID, entry.UserID, entry.SessionID,
		entry.UserInput, entry.Timestamp, metadata); err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}

	return tx.Commit()
}

// Entries returns a thread's entries, oldest first.
func (l *ConversationLog) Entries(ctx context.Context, threadID string, limit int) ([]domain.LogEntry, error) {
	query := `SELECT id, thread_id, user_id, session_id, user_input, timestamp, metadata
		FROM conversation_entries WHERE thread_id = ? ORDER BY timestamp`
	args := []any{threadID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Threads lists logged conversations, most recently active first.
func (l *ConversationLog) Threads(ctx context.Context, userID string, limit int) ([]domain.ThreadInfo, error) {
	query := `SELECT c.thread_id, c.user_id, COUNT(e.id), c.created_at, c.updated_at
		FROM conversations c
		LEFT JOIN conversation_entries e ON e.thread_id = c.thread_id`
	var args []any
	if userID != "" {
		query += " WHERE c.user_id = ?"
		args = append(args, userID)
	}
	query += " GROUP BY c.thread_id ORDER BY c.updated_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var infos []domain.ThreadInfo
	for rows.Next() {
		var info domain.ThreadInfo
		var user sql.NullString
		if err := rows.Scan(&info.ThreadID, &user, &info.EntryCount, &info.CreatedAt, &info.UpdatedAt); err != nil {
			return nil, err
		}
		info.UserID = user.String
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes a conversation and all its entries.
func (l *ConversationLog) Delete(ctx context.Context, threadID string) error {
	if _, err := l.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// Purge deletes conversations with no activity since the cutoff and returns
// how many were removed.
func (l *ConversationLog) Purge(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE updated_at < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to purge conversations: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Statistics summarizes the log for administrative reporting.
type Statistics struct {
	Conversations int `json:"total_conversations"`
	Entries       int `json:"total_entries"`
	UniqueUsers   int `json:"unique_users"`
	RecentEntries int `json:"recent_entries"`
}

// Statistics aggregates log-wide counts. RecentEntries counts entries logged
// after activeSince.
func (l *ConversationLog) Statistics(ctx context.Context, activeSince time.Time) (Statistics, error) {
	var stats Statistics
	err := l.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM conversations),
			(SELECT COUNT(*) FROM conversation_entries),
			(SELECT COUNT(DISTINCT user_id) FROM conversations),
			(SELECT COUNT(*) FROM conversation_entries WHERE timestamp > ?)`,
		activeSince,
	).Scan(&stats.Conversations, &stats.Entries, &stats.UniqueUsers, &stats.RecentEntries)
	if err != nil {
		return Statistics{}, fmt.Errorf("failed to query statistics: %w", err)
	}
	return stats, nil
}

// Search performs a case-insensitive substring search over logged user inputs.
func (l *ConversationLog) Search(ctx context.Context, query string, limit int) ([]domain.LogEntry, error) {
	sqlQuery := `SELECT id, thread_id, user_id, session_id, user_input, timestamp, metadata
		FROM conversation_entries WHERE user_input LIKE ? ORDER BY timestamp`
	args := []any{"%" + query + "%"}
	if limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]domain.LogEntry, error) {
	var entries []domain.LogEntry
	for rows.Next() {
		var entry domain.LogEntry
		var user, session, metadata sql.NullString
		if err := rows.Scan(&entry.ID, &entry.ThreadID, &user, &session,
			&entry.UserInput, &entry.Timestamp, &metadata); err != nil {
			return nil, err
		}
		entry.UserID = user.String
		entry.SessionID = session.String
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to deserialize metadata: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
