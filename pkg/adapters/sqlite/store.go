// Package sqlite provides a SQLite-backed checkpoint store and conversation
// log. Checkpoints and log entries live in independent tables, so the
// concurrently-running classify and record nodes cannot corrupt either.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Store owns the database handle. Checkpoints() and Log() expose the two
// persistence ports over the same file.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at dsn and runs migrations.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across
	// goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// migrate runs database migrations.
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS checkpoints (
			thread_id TEXT PRIMARY KEY,
			serialized_state TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			thread_id TEXT PRIMARY KEY,
			user_id TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_entries (
			id TEXT PRIMARY KEY,
			thread_id TEXT NOT NULL,
			user_id TEXT,
			session_id TEXT,
			user_input TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			metadata TEXT,
			FOREIGN KEY (thread_id) REFERENCES conversations(thread_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_thread ON conversation_entries(thread_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_timestamp ON conversation_entries(timestamp)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Checkpoints returns the checkpoint store facet.
func (s *Store) Checkpoints() *CheckpointStore {
	return &CheckpointStore{db: s.db}
}

// Log returns the conversation log facet.
func (s *Store) Log() *ConversationLog {
	return &ConversationLog{db: s.db}
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
