package domain

import "time"

// LogEntry is one append-only record of the human-audit conversation log.
// It is distinct from a checkpoint: never mutated, never used to resume.
type LogEntry struct {
	ID        string            `json:"id,omitempty"`
	ThreadID  string            `json:"thread_id"`
	UserID    string            `json:"user_id"`
	SessionID string            `json:"session_id,omitempty"`
	UserInput string            `json:"user_input"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ThreadInfo summarizes one logged conversation for administrative listings.
type ThreadInfo struct {
	ThreadID   string    `json:"thread_id"`
	UserID     string    `json:"user_id"`
	EntryCount int       `json:"entry_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
