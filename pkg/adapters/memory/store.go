// Package memory provides in-memory adapters for the persistence ports.
// Useful for tests and ephemeral single-process deployments; nothing
// survives a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/parley-ai/parley/pkg/domain"
)

// CheckpointStore implements ports.CheckpointStore in memory.
// Safe for concurrent use.
type CheckpointStore struct {
	data map[string]*domain.State
	mu   sync.RWMutex
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		data: make(map[string]*domain.State),
	}
}

// Save persists the state in memory. The state is deep-copied so later
// mutations by the caller do not leak into the stored snapshot.
func (s *CheckpointStore) Save(ctx context.Context, threadID string, state *domain.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[threadID] = state.Clone()
	return nil
}

// Load retrieves a deep copy of the stored state.
func (s *CheckpointStore) Load(ctx context.Context, threadID string) (*domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[threadID]
	if !ok {
		return nil, domain.ErrThreadNotFound
	}
	return state.Clone(), nil
}

// Delete removes the checkpoint.
func (s *CheckpointStore) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, threadID)
	return nil
}

// List returns the stored thread IDs in deterministic order.
func (s *CheckpointStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ConversationLog implements ports.ConversationLog in memory.
// Safe for concurrent use.
type ConversationLog struct {
	entries map[string][]domain.LogEntry
	users   map[string]string
	mu      sync.RWMutex
}

// NewConversationLog creates a new in-memory conversation log.
func NewConversationLog() *ConversationLog {
	return &ConversationLog{
		entries: make(map[string][]domain.LogEntry),
		users:   make(map[string]string),
	}
}

// Append stores one entry. Append-only: identical entries yield distinct rows.
func (l *ConversationLog) Append(ctx context.Context, entry domain.LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[entry.ThreadID] = append(l.entries[entry.ThreadID], entry)
	if entry.UserID != "" {
		l.users[entry.ThreadID] = entry.UserID
	}
	return nil
}

// Entries returns a thread's entries, oldest first.
func (l *ConversationLog) Entries(ctx context.Context, threadID string, limit int) ([]domain.LogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.entries[threadID]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return append([]domain.LogEntry(nil), entries...), nil
}

// Threads lists logged conversations, most recently active first.
func (l *ConversationLog) Threads(ctx context.Context, userID string, limit int) ([]domain.ThreadInfo, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var infos []domain.ThreadInfo
	for threadID, entries := range l.entries {
		if len(entries) == 0 {
			continue
		}
		if userID != "" && l.users[threadID] != userID {
			continue
		}
		infos = append(infos, domain.ThreadInfo{
			ThreadID:   threadID,
			UserID:     l.users[threadID],
			EntryCount: len(entries),
			CreatedAt:  entries[0].Timestamp,
			UpdatedAt:  entries[len(entries)-1].Timestamp,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	if limit > 0 && len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}

// Delete removes a conversation and all its entries.
func (l *ConversationLog) Delete(ctx context.Context, threadID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, threadID)
	delete(l.users, threadID)
	return nil
}

// Purge deletes conversations with no activity since the cutoff.
func (l *ConversationLog) Purge(ctx context.Context, olderThan time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	purged := 0
	for threadID, entries := range l.entries {
		if len(entries) == 0 || entries[len(entries)-1].Timestamp.Before(olderThan) {
			delete(l.entries, threadID)
			delete(l.users, threadID)
			purged++
		}
	}
	return purged, nil
}

// Search performs a case-insensitive substring search over logged user inputs.
func (l *ConversationLog) Search(ctx context.Context, query string, limit int) ([]domain.LogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	needle := strings.ToLower(query)
	var hits []domain.LogEntry
	for _, entries := range l.entries {
		for _, entry := range entries {
			if strings.Contains(strings.ToLower(entry.UserInput), needle) {
				hits = append(hits, entry)
			}
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Timestamp.Before(hits[j].Timestamp)
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
