// Package redis provides a Redis-backed checkpoint store and distributed
// locker, for deployments where several replicas serve turns for the same
// threads.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/parley-ai/parley/pkg/domain"
)

// checkpointRecord is the stored envelope: the serialized state plus the
// write timestamp.
type checkpointRecord struct {
	State     *domain.State `json:"state"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Store implements ports.CheckpointStore on Redis. Each checkpoint is one
// JSON value; a sorted set indexes thread IDs by expiry for List.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// StoreOption configures the Store.
type StoreOption func(*Store)

// WithTTL sets a checkpoint expiry. Zero (the default) keeps checkpoints
// forever.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix overrides the key prefix (default "parley:").
func WithPrefix(prefix string) StoreOption {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// NewFromClient creates a Store over an existing Redis client. The client may
// be shared process-wide; each Save or Delete is one atomic pipeline.
func NewFromClient(client *backend.Client, opts ...StoreOption) *Store {
	s := &Store{
		client: client,
		prefix: "parley:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(threadID string) string {
	return s.prefix + "checkpoint:" + threadID
}

func (s *Store) indexKey() string {
	return s.prefix + "checkpoints"
}

// expiryScore is the ZSET score for a thread: its expiry unix time, or +inf
// when checkpoints do not expire.
func (s *Store) expiryScore() float64 {
	if s.ttl <= 0 {
		return float64(time.Unix(1<<62, 0).Unix())
	}
	return float64(time.Now().Add(s.ttl).Unix())
}

// Save upserts the latest state for a thread.
func (s *Store) Save(ctx context.Context, threadID string, state *domain.State) error {
	payload, err := json.Marshal(checkpointRecord{
		State:     state,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(threadID), payload, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: s.expiryScore(), Member: threadID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load retrieves the most recent snapshot for a thread.
func (s *Store) Load(ctx context.Context, threadID string) (*domain.State, error) {
	payload, err := s.client.Get(ctx, s.key(threadID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrThreadNotFound
		}
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	var record checkpointRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("failed to deserialize checkpoint: %w", err)
	}
	if record.State == nil {
		return nil, domain.ErrThreadNotFound
	}
	return record.State, nil
}

// Delete removes the checkpoint for a thread.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(threadID))
	pipe.ZRem(ctx, s.indexKey(), threadID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// List returns thread IDs with a live checkpoint. Expired index entries are
// lazily removed here; the values themselves expire via key TTL.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", now).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune checkpoint index: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	return ids, nil
}
