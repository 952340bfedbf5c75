package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-ai/parley/pkg/domain"
)

// RunCheckpointStoreContract runs a suite of tests verifying that a
// CheckpointStore implementation adheres to the interface contract.
func RunCheckpointStoreContract(t *testing.T, store CheckpointStore) {
	ctx := context.Background()
	threadID := "contract-thread-" + time.Now().Format("20060102150405.000")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState(threadID, "user-1")
		state.Slots["departure_city"] = "New York"
		state.Slots["round_trip"] = true
		state.Step = domain.StepCollecting
		state.Intent = &domain.Classification{
			Intent:     domain.IntentBookFlight,
			Confidence: 0.92,
			Reasoning:  "explicit booking request",
			Language:   "en",
		}
		state.Messages = append(state.Messages, domain.UserMessage("I want to book a flight"))

		require.NoError(t, store.Save(ctx, threadID, state))

		loaded, err := store.Load(ctx, threadID)
		require.NoError(t, err)
		assert.Equal(t, state.ThreadID, loaded.ThreadID)
		assert.Equal(t, state.Step, loaded.Step)
		assert.Equal(t, "New York", loaded.Slots["departure_city"])
		// JSON round-tripping may not preserve numeric types, but booleans survive.
		assert.Equal(t, true, loaded.Slots["round_trip"])
		require.NotNil(t, loaded.Intent)
		assert.Equal(t, domain.IntentBookFlight, loaded.Intent.Intent)
		assert.InDelta(t, 0.92, loaded.Intent.Confidence, 1e-9)
		require.Len(t, loaded.Messages, 1)
		assert.Equal(t, "I want to book a flight", loaded.Messages[0].Content)
	})

	t.Run("Upsert overwrites", func(t *testing.T) {
		state := domain.NewState(threadID, "user-1")
		state.Step = domain.StepComplete
		require.NoError(t, store.Save(ctx, threadID, state))

		loaded, err := store.Load(ctx, threadID)
		require.NoError(t, err)
		assert.Equal(t, domain.StepComplete, loaded.Step)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+threadID)
		assert.ErrorIs(t, err, domain.ErrThreadNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, threadID, domain.NewState(threadID, "user-1")))
		require.NoError(t, store.Delete(ctx, threadID))

		_, err := store.Load(ctx, threadID)
		assert.ErrorIs(t, err, domain.ErrThreadNotFound, "Load after Delete should return ErrThreadNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := threadID + "-1"
		id2 := threadID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewState(id1, "u")))
		require.NoError(t, store.Save(ctx, id2, domain.NewState(id2, "u")))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		threads, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, threads, id1)
		assert.Contains(t, threads, id2)
	})
}

// RunConversationLogContract verifies a ConversationLog implementation.
func RunConversationLogContract(t *testing.T, log ConversationLog) {
	ctx := context.Background()
	threadID := "contract-log-" + time.Now().Format("20060102150405.000")

	entry := domain.LogEntry{
		ThreadID:  threadID,
		UserID:    "user-1",
		SessionID: "sess-1",
		UserInput: "I want to book a flight to London",
		Timestamp: time.Now().UTC(),
		Metadata:  map[string]string{"intent": "book_flight"},
	}

	t.Run("Append is append-only", func(t *testing.T) {
		require.NoError(t, log.Append(ctx, entry))
		require.NoError(t, log.Append(ctx, entry))

		entries, err := log.Entries(ctx, threadID, 0)
		require.NoError(t, err)
		assert.Len(t, entries, 2, "identical appends must yield distinct entries")
		assert.Equal(t, entry.UserInput, entries[0].UserInput)
		assert.Equal(t, "book_flight", entries[0].Metadata["intent"])
	})

	t.Run("Entries limit", func(t *testing.T) {
		entries, err := log.Entries(ctx, threadID, 1)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("Threads", func(t *testing.T) {
		threads, err := log.Threads(ctx, "", 0)
		require.NoError(t, err)
		found := false
		for _, th := range threads {
			if th.ThreadID == threadID {
				found = true
				assert.Equal(t, "user-1", th.UserID)
				assert.Equal(t, 2, th.EntryCount)
			}
		}
		assert.True(t, found, "thread missing from listing")

		byUser, err := log.Threads(ctx, "user-1", 0)
		require.NoError(t, err)
		assert.NotEmpty(t, byUser)

		byOther, err := log.Threads(ctx, "someone-else", 0)
		require.NoError(t, err)
		for _, th := range byOther {
			assert.NotEqual(t, threadID, th.ThreadID)
		}
	})

	t.Run("Search", func(t *testing.T) {
		hits, err := log.Search(ctx, "London", 10)
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Contains(t, hits[0].UserInput, "London")

		none, err := log.Search(ctx, "zanzibar-unicorn", 10)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, log.Delete(ctx, threadID))
		entries, err := log.Entries(ctx, threadID, 0)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Purge", func(t *testing.T) {
		staleID := threadID + "-stale"
		freshID := threadID + "-fresh"
		stale := entry
		stale.ThreadID = staleID
		stale.Timestamp = time.Now().UTC().Add(-48 * time.Hour)
		fresh := entry
		fresh.ThreadID = freshID
		fresh.Timestamp = time.Now().UTC()
		require.NoError(t, log.Append(ctx, stale))
		require.NoError(t, log.Append(ctx, fresh))

		purged, err := log.Purge(ctx, time.Now().UTC().Add(-24*time.Hour))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, purged, 1)

		entries, err := log.Entries(ctx, staleID, 0)
		require.NoError(t, err)
		assert.Empty(t, entries, "stale conversation should be purged")

		entries, err = log.Entries(ctx, freshID, 0)
		require.NoError(t, err)
		assert.NotEmpty(t, entries, "fresh conversation must survive purge")
		_ = log.Delete(ctx, freshID)
	})
}
