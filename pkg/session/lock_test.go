package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/parley-ai/parley/pkg/domain"
)

// MockStore structure
type MockStore struct{}

func (m *MockStore) Save(ctx context.Context, threadID string, state *domain.State) error {
	return nil
}
func (m *MockStore) Load(ctx context.Context, threadID string) (*domain.State, error) {
	return nil, domain.ErrThreadNotFound
}
func (m *MockStore) Delete(ctx context.Context, threadID string) error { return nil }
func (m *MockStore) List(ctx context.Context) ([]string, error)        { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(&MockStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		tid := fmt.Sprintf("thread-%d", i)
		_ = mgr.WithLock(ctx, tid, func(context.Context) error {
			return mgr.Save(ctx, tid, &domain.State{})
		})
		_ = mgr.Delete(ctx, tid)
	}

	// Reference counting must garbage collect every unused lock entry.
	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("memory leak: %d locks remaining after Delete", lockCount)
	}
}
