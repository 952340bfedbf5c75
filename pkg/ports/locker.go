package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates turn execution across replicas. The session
// manager already serializes turns per thread in-process; a locker extends
// that guarantee to multiple instances sharing one store.
type DistributedLocker interface {
	// Lock acquires a lock for the key (a thread ID), blocking until acquired
	// or the context is canceled. The returned UnlockFunc MUST be called to
	// release it; the TTL bounds how long a crashed holder wedges the thread.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
