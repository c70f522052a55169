package locking

import (
	"context"
	"sync"
	"time"

	"github.com/tradeflow/backend/internal/domain/shared"
)

// InMemoryLockRegistry implements LockRegistry with per-key channel
// semaphores. Suitable for single-instance deployments and testing.
// WARNING: locks are not shared across process instances; concurrent
// processing of the same document on two nodes is not prevented.
type InMemoryLockRegistry struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewInMemoryLockRegistry creates a new in-memory lock registry
func NewInMemoryLockRegistry() *InMemoryLockRegistry {
	return &InMemoryLockRegistry{
		locks: make(map[string]chan struct{}),
	}
}

// semaphore returns the channel guarding key, creating it on first use.
// Keys are never removed; the registry holds one channel per distinct
// key seen over its lifetime.
func (r *InMemoryLockRegistry) semaphore(key string) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	sem, ok := r.locks[key]
	if !ok {
		sem = make(chan struct{}, 1)
		r.locks[key] = sem
	}
	return sem
}

// Acquire blocks until the lock for key is held or ctx is done
func (r *InMemoryLockRegistry) Acquire(ctx context.Context, key string) (shared.ReleaseFunc, error) {
	sem := r.semaphore(key)
	select {
	case sem <- struct{}{}:
		return r.releaseOnce(sem), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AcquireWithRetry attempts the lock up to attempts times with a fixed
// backoff between attempts
func (r *InMemoryLockRegistry) AcquireWithRetry(ctx context.Context, key string, attempts int, backoff time.Duration) (shared.ReleaseFunc, error) {
	sem := r.semaphore(key)
	for attempt := 0; attempt < attempts; attempt++ {
		select {
		case sem <- struct{}{}:
			return r.releaseOnce(sem), nil
		default:
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, shared.ErrLockNotAcquired
}

func (r *InMemoryLockRegistry) releaseOnce(sem chan struct{}) shared.ReleaseFunc {
	var once sync.Once
	return func() {
		once.Do(func() { <-sem })
	}
}

// Close releases registry resources
func (r *InMemoryLockRegistry) Close() error {
	return nil
}
