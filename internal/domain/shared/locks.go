package shared

import (
	"context"
	"time"
)

// ReleaseFunc releases a previously acquired lock. It is safe to call
// exactly once; callers defer it on every path out of the guarded
// section.
type ReleaseFunc func()

// LockRegistry provides named advisory locks keyed by string. Locks for
// different keys never contend. Implementations may be process-local or
// backed by a shared store for multi-process deployments.
type LockRegistry interface {
	// Acquire blocks until the lock for key is held, or ctx is done.
	Acquire(ctx context.Context, key string) (ReleaseFunc, error)

	// AcquireWithRetry attempts to take the lock up to attempts times,
	// sleeping backoff between attempts. Returns ErrLockNotAcquired when
	// the budget is exhausted without holding the lock.
	AcquireWithRetry(ctx context.Context, key string, attempts int, backoff time.Duration) (ReleaseFunc, error)

	// Close releases registry resources.
	Close() error
}

// LockConfig holds retry tuning for per-row update locks
type LockConfig struct {
	// RetryAttempts is the number of times AcquireWithRetry tries before
	// giving up. Default: 5.
	RetryAttempts int

	// RetryBackoff is the sleep between attempts. Default: 200ms.
	RetryBackoff time.Duration
}

// DefaultLockConfig returns the default lock retry configuration
func DefaultLockConfig() LockConfig {
	return LockConfig{
		RetryAttempts: 5,
		RetryBackoff:  200 * time.Millisecond,
	}
}
