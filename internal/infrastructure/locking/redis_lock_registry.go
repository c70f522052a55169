package locking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tradeflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// releaseScript deletes the lock key only when the stored token still
// matches, so an expired lock reacquired by another holder is never
// released by the original one.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLockRegistry implements LockRegistry on Redis using SET NX with
// a TTL. Suitable for distributed deployments where multiple instances
// process documents against the same database.
type RedisLockRegistry struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisLockRegistry creates a new Redis-backed lock registry. The TTL
// bounds how long a crashed holder can block other workers.
func NewRedisLockRegistry(cfg RedisConfig, ttl time.Duration, logger *zap.Logger) (*RedisLockRegistry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisLockRegistryWithClient(client, "", ttl, logger), nil
}

// NewRedisLockRegistryWithClient creates a registry with an existing
// Redis client. Useful for testing or sharing a client across
// components.
func NewRedisLockRegistryWithClient(client *redis.Client, keyPrefix string, ttl time.Duration, logger *zap.Logger) *RedisLockRegistry {
	if keyPrefix == "" {
		keyPrefix = "reconcile:lock:"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLockRegistry{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		logger:    logger,
	}
}

// tryAcquire attempts one SET NX and returns the release func on
// success, nil on contention.
func (r *RedisLockRegistry) tryAcquire(ctx context.Context, key string) (shared.ReleaseFunc, error) {
	fullKey := r.keyPrefix + key
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, fullKey, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.client.Eval(releaseCtx, releaseScript, []string{fullKey}, token).Err(); err != nil {
				r.logger.Warn("failed to release lock",
					zap.String("key", key),
					zap.Error(err),
				)
			}
		})
	}, nil
}

// Acquire blocks until the lock for key is held or ctx is done, polling
// at a fixed interval.
func (r *RedisLockRegistry) Acquire(ctx context.Context, key string) (shared.ReleaseFunc, error) {
	const pollInterval = 100 * time.Millisecond

	for {
		release, err := r.tryAcquire(ctx, key)
		if err != nil {
			return nil, err
		}
		if release != nil {
			return release, nil
		}

		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// AcquireWithRetry attempts the lock up to attempts times with a fixed
// backoff between attempts
func (r *RedisLockRegistry) AcquireWithRetry(ctx context.Context, key string, attempts int, backoff time.Duration) (shared.ReleaseFunc, error) {
	for attempt := 0; attempt < attempts; attempt++ {
		release, err := r.tryAcquire(ctx, key)
		if err != nil {
			return nil, err
		}
		if release != nil {
			return release, nil
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, shared.ErrLockNotAcquired
}

// Close closes the Redis client
func (r *RedisLockRegistry) Close() error {
	return r.client.Close()
}
