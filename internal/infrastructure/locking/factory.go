package locking

import (
	"fmt"
	"time"

	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// LockRegistryFactory creates lock registries based on configuration
type LockRegistryFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// LockRegistryFactoryOption is a functional option for configuring the factory
type LockRegistryFactoryOption func(*LockRegistryFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) LockRegistryFactoryOption {
	return func(f *LockRegistryFactory) {
		f.logger = logger
	}
}

// WithTTL sets the lock expiry used by the Redis registry
func WithTTL(ttl time.Duration) LockRegistryFactoryOption {
	return func(f *LockRegistryFactory) {
		f.ttl = ttl
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory
// registry when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) LockRegistryFactoryOption {
	return func(f *LockRegistryFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewLockRegistryFactory creates a new factory
func NewLockRegistryFactory(cfg config.RedisConfig, opts ...LockRegistryFactoryOption) *LockRegistryFactory {
	f := &LockRegistryFactory{
		redisConfig:           cfg,
		ttl:                   5 * time.Minute,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisRegistry creates a Redis-backed lock registry
func (f *LockRegistryFactory) CreateRedisRegistry() (shared.LockRegistry, error) {
	registry, err := NewRedisLockRegistry(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.ttl, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis lock registry: %w", err)
	}
	return registry, nil
}

// CreateInMemoryRegistry creates an in-memory lock registry
func (f *LockRegistryFactory) CreateInMemoryRegistry() shared.LockRegistry {
	return NewInMemoryLockRegistry()
}

// CreateRegistry creates a lock registry based on whether Redis is
// available. It tries Redis first and falls back to in-memory when the
// connection fails and fallback is allowed.
func (f *LockRegistryFactory) CreateRegistry() (shared.LockRegistry, error) {
	registry, err := f.CreateRedisRegistry()
	if err == nil {
		f.logger.Info("using Redis lock registry",
			zap.String("host", f.redisConfig.Host),
			zap.Int("port", f.redisConfig.Port),
		)
		return registry, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis lock registry unavailable and in-memory fallback disabled: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory lock registry",
		zap.Error(err),
	)
	return f.CreateInMemoryRegistry(), nil
}
