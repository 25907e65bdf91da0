package cache

import (
	"fmt"
	"sync"

	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/erp/ledgersync/internal/domain/shared"
	"github.com/erp/ledgersync/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Factory creates the debounce store and the subscription cache for the
// configured backend. Redis stores share one client owned by the factory.
type Factory struct {
	backend               string
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool

	mu     sync.Mutex
	client *redis.Client
	dial   func(config.RedisConfig) (*redis.Client, error)
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when
// Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// WithRedisClient uses an existing client instead of dialing
func WithRedisClient(client *redis.Client) FactoryOption {
	return func(f *Factory) {
		f.client = client
	}
}

// NewFactory creates a new factory
func NewFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		backend:               cacheCfg.Backend,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		dial:                  NewRedisClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// redisClient returns the shared client, dialing on first use
func (f *Factory) redisClient() (*redis.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client != nil {
		return f.client, nil
	}
	client, err := f.dial(f.redisConfig)
	if err != nil {
		return nil, err
	}
	f.client = client
	return client, nil
}

// fallback decides between an error and the in-memory store after a Redis failure
func (f *Factory) fallback(what string, err error) error {
	if !f.allowInMemoryFallback {
		return fmt.Errorf("Redis required for %s but unavailable: %w", what, err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory "+what+". "+
		"State is not shared between instances.",
		zap.Error(err),
	)
	return nil
}

// IdempotencyStore creates the debounce store
func (f *Factory) IdempotencyStore() (shared.IdempotencyStore, error) {
	if f.backend != BackendRedis {
		return NewInMemoryIdempotencyStore(), nil
	}

	client, err := f.redisClient()
	if err != nil {
		if ferr := f.fallback("debounce store", err); ferr != nil {
			return nil, ferr
		}
		return NewInMemoryIdempotencyStore(), nil
	}
	f.logger.Info("using Redis debounce store")
	return NewRedisIdempotencyStoreWithClient(client, ""), nil
}

// SubscriptionCache creates the subscription cache
func (f *Factory) SubscriptionCache() (integration.SubscriptionCache, error) {
	if f.backend != BackendRedis {
		return NewInMemorySubscriptionCache(), nil
	}

	client, err := f.redisClient()
	if err != nil {
		if ferr := f.fallback("subscription cache", err); ferr != nil {
			return nil, ferr
		}
		return NewInMemorySubscriptionCache(), nil
	}
	f.logger.Info("using Redis subscription cache")
	return NewRedisSubscriptionCacheWithClient(client, ""), nil
}

// Close closes the shared Redis client, if one was opened
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client == nil {
		return nil
	}
	err := f.client.Close()
	f.client = nil
	return err
}
