package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/redis/go-redis/v9"
)

// RedisSubscriptionCache stores subscription lookups as JSON values with an
// expiry, so every instance sees the same answer
type RedisSubscriptionCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisSubscriptionCacheWithClient creates a cache on a shared client.
// The caller keeps ownership of the client.
func NewRedisSubscriptionCacheWithClient(client *redis.Client, keyPrefix string) *RedisSubscriptionCache {
	if keyPrefix == "" {
		keyPrefix = defaultSubscriptionPrefix
	}
	return &RedisSubscriptionCache{client: client, keyPrefix: keyPrefix}
}

// Get returns the cached status for email, nil on a miss
func (c *RedisSubscriptionCache) Get(ctx context.Context, email string) (*integration.SubscriptionStatus, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+subscriptionKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read subscription cache: %w", err)
	}

	var status integration.SubscriptionStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to decode subscription cache entry: %w", err)
	}
	return &status, nil
}

// Set stores status for ttl
func (c *RedisSubscriptionCache) Set(ctx context.Context, email string, status integration.SubscriptionStatus, ttl time.Duration) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to encode subscription status: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+subscriptionKey(email), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write subscription cache: %w", err)
	}
	return nil
}

// Close is a no-op; the shared client is closed by the Factory
func (c *RedisSubscriptionCache) Close() error {
	return nil
}

var _ integration.SubscriptionCache = (*RedisSubscriptionCache)(nil)
