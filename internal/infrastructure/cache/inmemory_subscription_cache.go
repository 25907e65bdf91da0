package cache

import (
	"context"
	"strings"
	"time"

	"github.com/erp/ledgersync/internal/domain/integration"
)

// InMemorySubscriptionCache keeps subscription lookups in process memory
type InMemorySubscriptionCache struct {
	entries *ttlMap[integration.SubscriptionStatus]
}

// NewInMemorySubscriptionCache creates an empty cache
func NewInMemorySubscriptionCache(opts ...InMemoryOption) *InMemorySubscriptionCache {
	o := applyInMemoryOptions(opts)
	return &InMemorySubscriptionCache{entries: newTTLMap[integration.SubscriptionStatus](o.now)}
}

// Get returns the cached status for email, nil on a miss
func (c *InMemorySubscriptionCache) Get(ctx context.Context, email string) (*integration.SubscriptionStatus, error) {
	status, ok := c.entries.get(subscriptionKey(email))
	if !ok {
		return nil, nil
	}
	return &status, nil
}

// Set stores status for ttl
func (c *InMemorySubscriptionCache) Set(ctx context.Context, email string, status integration.SubscriptionStatus, ttl time.Duration) error {
	c.entries.set(subscriptionKey(email), status, ttl)
	return nil
}

// Close stops the cleanup goroutine
func (c *InMemorySubscriptionCache) Close() error {
	c.entries.close()
	return nil
}

// subscriptionKey normalizes an email so lookups ignore case and padding
func subscriptionKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ integration.SubscriptionCache = (*InMemorySubscriptionCache)(nil)
