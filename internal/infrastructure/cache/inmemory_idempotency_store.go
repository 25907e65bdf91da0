package cache

import (
	"context"
	"time"

	"github.com/erp/ledgersync/internal/domain/shared"
)

// InMemoryIdempotencyStore implements IdempotencyStore using an in-memory map.
// It backs the product update debounce for single-instance deployments.
type InMemoryIdempotencyStore struct {
	entries *ttlMap[struct{}]
}

// InMemoryOption configures the in-memory stores
type InMemoryOption func(*inMemoryOptions)

type inMemoryOptions struct {
	now func() time.Time
}

// WithClock sets the clock entries expire against; defaults to time.Now
func WithClock(now func() time.Time) InMemoryOption {
	return func(o *inMemoryOptions) {
		if now != nil {
			o.now = now
		}
	}
}

func applyInMemoryOptions(opts []InMemoryOption) inMemoryOptions {
	o := inMemoryOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewInMemoryIdempotencyStore creates a store with a background cleanup loop
func NewInMemoryIdempotencyStore(opts ...InMemoryOption) *InMemoryIdempotencyStore {
	o := applyInMemoryOptions(opts)
	return &InMemoryIdempotencyStore{entries: newTTLMap[struct{}](o.now)}
}

// MarkProcessed marks key for ttl. It returns false when key is already marked.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.entries.setIfAbsent(key, struct{}{}, ttl), nil
}

// IsProcessed checks whether key is currently marked
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	_, ok := s.entries.get(key)
	return ok, nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.entries.close()
	return nil
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryIdempotencyStore) Size() int {
	return s.entries.size()
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
