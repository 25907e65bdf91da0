package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys for a bounded window.
// It backs the product update debounce: the first MarkProcessed for a key
// wins the window, later calls inside the TTL are rejected.
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL
	// Returns true if the key was newly marked, false if it was already marked
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key is currently marked
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}
