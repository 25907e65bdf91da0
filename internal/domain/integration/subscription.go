package integration

import (
	"context"
	"time"
)

// SubscriptionStatus is the cached answer of a subscription lookup
type SubscriptionStatus struct {
	Valid       bool      `json:"valid"`
	LastChecked time.Time `json:"last_checked"`
}

// Fresh reports whether the status was checked less than ttl before now
func (s *SubscriptionStatus) Fresh(now time.Time, ttl time.Duration) bool {
	return s != nil && now.Sub(s.LastChecked) < ttl
}

// SubscriptionCache stores subscription lookups per billing email
type SubscriptionCache interface {
	// Get returns the cached status, nil on a miss
	Get(ctx context.Context, email string) (*SubscriptionStatus, error)
	// Set stores status for ttl
	Set(ctx context.Context, email string, status SubscriptionStatus, ttl time.Duration) error
	// Close releases resources
	Close() error
}
