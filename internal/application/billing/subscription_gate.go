package billing

import (
	"context"
	"strings"
	"time"

	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/erp/ledgersync/internal/infrastructure/billing"
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"github.com/erp/ledgersync/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultSubscriptionTTL is how long a lookup result is trusted
const DefaultSubscriptionTTL = 24 * time.Hour

// Gate decision sources
const (
	SourceCache  = "cache"
	SourceLookup = "lookup"
)

// Notification messages
const (
	MessageSubscriptionActive = "Subscription is active"
	MessageNoSubscription     = "No active subscription"
	MessageNoBillingEmail     = "Billing email is not configured"
)

// SubscriptionChecker performs a live subscription lookup
type SubscriptionChecker interface {
	HasActiveSubscription(ctx context.Context, email string) (bool, error)
}

// Notification is the user-visible result of a subscription check
type Notification struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SubscriptionGate decides whether sync work may run for a billing email.
// Lookups are cached per email for the TTL, positive and negative alike.
type SubscriptionGate struct {
	checker SubscriptionChecker
	cache   integration.SubscriptionCache
	ttl     time.Duration
	metrics *telemetry.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// GateOption configures a SubscriptionGate
type GateOption func(*SubscriptionGate)

// WithMetrics records gate decisions
func WithMetrics(m *telemetry.Metrics) GateOption {
	return func(g *SubscriptionGate) {
		g.metrics = m
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) GateOption {
	return func(g *SubscriptionGate) {
		g.now = now
	}
}

// NewSubscriptionGate creates a gate. A non-positive ttl uses DefaultSubscriptionTTL.
func NewSubscriptionGate(
	checker SubscriptionChecker,
	cache integration.SubscriptionCache,
	ttl time.Duration,
	log *zap.Logger,
	opts ...GateOption,
) *SubscriptionGate {
	if ttl <= 0 {
		ttl = DefaultSubscriptionTTL
	}
	g := &SubscriptionGate{
		checker: checker,
		cache:   cache,
		ttl:     ttl,
		logger:  log.Named("subscription_gate"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Valid reports whether email holds an active subscription. It never returns
// an error: a failed lookup counts as no subscription.
func (g *SubscriptionGate) Valid(ctx context.Context, email string) bool {
	email = normalizeEmail(email)
	if email == "" {
		return false
	}
	log := logger.WithLogger(ctx, g.logger)

	status, err := g.cache.Get(ctx, email)
	if err != nil {
		log.Warn("Subscription cache read failed", zap.Error(err))
	}
	if status.Fresh(g.now(), g.ttl) {
		g.metrics.ObserveGateDecision(status.Valid, SourceCache)
		return status.Valid
	}

	valid, _ := g.lookup(ctx, email)
	return valid
}

// Check runs a live lookup and describes the outcome. The result refreshes
// the cache.
func (g *SubscriptionGate) Check(ctx context.Context, email string) Notification {
	email = normalizeEmail(email)
	if email == "" {
		return Notification{Success: false, Message: MessageNoBillingEmail}
	}

	valid, err := g.lookup(ctx, email)
	if valid {
		return Notification{Success: true, Message: MessageSubscriptionActive}
	}
	if err != nil {
		return Notification{Success: false, Message: billing.ErrorMessage(err)}
	}
	return Notification{Success: false, Message: MessageNoSubscription}
}

// lookup asks the checker and caches the boolean outcome
func (g *SubscriptionGate) lookup(ctx context.Context, email string) (bool, error) {
	log := logger.WithLogger(ctx, g.logger)

	valid, err := g.checker.HasActiveSubscription(ctx, email)
	if err != nil {
		log.Info("Subscription lookup negative", zap.String("email", email), zap.Error(err))
		valid = false
	}

	status := integration.SubscriptionStatus{Valid: valid, LastChecked: g.now()}
	if cacheErr := g.cache.Set(ctx, email, status, g.ttl); cacheErr != nil {
		log.Warn("Subscription cache write failed", zap.Error(cacheErr))
	}
	g.metrics.ObserveGateDecision(valid, SourceLookup)
	return valid, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
