// Package reconcile mirrors storefront lifecycle events into the remote
// ledger. Every entry point loads the store settings, consults the
// subscription gate and then issues its remote calls one after the other.
// Nothing is rolled back or retried: a failed step leaves earlier remote
// writes in place and the next event for the same entity converges.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/erp/ledgersync/internal/domain/ledger"
	"github.com/erp/ledgersync/internal/domain/shared"
	"github.com/erp/ledgersync/internal/domain/storefront"
	"github.com/erp/ledgersync/internal/infrastructure/ids"
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"github.com/erp/ledgersync/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Engine errors
var (
	// ErrSkipped is returned when the gate denies an operation
	ErrSkipped = errors.New("reconcile: skipped, no active subscription")
	// ErrCategoryCycle is returned when a category is its own ancestor
	ErrCategoryCycle = errors.New("reconcile: category hierarchy has a cycle")
	// ErrCategoryTooDeep is returned when a hierarchy exceeds the depth limit
	ErrCategoryTooDeep = errors.New("reconcile: category hierarchy too deep")
	// ErrRemoteRejected is returned when a remote delete reports failure
	ErrRemoteRejected = errors.New("reconcile: remote ledger rejected the request")
)

// Gate decides whether work may run for a billing email
type Gate interface {
	Valid(ctx context.Context, email string) bool
}

// Config holds engine tunables
type Config struct {
	StoreID          int
	DebounceWindow   time.Duration
	FreshnessWindow  time.Duration
	MaxCategoryDepth int
	// AT is the manual fiscal registration sent for new document sets, nil
	// for automatic registration
	AT *ledger.ATRegistration
}

// DefaultConfig returns the engine defaults
func DefaultConfig() Config {
	return Config{
		DebounceWindow:   5 * time.Second,
		FreshnessWindow:  10 * time.Second,
		MaxCategoryDepth: 32,
	}
}

// Dependencies are the ports the engine drives
type Dependencies struct {
	Ledger    ledger.Clients
	Host      storefront.Reader
	TaxWriter storefront.TaxCategoryWriter
	Settings  integration.SettingsRepository
	Mappings  integration.CategoryMappingRepository
	Runs      integration.SyncRunRepository
	Gate      Gate
	Debounce  shared.IdempotencyStore
}

// Engine is the reconciliation engine
type Engine struct {
	ledger    ledger.Clients
	host      storefront.Reader
	taxWriter storefront.TaxCategoryWriter
	settings  integration.SettingsRepository
	mappings  integration.CategoryMappingRepository
	runs      integration.SyncRunRepository
	gate      Gate
	debounce  shared.IdempotencyStore

	cfg     Config
	logger  *zap.Logger
	metrics *telemetry.Metrics
	now     func() time.Time
	newID   func() string
}

// Option configures an Engine
type Option func(*Engine)

// WithMetrics records per-event outcomes
func WithMetrics(m *telemetry.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator replaces the sync run id generator
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		e.newID = newID
	}
}

// NewEngine creates an engine. Zero config values take DefaultConfig values.
func NewEngine(deps Dependencies, cfg Config, log *zap.Logger, opts ...Option) *Engine {
	defaults := DefaultConfig()
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = defaults.DebounceWindow
	}
	if cfg.FreshnessWindow <= 0 {
		cfg.FreshnessWindow = defaults.FreshnessWindow
	}
	if cfg.MaxCategoryDepth <= 0 {
		cfg.MaxCategoryDepth = defaults.MaxCategoryDepth
	}

	e := &Engine{
		ledger:    deps.Ledger,
		host:      deps.Host,
		taxWriter: deps.TaxWriter,
		settings:  deps.Settings,
		mappings:  deps.Mappings,
		runs:      deps.Runs,
		gate:      deps.Gate,
		debounce:  deps.Debounce,
		cfg:       cfg,
		logger:    log.Named("reconcile"),
		now:       time.Now,
		newID:     ids.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StoreID returns the store scope the engine serves
func (e *Engine) StoreID() int {
	return e.cfg.StoreID
}

// admit loads the current store settings and consults the gate. It returns
// ErrSkipped when the subscription is not active.
func (e *Engine) admit(ctx context.Context, op string) (*integration.Settings, error) {
	settings, err := e.settings.Load(ctx, e.cfg.StoreID)
	if err != nil {
		if errors.Is(err, integration.ErrSettingsNotFound) {
			return nil, fmt.Errorf("%s: %w", op, shared.ErrSettingsIncomplete)
		}
		return nil, fmt.Errorf("%s: load settings: %w", op, err)
	}
	if !e.gate.Valid(ctx, settings.BillingEmail) {
		logger.WithLogger(ctx, e.logger).Debug("Operation skipped by subscription gate", zap.String("operation", op))
		return nil, ErrSkipped
	}
	return settings, nil
}

// idErr converts a returned remote id into an error describing the step
func idErr(id int, format string, args ...any) error {
	if err := ledger.IDError(id); err != nil {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
	}
	return nil
}

// preconditionf builds an error wrapping ledger.ErrPrecondition
func preconditionf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ledger.ErrPrecondition)
}
