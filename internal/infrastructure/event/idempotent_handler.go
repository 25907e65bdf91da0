package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/erp/ledgersync/internal/domain/shared"
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// DefaultRedeliveryTTL is how long a delivered event id is remembered
const DefaultRedeliveryTTL = 24 * time.Hour

// IdempotencyStats is a snapshot of the redelivery counters
type IdempotencyStats struct {
	EventsProcessed int64 `json:"events_processed"`
	EventsDuplicate int64 `json:"events_duplicate"`
	EventsFailed    int64 `json:"events_failed"`
}

// IdempotentHandler wraps an EventHandler so that an envelope redelivered with
// the same event id is reconciled once. Keys are "event:<id>".
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	ttl     time.Duration
	logger  *zap.Logger

	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// NewIdempotentHandler creates a new idempotent handler wrapper. A zero ttl
// uses DefaultRedeliveryTTL.
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, ttl time.Duration, log *zap.Logger) *IdempotentHandler {
	if ttl <= 0 {
		ttl = DefaultRedeliveryTTL
	}
	return &IdempotentHandler{
		handler: handler,
		store:   store,
		ttl:     ttl,
		logger:  log,
	}
}

// EventTypes returns the event types of the wrapped handler
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle processes the event unless its id was already seen
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	log := logger.WithLogger(ctx, h.logger).With(zap.String("event_type", event.EventType()))

	isNew, err := h.store.MarkProcessed(ctx, "event:"+event.EventID().String(), h.ttl)
	if err != nil {
		// A store outage must not drop events.
		log.Warn("failed to check redelivery, processing anyway", zap.Error(err))
	} else if !isNew {
		h.duplicate.Add(1)
		log.Debug("duplicate event detected, skipping")
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		// The key stays set until ttl, so a failing event is not retried in a loop.
		h.failed.Add(1)
		return err
	}
	h.processed.Add(1)
	return nil
}

// Stats returns a snapshot of the counters
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		EventsProcessed: h.processed.Load(),
		EventsDuplicate: h.duplicate.Load(),
		EventsFailed:    h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
