// Package event holds the in-process event bus, the handler registry and the
// envelope decoder that turns storefront notifications into typed events.
package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/ledgersync/internal/domain/shared"
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"github.com/erp/ledgersync/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultDispatchTimeout bounds one asynchronous dispatch
const DefaultDispatchTimeout = 2 * time.Minute

// InMemoryEventBus implements EventBus with in-memory pub/sub
type InMemoryEventBus struct {
	registry        *HandlerRegistry
	logger          *zap.Logger
	dispatchTimeout time.Duration

	// mu orders each dispatch's wg.Add before Stop's wg.Wait
	mu       sync.Mutex
	stopping bool
	wg       sync.WaitGroup
}

// BusOption configures the bus
type BusOption func(*InMemoryEventBus)

// WithDispatchTimeout sets the timeout of asynchronous dispatches
func WithDispatchTimeout(d time.Duration) BusOption {
	return func(b *InMemoryEventBus) {
		if d > 0 {
			b.dispatchTimeout = d
		}
	}
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(log *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	b := &InMemoryEventBus{
		registry:        NewHandlerRegistry(),
		logger:          log.Named("event_bus"),
		dispatchTimeout: DefaultDispatchTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish delivers events to every registered handler synchronously. Handler
// failures are logged and do not stop delivery to the others.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		b.deliver(ctx, event)
	}
	return nil
}

// PublishAsync delivers events on a tracked goroutine. The dispatch keeps the
// values of ctx, such as the request logger and trace, but not its
// cancellation, and is bounded by the dispatch timeout instead.
func (b *InMemoryEventBus) PublishAsync(ctx context.Context, events ...shared.DomainEvent) {
	b.mu.Lock()
	if b.stopping {
		b.mu.Unlock()
		b.logger.Warn("event bus stopping, dropping events", zap.Int("count", len(events)))
		return
	}
	b.wg.Add(1)
	b.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	go func() {
		defer b.wg.Done()

		ctx, cancel := context.WithTimeout(detached, b.dispatchTimeout)
		defer cancel()

		for _, event := range events {
			b.deliver(ctx, event)
		}
	}()
}

func (b *InMemoryEventBus) deliver(ctx context.Context, event shared.DomainEvent) {
	ctx, log := logger.WithEventID(ctx, logger.WithLogger(ctx, b.logger).Zap(), event.EventID().String())
	ctx, span := telemetry.StartSpan(ctx, "event "+event.EventType(),
		telemetry.SpanAttrEventType, event.EventType(),
		telemetry.SpanAttrAggregateID, event.AggregateID(),
		telemetry.SpanAttrStoreID, event.StoreID(),
	)
	defer span.End()

	for _, handler := range b.registry.GetHandlers(event.EventType()) {
		if err := b.dispatchToHandler(ctx, handler, event); err != nil {
			telemetry.RecordError(span, err)
			log.Error("handler failed to process event",
				zap.String("event_type", event.EventType()),
				zap.Int("aggregate_id", event.AggregateID()),
				zap.Error(err),
			)
		}
	}
}

// Subscribe registers a handler for specific event types
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.logger.Debug("handler unsubscribed")
}

// Start starts the event bus
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	b.stopping = false
	b.mu.Unlock()
	b.logger.Info("event bus started")
	return nil
}

// Stop rejects new asynchronous dispatches and waits for in-flight ones,
// up to the deadline of ctx
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	b.stopping = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus stop: %w", ctx.Err())
	}
}

// dispatchToHandler dispatches an event to a handler, turning a panic into an error
func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
