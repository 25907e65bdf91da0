package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/ledgersync/internal/domain/shared"
	"github.com/erp/ledgersync/internal/domain/storefront"
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"github.com/erp/ledgersync/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// resultIgnored labels events of another store
const resultIgnored = "ignored"

// EventHandler routes storefront lifecycle events to the engine
type EventHandler struct {
	engine *Engine
	logger *zap.Logger
}

// NewEventHandler creates the storefront event handler
func NewEventHandler(engine *Engine, log *zap.Logger) *EventHandler {
	return &EventHandler{
		engine: engine,
		logger: log.Named("reconcile.events"),
	}
}

// EventTypes returns every storefront event type
func (h *EventHandler) EventTypes() []string {
	return []string{
		storefront.EventTypeCategoryInserted,
		storefront.EventTypeCategoryUpdated,
		storefront.EventTypeCategoryDeleted,
		storefront.EventTypeProductCategoryInserted,
		storefront.EventTypeProductUpdated,
		storefront.EventTypeProductDeleted,
		storefront.EventTypeCustomerRegistered,
		storefront.EventTypeCustomerUpdated,
		storefront.EventTypeAddressInserted,
		storefront.EventTypeAddressUpdated,
		storefront.EventTypeOrderPlaced,
		storefront.EventTypeOrderPaid,
		storefront.EventTypeOrderRefunded,
		storefront.EventTypeWarehouseInserted,
		storefront.EventTypeWarehouseUpdated,
		storefront.EventTypeWarehouseDeleted,
	}
}

// Handle dispatches one event. Events of another store are ignored, and a
// gate denial is not an error.
func (h *EventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	log := logger.WithLogger(ctx, h.logger).With(
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.Int("aggregate_id", event.AggregateID()),
	)

	if event.StoreID() != h.engine.StoreID() {
		log.Debug("Ignoring event of another store", zap.Int("store_id", event.StoreID()))
		h.engine.metrics.ObserveEvent(event.EventType(), resultIgnored)
		return nil
	}

	err := h.dispatch(ctx, event)
	switch {
	case err == nil:
		h.engine.metrics.ObserveEvent(event.EventType(), telemetry.OutcomeSuccess)
		return nil
	case errors.Is(err, ErrSkipped):
		h.engine.metrics.ObserveEvent(event.EventType(), telemetry.OutcomeSkipped)
		return nil
	default:
		h.engine.metrics.ObserveEvent(event.EventType(), telemetry.OutcomeFailure)
		log.Warn("Event reconciliation failed", zap.Error(err))
		return err
	}
}

func (h *EventHandler) dispatch(ctx context.Context, event shared.DomainEvent) error {
	e := h.engine
	switch ev := event.(type) {
	case *storefront.CategoryEvent:
		switch ev.EventType() {
		case storefront.EventTypeCategoryInserted:
			return e.CategoryInserted(ctx, ev.Category)
		case storefront.EventTypeCategoryUpdated:
			return e.CategoryUpdated(ctx, ev.Category)
		case storefront.EventTypeCategoryDeleted:
			return e.CategoryDeleted(ctx, ev.Category)
		}
	case *storefront.ProductCategoryInsertedEvent:
		return e.ProductCategoryInserted(ctx, ev.ProductCategory)
	case *storefront.ProductEvent:
		switch ev.EventType() {
		case storefront.EventTypeProductUpdated:
			return e.ProductUpdated(ctx, ev.Product)
		case storefront.EventTypeProductDeleted:
			return e.ProductDeleted(ctx, ev.Product)
		}
	case *storefront.CustomerEvent:
		return e.CustomerChanged(ctx, ev.Customer)
	case *storefront.AddressEvent:
		return e.AddressChanged(ctx, ev.Address)
	case *storefront.OrderEvent:
		switch ev.EventType() {
		case storefront.EventTypeOrderPlaced:
			return e.OrderPlaced(ctx, ev.Order)
		case storefront.EventTypeOrderPaid:
			return e.OrderPaid(ctx, ev.Order)
		case storefront.EventTypeOrderRefunded:
			return e.OrderRefunded(ctx, ev.Order, ev.RefundedAmount)
		}
	case *storefront.WarehouseEvent:
		switch ev.EventType() {
		case storefront.EventTypeWarehouseInserted:
			return e.WarehouseInserted(ctx, ev.Warehouse)
		case storefront.EventTypeWarehouseUpdated:
			return e.WarehouseUpdated(ctx, ev.Warehouse)
		case storefront.EventTypeWarehouseDeleted:
			return e.WarehouseDeleted(ctx, ev.Warehouse)
		}
	}
	return fmt.Errorf("unsupported event %s (%T)", event.EventType(), event)
}

var _ shared.EventHandler = (*EventHandler)(nil)
