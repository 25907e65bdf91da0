package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/erp/ledgersync/internal/domain/shared"
	"github.com/erp/ledgersync/internal/domain/storefront"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Envelope is the wire form of a storefront notification
type Envelope struct {
	ID         string          `json:"id,omitempty"`
	Type       string          `json:"type" binding:"required"`
	StoreID    int             `json:"store_id" binding:"required,min=1"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload" binding:"required"`
}

// Decode errors
var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrInvalidPayload   = errors.New("invalid event payload")
)

// stamper is implemented by events embedding shared.BaseDomainEvent
type stamper interface {
	Stamp(id uuid.UUID, at time.Time)
}

type decodeFunc func(storeID int, payload json.RawMessage) (shared.DomainEvent, error)

// EventSerializer decodes envelopes into typed domain events
type EventSerializer struct {
	mu       sync.RWMutex
	decoders map[string]decodeFunc
}

// NewEventSerializer creates a serializer with every storefront event registered
func NewEventSerializer() *EventSerializer {
	s := &EventSerializer{decoders: make(map[string]decodeFunc)}
	RegisterAllEvents(s)
	return s
}

// Register maps eventType to a payload type T and the constructor of its event
func Register[T any](s *EventSerializer, eventType string, build func(storeID int, payload T) shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.decoders[eventType] = func(storeID int, raw json.RawMessage) (shared.DomainEvent, error) {
		var payload T
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return build(storeID, payload), nil
	}
}

// Decode turns an envelope into its typed event. The envelope id and
// timestamp, when present, replace the generated ones.
func (s *EventSerializer) Decode(env Envelope) (shared.DomainEvent, error) {
	s.mu.RLock()
	decode, ok := s.decoders[env.Type]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, env.Type)
	}

	var id uuid.UUID
	if env.ID != "" {
		parsed, err := uuid.Parse(env.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: id: %v", ErrInvalidPayload, err)
		}
		id = parsed
	}

	event, err := decode(env.StoreID, env.Payload)
	if err != nil {
		return nil, err
	}
	if st, ok := event.(stamper); ok {
		st.Stamp(id, env.OccurredAt)
	}
	return event, nil
}

// IsRegistered checks if an event type is registered
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.decoders[eventType]
	return ok
}

// RegisteredTypes returns all registered event types, sorted
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.decoders))
	for t := range s.decoders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// refundPayload is the payload of order.refunded
type refundPayload struct {
	Order          storefront.Order `json:"order"`
	RefundedAmount decimal.Decimal  `json:"refunded_amount"`
}

// RegisterAllEvents registers every storefront event type
func RegisterAllEvents(s *EventSerializer) {
	category := func(eventType string) {
		Register(s, eventType, func(storeID int, c storefront.Category) shared.DomainEvent {
			return storefront.NewCategoryEvent(eventType, storeID, c)
		})
	}
	category(storefront.EventTypeCategoryInserted)
	category(storefront.EventTypeCategoryUpdated)
	category(storefront.EventTypeCategoryDeleted)

	Register(s, storefront.EventTypeProductCategoryInserted, func(storeID int, pc storefront.ProductCategory) shared.DomainEvent {
		return storefront.NewProductCategoryInsertedEvent(storeID, pc)
	})
	product := func(eventType string) {
		Register(s, eventType, func(storeID int, p storefront.Product) shared.DomainEvent {
			return storefront.NewProductEvent(eventType, storeID, p)
		})
	}
	product(storefront.EventTypeProductUpdated)
	product(storefront.EventTypeProductDeleted)

	customer := func(eventType string) {
		Register(s, eventType, func(storeID int, c storefront.Customer) shared.DomainEvent {
			return storefront.NewCustomerEvent(eventType, storeID, c)
		})
	}
	customer(storefront.EventTypeCustomerRegistered)
	customer(storefront.EventTypeCustomerUpdated)

	address := func(eventType string) {
		Register(s, eventType, func(storeID int, a storefront.Address) shared.DomainEvent {
			return storefront.NewAddressEvent(eventType, storeID, a)
		})
	}
	address(storefront.EventTypeAddressInserted)
	address(storefront.EventTypeAddressUpdated)

	order := func(eventType string) {
		Register(s, eventType, func(storeID int, o storefront.Order) shared.DomainEvent {
			return storefront.NewOrderEvent(eventType, storeID, o)
		})
	}
	order(storefront.EventTypeOrderPlaced)
	order(storefront.EventTypeOrderPaid)
	Register(s, storefront.EventTypeOrderRefunded, func(storeID int, p refundPayload) shared.DomainEvent {
		return storefront.NewOrderRefundedEvent(storeID, p.Order, p.RefundedAmount)
	})

	warehouse := func(eventType string) {
		Register(s, eventType, func(storeID int, w storefront.Warehouse) shared.DomainEvent {
			return storefront.NewWarehouseEvent(eventType, storeID, w)
		})
	}
	warehouse(storefront.EventTypeWarehouseInserted)
	warehouse(storefront.EventTypeWarehouseUpdated)
	warehouse(storefront.EventTypeWarehouseDeleted)
}
