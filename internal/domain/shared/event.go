package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents a lifecycle notification raised by the storefront
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() int
	AggregateType() string
	StoreID() int
}

// BaseDomainEvent provides common fields for all domain events
type BaseDomainEvent struct {
	ID           uuid.UUID `json:"id"`
	Type         string    `json:"type"`
	Timestamp    time.Time `json:"occurred_at"`
	AggID        int       `json:"aggregate_id"`
	AggType      string    `json:"aggregate_type"`
	StoreIDValue int       `json:"store_id"`
}

// EventID returns the unique event identifier
func (e *BaseDomainEvent) EventID() uuid.UUID {
	return e.ID
}

// EventType returns the type of the event
func (e *BaseDomainEvent) EventType() string {
	return e.Type
}

// OccurredAt returns when the event occurred
func (e *BaseDomainEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID returns the storefront id of the entity that changed
func (e *BaseDomainEvent) AggregateID() int {
	return e.AggID
}

// AggregateType returns the type of the aggregate
func (e *BaseDomainEvent) AggregateType() string {
	return e.AggType
}

// StoreID returns the store scope the event belongs to
func (e *BaseDomainEvent) StoreID() int {
	return e.StoreIDValue
}

// NewBaseDomainEvent creates a new base domain event
func NewBaseDomainEvent(eventType, aggType string, aggID, storeID int) BaseDomainEvent {
	return BaseDomainEvent{
		ID:           uuid.New(),
		Type:         eventType,
		Timestamp:    time.Now(),
		AggID:        aggID,
		AggType:      aggType,
		StoreIDValue: storeID,
	}
}

// Stamp replaces the generated id and timestamp with the values an upstream
// producer assigned. Zero values are ignored.
func (e *BaseDomainEvent) Stamp(id uuid.UUID, at time.Time) {
	if id != uuid.Nil {
		e.ID = id
	}
	if !at.IsZero() {
		e.Timestamp = at
	}
}
