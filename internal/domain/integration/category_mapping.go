package integration

import (
	"context"
	"errors"
	"time"
)

// ---------------------------------------------------------------------------
// CategoryMapping Entity
// ---------------------------------------------------------------------------

// CategoryMapping links a storefront category to its remote ledger counterpart.
// A storefront category has at most one mapping per store.
type CategoryMapping struct {
	StoreID        int
	LocalID        int
	RemoteID       int
	RemoteParentID int
	Name           string
	UpdatedAt      time.Time
}

// NewCategoryMapping creates a mapping for a resolved remote category
func NewCategoryMapping(storeID, localID, remoteID, remoteParentID int, name string) (*CategoryMapping, error) {
	m := &CategoryMapping{
		StoreID:        storeID,
		LocalID:        localID,
		RemoteID:       remoteID,
		RemoteParentID: remoteParentID,
		Name:           name,
		UpdatedAt:      time.Now(),
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the mapping invariants
func (m *CategoryMapping) Validate() error {
	if m.LocalID <= 0 {
		return ErrMappingInvalidLocalID
	}
	if m.RemoteID < 0 {
		return ErrMappingInvalidRemoteID
	}
	return nil
}

// Rename records a new category name
func (m *CategoryMapping) Rename(name string) {
	m.Name = name
	m.UpdatedAt = time.Now()
}

// Mapping errors
var (
	ErrMappingNotFound        = errors.New("category mapping not found")
	ErrMappingInvalidLocalID  = errors.New("category mapping local id must be positive")
	ErrMappingInvalidRemoteID = errors.New("category mapping remote id must not be negative")
)

// ---------------------------------------------------------------------------
// CategoryMappingRepository Interface
// ---------------------------------------------------------------------------

// CategoryMappingRepository persists category mappings
type CategoryMappingRepository interface {
	// FindByLocalID returns ErrMappingNotFound when no mapping exists
	FindByLocalID(ctx context.Context, storeID, localID int) (*CategoryMapping, error)
	// FindAll lists every mapping of a store ordered by local id
	FindAll(ctx context.Context, storeID int) ([]CategoryMapping, error)
	// Save creates or replaces the mapping for (store, local id)
	Save(ctx context.Context, mapping *CategoryMapping) error
	// Delete removes the mapping, a missing mapping is not an error
	Delete(ctx context.Context, storeID, localID int) error
}
