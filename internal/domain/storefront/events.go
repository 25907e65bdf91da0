package storefront

import (
	"github.com/erp/ledgersync/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type names
const (
	AggregateTypeCategory  = "Category"
	AggregateTypeProduct   = "Product"
	AggregateTypeCustomer  = "Customer"
	AggregateTypeAddress   = "Address"
	AggregateTypeOrder     = "Order"
	AggregateTypeWarehouse = "Warehouse"
)

// Event type constants
const (
	EventTypeCategoryInserted        = "category.inserted"
	EventTypeCategoryUpdated         = "category.updated"
	EventTypeCategoryDeleted         = "category.deleted"
	EventTypeProductCategoryInserted = "product_category.inserted"
	EventTypeProductUpdated          = "product.updated"
	EventTypeProductDeleted          = "product.deleted"
	EventTypeCustomerRegistered      = "customer.registered"
	EventTypeCustomerUpdated         = "customer.updated"
	EventTypeAddressInserted         = "address.inserted"
	EventTypeAddressUpdated          = "address.updated"
	EventTypeOrderPlaced             = "order.placed"
	EventTypeOrderPaid               = "order.paid"
	EventTypeOrderRefunded           = "order.refunded"
	EventTypeWarehouseInserted       = "warehouse.inserted"
	EventTypeWarehouseUpdated        = "warehouse.updated"
	EventTypeWarehouseDeleted        = "warehouse.deleted"
)

// CategoryEvent carries a category snapshot for insert, update and delete
type CategoryEvent struct {
	shared.BaseDomainEvent
	Category Category `json:"category"`
}

// NewCategoryEvent creates a category lifecycle event
func NewCategoryEvent(eventType string, storeID int, c Category) *CategoryEvent {
	return &CategoryEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeCategory, c.ID, storeID),
		Category:        c,
	}
}

// ProductCategoryInsertedEvent is raised when a product is placed in a category
type ProductCategoryInsertedEvent struct {
	shared.BaseDomainEvent
	ProductCategory ProductCategory `json:"product_category"`
}

// NewProductCategoryInsertedEvent creates a product-category association event
func NewProductCategoryInsertedEvent(storeID int, pc ProductCategory) *ProductCategoryInsertedEvent {
	return &ProductCategoryInsertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCategoryInserted, AggregateTypeProduct, pc.ProductID, storeID),
		ProductCategory: pc,
	}
}

// ProductEvent carries a product snapshot for update and delete
type ProductEvent struct {
	shared.BaseDomainEvent
	Product Product `json:"product"`
}

// NewProductEvent creates a product lifecycle event
func NewProductEvent(eventType string, storeID int, p Product) *ProductEvent {
	return &ProductEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeProduct, p.ID, storeID),
		Product:         p,
	}
}

// CustomerEvent carries a customer snapshot for registration and update
type CustomerEvent struct {
	shared.BaseDomainEvent
	Customer Customer `json:"customer"`
}

// NewCustomerEvent creates a customer lifecycle event
func NewCustomerEvent(eventType string, storeID int, c Customer) *CustomerEvent {
	return &CustomerEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeCustomer, c.ID, storeID),
		Customer:        c,
	}
}

// AddressEvent carries an address snapshot for insert and update
type AddressEvent struct {
	shared.BaseDomainEvent
	Address Address `json:"address"`
}

// NewAddressEvent creates an address lifecycle event
func NewAddressEvent(eventType string, storeID int, a Address) *AddressEvent {
	return &AddressEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeAddress, a.ID, storeID),
		Address:         a,
	}
}

// OrderEvent carries an order snapshot. RefundedAmount is set for refunds only.
type OrderEvent struct {
	shared.BaseDomainEvent
	Order          Order           `json:"order"`
	RefundedAmount decimal.Decimal `json:"refunded_amount"`
}

// NewOrderEvent creates an order lifecycle event
func NewOrderEvent(eventType string, storeID int, o Order) *OrderEvent {
	return &OrderEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeOrder, o.ID, storeID),
		Order:           o,
	}
}

// NewOrderRefundedEvent creates a refund event for the given amount
func NewOrderRefundedEvent(storeID int, o Order, amount decimal.Decimal) *OrderEvent {
	e := NewOrderEvent(EventTypeOrderRefunded, storeID, o)
	e.RefundedAmount = amount
	return e
}

// WarehouseEvent carries a warehouse snapshot
type WarehouseEvent struct {
	shared.BaseDomainEvent
	Warehouse Warehouse `json:"warehouse"`
}

// NewWarehouseEvent creates a warehouse lifecycle event
func NewWarehouseEvent(eventType string, storeID int, w Warehouse) *WarehouseEvent {
	return &WarehouseEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeWarehouse, w.ID, storeID),
		Warehouse:       w,
	}
}

// Compile-time interface checks
var (
	_ shared.DomainEvent = (*CategoryEvent)(nil)
	_ shared.DomainEvent = (*ProductCategoryInsertedEvent)(nil)
	_ shared.DomainEvent = (*ProductEvent)(nil)
	_ shared.DomainEvent = (*CustomerEvent)(nil)
	_ shared.DomainEvent = (*AddressEvent)(nil)
	_ shared.DomainEvent = (*OrderEvent)(nil)
	_ shared.DomainEvent = (*WarehouseEvent)(nil)
)
