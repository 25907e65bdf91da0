package ledger

import "context"

// CategoryClient manages remote product categories
type CategoryClient interface {
	GetAll(ctx context.Context, parentID int) []Category
	GetOne(ctx context.Context, categoryID int) *Category
	Insert(ctx context.Context, parentID int, name, description string) int
	Update(ctx context.Context, categoryID, parentID int, name string) int
	Delete(ctx context.Context, categoryID int) bool
}

// ProductClient manages remote products
type ProductClient interface {
	GetAll(ctx context.Context, categoryID int) []Product
	GetByReference(ctx context.Context, reference string) *Product
	Insert(ctx context.Context, p *Product) int
	Update(ctx context.Context, p *Product) int
	Delete(ctx context.Context, productID int) bool
}

// StockClient issues stock movements
type StockClient interface {
	Insert(ctx context.Context, m StockMovement) int
}

// WarehouseClient manages remote warehouses
type WarehouseClient interface {
	GetAll(ctx context.Context) []Warehouse
	Insert(ctx context.Context, w *Warehouse) int
	Update(ctx context.Context, w *Warehouse) int
	Delete(ctx context.Context, warehouseID int) bool
}

// CustomerClient manages remote customers
type CustomerClient interface {
	GetByEmail(ctx context.Context, email string) *Customer
	GetByVAT(ctx context.Context, vat string) *Customer
	Count(ctx context.Context) int
	NextNumber(ctx context.Context) int
	Insert(ctx context.Context, c *Customer) int
	Update(ctx context.Context, c *Customer) int
}

// PurchaseOrderClient manages purchase orders
type PurchaseOrderClient interface {
	Insert(ctx context.Context, po *PurchaseOrder) int
	GetOne(ctx context.Context, q DocumentQuery) *Document
	Count(ctx context.Context, q DocumentQuery) int
}

// InvoiceReceiptClient manages invoice receipts
type InvoiceReceiptClient interface {
	Insert(ctx context.Context, ir *InvoiceReceipt) int
	GetOne(ctx context.Context, q DocumentQuery) *Document
	Count(ctx context.Context, q DocumentQuery) int
}

// PaymentReturnClient creates payment returns
type PaymentReturnClient interface {
	Insert(ctx context.Context, pr *PaymentReturn) int
}

// PaymentMethodClient manages payment methods
type PaymentMethodClient interface {
	GetByName(ctx context.Context, name string) *PaymentMethod
	Insert(ctx context.Context, name string) int
}

// DocumentSetClient manages document sets
type DocumentSetClient interface {
	GetAll(ctx context.Context) []DocumentSet
	Insert(ctx context.Context, name string) int
	RegisterAT(ctx context.Context, documentSetID, documentTypeID int, reg *ATRegistration) bool
}

// LookupClient reads reference data and creates custom properties
type LookupClient interface {
	MeasurementUnits(ctx context.Context) []MeasurementUnit
	Properties(ctx context.Context) []PropertyDefinition
	InsertProperty(ctx context.Context, title string) int
	Taxes(ctx context.Context) []Tax
	Countries(ctx context.Context) []Country
	Currencies(ctx context.Context) []Currency
}

// Clients bundles every resource client
type Clients struct {
	Categories      CategoryClient
	Products        ProductClient
	Stocks          StockClient
	Warehouses      WarehouseClient
	Customers       CustomerClient
	PurchaseOrders  PurchaseOrderClient
	InvoiceReceipts InvoiceReceiptClient
	PaymentReturns  PaymentReturnClient
	PaymentMethods  PaymentMethodClient
	DocumentSets    DocumentSetClient
	Lookups         LookupClient
}
