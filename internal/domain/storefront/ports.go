package storefront

import "context"

// CatalogReader reads catalog data from the storefront
type CatalogReader interface {
	GetCategory(ctx context.Context, id int) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	GetProduct(ctx context.Context, id int) (*Product, error)
	ListProductsByCategory(ctx context.Context, categoryID int) ([]Product, error)
	ListWarehouseInventory(ctx context.Context, productID int) ([]WarehouseInventory, error)
	GetTaxCategory(ctx context.Context, id int) (*TaxCategory, error)
	ListTaxCategories(ctx context.Context) ([]TaxCategory, error)
}

// TaxCategoryWriter creates storefront tax categories
type TaxCategoryWriter interface {
	CreateTaxCategory(ctx context.Context, name string, displayOrder int) (*TaxCategory, error)
}

// CustomerReader reads customers, addresses and countries
type CustomerReader interface {
	GetCustomer(ctx context.Context, id int) (*Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*Customer, error)
	GetAddress(ctx context.Context, id int) (*Address, error)
	GetCountry(ctx context.Context, id int) (*Country, error)
}

// OrderReader reads order lines
type OrderReader interface {
	ListOrderItems(ctx context.Context, orderID int) ([]OrderItem, error)
}

// Reader aggregates every storefront read port
type Reader interface {
	CatalogReader
	CustomerReader
	OrderReader
}
