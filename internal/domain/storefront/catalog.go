package storefront

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is a storefront product category
type Category struct {
	ID               int       `json:"id"`
	ParentCategoryID int       `json:"parent_category_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	UpdatedOnUtc     time.Time `json:"updated_on_utc"`
}

// IsRoot reports whether the category has no parent
func (c *Category) IsRoot() bool {
	return c.ParentCategoryID == 0
}

// Product is a storefront product snapshot
type Product struct {
	ID               int             `json:"id"`
	Name             string          `json:"name"`
	ShortDescription string          `json:"short_description,omitempty"`
	FullDescription  string          `json:"full_description,omitempty"`
	Sku              string          `json:"sku"`
	Price            decimal.Decimal `json:"price"`
	StockQuantity    int             `json:"stock_quantity"`
	MinStockQuantity int             `json:"min_stock_quantity"`
	WarehouseID      int             `json:"warehouse_id"`
	TaxCategoryID    int             `json:"tax_category_id"`
	IsTaxExempt      bool            `json:"is_tax_exempt"`
	CategoryIDs      []int           `json:"category_ids,omitempty"`
	UpdatedOnUtc     time.Time       `json:"updated_on_utc"`
}

// PrimaryCategoryID returns the first category the product belongs to, or 0
func (p *Product) PrimaryCategoryID() int {
	if len(p.CategoryIDs) == 0 {
		return 0
	}
	return p.CategoryIDs[0]
}

// WarehouseInventory is one per-warehouse stock row of a product
type WarehouseInventory struct {
	ProductID        int `json:"product_id"`
	WarehouseID      int `json:"warehouse_id"`
	StockQuantity    int `json:"stock_quantity"`
	ReservedQuantity int `json:"reserved_quantity"`
}

// TaxCategory is a storefront tax category
type TaxCategory struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`
}

// ProductCategory associates a product with a category
type ProductCategory struct {
	ID         int `json:"id"`
	ProductID  int `json:"product_id"`
	CategoryID int `json:"category_id"`
}
