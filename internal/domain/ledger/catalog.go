package ledger

import (
	"regexp"
	"strconv"
)

// Category is a remote product category
type Category struct {
	CategoryID  int    `json:"category_id"`
	ParentID    int    `json:"parent_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Visibility  int    `json:"visibility,omitempty"`
	POSEnabled  int    `json:"pos_enabled,omitempty"`
}

// BackReferencePrefix tags a remote description with the storefront id
const BackReferencePrefix = "NopID:"

// BackReference returns the description tag for a storefront category id
func BackReference(localID int) string {
	return BackReferencePrefix + strconv.Itoa(localID)
}

var backReferencePattern = regexp.MustCompile(`NopID:(\d+)`)

// HasBackReference reports whether the description carries the exact tag
// for localID. NopID:1 does not match a description tagged NopID:12.
func (c *Category) HasBackReference(localID int) bool {
	want := strconv.Itoa(localID)
	for _, m := range backReferencePattern.FindAllStringSubmatch(c.Description, -1) {
		if m[1] == want {
			return true
		}
	}
	return false
}

// Product type and AT category codes
const (
	ProductTypeGoods          = 1
	ATProductCategoryGoods    = "M"
	ExemptionReasonNotTaxed   = "M19"
	ReferencePropertyTitle    = "Referência do NopCommerce"
	DefaultUnitShortName      = "uni."
	FinalConsumerVAT          = "999999990"
	ReservedCustomerNumber    = 9999
	PurchaseOrderValidityDays = 30
)

// ProductTax is a tax line on a product or document line
type ProductTax struct {
	TaxID      int     `json:"tax_id"`
	Value      float64 `json:"value"`
	Order      int     `json:"order"`
	Cumulative int     `json:"cumulative"`
}

// ProductProperty is a custom property value on a product
type ProductProperty struct {
	PropertyID int    `json:"property_id"`
	Value      string `json:"value"`
}

// ProductWarehouse is the stock of a product in one warehouse
type ProductWarehouse struct {
	WarehouseID int     `json:"warehouse_id"`
	Stock       float64 `json:"stock"`
}

// Product is a remote product
type Product struct {
	ProductID         int                `json:"product_id,omitempty"`
	CategoryID        int                `json:"category_id"`
	Type              int                `json:"type"`
	Name              string             `json:"name"`
	Summary           string             `json:"summary,omitempty"`
	Reference         string             `json:"reference"`
	Price             float64            `json:"price"`
	UnitID            int                `json:"unit_id"`
	HasStock          int                `json:"has_stock"`
	Stock             float64            `json:"stock"`
	MinimumStock      float64            `json:"minimum_stock"`
	ATProductCategory string             `json:"at_product_category"`
	Notes             string             `json:"notes,omitempty"`
	ExemptionReason   string             `json:"exemption_reason,omitempty"`
	Taxes             []ProductTax       `json:"taxes,omitempty"`
	Properties        []ProductProperty  `json:"properties,omitempty"`
	Warehouses        []ProductWarehouse `json:"warehouses,omitempty"`
}

// PropertyValue returns the value of a custom property, or ""
func (p *Product) PropertyValue(propertyID int) string {
	for _, prop := range p.Properties {
		if prop.PropertyID == propertyID {
			return prop.Value
		}
	}
	return ""
}

// WarehouseStock returns the remote stock held in a warehouse
func (p *Product) WarehouseStock(warehouseID int) float64 {
	for _, w := range p.Warehouses {
		if w.WarehouseID == warehouseID {
			return w.Stock
		}
	}
	return 0
}

// StockMovement is a stock adjustment for one product
type StockMovement struct {
	ProductID    int
	MovementDate string
	Qty          float64
	WarehouseID  int
	Notes        string
}

// Warehouse is a remote warehouse. Code carries the storefront id.
type Warehouse struct {
	WarehouseID  int    `json:"warehouse_id,omitempty"`
	IsDefault    int    `json:"is_default,omitempty"`
	Title        string `json:"title"`
	Code         string `json:"code"`
	Address      string `json:"address"`
	City         string `json:"city"`
	ZipCode      string `json:"zip_code"`
	CountryID    int    `json:"country_id"`
	Phone        string `json:"phone,omitempty"`
	Fax          string `json:"fax,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
}
