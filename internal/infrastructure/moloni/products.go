package moloni

import (
	"context"
	"net/url"
	"strconv"

	"github.com/erp/ledgersync/internal/domain/ledger"
)

// ProductClient implements ledger.ProductClient
type ProductClient struct{ resource }

var _ ledger.ProductClient = (*ProductClient)(nil)

type productBody struct {
	CompanyID int `json:"company_id"`
	*ledger.Product
}

// GetAll lists the products of a category
func (c *ProductClient) GetAll(ctx context.Context, categoryID int) []ledger.Product {
	resp := c.postForm(ctx, "products/getAll/", func(f url.Values) {
		f.Set("category_id", strconv.Itoa(categoryID))
	})
	return Decode[[]ledger.Product](resp)
}

// GetByReference returns the first product with the reference, nil when none
func (c *ProductClient) GetByReference(ctx context.Context, reference string) *ledger.Product {
	resp := c.postForm(ctx, "products/getByReference/", func(f url.Values) {
		f.Set("reference", reference)
	})
	return first(Decode[[]ledger.Product](resp))
}

// Insert creates a product and returns its id
func (c *ProductClient) Insert(ctx context.Context, p *ledger.Product) int {
	resp := c.postJSON(ctx, "products/insert/", func(companyID int) any {
		return productBody{CompanyID: companyID, Product: p}
	})
	return intField(resp, "product_id")
}

// Update replaces a product and returns its id. p.ProductID must be set.
func (c *ProductClient) Update(ctx context.Context, p *ledger.Product) int {
	if p.ProductID <= 0 {
		return ledger.IDPreconditionFailed
	}
	resp := c.postJSON(ctx, "products/update/", func(companyID int) any {
		return productBody{CompanyID: companyID, Product: p}
	})
	return intField(resp, "product_id")
}

// Delete removes a product
func (c *ProductClient) Delete(ctx context.Context, productID int) bool {
	resp := c.postForm(ctx, "products/delete/", func(f url.Values) {
		f.Set("product_id", strconv.Itoa(productID))
	})
	return valid(resp)
}

// StockClient implements ledger.StockClient
type StockClient struct{ resource }

var _ ledger.StockClient = (*StockClient)(nil)

// Insert issues a stock movement and returns its id
func (c *StockClient) Insert(ctx context.Context, m ledger.StockMovement) int {
	resp := c.postForm(ctx, "productStocks/insert/", func(f url.Values) {
		f.Set("product_id", strconv.Itoa(m.ProductID))
		f.Set("movement_date", m.MovementDate)
		f.Set("qty", formatQty(m.Qty))
		setInt(f, "warehouse_id", m.WarehouseID)
		setString(f, "notes", m.Notes)
	})
	return intField(resp, "stock_movement_id")
}
