package moloni

import (
	"context"
	"net/url"
	"strconv"

	"github.com/erp/ledgersync/internal/domain/ledger"
)

// WarehouseClient implements ledger.WarehouseClient
type WarehouseClient struct{ resource }

var _ ledger.WarehouseClient = (*WarehouseClient)(nil)

type warehouseBody struct {
	CompanyID int `json:"company_id"`
	*ledger.Warehouse
}

// GetAll lists every warehouse of the company
func (c *WarehouseClient) GetAll(ctx context.Context) []ledger.Warehouse {
	return Decode[[]ledger.Warehouse](c.postForm(ctx, "warehouses/getAll/", nil))
}

// Insert creates a warehouse and returns its id
func (c *WarehouseClient) Insert(ctx context.Context, w *ledger.Warehouse) int {
	resp := c.postJSON(ctx, "warehouses/insert/", func(companyID int) any {
		return warehouseBody{CompanyID: companyID, Warehouse: w}
	})
	return intField(resp, "warehouse_id")
}

// Update replaces a warehouse and returns its id
func (c *WarehouseClient) Update(ctx context.Context, w *ledger.Warehouse) int {
	if w.WarehouseID <= 0 {
		return ledger.IDPreconditionFailed
	}
	resp := c.postJSON(ctx, "warehouses/update/", func(companyID int) any {
		return warehouseBody{CompanyID: companyID, Warehouse: w}
	})
	return intField(resp, "warehouse_id")
}

// Delete removes a warehouse
func (c *WarehouseClient) Delete(ctx context.Context, warehouseID int) bool {
	resp := c.postForm(ctx, "warehouses/delete/", func(f url.Values) {
		f.Set("warehouse_id", strconv.Itoa(warehouseID))
	})
	return valid(resp)
}
