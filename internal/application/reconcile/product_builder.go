package reconcile

import (
	"context"
	"fmt"
	"strconv"

	"github.com/erp/ledgersync/internal/domain/ledger"
	"github.com/erp/ledgersync/internal/domain/storefront"
)

// catalogContext is the remote reference data a product payload needs. It
// is loaded once per operation.
type catalogContext struct {
	unitID              int
	referencePropertyID int
	warehouses          []ledger.Warehouse
	taxes               []ledger.Tax
}

func (e *Engine) loadCatalogContext(ctx context.Context) (*catalogContext, error) {
	cc := &catalogContext{}

	for _, u := range e.ledger.Lookups.MeasurementUnits(ctx) {
		if u.ShortName == ledger.DefaultUnitShortName {
			cc.unitID = u.UnitID
			break
		}
	}
	if cc.unitID == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, preconditionf("no remote measurement unit %q", ledger.DefaultUnitShortName)
	}

	propertyID, ok := e.referenceProperty(ctx)
	if !ok {
		return nil, preconditionf("no remote property %q", ledger.ReferencePropertyTitle)
	}
	cc.referencePropertyID = propertyID

	cc.warehouses = e.ledger.Warehouses.GetAll(ctx)
	cc.taxes = e.ledger.Lookups.Taxes(ctx)
	return cc, nil
}

// referenceProperty returns the id of the property that carries storefront
// product ids
func (e *Engine) referenceProperty(ctx context.Context) (int, bool) {
	for _, p := range e.ledger.Lookups.Properties(ctx) {
		if p.Title == ledger.ReferencePropertyTitle {
			return p.PropertyID, true
		}
	}
	return 0, false
}

// warehouseByCode returns the remote warehouse whose code is the storefront
// warehouse id
func (cc *catalogContext) warehouseByCode(localID int) *ledger.Warehouse {
	code := strconv.Itoa(localID)
	for i := range cc.warehouses {
		if cc.warehouses[i].Code == code {
			return &cc.warehouses[i]
		}
	}
	return nil
}

func (cc *catalogContext) defaultWarehouse() *ledger.Warehouse {
	for i := range cc.warehouses {
		if cc.warehouses[i].IsDefault == 1 {
			return &cc.warehouses[i]
		}
	}
	return nil
}

func (cc *catalogContext) taxByName(name string) *ledger.Tax {
	for i := range cc.taxes {
		if ledger.SameName(cc.taxes[i].Name, name) {
			return &cc.taxes[i]
		}
	}
	return nil
}

// buildProduct renders the remote payload of a storefront product placed in
// remoteCategoryID. The product id is left unset.
func (e *Engine) buildProduct(ctx context.Context, cc *catalogContext, p *storefront.Product, remoteCategoryID int) (*ledger.Product, error) {
	out := &ledger.Product{
		CategoryID:        remoteCategoryID,
		Type:              ledger.ProductTypeGoods,
		Name:              p.Name,
		Summary:           p.ShortDescription,
		Reference:         p.Sku,
		Price:             p.Price.InexactFloat64(),
		UnitID:            cc.unitID,
		Stock:             float64(p.StockQuantity),
		ATProductCategory: ledger.ATProductCategoryGoods,
		Notes:             p.FullDescription,
		Properties: []ledger.ProductProperty{
			{PropertyID: cc.referencePropertyID, Value: strconv.Itoa(p.ID)},
		},
	}
	if p.StockQuantity > 0 {
		out.HasStock = 1
	}

	inventory, err := e.host.ListWarehouseInventory(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("load inventory of product %d: %w", p.ID, err)
	}
	if len(inventory) > 0 {
		reserved := 0
		for _, row := range inventory {
			wh := cc.warehouseByCode(row.WarehouseID)
			if wh == nil {
				return nil, preconditionf("no remote warehouse with code %d", row.WarehouseID)
			}
			out.Warehouses = append(out.Warehouses, ledger.ProductWarehouse{
				WarehouseID: wh.WarehouseID,
				Stock:       float64(row.StockQuantity),
			})
			reserved += row.ReservedQuantity
		}
		out.MinimumStock = float64(reserved)
	} else {
		wh := cc.warehouseByCode(p.WarehouseID)
		if wh == nil {
			wh = cc.defaultWarehouse()
		}
		if wh == nil {
			return nil, preconditionf("no remote warehouse for product %d", p.ID)
		}
		out.Warehouses = []ledger.ProductWarehouse{{WarehouseID: wh.WarehouseID, Stock: float64(p.StockQuantity)}}
		out.MinimumStock = float64(p.MinStockQuantity)
	}

	if p.IsTaxExempt {
		out.ExemptionReason = ledger.ExemptionReasonNotTaxed
		return out, nil
	}

	taxCategory, err := e.host.GetTaxCategory(ctx, p.TaxCategoryID)
	if err != nil {
		return nil, fmt.Errorf("load tax category %d: %w", p.TaxCategoryID, err)
	}
	tax := cc.taxByName(taxCategory.Name)
	if tax == nil {
		return nil, preconditionf("no remote tax named %q", taxCategory.Name)
	}
	out.Taxes = []ledger.ProductTax{{
		TaxID:      tax.TaxID,
		Value:      out.Price,
		Order:      taxCategory.DisplayOrder,
		Cumulative: 0,
	}}
	return out, nil
}
