package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/erp/ledgersync/internal/domain/ledger"
	"github.com/erp/ledgersync/internal/domain/shared"
	"github.com/erp/ledgersync/internal/domain/storefront"
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"github.com/erp/ledgersync/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// debounceKey is the per-product debounce key
func debounceKey(productID int) string {
	return "product:" + strconv.Itoa(productID)
}

// ProductCategoryInserted creates the remote product when a storefront
// product is placed in a category. A product already known remotely by its
// SKU is left alone.
func (e *Engine) ProductCategoryInserted(ctx context.Context, pc storefront.ProductCategory) error {
	if _, err := e.admit(ctx, "product category inserted"); err != nil {
		return err
	}
	ctx, span := telemetry.StartSpan(ctx, "reconcile.ProductCategoryInserted", "product.id", pc.ProductID)
	defer span.End()
	log := logger.WithLogger(ctx, e.logger).With(zap.Int("product_id", pc.ProductID))

	product, err := e.host.GetProduct(ctx, pc.ProductID)
	if errors.Is(err, shared.ErrNotFound) {
		log.Info("Product no longer exists, nothing to mirror")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load product %d: %w", pc.ProductID, err)
	}

	remoteCategory, err := e.EnsureHierarchy(ctx, pc.CategoryID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	propertyID, _ := e.referenceProperty(ctx)
	if existing := e.findRemoteProduct(ctx, propertyID, product, remoteCategory); existing != nil {
		log.Debug("Remote product already exists", zap.Int("remote_id", existing.ProductID))
		return nil
	}

	_, err = e.createProduct(ctx, product, remoteCategory)
	telemetry.RecordError(span, err)
	return err
}

// createProduct builds and inserts a product, returning the remote id
func (e *Engine) createProduct(ctx context.Context, product *storefront.Product, remoteCategory int) (int, error) {
	cc, err := e.loadCatalogContext(ctx)
	if err != nil {
		return 0, err
	}
	payload, err := e.buildProduct(ctx, cc, product, remoteCategory)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	remoteID := e.ledger.Products.Insert(ctx, payload)
	if err := idErr(remoteID, "create remote product for %d", product.ID); err != nil {
		return 0, err
	}
	logger.WithLogger(ctx, e.logger).Info("Created remote product",
		zap.Int("product_id", product.ID), zap.Int("remote_id", remoteID), zap.String("sku", product.Sku))
	return remoteID, nil
}

// ProductUpdated reconciles a storefront product update. Repeats for the
// same product inside the debounce window are dropped, as are events whose
// snapshot is older than the freshness window. Stock differences per
// warehouse are issued as stock movements before the product is updated.
func (e *Engine) ProductUpdated(ctx context.Context, p storefront.Product) error {
	if _, err := e.admit(ctx, "product updated"); err != nil {
		return err
	}
	log := logger.WithLogger(ctx, e.logger).With(zap.Int("product_id", p.ID))

	first, err := e.debounce.MarkProcessed(ctx, debounceKey(p.ID), e.cfg.DebounceWindow)
	if err != nil {
		log.Warn("Debounce store failed, processing anyway", zap.Error(err))
	} else if !first {
		log.Debug("Product update debounced")
		return nil
	}

	if !p.UpdatedOnUtc.Add(e.cfg.FreshnessWindow).After(e.now()) {
		log.Debug("Product update is stale", zap.Time("updated_on_utc", p.UpdatedOnUtc))
		return nil
	}

	ctx, span := telemetry.StartSpan(ctx, "reconcile.ProductUpdated", "product.id", p.ID)
	defer span.End()

	err = e.updateProduct(ctx, &p)
	telemetry.RecordError(span, err)
	return err
}

func (e *Engine) updateProduct(ctx context.Context, p *storefront.Product) error {
	log := logger.WithLogger(ctx, e.logger).With(zap.Int("product_id", p.ID))

	categoryID := p.PrimaryCategoryID()
	if categoryID == 0 {
		return preconditionf("product %d has no category", p.ID)
	}
	remoteCategory, err := e.EnsureHierarchy(ctx, categoryID)
	if err != nil {
		return err
	}

	cc, err := e.loadCatalogContext(ctx)
	if err != nil {
		return err
	}
	remote := e.findRemoteProduct(ctx, cc.referencePropertyID, p, remoteCategory)
	if remote == nil {
		log.Info("No remote product to update", zap.String("sku", p.Sku))
		return nil
	}

	payload, err := e.buildProduct(ctx, cc, p, remoteCategory)
	if err != nil {
		return err
	}
	payload.ProductID = remote.ProductID

	movementDate := ledger.FormatDate(e.now())
	for _, w := range payload.Warehouses {
		delta := w.Stock - remote.WarehouseStock(w.WarehouseID)
		if delta == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		id := e.ledger.Stocks.Insert(ctx, ledger.StockMovement{
			ProductID:    remote.ProductID,
			MovementDate: movementDate,
			Qty:          delta,
			WarehouseID:  w.WarehouseID,
		})
		if err := idErr(id, "stock movement for product %d in warehouse %d", p.ID, w.WarehouseID); err != nil {
			return err
		}
		log.Debug("Issued stock movement", zap.Int("warehouse_id", w.WarehouseID), zap.Float64("qty", delta))
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := idErr(e.ledger.Products.Update(ctx, payload), "update remote product %d", remote.ProductID); err != nil {
		return err
	}
	log.Info("Updated remote product", zap.Int("remote_id", remote.ProductID))
	return nil
}

// findRemoteProduct looks a product up by SKU, then by the reference
// property among the products of the given remote categories. An empty SKU
// is never looked up: it would match any remote product without a reference.
func (e *Engine) findRemoteProduct(ctx context.Context, propertyID int, p *storefront.Product, remoteCategories ...int) *ledger.Product {
	if p.Sku != "" {
		if remote := e.ledger.Products.GetByReference(ctx, p.Sku); remote != nil {
			return remote
		}
	}
	if propertyID == 0 {
		return nil
	}
	want := strconv.Itoa(p.ID)
	for _, remoteCategory := range remoteCategories {
		if ctx.Err() != nil {
			return nil
		}
		for _, candidate := range e.ledger.Products.GetAll(ctx, remoteCategory) {
			if candidate.PropertyValue(propertyID) == want {
				return &candidate
			}
		}
	}
	return nil
}

// mappedCategories returns the remote ids of the product's categories that
// are already mirrored
func (e *Engine) mappedCategories(ctx context.Context, p *storefront.Product) []int {
	var out []int
	for _, localID := range p.CategoryIDs {
		if m, err := e.mappings.FindByLocalID(ctx, e.cfg.StoreID, localID); err == nil {
			out = append(out, m.RemoteID)
		}
	}
	return out
}

// ProductDeleted removes the remote product with the same SKU, or the one
// carrying its id in the reference property under a mirrored category. A
// product with no remote counterpart is not an error.
func (e *Engine) ProductDeleted(ctx context.Context, p storefront.Product) error {
	if _, err := e.admit(ctx, "product deleted"); err != nil {
		return err
	}
	log := logger.WithLogger(ctx, e.logger).With(zap.Int("product_id", p.ID), zap.String("sku", p.Sku))

	propertyID, _ := e.referenceProperty(ctx)
	remote := e.findRemoteProduct(ctx, propertyID, &p, e.mappedCategories(ctx, &p)...)
	if remote == nil {
		log.Info("No remote product to delete")
		return nil
	}
	if !e.ledger.Products.Delete(ctx, remote.ProductID) {
		return fmt.Errorf("delete remote product %d: %w", remote.ProductID, ErrRemoteRejected)
	}
	log.Info("Deleted remote product", zap.Int("remote_id", remote.ProductID))
	return nil
}
