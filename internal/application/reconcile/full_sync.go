package reconcile

import (
	"context"
	"errors"

	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/erp/ledgersync/internal/domain/shared"
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"github.com/erp/ledgersync/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// FullSync mirrors every storefront category and creates the products that
// have no remote counterpart yet. Products already present remotely, looked
// up by SKU or by the reference property, are skipped, so a second pass creates nothing. A product listed
// under several categories is handled under the first one only.
//
// Every run is recorded. A denied gate records a skipped run and returns
// shared.ErrNoSubscription. Per-item failures are counted and do not stop
// the run.
func (e *Engine) FullSync(ctx context.Context, triggeredBy string) (*integration.SyncRun, error) {
	ctx, span := telemetry.StartSpan(ctx, "reconcile.FullSync", "store.id", e.cfg.StoreID)
	defer span.End()

	run := integration.NewSyncRun(e.newID(), e.cfg.StoreID, triggeredBy)
	log := logger.WithLogger(ctx, e.logger).With(zap.String("sync_run_id", run.ID))

	if _, err := e.admit(ctx, "full sync"); err != nil {
		if errors.Is(err, ErrSkipped) {
			run.Skip(shared.ErrNoSubscription.Message)
			e.saveRun(ctx, run)
			return run, shared.ErrNoSubscription
		}
		return e.failRun(ctx, run, err)
	}
	e.saveRun(ctx, run)

	categories, err := e.host.ListCategories(ctx)
	if err != nil {
		return e.failRun(ctx, run, err)
	}
	cc, err := e.loadCatalogContext(ctx)
	if err != nil {
		return e.failRun(ctx, run, err)
	}

	handled := make(map[int]bool)
	for _, c := range categories {
		if err := ctx.Err(); err != nil {
			return e.failRun(ctx, run, err)
		}

		remoteCategory, err := e.EnsureHierarchy(ctx, c.ID)
		if err != nil {
			log.Warn("Category sync failed", zap.Int("category_id", c.ID), zap.Error(err))
			run.Stats.Errors++
			continue
		}
		run.Stats.Categories++

		products, err := e.host.ListProductsByCategory(ctx, c.ID)
		if err != nil {
			log.Warn("Listing category products failed", zap.Int("category_id", c.ID), zap.Error(err))
			run.Stats.Errors++
			continue
		}

		for i := range products {
			p := &products[i]
			if handled[p.ID] {
				continue
			}
			handled[p.ID] = true

			if e.findRemoteProduct(ctx, cc.referencePropertyID, p, remoteCategory) != nil {
				run.Stats.ProductsSkipped++
				continue
			}
			payload, err := e.buildProduct(ctx, cc, p, remoteCategory)
			if err == nil {
				err = idErr(e.ledger.Products.Insert(ctx, payload), "create remote product for %d", p.ID)
			}
			if err != nil {
				log.Warn("Product sync failed", zap.Int("product_id", p.ID), zap.Error(err))
				run.Stats.Errors++
				continue
			}
			run.Stats.ProductsCreated++
		}
	}

	run.Finish()
	e.saveRun(ctx, run)
	log.Info("Full sync finished",
		zap.String("status", string(run.Status)),
		zap.Int("categories", run.Stats.Categories),
		zap.Int("products_created", run.Stats.ProductsCreated),
		zap.Int("products_skipped", run.Stats.ProductsSkipped),
		zap.Int("errors", run.Stats.Errors))
	return run, nil
}

// RecentRuns lists the latest sync runs of the store, newest first
func (e *Engine) RecentRuns(ctx context.Context, limit int) ([]integration.SyncRun, error) {
	return e.runs.FindRecent(ctx, e.cfg.StoreID, limit)
}

func (e *Engine) failRun(ctx context.Context, run *integration.SyncRun, err error) (*integration.SyncRun, error) {
	run.Fail(err)
	e.saveRun(ctx, run)
	return run, err
}

// saveRun records run. The context may already be cancelled when a run
// fails, so the write is detached from it.
func (e *Engine) saveRun(ctx context.Context, run *integration.SyncRun) {
	if err := e.runs.Save(context.WithoutCancel(ctx), run); err != nil {
		logger.WithLogger(ctx, e.logger).Error("Failed to record sync run", zap.String("sync_run_id", run.ID), zap.Error(err))
	}
}
