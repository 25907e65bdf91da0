package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/erp/ledgersync/internal/domain/ledger"
	"github.com/erp/ledgersync/internal/domain/storefront"
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"github.com/erp/ledgersync/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// EnsureHierarchy makes sure the storefront category and all its ancestors
// exist remotely and returns the remote id of the category itself.
//
// The ancestry is loaded first, so a cycle or an over-deep tree fails before
// anything is created. Categories are then resolved root first, each one
// under the remote id of its parent.
func (e *Engine) EnsureHierarchy(ctx context.Context, categoryID int) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "reconcile.EnsureHierarchy", "category.id", categoryID)
	defer span.End()

	chain, err := e.ancestry(ctx, categoryID)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, err
	}

	remoteParent := 0
	for _, c := range chain {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		remoteID, err := e.resolveCategory(ctx, c, remoteParent)
		if err != nil {
			telemetry.RecordError(span, err)
			return 0, err
		}
		remoteParent = remoteID
	}
	return remoteParent, nil
}

// ancestry returns the category and its ancestors, root first
func (e *Engine) ancestry(ctx context.Context, categoryID int) ([]storefront.Category, error) {
	visited := make(map[int]bool)
	var chain []storefront.Category

	for id := categoryID; id != 0; {
		if visited[id] {
			return nil, fmt.Errorf("%w: category %d is its own ancestor", ErrCategoryCycle, id)
		}
		if len(chain) >= e.cfg.MaxCategoryDepth {
			return nil, fmt.Errorf("%w: more than %d levels above category %d", ErrCategoryTooDeep, e.cfg.MaxCategoryDepth, categoryID)
		}
		visited[id] = true

		c, err := e.host.GetCategory(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load category %d: %w", id, err)
		}
		chain = append(chain, *c)
		id = c.ParentCategoryID
	}

	slices.Reverse(chain)
	return chain, nil
}

// resolveCategory finds or creates the remote mirror of c under remoteParent.
// Lookup order: the mapping table, then the parent's children tagged with the
// back-reference, then a create.
func (e *Engine) resolveCategory(ctx context.Context, c storefront.Category, remoteParent int) (int, error) {
	log := logger.WithLogger(ctx, e.logger).With(zap.Int("category_id", c.ID))

	mapping, err := e.mappings.FindByLocalID(ctx, e.cfg.StoreID, c.ID)
	switch {
	case err == nil:
		return mapping.RemoteID, nil
	case !errors.Is(err, integration.ErrMappingNotFound):
		return 0, fmt.Errorf("load mapping for category %d: %w", c.ID, err)
	}

	for _, rc := range e.ledger.Categories.GetAll(ctx, remoteParent) {
		if rc.HasBackReference(c.ID) {
			log.Debug("Matched remote category by back-reference", zap.Int("remote_id", rc.CategoryID))
			e.remember(ctx, c, rc.CategoryID, remoteParent)
			return rc.CategoryID, nil
		}
	}

	remoteID := e.ledger.Categories.Insert(ctx, remoteParent, c.Name, ledger.BackReference(c.ID))
	if err := idErr(remoteID, "create remote category for %d", c.ID); err != nil {
		return 0, err
	}
	log.Info("Created remote category", zap.Int("remote_id", remoteID), zap.Int("remote_parent_id", remoteParent))
	e.remember(ctx, c, remoteID, remoteParent)
	return remoteID, nil
}

// remember saves a resolved mapping. A failed save is logged only: the
// back-reference scan still finds the category next time.
func (e *Engine) remember(ctx context.Context, c storefront.Category, remoteID, remoteParent int) {
	mapping, err := integration.NewCategoryMapping(e.cfg.StoreID, c.ID, remoteID, remoteParent, c.Name)
	if err == nil {
		err = e.mappings.Save(ctx, mapping)
	}
	if err != nil {
		logger.WithLogger(ctx, e.logger).Warn("Failed to save category mapping",
			zap.Int("category_id", c.ID), zap.Int("remote_id", remoteID), zap.Error(err))
	}
}

// CategoryInserted mirrors a new storefront category
func (e *Engine) CategoryInserted(ctx context.Context, c storefront.Category) error {
	if _, err := e.admit(ctx, "category inserted"); err != nil {
		return err
	}
	_, err := e.EnsureHierarchy(ctx, c.ID)
	return err
}

// CategoryUpdated renames the remote mirror of a storefront category. The
// remote parent recorded in the mapping is kept.
func (e *Engine) CategoryUpdated(ctx context.Context, c storefront.Category) error {
	if _, err := e.admit(ctx, "category updated"); err != nil {
		return err
	}

	remoteID, err := e.EnsureHierarchy(ctx, c.ID)
	if err != nil {
		return err
	}
	remoteParent := 0
	mapping, err := e.mappings.FindByLocalID(ctx, e.cfg.StoreID, c.ID)
	if err == nil {
		remoteParent = mapping.RemoteParentID
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := idErr(e.ledger.Categories.Update(ctx, remoteID, remoteParent, c.Name), "update remote category %d", remoteID); err != nil {
		return err
	}

	if mapping != nil {
		mapping.Rename(c.Name)
		if err := e.mappings.Save(ctx, mapping); err != nil {
			logger.WithLogger(ctx, e.logger).Warn("Failed to save renamed mapping", zap.Int("category_id", c.ID), zap.Error(err))
		}
	}
	return nil
}

// CategoryDeleted removes the remote mirror of a storefront category. The
// mapping table is consulted first, then a root category with the same name.
// A category with no remote mirror is not an error.
func (e *Engine) CategoryDeleted(ctx context.Context, c storefront.Category) error {
	if _, err := e.admit(ctx, "category deleted"); err != nil {
		return err
	}
	log := logger.WithLogger(ctx, e.logger).With(zap.Int("category_id", c.ID))

	remoteID := 0
	mapping, err := e.mappings.FindByLocalID(ctx, e.cfg.StoreID, c.ID)
	switch {
	case err == nil:
		remoteID = mapping.RemoteID
	case errors.Is(err, integration.ErrMappingNotFound):
		for _, rc := range e.ledger.Categories.GetAll(ctx, 0) {
			if rc.Name == c.Name {
				remoteID = rc.CategoryID
				break
			}
		}
	default:
		return fmt.Errorf("load mapping for category %d: %w", c.ID, err)
	}

	if remoteID == 0 {
		log.Info("No remote category to delete")
		return nil
	}
	if !e.ledger.Categories.Delete(ctx, remoteID) {
		return fmt.Errorf("delete remote category %d: %w", remoteID, ErrRemoteRejected)
	}
	log.Info("Deleted remote category", zap.Int("remote_id", remoteID))
	return e.mappings.Delete(ctx, e.cfg.StoreID, c.ID)
}
