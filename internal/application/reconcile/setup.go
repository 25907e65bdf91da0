package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/erp/ledgersync/internal/domain/ledger"
	"github.com/erp/ledgersync/internal/domain/shared"
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// SetupResult describes what Setup configured
type SetupResult struct {
	Subscribed      bool `json:"subscribed"`
	Categories      int  `json:"categories"`
	PropertyCreated bool `json:"property_created"`
	TaxesImported   int  `json:"taxes_imported"`
}

// Setup validates and saves the store settings. With an active subscription
// it then prepares the remote ledger: the reference property is created when
// missing, every storefront category is mirrored and remote taxes missing
// from the storefront are imported as tax categories.
func (e *Engine) Setup(ctx context.Context, settings *integration.Settings) (*SetupResult, error) {
	settings.StoreID = e.cfg.StoreID
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	settings.UpdatedAt = e.now()
	if err := e.settings.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	log := logger.WithLogger(ctx, e.logger)
	log.Info("Store settings saved", zap.Int("store_id", settings.StoreID))

	result := &SetupResult{}
	if !e.gate.Valid(ctx, settings.BillingEmail) {
		return result, nil
	}
	result.Subscribed = true

	var errs []error

	if _, ok := e.referenceProperty(ctx); !ok {
		if err := idErr(e.ledger.Lookups.InsertProperty(ctx, ledger.ReferencePropertyTitle), "create reference property"); err != nil {
			errs = append(errs, err)
		} else {
			result.PropertyCreated = true
		}
	}

	categories, err := e.host.ListCategories(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("list categories: %w", err))
	}
	for _, c := range categories {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := e.EnsureHierarchy(ctx, c.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		result.Categories++
	}

	imported, err := e.importTaxes(ctx)
	result.TaxesImported = imported
	if err != nil {
		errs = append(errs, err)
	}

	log.Info("Remote ledger configured",
		zap.Int("categories", result.Categories),
		zap.Bool("property_created", result.PropertyCreated),
		zap.Int("taxes_imported", result.TaxesImported),
		zap.Int("errors", len(errs)))
	return result, errors.Join(errs...)
}

// importTaxes creates a storefront tax category for every remote tax whose
// name is not used yet
func (e *Engine) importTaxes(ctx context.Context) (int, error) {
	if e.taxWriter == nil {
		return 0, nil
	}
	local, err := e.host.ListTaxCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tax categories: %w", err)
	}
	// Tax names carry accents ("Isenção"), so compare full case folds
	fold := cases.Fold()
	known := make(map[string]bool, len(local))
	for _, tc := range local {
		known[fold.String(strings.TrimSpace(tc.Name))] = true
	}

	imported := 0
	for _, tax := range e.ledger.Lookups.Taxes(ctx) {
		key := fold.String(strings.TrimSpace(tax.Name))
		if known[key] {
			continue
		}
		if _, err := e.taxWriter.CreateTaxCategory(ctx, tax.Name, len(local)+imported); err != nil {
			return imported, fmt.Errorf("create tax category %q: %w", tax.Name, err)
		}
		known[key] = true
		imported++
	}
	return imported, nil
}
