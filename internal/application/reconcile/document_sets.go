package reconcile

import (
	"context"

	"github.com/erp/ledgersync/internal/domain/ledger"
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// SetID returns the id of the current year's document set for t, creating
// it when missing. New purchase-order and invoice-receipt sets are registered
// with the fiscal authority; the manual code is sent only when configured.
func (e *Engine) SetID(ctx context.Context, t ledger.DocumentType) (int, error) {
	name := t.SetName(e.now().Year())
	for _, set := range e.ledger.DocumentSets.GetAll(ctx) {
		if ledger.SameName(set.Name, name) {
			return set.DocumentSetID, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	log := logger.WithLogger(ctx, e.logger).With(zap.String("document_set", name))
	setID := e.ledger.DocumentSets.Insert(ctx, name)
	if err := idErr(setID, "create document set %s", name); err != nil {
		return 0, err
	}
	log.Info("Created document set", zap.Int("document_set_id", setID))

	typeID, registered := t.ATDocumentTypeID()
	if !registered {
		return setID, nil
	}
	if !e.ledger.DocumentSets.RegisterAT(ctx, setID, typeID, e.cfg.AT) {
		// The set is usable; registration can be completed in the ledger UI.
		log.Warn("Fiscal registration of document set failed", zap.Int("document_type_id", typeID))
	}
	return setID, nil
}
