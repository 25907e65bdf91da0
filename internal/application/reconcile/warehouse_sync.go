package reconcile

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/erp/ledgersync/internal/domain/ledger"
	"github.com/erp/ledgersync/internal/domain/storefront"
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// warehousePayload renders a storefront warehouse. The remote code carries
// the storefront id.
func (e *Engine) warehousePayload(ctx context.Context, w *storefront.Warehouse) (*ledger.Warehouse, error) {
	countryID, err := e.remoteCountry(ctx, w.Address.CountryID)
	if err != nil {
		return nil, err
	}
	a := w.Address
	return &ledger.Warehouse{
		Title:        w.Name,
		Code:         strconv.Itoa(w.ID),
		Address:      strings.TrimSpace(a.Address1 + " " + a.Address2),
		City:         a.City,
		ZipCode:      a.ZipPostalCode,
		CountryID:    countryID,
		Phone:        a.PhoneNumber,
		Fax:          a.FaxNumber,
		ContactName:  strings.TrimSpace(a.FirstName + " " + a.LastName),
		ContactEmail: a.Email,
	}, nil
}

// remoteWarehouse finds the remote warehouse coded with the storefront id
func (e *Engine) remoteWarehouse(ctx context.Context, localID int) *ledger.Warehouse {
	code := strconv.Itoa(localID)
	for _, wh := range e.ledger.Warehouses.GetAll(ctx) {
		if wh.Code == code {
			return &wh
		}
	}
	return nil
}

// WarehouseInserted creates the remote warehouse
func (e *Engine) WarehouseInserted(ctx context.Context, w storefront.Warehouse) error {
	if _, err := e.admit(ctx, "warehouse inserted"); err != nil {
		return err
	}
	payload, err := e.warehousePayload(ctx, &w)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	remoteID := e.ledger.Warehouses.Insert(ctx, payload)
	if err := idErr(remoteID, "create remote warehouse for %d", w.ID); err != nil {
		return err
	}
	logger.WithLogger(ctx, e.logger).Info("Created remote warehouse",
		zap.Int("warehouse_id", w.ID), zap.Int("remote_id", remoteID))
	return nil
}

// WarehouseUpdated replaces the remote warehouse with the same code
func (e *Engine) WarehouseUpdated(ctx context.Context, w storefront.Warehouse) error {
	if _, err := e.admit(ctx, "warehouse updated"); err != nil {
		return err
	}
	remote := e.remoteWarehouse(ctx, w.ID)
	if remote == nil {
		return preconditionf("no remote warehouse with code %d", w.ID)
	}
	payload, err := e.warehousePayload(ctx, &w)
	if err != nil {
		return err
	}
	payload.WarehouseID = remote.WarehouseID
	payload.IsDefault = remote.IsDefault

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := idErr(e.ledger.Warehouses.Update(ctx, payload), "update remote warehouse %d", remote.WarehouseID); err != nil {
		return err
	}
	logger.WithLogger(ctx, e.logger).Info("Updated remote warehouse",
		zap.Int("warehouse_id", w.ID), zap.Int("remote_id", remote.WarehouseID))
	return nil
}

// WarehouseDeleted removes the remote warehouse with the same code
func (e *Engine) WarehouseDeleted(ctx context.Context, w storefront.Warehouse) error {
	if _, err := e.admit(ctx, "warehouse deleted"); err != nil {
		return err
	}
	remote := e.remoteWarehouse(ctx, w.ID)
	if remote == nil {
		return preconditionf("no remote warehouse with code %d", w.ID)
	}
	if !e.ledger.Warehouses.Delete(ctx, remote.WarehouseID) {
		return fmt.Errorf("delete remote warehouse %d: %w", remote.WarehouseID, ErrRemoteRejected)
	}
	logger.WithLogger(ctx, e.logger).Info("Deleted remote warehouse",
		zap.Int("warehouse_id", w.ID), zap.Int("remote_id", remote.WarehouseID))
	return nil
}
