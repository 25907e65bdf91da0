package reconcile

import (
	"context"

	"github.com/erp/ledgersync/internal/domain/integration"
)

// RepositorySettings returns a provider that reloads the settings of storeID
// on every call, so a saved change applies to the next remote request.
func RepositorySettings(repo integration.SettingsRepository, storeID int) integration.SettingsProvider {
	return integration.SettingsProviderFunc(func(ctx context.Context) (*integration.Settings, error) {
		return repo.Load(ctx, storeID)
	})
}
