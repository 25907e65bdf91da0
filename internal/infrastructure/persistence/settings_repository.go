package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/erp/ledgersync/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettingsRepository implements SettingsRepository using GORM
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// Load returns the settings of a store, or ErrSettingsNotFound
func (r *GormSettingsRepository) Load(ctx context.Context, storeID int) (*integration.Settings, error) {
	var model models.StoreSettingsModel
	if err := r.db.WithContext(ctx).First(&model, "store_id = ?", storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrSettingsNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save replaces the settings of a store
func (r *GormSettingsRepository) Save(ctx context.Context, settings *integration.Settings) error {
	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = time.Now()
	}
	model := &models.StoreSettingsModel{}
	model.FromDomain(settings)

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_id"}},
		UpdateAll: true,
	}).Create(model).Error
}

var _ integration.SettingsRepository = (*GormSettingsRepository)(nil)
