package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/erp/ledgersync/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// DefaultRecentRuns is used when FindRecent gets a non-positive limit
const DefaultRecentRuns = 20

// GormSyncRunRepository implements SyncRunRepository using GORM
type GormSyncRunRepository struct {
	db *gorm.DB
}

// NewGormSyncRunRepository creates a new GormSyncRunRepository
func NewGormSyncRunRepository(db *gorm.DB) *GormSyncRunRepository {
	return &GormSyncRunRepository{db: db}
}

// Save creates or updates a run
func (r *GormSyncRunRepository) Save(ctx context.Context, run *integration.SyncRun) error {
	model := &models.SyncRunModel{}
	model.FromDomain(run)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID returns a run, or ErrSyncRunNotFound
func (r *GormSyncRunRepository) FindByID(ctx context.Context, id string) (*integration.SyncRun, error) {
	var model models.SyncRunModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrSyncRunNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRecent lists the latest runs of a store, newest first
func (r *GormSyncRunRepository) FindRecent(ctx context.Context, storeID, limit int) ([]integration.SyncRun, error) {
	if limit <= 0 {
		limit = DefaultRecentRuns
	}

	var runModels []models.SyncRunModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("started_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&runModels).Error; err != nil {
		return nil, err
	}

	runs := make([]integration.SyncRun, len(runModels))
	for i, model := range runModels {
		runs[i] = *model.ToDomain()
	}
	return runs, nil
}

var _ integration.SyncRunRepository = (*GormSyncRunRepository)(nil)
