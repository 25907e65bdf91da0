package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/erp/ledgersync/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCategoryMappingRepository implements CategoryMappingRepository using GORM
type GormCategoryMappingRepository struct {
	db *gorm.DB
}

// NewGormCategoryMappingRepository creates a new GormCategoryMappingRepository
func NewGormCategoryMappingRepository(db *gorm.DB) *GormCategoryMappingRepository {
	return &GormCategoryMappingRepository{db: db}
}

// FindByLocalID finds the mapping of a storefront category
func (r *GormCategoryMappingRepository) FindByLocalID(ctx context.Context, storeID, localID int) (*integration.CategoryMapping, error) {
	var model models.CategoryMappingModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND local_id = ?", storeID, localID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists the mappings of a store ordered by local id
func (r *GormCategoryMappingRepository) FindAll(ctx context.Context, storeID int) ([]integration.CategoryMapping, error) {
	var mappingModels []models.CategoryMappingModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("local_id ASC").
		Find(&mappingModels).Error; err != nil {
		return nil, err
	}

	mappings := make([]integration.CategoryMapping, len(mappingModels))
	for i, model := range mappingModels {
		mappings[i] = *model.ToDomain()
	}
	return mappings, nil
}

// Save upserts on (store_id, local_id)
func (r *GormCategoryMappingRepository) Save(ctx context.Context, mapping *integration.CategoryMapping) error {
	if err := mapping.Validate(); err != nil {
		return err
	}
	model := &models.CategoryMappingModel{}
	model.FromDomain(mapping)

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_id"}, {Name: "local_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"remote_id", "remote_parent_id", "name", "updated_at"}),
	}).Create(model).Error
}

// Delete removes a mapping; deleting a missing mapping is not an error
func (r *GormCategoryMappingRepository) Delete(ctx context.Context, storeID, localID int) error {
	return r.db.WithContext(ctx).
		Where("store_id = ? AND local_id = ?", storeID, localID).
		Delete(&models.CategoryMappingModel{}).Error
}

var _ integration.CategoryMappingRepository = (*GormCategoryMappingRepository)(nil)
