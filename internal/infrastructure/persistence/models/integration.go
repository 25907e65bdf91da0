package models

import (
	"time"

	"github.com/erp/ledgersync/internal/domain/integration"
	"gorm.io/datatypes"
)

// ---------------------------------------------------------------------------
// CategoryMappingModel
// ---------------------------------------------------------------------------

// CategoryMappingModel is the persistence model for the CategoryMapping entity.
type CategoryMappingModel struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	StoreID        int       `gorm:"not null;uniqueIndex:idx_category_mapping_store_local,priority:1"`
	LocalID        int       `gorm:"not null;uniqueIndex:idx_category_mapping_store_local,priority:2"`
	RemoteID       int       `gorm:"not null;index"`
	RemoteParentID int       `gorm:"not null;default:0"`
	Name           string    `gorm:"type:varchar(255);not null;default:''"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CategoryMappingModel) TableName() string {
	return "category_mappings"
}

// ToDomain converts the persistence model to a domain CategoryMapping entity.
func (m *CategoryMappingModel) ToDomain() *integration.CategoryMapping {
	return &integration.CategoryMapping{
		StoreID:        m.StoreID,
		LocalID:        m.LocalID,
		RemoteID:       m.RemoteID,
		RemoteParentID: m.RemoteParentID,
		Name:           m.Name,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain CategoryMapping entity.
func (m *CategoryMappingModel) FromDomain(c *integration.CategoryMapping) {
	m.StoreID = c.StoreID
	m.LocalID = c.LocalID
	m.RemoteID = c.RemoteID
	m.RemoteParentID = c.RemoteParentID
	m.Name = c.Name
	m.UpdatedAt = c.UpdatedAt
}

// ---------------------------------------------------------------------------
// StoreSettingsModel
// ---------------------------------------------------------------------------

// StoreSettingsModel is the persistence model for the Settings blob
type StoreSettingsModel struct {
	StoreID       int       `gorm:"primaryKey;autoIncrement:false"`
	ClientID      string    `gorm:"type:varchar(255);not null"`
	ClientSecret  string    `gorm:"type:varchar(255);not null"`
	Username      string    `gorm:"type:varchar(255);not null"`
	Password      string    `gorm:"type:varchar(255);not null"`
	RedirectURI   string    `gorm:"type:varchar(512);not null;default:''"`
	CompanyID     string    `gorm:"type:varchar(32);not null"`
	EncryptionKey string    `gorm:"type:varchar(128);not null"`
	EncryptionIV  string    `gorm:"type:varchar(128);not null"`
	BillingEmail  string    `gorm:"type:varchar(255);not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StoreSettingsModel) TableName() string {
	return "store_settings"
}

// ToDomain converts the persistence model to domain Settings
func (m *StoreSettingsModel) ToDomain() *integration.Settings {
	return &integration.Settings{
		StoreID:       m.StoreID,
		ClientID:      m.ClientID,
		ClientSecret:  m.ClientSecret,
		Username:      m.Username,
		Password:      m.Password,
		RedirectURI:   m.RedirectURI,
		CompanyID:     m.CompanyID,
		EncryptionKey: m.EncryptionKey,
		EncryptionIV:  m.EncryptionIV,
		BillingEmail:  m.BillingEmail,
		UpdatedAt:     m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from domain Settings
func (m *StoreSettingsModel) FromDomain(s *integration.Settings) {
	m.StoreID = s.StoreID
	m.ClientID = s.ClientID
	m.ClientSecret = s.ClientSecret
	m.Username = s.Username
	m.Password = s.Password
	m.RedirectURI = s.RedirectURI
	m.CompanyID = s.CompanyID
	m.EncryptionKey = s.EncryptionKey
	m.EncryptionIV = s.EncryptionIV
	m.BillingEmail = s.BillingEmail
	m.UpdatedAt = s.UpdatedAt
}

// ---------------------------------------------------------------------------
// SyncRunModel
// ---------------------------------------------------------------------------

// SyncRunModel is the persistence model for a full sync audit record
type SyncRunModel struct {
	ID          string                                       `gorm:"type:char(26);primaryKey"`
	StoreID     int                                          `gorm:"not null;index:idx_sync_run_store_started,priority:1"`
	Status      integration.SyncRunStatus                    `gorm:"type:varchar(20);not null"`
	TriggeredBy string                                       `gorm:"type:varchar(100);not null;default:''"`
	Stats       datatypes.JSONType[integration.SyncRunStats] `gorm:"not null"`
	Error       string                                       `gorm:"type:text;not null;default:''"`
	StartedAt   time.Time                                    `gorm:"not null;index:idx_sync_run_store_started,priority:2"`
	FinishedAt  *time.Time
}

// TableName returns the table name for GORM
func (SyncRunModel) TableName() string {
	return "sync_runs"
}

// ToDomain converts the persistence model to a domain SyncRun
func (m *SyncRunModel) ToDomain() *integration.SyncRun {
	return &integration.SyncRun{
		ID:          m.ID,
		StoreID:     m.StoreID,
		Status:      m.Status,
		TriggeredBy: m.TriggeredBy,
		Stats:       m.Stats.Data(),
		Error:       m.Error,
		StartedAt:   m.StartedAt,
		FinishedAt:  m.FinishedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncRun
func (m *SyncRunModel) FromDomain(r *integration.SyncRun) {
	m.ID = r.ID
	m.StoreID = r.StoreID
	m.Status = r.Status
	m.TriggeredBy = r.TriggeredBy
	m.Stats = datatypes.NewJSONType(r.Stats)
	m.Error = r.Error
	m.StartedAt = r.StartedAt
	m.FinishedAt = r.FinishedAt
}
