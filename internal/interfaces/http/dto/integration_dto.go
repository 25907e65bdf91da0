package dto

import (
	"time"

	"github.com/erp/ledgersync/internal/domain/integration"
)

// EventAcceptedResponse acknowledges an ingested envelope
type EventAcceptedResponse struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// SyncRunResponse is the API view of a sync run
type SyncRunResponse struct {
	ID          string                   `json:"id"`
	Status      string                   `json:"status"`
	TriggeredBy string                   `json:"triggered_by"`
	Stats       integration.SyncRunStats `json:"stats"`
	Error       string                   `json:"error,omitempty"`
	StartedAt   time.Time                `json:"started_at"`
	FinishedAt  *time.Time               `json:"finished_at,omitempty"`
}

// NewSyncRunResponse converts a sync run
func NewSyncRunResponse(r *integration.SyncRun) SyncRunResponse {
	return SyncRunResponse{
		ID:          r.ID,
		Status:      string(r.Status),
		TriggeredBy: r.TriggeredBy,
		Stats:       r.Stats,
		Error:       r.Error,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
}

// FullSyncResponse is returned by a manual full sync
type FullSyncResponse struct {
	Status string          `json:"status"`
	Run    SyncRunResponse `json:"run"`
}

// ListRunsRequest bounds the recent runs query
type ListRunsRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// SettingsRequest is the body of a settings update
type SettingsRequest struct {
	ClientID      string `json:"client_id" binding:"required"`
	ClientSecret  string `json:"client_secret" binding:"required"`
	Username      string `json:"username" binding:"required"`
	Password      string `json:"password" binding:"required"`
	RedirectURI   string `json:"redirect_uri"`
	CompanyID     string `json:"company_id" binding:"required"`
	EncryptionKey string `json:"encryption_key" binding:"required"`
	EncryptionIV  string `json:"encryption_iv" binding:"required"`
	BillingEmail  string `json:"billing_email" binding:"required,email"`
}

// ToSettings converts the request into domain settings
func (r *SettingsRequest) ToSettings() *integration.Settings {
	return &integration.Settings{
		ClientID:      r.ClientID,
		ClientSecret:  r.ClientSecret,
		Username:      r.Username,
		Password:      r.Password,
		RedirectURI:   r.RedirectURI,
		CompanyID:     r.CompanyID,
		EncryptionKey: r.EncryptionKey,
		EncryptionIV:  r.EncryptionIV,
		BillingEmail:  r.BillingEmail,
	}
}

// SubscriptionNotification mirrors the gate notification
type SubscriptionNotification struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SettingsUpdateResponse reports a settings update
type SettingsUpdateResponse struct {
	Settings     integration.Settings     `json:"settings"`
	Subscription SubscriptionNotification `json:"subscription"`
	Subscribed   bool                     `json:"subscribed"`
	Categories   int                      `json:"categories"`
	Property     bool                     `json:"property_created"`
	Taxes        int                      `json:"taxes_imported"`
}

// SubscriptionCheckRequest optionally overrides the stored billing email
type SubscriptionCheckRequest struct {
	BillingEmail string `json:"billing_email" binding:"omitempty,email"`
}
