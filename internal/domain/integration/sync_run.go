package integration

import (
	"context"
	"errors"
	"time"
)

// SyncRunStatus is the lifecycle state of a sync run
type SyncRunStatus string

const (
	SyncRunRunning SyncRunStatus = "running"
	SyncRunSuccess SyncRunStatus = "success"
	SyncRunPartial SyncRunStatus = "partial"
	SyncRunFailed  SyncRunStatus = "failed"
	SyncRunSkipped SyncRunStatus = "skipped"
)

// SyncRunStats counts what a full sync did
type SyncRunStats struct {
	Categories      int `json:"categories"`
	ProductsCreated int `json:"products_created"`
	ProductsSkipped int `json:"products_skipped"`
	Errors          int `json:"errors"`
}

// SyncRun records one full catalog reconciliation pass
type SyncRun struct {
	ID          string
	StoreID     int
	Status      SyncRunStatus
	TriggeredBy string
	Stats       SyncRunStats
	Error       string
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// NewSyncRun starts a run
func NewSyncRun(id string, storeID int, triggeredBy string) *SyncRun {
	return &SyncRun{
		ID:          id,
		StoreID:     storeID,
		Status:      SyncRunRunning,
		TriggeredBy: triggeredBy,
		StartedAt:   time.Now(),
	}
}

// Finish closes the run and derives the final status from the stats
func (r *SyncRun) Finish() {
	now := time.Now()
	r.FinishedAt = &now
	switch {
	case r.Stats.Errors == 0:
		r.Status = SyncRunSuccess
	case r.Stats.ProductsCreated > 0 || r.Stats.Categories > 0:
		r.Status = SyncRunPartial
	default:
		r.Status = SyncRunFailed
	}
}

// Skip closes a run that did no work
func (r *SyncRun) Skip(reason string) {
	now := time.Now()
	r.FinishedAt = &now
	r.Status = SyncRunSkipped
	r.Error = reason
}

// Fail closes a run that aborted
func (r *SyncRun) Fail(err error) {
	now := time.Now()
	r.FinishedAt = &now
	r.Status = SyncRunFailed
	if err != nil {
		r.Error = err.Error()
	}
}

// ErrSyncRunNotFound is returned when a run id is unknown
var ErrSyncRunNotFound = errors.New("sync run not found")

// SyncRunRepository persists sync runs
type SyncRunRepository interface {
	Save(ctx context.Context, run *SyncRun) error
	FindByID(ctx context.Context, id string) (*SyncRun, error)
	FindRecent(ctx context.Context, storeID, limit int) ([]SyncRun, error)
}
