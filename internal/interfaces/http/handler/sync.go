package handler

import (
	"context"
	"errors"

	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/erp/ledgersync/internal/domain/shared"
	"github.com/erp/ledgersync/internal/infrastructure/auth"
	"github.com/erp/ledgersync/internal/interfaces/http/dto"
	"github.com/erp/ledgersync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

const defaultRunsLimit = 20

// SyncService runs and lists full catalog reconciliations
type SyncService interface {
	FullSync(ctx context.Context, triggeredBy string) (*integration.SyncRun, error)
	RecentRuns(ctx context.Context, limit int) ([]integration.SyncRun, error)
}

// SyncHandler serves the manual sync endpoints
type SyncHandler struct {
	BaseHandler
	service SyncService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(service SyncService) *SyncHandler {
	return &SyncHandler{service: service}
}

// SyncProducts godoc
// @ID           syncProducts
// @Summary      Run a full catalog sync
// @Tags         sync
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      402 {object} dto.Response
// @Router       /admin/sync/products [post]
func (h *SyncHandler) SyncProducts(c *gin.Context) {
	triggeredBy := auth.RoleAdmin
	if subject := middleware.GetAdminSubject(c); subject != "" {
		triggeredBy = subject
	}

	run, err := h.service.FullSync(c.Request.Context(), triggeredBy)
	if err != nil {
		if errors.Is(err, shared.ErrNoSubscription) {
			h.ErrorWithCode(c, dto.ErrCodeNoSubscription, shared.ErrNoSubscription.Message)
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.FullSyncResponse{
		Status: "success",
		Run:    dto.NewSyncRunResponse(run),
	})
}

// ListRuns godoc
// @ID           listSyncRuns
// @Summary      List recent sync runs
// @Tags         sync
// @Produce      json
// @Param        limit query int false "Maximum runs" default(20)
// @Success      200 {object} dto.Response
// @Router       /admin/sync/runs [get]
func (h *SyncHandler) ListRuns(c *gin.Context) {
	var req dto.ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ErrorWithCode(c, dto.ErrCodeValidation, err.Error())
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultRunsLimit
	}

	runs, err := h.service.RecentRuns(c.Request.Context(), req.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]dto.SyncRunResponse, len(runs))
	for i := range runs {
		out[i] = dto.NewSyncRunResponse(&runs[i])
	}
	h.SuccessList(c, out, len(out), req.Limit)
}
