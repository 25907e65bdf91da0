package handler

import (
	"context"

	"github.com/erp/ledgersync/internal/application/billing"
	"github.com/erp/ledgersync/internal/application/reconcile"
	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/erp/ledgersync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SetupService validates, saves and applies store settings
type SetupService interface {
	Setup(ctx context.Context, settings *integration.Settings) (*reconcile.SetupResult, error)
}

// SubscriptionChecker runs a live subscription check
type SubscriptionChecker interface {
	Check(ctx context.Context, email string) billing.Notification
}

// SettingsHandler serves the store configuration endpoints
type SettingsHandler struct {
	BaseHandler
	storeID  int
	settings integration.SettingsRepository
	setup    SetupService
	checker  SubscriptionChecker
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(
	storeID int,
	settings integration.SettingsRepository,
	setup SetupService,
	checker SubscriptionChecker,
) *SettingsHandler {
	return &SettingsHandler{
		storeID:  storeID,
		settings: settings,
		setup:    setup,
		checker:  checker,
	}
}

// GetSettings godoc
// @ID           getSettings
// @Summary      Get the store settings with secrets masked
// @Tags         settings
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /admin/settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Load(c.Request.Context(), h.storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings.Masked())
}

// UpdateSettings godoc
// @ID           updateSettings
// @Summary      Save the store settings and prepare the remote ledger
// @Tags         settings
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /admin/settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req dto.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ErrorWithCode(c, dto.ErrCodeValidation, err.Error())
		return
	}

	ctx := c.Request.Context()
	settings := req.ToSettings()
	result, err := h.setup.Setup(ctx, settings)
	if err != nil && result == nil {
		h.HandleError(c, err)
		return
	}
	if err != nil {
		// Settings were saved; part of the remote preparation failed.
		_ = c.Error(err)
	}

	notification := h.checker.Check(ctx, settings.BillingEmail)
	h.Success(c, dto.SettingsUpdateResponse{
		Settings: settings.Masked(),
		Subscription: dto.SubscriptionNotification{
			Success: notification.Success,
			Message: notification.Message,
		},
		Subscribed: result.Subscribed,
		Categories: result.Categories,
		Property:   result.PropertyCreated,
		Taxes:      result.TaxesImported,
	})
}

// CheckSubscription godoc
// @ID           checkSubscription
// @Summary      Check the billing subscription
// @Description  Uses the request email when given, otherwise the stored billing email
// @Tags         settings
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /admin/subscription/check [post]
func (h *SettingsHandler) CheckSubscription(c *gin.Context) {
	var req dto.SubscriptionCheckRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ErrorWithCode(c, dto.ErrCodeValidation, err.Error())
			return
		}
	}

	ctx := c.Request.Context()
	email := req.BillingEmail
	if email == "" {
		settings, err := h.settings.Load(ctx, h.storeID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		email = settings.BillingEmail
	}

	notification := h.checker.Check(ctx, email)
	h.Success(c, dto.SubscriptionNotification{
		Success: notification.Success,
		Message: notification.Message,
	})
}

var (
	_ SetupService        = (*reconcile.Engine)(nil)
	_ SyncService         = (*reconcile.Engine)(nil)
	_ SubscriptionChecker = (*billing.SubscriptionGate)(nil)
)
