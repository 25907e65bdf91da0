package handler

import (
	"errors"
	"net/http"

	"github.com/erp/ledgersync/internal/domain/shared"
	"github.com/erp/ledgersync/internal/infrastructure/event"
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"github.com/erp/ledgersync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EventDecoder turns an envelope into a typed domain event
type EventDecoder interface {
	Decode(env event.Envelope) (shared.DomainEvent, error)
}

// EventHandler ingests storefront notifications
type EventHandler struct {
	BaseHandler
	decoder   EventDecoder
	publisher shared.AsyncEventPublisher
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(decoder EventDecoder, publisher shared.AsyncEventPublisher) *EventHandler {
	return &EventHandler{
		decoder:   decoder,
		publisher: publisher,
	}
}

// Ingest godoc
// @ID           ingestEvent
// @Summary      Ingest a storefront event
// @Description  Decodes one event envelope and dispatches it asynchronously
// @Tags         events
// @Accept       json
// @Produce      json
// @Success      202 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /events [post]
func (h *EventHandler) Ingest(c *gin.Context) {
	var env event.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.ErrorWithCode(c, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
			return
		}
		h.ErrorWithCode(c, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	evt, err := h.decoder.Decode(env)
	if err != nil {
		switch {
		case errors.Is(err, event.ErrUnknownEventType):
			h.ErrorWithCode(c, dto.ErrCodeUnknownEventType, err.Error())
		case errors.Is(err, event.ErrInvalidPayload):
			h.ErrorWithCode(c, dto.ErrCodeInvalidInput, err.Error())
		default:
			h.HandleError(c, err)
		}
		return
	}

	ctx := c.Request.Context()
	logger.L(ctx).Debug("Event accepted",
		zap.String("event_type", evt.EventType()),
		zap.String("event_id", evt.EventID().String()),
		zap.Int("store_id", evt.StoreID()),
	)
	h.publisher.PublishAsync(ctx, evt)

	h.Accepted(c, dto.EventAcceptedResponse{
		ID:   evt.EventID().String(),
		Type: evt.EventType(),
	})
}
