package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/erp/ledgersync/internal/domain/ledger"
	"github.com/erp/ledgersync/internal/domain/shared"
	"github.com/erp/ledgersync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name: "from context string",
			setup: func(c *gin.Context) {
				c.Set(requestIDContextKey, "ctx-request-id")
			},
			expectedID: "ctx-request-id",
		},
		{
			name: "from header when context empty",
			setup: func(c *gin.Context) {
				c.Request.Header.Set(RequestIDKey, "header-request-id")
			},
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(*gin.Context) {},
			expectedID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "no subscription",
			err:         fmt.Errorf("full sync: %w", shared.ErrNoSubscription),
			wantStatus:  http.StatusPaymentRequired,
			wantCode:    dto.ErrCodeNoSubscription,
			wantMessage: "no active subscription",
		},
		{
			name:       "settings incomplete",
			err:        fmt.Errorf("full sync: %w", shared.ErrSettingsIncomplete),
			wantStatus: http.StatusConflict,
			wantCode:   dto.ErrCodeSettingsIncomplete,
		},
		{
			name:        "invalid input keeps the detail",
			err:         fmt.Errorf("%w: billing_email is not an email", shared.ErrInvalidInput),
			wantStatus:  http.StatusBadRequest,
			wantCode:    dto.ErrCodeInvalidInput,
			wantMessage: "Invalid input provided: billing_email is not an email",
		},
		{
			name:       "settings not found",
			err:        integration.ErrSettingsNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   dto.ErrCodeNotFound,
		},
		{
			name:       "precondition",
			err:        fmt.Errorf("no remote tax: %w", ledger.ErrPrecondition),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   dto.ErrCodePrecondition,
		},
		{
			name:       "transport",
			err:        ledger.ErrTransport,
			wantStatus: http.StatusBadGateway,
			wantCode:   dto.ErrCodeUpstream,
		},
		{
			name:        "unknown error is internal",
			err:         errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    dto.ErrCodeInternal,
			wantMessage: "An unexpected error occurred",
		},
	}

	h := &BaseHandler{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(requestIDContextKey, "req-1")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, resp.Error.Message)
			}
		})
	}

	t.Run("nil error writes nothing", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		h.HandleError(c, nil)
		assert.Zero(t, w.Body.Len())
	})
}
