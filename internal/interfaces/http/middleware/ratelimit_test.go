package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/ledgersync/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimit(t *testing.T) {
	t.Run("limits per client IP", func(t *testing.T) {
		limit, err := RateLimit(RateLimitConfig{Rate: "2-M"})
		require.NoError(t, err)
		router := newTestRouter(RequestID(), limit)

		send := func(ip string) *httptest.ResponseRecorder {
			req := httptest.NewRequest("POST", "/test", nil)
			req.RemoteAddr = ip + ":1234"
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w
		}

		assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
		second := send("10.0.0.1")
		assert.Equal(t, http.StatusOK, second.Code)
		assert.Equal(t, "2", second.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

		blocked := send("10.0.0.1")
		assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(blocked.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeRateLimited, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)

		assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)
	})

	t.Run("defaults the rate", func(t *testing.T) {
		limit, err := RateLimit(RateLimitConfig{})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		newTestRouter(limit).ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("rejects a malformed rate", func(t *testing.T) {
		_, err := RateLimit(RateLimitConfig{Rate: "fast"})
		assert.Error(t, err)
	})
}
