package moloni

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticTokens struct {
	token string
	ok    bool
}

func (s staticTokens) AccessToken(context.Context) (string, bool) {
	return s.token, s.ok
}

type capturedRequest struct {
	path        string
	query       url.Values
	contentType string
	body        []byte
}

func newCaptureServer(t *testing.T, status int, response string) (*httptest.Server, func() capturedRequest, *atomic.Int32) {
	t.Helper()
	var (
		mu       sync.Mutex
		captured capturedRequest
		hits     atomic.Int32
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		captured = capturedRequest{
			path:        r.URL.Path,
			query:       r.URL.Query(),
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		}
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	last := func() capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return captured
	}
	return srv, last, &hits
}

func TestGateway_Post(t *testing.T) {
	t.Run("form body carries the access token in the query", func(t *testing.T) {
		srv, last, _ := newCaptureServer(t, http.StatusOK, `{"valid":1}`)
		gw := NewGateway(Config{BaseURL: srv.URL + "/"}, srv.Client(), staticTokens{"tok", true}, zap.NewNop())

		resp := gw.Post(context.Background(), "productCategories/getAll/", url.Values{"company_id": {"5"}})
		require.NotNil(t, resp)
		req := last()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "/productCategories/getAll/", req.path)
		assert.Equal(t, "tok", req.query.Get("access_token"))
		assert.Empty(t, req.query.Get("json"))
		assert.Equal(t, "application/x-www-form-urlencoded", req.contentType)

		form, err := url.ParseQuery(string(req.body))
		require.NoError(t, err)
		assert.Equal(t, "5", form.Get("company_id"))
	})

	t.Run("structured body is sent as JSON with json=true", func(t *testing.T) {
		srv, last, _ := newCaptureServer(t, http.StatusOK, `{"product_id":9}`)
		gw := NewGateway(Config{BaseURL: srv.URL}, srv.Client(), staticTokens{"tok", true}, zap.NewNop())

		resp := gw.Post(context.Background(), "products/insert/", map[string]any{"company_id": 5, "name": "Mug"})
		require.NotNil(t, resp)
		req := last()
		assert.Equal(t, "true", req.query.Get("json"))
		assert.Equal(t, "tok", req.query.Get("access_token"))
		assert.Equal(t, "application/json", req.contentType)

		var body map[string]any
		require.NoError(t, json.Unmarshal(req.body, &body))
		assert.Equal(t, "Mug", body["name"])
		assert.EqualValues(t, 5, body["company_id"])
	})

	t.Run("non-2xx status yields nil", func(t *testing.T) {
		srv, _, hits := newCaptureServer(t, http.StatusInternalServerError, `oops`)
		gw := NewGateway(Config{BaseURL: srv.URL + "/"}, srv.Client(), staticTokens{"tok", true}, zap.NewNop())

		assert.Nil(t, gw.Post(context.Background(), "customers/count/", nil))
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("no token means no call", func(t *testing.T) {
		srv, _, hits := newCaptureServer(t, http.StatusOK, `{}`)
		gw := NewGateway(Config{BaseURL: srv.URL + "/"}, srv.Client(), staticTokens{"", false}, zap.NewNop())

		assert.Nil(t, gw.Post(context.Background(), "customers/count/", nil))
		assert.Zero(t, hits.Load())
	})

	t.Run("cancelled context means no call", func(t *testing.T) {
		srv, _, hits := newCaptureServer(t, http.StatusOK, `{}`)
		gw := NewGateway(Config{BaseURL: srv.URL + "/"}, srv.Client(), staticTokens{"tok", true}, zap.NewNop())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Nil(t, gw.Post(ctx, "customers/count/", nil))
		assert.Zero(t, hits.Load())
	})

	t.Run("throttled gateway still completes calls", func(t *testing.T) {
		srv, _, hits := newCaptureServer(t, http.StatusOK, `{"count":1}`)
		gw := NewGateway(Config{BaseURL: srv.URL + "/", RequestsPerSecond: 100, Burst: 2}, srv.Client(), staticTokens{"tok", true}, zap.NewNop())

		for i := 0; i < 3; i++ {
			require.NotNil(t, gw.Post(context.Background(), "customers/count/", nil))
		}
		assert.Equal(t, int32(3), hits.Load())
	})
}

func TestDecode(t *testing.T) {
	type item struct {
		ID int `json:"id"`
	}

	t.Run("nil response is the zero value", func(t *testing.T) {
		assert.Nil(t, Decode[[]item](nil))
		_, ok := DecodeOK[item](nil)
		assert.False(t, ok)
	})

	t.Run("malformed body is the zero value", func(t *testing.T) {
		out, ok := DecodeOK[[]item](&Response{StatusCode: 200, Body: []byte(`{"error":"x"}`)})
		assert.False(t, ok)
		assert.Nil(t, out)
	})

	t.Run("valid body decodes", func(t *testing.T) {
		out := Decode[[]item](&Response{StatusCode: 200, Body: []byte(`[{"id":1},{"id":2}]`)})
		assert.Equal(t, []item{{1}, {2}}, out)
	})
}

func TestIntField(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
		want int
	}{
		{"nil response", nil, -2},
		{"number", &Response{Body: []byte(`{"customer_id":42}`)}, 42},
		{"numeric string", &Response{Body: []byte(`{"customer_id":"42"}`)}, 42},
		{"missing key", &Response{Body: []byte(`{"valid":0}`)}, -2},
		{"array body", &Response{Body: []byte(`[]`)}, -2},
		{"non numeric", &Response{Body: []byte(`{"customer_id":"abc"}`)}, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, intField(tt.resp, "customer_id"))
		})
	}
}
