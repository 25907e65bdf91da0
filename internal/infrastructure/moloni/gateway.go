package moloni

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"github.com/erp/ledgersync/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TokenSource yields the access token for one call
type TokenSource interface {
	AccessToken(ctx context.Context) (string, bool)
}

// Response is a successful (2xx) response
type Response struct {
	StatusCode int
	Body       []byte
}

// Gateway posts requests to the ledger API. Every failure, whether missing
// token, cancelled context, transport error or non-2xx status, is logged and
// reported as a nil response; callers map nil to the transport sentinel.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *zap.Logger
	metrics    *telemetry.Metrics
}

// GatewayOption configures a Gateway
type GatewayOption func(*Gateway)

// WithGatewayMetrics records call outcomes
func WithGatewayMetrics(metrics *telemetry.Metrics) GatewayOption {
	return func(g *Gateway) { g.metrics = metrics }
}

// NewGateway creates a gateway. A zero RequestsPerSecond disables throttling.
func NewGateway(cfg Config, httpClient *http.Client, tokens TokenSource, log *zap.Logger, opts ...GatewayOption) *Gateway {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	g := &Gateway{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/") + "/",
		httpClient: httpClient,
		tokens:     tokens,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     log.Named("moloni"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Post sends body to path. url.Values are form-encoded; any other value is
// sent as JSON with json=true added to the query.
func (g *Gateway) Post(ctx context.Context, path string, body any) *Response {
	ctx, span := telemetry.StartClientSpan(ctx, "moloni "+strings.TrimSuffix(path, "/"),
		telemetry.SpanAttrRemotePath, path)
	defer span.End()

	log := logger.WithLogger(ctx, g.logger).With(zap.String("path", path))
	start := time.Now()

	resp, err := g.do(ctx, path, body)
	g.metrics.ObserveRemoteCall(path, err == nil, time.Since(start))
	if err != nil {
		telemetry.RecordError(span, err)
		log.Warn("Remote call failed", zap.Error(err))
		return nil
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrRemoteStatus, resp.StatusCode)
	return resp
}

func (g *Gateway) do(ctx context.Context, path string, body any) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("not started: %w", err)
	}

	token, ok := g.tokens.AccessToken(ctx)
	if !ok {
		return nil, fmt.Errorf("no access token")
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("throttle: %w", err)
	}

	query := url.Values{"access_token": {token}}
	var (
		payload     io.Reader
		contentType string
	)
	switch b := body.(type) {
	case url.Values:
		payload = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	case nil:
		payload = strings.NewReader("")
		contentType = "application/x-www-form-urlencoded"
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		payload = bytes.NewReader(data)
		contentType = "application/json"
		query.Set("json", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path+"?"+query.Encode(), payload)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(data, 256))
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// Decode unmarshals the response body into T. A nil response or a malformed
// body yields the zero value.
func Decode[T any](resp *Response) T {
	var out T
	if resp == nil {
		return out
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		var zero T
		return zero
	}
	return out
}

// DecodeOK is Decode with a success flag
func DecodeOK[T any](resp *Response) (T, bool) {
	var out T
	if resp == nil {
		return out, false
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}
