// Package moloni is the HTTP adapter for the Moloni ledger API: OAuth token
// lifecycle, a throttled request gateway and one client per remote resource.
package moloni

import (
	"net/http"
	"time"

	"github.com/erp/ledgersync/internal/infrastructure/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxResponseSize caps how much of a response body is read
const maxResponseSize = 10 << 20

// Config holds the gateway settings
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// ConfigFrom maps the application config section
func ConfigFrom(c config.MoloniConfig) Config {
	return Config{
		BaseURL:           c.BaseURL,
		Timeout:           c.Timeout,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
	}
}

// NewHTTPClient returns the client shared by the gateway and token manager.
// Requests propagate the trace context of the caller.
func NewHTTPClient(cfg Config) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
