package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is
// valid and records nothing, which keeps components usable in tests.
type Metrics struct {
	registry *prometheus.Registry

	remoteCalls    *prometheus.CounterVec
	remoteDuration *prometheus.HistogramVec
	tokenGrants    *prometheus.CounterVec
	events         *prometheus.CounterVec
	gateDecisions  *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	httpInFlight   prometheus.Gauge
}

// NewMetrics registers every collector on a fresh registry, together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgersync_remote_calls_total",
			Help: "Calls to the remote ledger API by path and outcome.",
		}, []string{"path", "outcome"}),
		remoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledgersync_remote_call_duration_seconds",
			Help:    "Remote ledger API call latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
		tokenGrants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgersync_token_grants_total",
			Help: "Token grant exchanges by grant type and outcome.",
		}, []string{"grant", "outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgersync_events_total",
			Help: "Storefront events handled by type and outcome.",
		}, []string{"type", "outcome"}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgersync_subscription_checks_total",
			Help: "Subscription gate decisions by result and source.",
		}, []string{"result", "source"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.remoteCalls, m.remoteDuration, m.tokenGrants, m.events,
		m.gateDecisions, m.httpRequests, m.httpDuration, m.httpInFlight,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRemoteCall records one call to the ledger API.
func (m *Metrics) ObserveRemoteCall(path string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.remoteCalls.WithLabelValues(path, outcome(ok)).Inc()
	m.remoteDuration.WithLabelValues(path).Observe(elapsed.Seconds())
}

// ObserveTokenGrant records one grant exchange.
func (m *Metrics) ObserveTokenGrant(grant string, ok bool) {
	if m == nil {
		return
	}
	m.tokenGrants.WithLabelValues(grant, outcome(ok)).Inc()
}

// ObserveEvent records the outcome of one storefront event.
func (m *Metrics) ObserveEvent(eventType, result string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType, result).Inc()
}

// ObserveGateDecision records a subscription gate decision. source is
// "cache" or "lookup".
func (m *Metrics) ObserveGateDecision(valid bool, source string) {
	if m == nil {
		return
	}
	result := "inactive"
	if valid {
		result = "active"
	}
	m.gateDecisions.WithLabelValues(result, source).Inc()
}

// GinMiddleware measures request count, latency and in-flight requests.
// The route template is used as the path label to bound cardinality.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		m.httpInFlight.Inc()
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.httpDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpInFlight.Dec()
	}
}

func outcome(ok bool) string {
	if ok {
		return OutcomeSuccess
	}
	return OutcomeFailure
}
