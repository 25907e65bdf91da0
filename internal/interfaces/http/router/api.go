package router

import (
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"github.com/erp/ledgersync/internal/infrastructure/telemetry"
	"github.com/erp/ledgersync/internal/interfaces/http/handler"
	"github.com/erp/ledgersync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Config configures the HTTP surface
type Config struct {
	ServiceName string
	MaxBodySize int64
	CORS        middleware.CORSConfig
	Tracing     bool
	// IngestLimit is applied to the event ingest route when set
	IngestLimit gin.HandlerFunc
}

// Handlers groups the endpoint handlers
type Handlers struct {
	Events   *handler.EventHandler
	Sync     *handler.SyncHandler
	Settings *handler.SettingsHandler
	System   *handler.SystemHandler
}

// Dependencies are the cross-cutting services of the HTTP stack
type Dependencies struct {
	Logger  *zap.Logger
	Metrics *telemetry.Metrics
	Auth    middleware.TokenValidator
}

// NewEngine builds the gin engine with every route and middleware in place.
//
//	GET  /health
//	GET  /metrics
//	POST /api/v1/events
//	POST /api/v1/admin/sync/products
//	GET  /api/v1/admin/sync/runs
//	GET  /api/v1/admin/settings
//	PUT  /api/v1/admin/settings
//	POST /api/v1/admin/subscription/check
func NewEngine(cfg Config, deps Dependencies, h Handlers) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(deps.Logger),
		middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.Tracing}),
		middleware.SpanEnricher(),
		logger.GinMiddleware(deps.Logger),
		deps.Metrics.GinMiddleware(),
		middleware.Secure(),
		middleware.CORSWithConfig(cfg.CORS),
	)

	engine.GET("/health", h.System.Health)
	engine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	events := NewDomainGroup("events", "/events").Use(middleware.BodyLimit(cfg.MaxBodySize))
	if cfg.IngestLimit != nil {
		events.Use(cfg.IngestLimit)
	}
	events.POST("", h.Events.Ingest)

	admin := NewDomainGroup("admin", "/admin").Use(middleware.AdminAuth(deps.Auth, deps.Logger))
	admin.Group("sync", "/sync").
		POST("/products", h.Sync.SyncProducts).
		GET("/runs", h.Sync.ListRuns)
	admin.Group("settings", "/settings").
		GET("", h.Settings.GetSettings).
		PUT("", middleware.BodyLimit(cfg.MaxBodySize), h.Settings.UpdateSettings)
	admin.Group("subscription", "/subscription").
		POST("/check", h.Settings.CheckSubscription)

	api := NewRouter(engine).Register(events).Register(admin)
	api.Setup()
	for _, route := range api.Routes() {
		deps.Logger.Debug("Route registered",
			zap.String("group", route.Group),
			zap.String("method", route.Method),
			zap.String("path", route.Path),
		)
	}
	return engine
}
