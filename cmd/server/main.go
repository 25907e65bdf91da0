package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/erp/ledgersync/internal/application/billing"
	"github.com/erp/ledgersync/internal/application/reconcile"
	"github.com/erp/ledgersync/internal/domain/ledger"
	"github.com/erp/ledgersync/internal/infrastructure/auth"
	"github.com/erp/ledgersync/internal/infrastructure/billing"
	"github.com/erp/ledgersync/internal/infrastructure/cache"
	"github.com/erp/ledgersync/internal/infrastructure/config"
	"github.com/erp/ledgersync/internal/infrastructure/credential"
	"github.com/erp/ledgersync/internal/infrastructure/event"
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"github.com/erp/ledgersync/internal/infrastructure/moloni"
	"github.com/erp/ledgersync/internal/infrastructure/persistence"
	"github.com/erp/ledgersync/internal/infrastructure/storefront"
	"github.com/erp/ledgersync/internal/infrastructure/telemetry"
	"github.com/erp/ledgersync/internal/interfaces/http/handler"
	"github.com/erp/ledgersync/internal/interfaces/http/middleware"
	"github.com/erp/ledgersync/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// A .env file is optional; real environment variables win
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(cfg.App.Name, logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting ledger sync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Int("store_id", cfg.Sync.StoreID),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize tracing
	tracer, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	metrics := telemetry.NewMetrics()

	// Initialize database
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if db.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	dbSystem := "sqlite"
	if db.Driver == "postgres" {
		dbSystem = "postgresql"
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem:        dbSystem,
		SlowQueryThresh: 200 * time.Millisecond,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", db.Driver))

	// Initialize repositories
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)
	mappingRepo := persistence.NewGormCategoryMappingRepository(db.DB)
	runRepo := persistence.NewGormSyncRunRepository(db.DB)
	settings := reconcile.RepositorySettings(settingsRepo, cfg.Sync.StoreID)

	// Initialize caches; the rate limiter shares the Redis client
	var redisClient *redis.Client
	factoryOpts := []cache.FactoryOption{cache.WithLogger(log)}
	if cfg.Cache.Backend == cache.BackendRedis {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable at startup", zap.Error(err))
		} else {
			factoryOpts = append(factoryOpts, cache.WithRedisClient(redisClient))
		}
	}
	cacheFactory := cache.NewFactory(cfg.Cache, cfg.Redis, factoryOpts...)
	defer func() {
		if err := cacheFactory.Close(); err != nil {
			log.Error("Error closing cache", zap.Error(err))
		}
	}()
	debounceStore, err := cacheFactory.IdempotencyStore()
	if err != nil {
		log.Fatal("Failed to create debounce store", zap.Error(err))
	}
	redeliveryStore, err := cacheFactory.IdempotencyStore()
	if err != nil {
		log.Fatal("Failed to create redelivery store", zap.Error(err))
	}
	subscriptionCache, err := cacheFactory.SubscriptionCache()
	if err != nil {
		log.Fatal("Failed to create subscription cache", zap.Error(err))
	}

	// Initialize the subscription gate
	gate := billingapp.NewSubscriptionGate(
		newSubscriptionChecker(cfg, log),
		subscriptionCache,
		cfg.Cache.SubscriptionTTL,
		log,
		billingapp.WithMetrics(metrics),
	)

	// Initialize remote ledger clients
	moloniCfg := moloni.ConfigFrom(cfg.Moloni)
	httpClient := moloni.NewHTTPClient(moloniCfg)
	tokenStore := credential.NewFileStore(cfg.Moloni.TokenFile, credential.SettingsKeySource(settings))
	tokens := moloni.NewTokenManager(moloniCfg, httpClient, tokenStore, settings, log,
		moloni.WithTokenMetrics(metrics))
	gateway := moloni.NewGateway(moloniCfg, httpClient, tokens, log,
		moloni.WithGatewayMetrics(metrics))
	ledgerClients := moloni.NewClients(gateway, settings, log)

	// Initialize the storefront client
	host, err := storefront.NewClient(cfg.Storefront, nil, log)
	if err != nil {
		log.Fatal("Failed to create storefront client", zap.Error(err))
	}

	// Initialize the reconciliation engine
	engineCfg := reconcile.Config{
		StoreID:          cfg.Sync.StoreID,
		DebounceWindow:   cfg.Sync.DebounceWindow,
		FreshnessWindow:  cfg.Sync.FreshnessWindow,
		MaxCategoryDepth: cfg.Sync.MaxCategoryDepth,
	}
	if cfg.Moloni.ATCode != "" {
		engineCfg.AT = &ledger.ATRegistration{
			ATCode:     cfg.Moloni.ATCode,
			InitialNum: cfg.Moloni.ATInitialNum,
		}
	}
	engine := reconcile.NewEngine(reconcile.Dependencies{
		Ledger:    ledgerClients,
		Host:      host,
		TaxWriter: host,
		Settings:  settingsRepo,
		Mappings:  mappingRepo,
		Runs:      runRepo,
		Gate:      gate,
		Debounce:  debounceStore,
	}, engineCfg, log, reconcile.WithMetrics(metrics))

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log, event.WithDispatchTimeout(cfg.Sync.DispatchTimeout))
	storefrontHandler := reconcile.NewEventHandler(engine, log)
	eventBus.Subscribe(
		event.NewIdempotentHandler(storefrontHandler, redeliveryStore, event.DefaultRedeliveryTTL, log),
		storefrontHandler.EventTypes()...,
	)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Initialize the ingest rate limit
	rateCfg := middleware.RateLimitConfig{Rate: cfg.HTTP.IngestRate, Logger: log}
	if redisClient != nil {
		store, err := middleware.NewRedisRateStore(redisClient)
		if err != nil {
			log.Warn("Redis rate limit store unavailable, using in-memory", zap.Error(err))
		} else {
			rateCfg.Store = store
		}
	}
	ingestLimit, err := middleware.RateLimit(rateCfg)
	if err != nil {
		log.Fatal("Invalid ingest rate", zap.Error(err))
	}

	// Build the HTTP engine
	jwtService := auth.NewJWTService(cfg.Auth)
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	ginEngine := router.NewEngine(
		router.Config{
			ServiceName: cfg.Telemetry.ServiceName,
			MaxBodySize: cfg.HTTP.MaxBodySize,
			CORS:        cors,
			Tracing:     tracer.IsEnabled(),
			IngestLimit: ingestLimit,
		},
		router.Dependencies{
			Logger:  log,
			Metrics: metrics,
			Auth:    jwtService,
		},
		router.Handlers{
			Events:   handler.NewEventHandler(event.NewEventSerializer(), eventBus),
			Sync:     handler.NewSyncHandler(engine),
			Settings: handler.NewSettingsHandler(cfg.Sync.StoreID, settingsRepo, engine, gate),
			System: handler.NewSystemHandler(cfg.App.Name, version, map[string]handler.HealthCheck{
				"database": func(context.Context) error { return db.Ping() },
			}),
		},
	)

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        ginEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	// In-flight reconciliations finish before the stores close
	if err := eventBus.Stop(ctx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}
	if err := tracer.Shutdown(ctx); err != nil {
		log.Error("Tracer shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newSubscriptionChecker returns the Stripe lookup, or a checker that denies
// every email when Stripe is not configured outside production
func newSubscriptionChecker(cfg *config.Config, log *zap.Logger) billingapp.SubscriptionChecker {
	adapter, err := billing.NewStripeAdapter(&billing.StripeConfig{
		SecretKey: cfg.Stripe.SecretKey,
		ProductID: cfg.Stripe.ProductID,
		APIURL:    cfg.Stripe.APIURL,
	}, log)
	if err == nil {
		return adapter
	}
	if cfg.App.Env == "production" {
		log.Fatal("Invalid Stripe configuration", zap.Error(err))
	}
	log.Warn("Stripe not configured, every subscription check will fail", zap.Error(err))
	return noSubscriptions{}
}

type noSubscriptions struct{}

func (noSubscriptions) HasActiveSubscription(context.Context, string) (bool, error) {
	return false, nil
}
