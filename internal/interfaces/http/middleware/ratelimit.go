package middleware

import (
	"fmt"
	"net/http"

	"github.com/erp/ledgersync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// DefaultIngestRate is used when no rate is configured
const DefaultIngestRate = "100-M"

// rateLimitPrefix namespaces limiter keys in a shared store
const rateLimitPrefix = "ledgersync:ratelimit"

// RateLimitConfig configures the ingest limiter
type RateLimitConfig struct {
	// Rate uses the limiter format, e.g. "100-M" or "10-S"
	Rate string
	// Store holds the counters; nil uses an in-memory store
	Store  limiter.Store
	Logger *zap.Logger
}

// NewRedisRateStore returns a limiter store shared through redis
func NewRedisRateStore(client *redis.Client) (limiter.Store, error) {
	return sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: rateLimitPrefix})
}

// RateLimit limits requests per client IP
func RateLimit(cfg RateLimitConfig) (gin.HandlerFunc, error) {
	if cfg.Rate == "" {
		cfg.Rate = DefaultIngestRate
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", cfg.Rate, err)
	}
	store := cfg.Store
	if store == nil {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix})
	}

	instance := limiter.New(store, rate)
	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Rate limit exceeded",
				c.GetString(RequestIDContextKey),
			))
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// A broken store must not block ingestion
			cfg.Logger.Warn("Rate limiter store failed", zap.Error(err))
			c.Next()
		}),
	), nil
}
