package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	DBSystem        string        // "postgresql" or "sqlite"
	SlowQueryThresh time.Duration // queries slower than this get a slow_query event
	WithVariables   bool          // include bound variables in spans (dev only)
}

type queryStartKey struct{}

// RegisterDBTracing installs the otelgorm plugin and a callback pair that
// flags slow statements on the active span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.WithVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	thresh := cfg.SlowQueryThresh
	if thresh <= 0 {
		thresh = 200 * time.Millisecond
	}
	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { markStatement(tx, thresh) }

	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("ledgersync:before_create", before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("ledgersync:after_create", after); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("ledgersync:before_query", before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("ledgersync:after_query", after); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("ledgersync:before_update", before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("ledgersync:after_update", after); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("ledgersync:before_delete", before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("ledgersync:after_delete", after); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Duration("slow_query_threshold", thresh),
	)
	return nil
}

func markStatement(tx *gorm.DB, thresh time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.RecordError(tx.Error)
		span.SetStatus(codes.Error, tx.Error.Error())
	}
	if startedAt, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		if elapsed := time.Since(startedAt); elapsed > thresh {
			span.AddEvent("slow_query", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", thresh.Milliseconds()),
			))
		}
	}
}
