package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: false}, zap.NewNop()))
	assert.Nil(t, db.Callback().Query().Get("ledgersync:after_query"))
}

func TestRegisterDBTracing_EmitsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(original) })

	db := openTestDB(t)
	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop()))
	assert.NotNil(t, db.Callback().Query().Get("ledgersync:after_query"))

	require.NoError(t, db.WithContext(context.Background()).Create(&tracedRow{Name: "a"}).Error)
	var rows []tracedRow
	require.NoError(t, db.WithContext(context.Background()).Find(&rows).Error)

	assert.GreaterOrEqual(t, len(sr.Ended()), 2)
}

func TestMarkStatement(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	t.Run("slow statement gets an event", func(t *testing.T) {
		ctx, span := tp.Tracer("test").Start(context.Background(), "query")
		ctx = context.WithValue(ctx, queryStartKey{}, time.Now().Add(-time.Second))

		tx := openTestDB(t).Session(&gorm.Session{NewDB: true})
		tx.Statement.Context = ctx
		tx.Statement.Table = "sync_runs"
		markStatement(tx, 10*time.Millisecond)
		span.End()

		ended := sr.Ended()
		last := ended[len(ended)-1]
		require.Len(t, last.Events(), 1)
		assert.Equal(t, "slow_query", last.Events()[0].Name)
	})

	t.Run("record not found is not an error", func(t *testing.T) {
		ctx, span := tp.Tracer("test").Start(context.Background(), "query")

		tx := openTestDB(t).Session(&gorm.Session{NewDB: true})
		tx.Statement.Context = ctx
		tx.Error = gorm.ErrRecordNotFound
		markStatement(tx, time.Hour)
		span.End()

		ended := sr.Ended()
		assert.NotEqual(t, codes.Error, ended[len(ended)-1].Status().Code)
	})

	t.Run("nil context is ignored", func(t *testing.T) {
		tx := openTestDB(t).Session(&gorm.Session{NewDB: true})
		tx.Statement.Context = nil
		assert.NotPanics(t, func() { markStatement(tx, time.Millisecond) })
	})
}
