package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

func query(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestNewGormLogger_Options(t *testing.T) {
	gl := NewGormLogger(zap.NewNop(), gormlogger.Warn,
		WithSlowThreshold(time.Second),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, time.Second, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)

	changed := gl.LogMode(gormlogger.Info).(*GormLogger)
	assert.Equal(t, gormlogger.Info, changed.logLevel)
	assert.Equal(t, gormlogger.Warn, gl.logLevel)
}

func TestGormLogger_Messages(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn)
	ctx := context.Background()

	gl.Info(ctx, "suppressed %d", 1)
	gl.Warn(ctx, "warn %s", "x")
	gl.Error(ctx, "error %s", "y")

	logs := recorded.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "warn x", logs[0].Message)
	assert.Equal(t, "error y", logs[1].Message)
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		opts    []GormLoggerOption
		begin   time.Time
		err     error
		wantMsg string
	}{
		{name: "error", level: gormlogger.Error, begin: time.Now(), err: errors.New("boom"), wantMsg: "SQL Error"},
		{name: "record not found ignored", level: gormlogger.Error, begin: time.Now(), err: gormlogger.ErrRecordNotFound},
		{name: "slow query", level: gormlogger.Warn, opts: []GormLoggerOption{WithSlowThreshold(time.Nanosecond)}, begin: time.Now().Add(-time.Second), wantMsg: "SLOW SQL >= 1ns"},
		{name: "normal query", level: gormlogger.Info, begin: time.Now(), wantMsg: "SQL Query"},
		{name: "silent", level: gormlogger.Silent, begin: time.Now()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			gl := NewGormLogger(zap.New(core), tt.level, tt.opts...)

			gl.Trace(context.Background(), tt.begin, query("SELECT * FROM category_mappings", 1), tt.err)

			if tt.wantMsg == "" {
				assert.Empty(t, recorded.All())
				return
			}
			logs := recorded.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.wantMsg, logs[0].Message)
			fields := logs[0].ContextMap()
			assert.Equal(t, "SELECT * FROM category_mappings", fields["sql"])
			assert.Equal(t, int64(1), fields["rows"])
			assert.NotEmpty(t, fields["source"])
		})
	}
}

func TestGormLogger_Trace_CarriesContextFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-7")
	ctx = context.WithValue(ctx, EventIDKey, "evt-7")
	ctx = context.WithValue(ctx, StoreIDKey, 2)

	gl.Trace(ctx, time.Now(), query("SELECT 1", 1), nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "evt-7", fields["event_id"])
	assert.Equal(t, int64(2), fields["store_id"])
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{" INFO ", gormlogger.Info},
		{"unknown", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}
