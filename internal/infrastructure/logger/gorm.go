package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// DefaultSlowQuery is the threshold above which a statement logs as slow
const DefaultSlowQuery = 200 * time.Millisecond

// GormLogger routes gorm output through zap. Every line carries the
// correlation fields of its context, so a statement issued while
// reconciling an event logs that event_id.
type GormLogger struct {
	logger                    *zap.Logger
	logLevel                  gormlogger.LogLevel
	slowThreshold             time.Duration
	ignoreRecordNotFoundError bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the slow statement threshold; zero disables it
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		l.slowThreshold = threshold
	}
}

// WithIgnoreRecordNotFoundError stops lookups that miss from logging as errors.
// Repositories map a miss to a domain sentinel, so this defaults to true.
func WithIgnoreRecordNotFoundError(ignore bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.ignoreRecordNotFoundError = ignore
	}
}

// NewGormLogger creates a gorm logger named "gorm" under zapLogger
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		logger:                    zapLogger.Named("gorm"),
		logLevel:                  level,
		slowThreshold:             DefaultSlowQuery,
		ignoreRecordNotFoundError: true,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

// LogMode returns a copy at level
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.logLevel = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *GormLogger) printf(ctx context.Context, enabled gormlogger.LogLevel, lvl zapcore.Level, msg string, data []any) {
	if l.logLevel < enabled {
		return
	}
	log := WithLogger(ctx, l.logger).Zap()
	if ce := log.Check(lvl, fmt.Sprintf(msg, data...)); ce != nil {
		ce.Write(zap.String("source", utils.FileWithLineNum()))
	}
}

// Trace logs one executed statement: errors at error level, slow statements
// at warn and everything else at debug when the level is Info.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.logLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	slow := l.slowThreshold != 0 && elapsed > l.slowThreshold

	switch {
	case err != nil && l.logLevel >= gormlogger.Error:
		if l.ignoreRecordNotFoundError && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		l.statement(ctx, zapcore.ErrorLevel, "SQL Error", elapsed, fc, zap.Error(err))
	case slow && l.logLevel >= gormlogger.Warn:
		l.statement(ctx, zapcore.WarnLevel, fmt.Sprintf("SLOW SQL >= %v", l.slowThreshold), elapsed, fc)
	case l.logLevel >= gormlogger.Info:
		l.statement(ctx, zapcore.DebugLevel, "SQL Query", elapsed, fc)
	}
}

func (l *GormLogger) statement(
	ctx context.Context,
	lvl zapcore.Level,
	msg string,
	elapsed time.Duration,
	fc func() (string, int64),
	extra ...zap.Field,
) {
	ce := WithLogger(ctx, l.logger).Zap().Check(lvl, msg)
	if ce == nil {
		return
	}
	sql, rows := fc()
	fields := append([]zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
		zap.String("source", utils.FileWithLineNum()),
	}, extra...)
	ce.Write(fields...)
}

// MapGormLogLevel maps a config level to a gorm level; unknown values map to warn
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
