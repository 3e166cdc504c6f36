package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// slowQueryThreshold marks queries worth a warning. Payment reads are
// indexed lookups, so anything slower usually means a missing index or
// a lock queue.
const slowQueryThreshold = 200 * time.Millisecond

// GormLogger routes GORM's log output through zap, tagging each query
// with the request id and actor carried in the context.
type GormLogger struct {
	log   *zap.Logger
	level gormlogger.LogLevel
}

// NewGormLogger wraps log for use as a gorm.Config Logger.
func NewGormLogger(log *zap.Logger, level gormlogger.LogLevel) *GormLogger {
	return &GormLogger{
		log:   log.Named("gorm"),
		level: level,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.log.Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.log.Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.log.Sugar().Errorf(msg, data...)
	}
}

// Trace logs each executed statement. Record-not-found is skipped since
// it surfaces to callers as a domain not-found error, not a failure.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := queryFields(ctx, sql, rows, elapsed)

	switch {
	case err != nil && l.level >= gormlogger.Error:
		if errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		l.log.Error("query failed", append(fields, zap.Error(err))...)

	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		l.log.Warn("slow query", append(fields, zap.Duration("threshold", slowQueryThreshold))...)

	case l.level >= gormlogger.Info:
		l.log.Debug("query", fields...)
	}
}

func queryFields(ctx context.Context, sql string, rows int64, elapsed time.Duration) []zap.Field {
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if actor := GetActor(ctx); actor != "" {
		fields = append(fields, zap.String("actor", actor))
	}
	return fields
}

// MapGormLogLevel translates the backend's log level into GORM's scale.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "warn":
		return gormlogger.Warn
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
