package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"inkwell/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// QueryLogger sends GORM's output to slog and feeds the query latency
// histogram. Failed and slow statements are logged at warn level or above;
// every statement is logged only at logger.Info.
type QueryLogger struct {
	log   *slog.Logger
	level logger.LogLevel
	slow  time.Duration
}

// NewQueryLogger logs statements slower than slow as warnings. slow == 0
// disables slow-query logging.
func NewQueryLogger(l *slog.Logger, slow time.Duration) *QueryLogger {
	return &QueryLogger{log: l, level: logger.Warn, slow: slow}
}

func (l *QueryLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *QueryLogger) emit(ctx context.Context, at logger.LogLevel, slogLevel slog.Level, msg string, data []any) {
	if l.level >= at {
		l.log.Log(ctx, slogLevel, fmt.Sprintf(msg, data...))
	}
}

func (l *QueryLogger) Info(ctx context.Context, msg string, data ...any) {
	l.emit(ctx, logger.Info, slog.LevelInfo, msg, data)
}

func (l *QueryLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.emit(ctx, logger.Warn, slog.LevelWarn, msg, data)
}

func (l *QueryLogger) Error(ctx context.Context, msg string, data ...any) {
	l.emit(ctx, logger.Error, slog.LevelError, msg, data)
}

// Trace is called by GORM after every statement.
func (l *QueryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	sql, rows := fc()
	observability.ObserveQuery(sql, begin)
	elapsed := time.Since(begin)
	attrs := []slog.Attr{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}

	// A missing row is an answer, not a failure.
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	switch {
	case failed && l.level >= logger.Error:
		l.log.LogAttrs(ctx, slog.LevelError, "GORM query error", append(attrs, slog.String("error", err.Error()))...)
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		l.log.LogAttrs(ctx, slog.LevelWarn, "GORM slow query", attrs...)
	case l.level >= logger.Info:
		l.log.LogAttrs(ctx, slog.LevelDebug, "GORM query", attrs...)
	}
}
