package strindex

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/strindex/model"
)

// Logger wraps slog.Logger with strindex-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithUseCase adds a use-case field to the logger.
func (l *Logger) WithUseCase(useCase model.UseCase) *Logger {
	return &Logger{
		Logger: l.Logger.With("use_case", string(useCase)),
	}
}

// WithTenant adds a tenant field to the logger.
func (l *Logger) WithTenant(tenant model.TenantID) *Logger {
	return &Logger{
		Logger: l.Logger.With("tenant", int64(tenant)),
	}
}

// LogRecord logs a record operation.
func (l *Logger) LogRecord(ctx context.Context, useCase model.UseCase, tenant model.TenantID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "record failed",
			"use_case", string(useCase),
			"tenant", int64(tenant),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "record completed",
			"use_case", string(useCase),
			"tenant", int64(tenant),
		)
	}
}

// LogBulkRecord logs a bulk record operation.
func (l *Logger) LogBulkRecord(ctx context.Context, useCase model.UseCase, total, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "bulk record completed with failures",
			"use_case", string(useCase),
			"total", total,
			"failed", failed,
			"success", total-failed,
		)
	} else {
		l.DebugContext(ctx, "bulk record completed",
			"use_case", string(useCase),
			"count", total,
		)
	}
}

// LogReverseResolve logs a reverse lookup.
func (l *Logger) LogReverseResolve(ctx context.Context, useCase model.UseCase, tenant model.TenantID, id model.ID, err error) {
	if err != nil {
		l.DebugContext(ctx, "reverse resolve missed",
			"use_case", string(useCase),
			"tenant", int64(tenant),
			"id", int64(id),
			"error", err,
		)
	}
}

// LogValidate logs a backing-store liveness check.
func (l *Logger) LogValidate(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "store validation failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "store validation succeeded")
	}
}
