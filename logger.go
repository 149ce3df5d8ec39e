package listflow

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/listflow/filter"
)

// Logger wraps slog.Logger with listflow-specific context.
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
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithFingerprint adds the filter fingerprint to the logger.
func (l *Logger) WithFingerprint(fp filter.Fingerprint) *Logger {
	return &Logger{
		Logger: l.Logger.With("fingerprint", fp.String(), "fingerprint_key", fp.Key()),
	}
}

// LogQuery logs a query execution.
func (l *Logger) LogQuery(ctx context.Context, fp filter.Fingerprint, count int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"fingerprint", fp.String(),
			"duration", duration,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"fingerprint", fp.String(),
			"count", count,
			"duration", duration,
		)
	}
}

// LogLookup logs a cache probe.
func (l *Logger) LogLookup(ctx context.Context, fp filter.Fingerprint, hit bool) {
	l.DebugContext(ctx, "cache lookup",
		"fingerprint", fp.String(),
		"hit", hit,
	)
}

// LogInvalidation logs an explicit cache invalidation.
func (l *Logger) LogInvalidation(ctx context.Context, kind string, removed int) {
	l.DebugContext(ctx, "cache invalidated",
		"kind", kind,
		"removed", removed,
	)
}

// LogRejected logs a rejected filter change.
func (l *Logger) LogRejected(ctx context.Context, field, value string) {
	l.WarnContext(ctx, "filter change rejected",
		"field", field,
		"value", value,
	)
}
