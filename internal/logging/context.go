package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	traceKey
)

// New builds the JSON logger used by every veotube command.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     ParseLevel(level),
	}))
}

// ParseLevel maps a configured level name onto slog. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithLogger stores the provided logger on the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the request-scoped logger or falls back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// WithRequestID stores a request identifier on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves a previously stored request identifier.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type traceIDs struct {
	trace string
	span  string
}

func withTrace(ctx context.Context, ids traceIDs) context.Context {
	return context.WithValue(ctx, traceKey, ids)
}

func traceFromContext(ctx context.Context) traceIDs {
	if ctx == nil {
		return traceIDs{}
	}
	ids, _ := ctx.Value(traceKey).(traceIDs)
	return ids
}

// TraceIDFromContext returns the trace shared by every span of a unit of work.
func TraceIDFromContext(ctx context.Context) string {
	return traceFromContext(ctx).trace
}

// SpanIDFromContext returns the innermost span identifier.
func SpanIDFromContext(ctx context.Context) string {
	return traceFromContext(ctx).span
}
