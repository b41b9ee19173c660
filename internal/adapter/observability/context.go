package observability

import (
	"context"
	"log/slog"
)

type loggerContextKey struct{}

type requestIDContextKey struct{}

// ContextWithLogger attaches a non-nil logger to the context.
func ContextWithLogger(ctx context.Context, lg *slog.Logger) context.Context {
	if ctx == nil || lg == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerContextKey{}, lg)
}

// LoggerFromContext returns the request-scoped logger, or slog.Default().
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if lg, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && lg != nil {
		return lg
	}
	return slog.Default()
}

// ContextWithRequestID stores the request id so upstream calls can log it.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

// RequestIDFromContext returns the request id or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	rid, _ := ctx.Value(requestIDContextKey{}).(string)
	return rid
}
