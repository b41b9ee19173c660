package httpserver

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/fairyhunter13/ai-career-guide/internal/adapter/observability"
)

// Recoverer turns a panic into a 500 JSON error.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					LoggerFrom(r).Error("panic recovered", slog.Any("recover", rec), slog.String("path", r.URL.Path))
					writeJSON(w, http.StatusInternalServerError, errorBody{Error: http.StatusText(http.StatusInternalServerError)})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID assigns a ULID request id unless the client sent one, and stores a
// request-scoped logger carrying it and the trace ids.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get("X-Request-Id")
			if reqID == "" {
				reqID = newReqID()
				r.Header.Set("X-Request-Id", reqID)
			}
			spanCtx := trace.SpanContextFromContext(r.Context())
			logger := slog.Default().With(
				slog.String("request_id", reqID),
				slog.String("trace_id", spanCtx.TraceID().String()),
				slog.String("span_id", spanCtx.SpanID().String()),
			)
			ctx := observability.ContextWithLogger(r.Context(), logger)
			ctx = observability.ContextWithRequestID(ctx, reqID)
			w.Header().Set("X-Request-Id", reqID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Deadline bounds the request context so every outbound call made while
// serving it is cancelled after d.
func Deadline(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SecurityHeaders adds headers suitable for a JSON API.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// LoggerFrom returns the request-scoped logger or the default logger.
func LoggerFrom(r *http.Request) *slog.Logger {
	return observability.LoggerFromContext(r.Context())
}

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0) //nolint:gosec // ULID entropy only.
)

func newReqID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), ulidEntropy)
	if err != nil {
		return time.Now().UTC().Format("20060102150405.000000000")
	}
	return id.String()
}

// AccessLog logs one line per request; the level follows the status class.
func AccessLog() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			var route string
			if rc := chi.RouteContext(r.Context()); rc != nil {
				route = rc.RoutePattern()
			}
			if route == "" {
				route = r.URL.Path
			}
			status := ww.Status()
			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", route),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			}
			lg := LoggerFrom(r)
			switch {
			case status >= 500:
				lg.LogAttrs(r.Context(), slog.LevelError, "http_access", attrs...)
			case status >= 400:
				lg.LogAttrs(r.Context(), slog.LevelWarn, "http_access", attrs...)
			default:
				lg.LogAttrs(r.Context(), slog.LevelInfo, "http_access", attrs...)
			}
		})
	}
}
