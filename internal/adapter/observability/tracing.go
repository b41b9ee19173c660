// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/fairyhunter13/ai-career-guide/internal/config"
)

// SamplingRatio is the head sampling ratio for cfg: a tenth of traces in
// prod, all of them elsewhere.
func SamplingRatio(cfg config.Config) float64 {
	if cfg.IsProd() {
		return 0.1
	}
	return 1.0
}

// SetupTracing installs an OTLP/gRPC tracer provider when
// OTEL_EXPORTER_OTLP_ENDPOINT is set. The returned func flushes and stops
// it; it is nil when tracing is off.
func SetupTracing(cfg config.Config) (func(context.Context) error, error) {
	if cfg.OTLPEndpoint == "" {
		slog.Info("tracing disabled", slog.String("reason", "OTEL_EXPORTER_OTLP_ENDPOINT not set"))
		return nil, nil
	}
	ctx := context.Background()
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("op=observability.SetupTracing: exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(cfg.OTELServiceName),
		semconv.DeploymentEnvironmentKey.String(cfg.AppEnv),
	))
	if err != nil {
		return nil, fmt.Errorf("op=observability.SetupTracing: resource: %w", err)
	}

	ratio := SamplingRatio(cfg)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	slog.Info("tracing enabled",
		slog.String("endpoint", cfg.OTLPEndpoint),
		slog.Float64("sampling_ratio", ratio))
	return tp.Shutdown, nil
}

// NewHTTPClient returns an outbound client bounded by timeout whose spans are
// named "<component> <METHOD> <host>".
func NewHTTPClient(component string, timeout time.Duration) *http.Client {
	spanName := func(_ string, r *http.Request) string {
		return component + " " + r.Method + " " + r.URL.Host
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport, otelhttp.WithSpanNameFormatter(spanName)),
	}
}
