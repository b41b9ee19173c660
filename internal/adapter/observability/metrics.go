package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider, operation and outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider", "operation"},
	)
	AIPromptTokens = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_prompt_tokens",
			Help:    "Estimated prompt size in tokens",
			Buckets: prometheus.ExponentialBuckets(32, 2, 10),
		},
		[]string{"provider", "operation"},
	)

	RAGRetrieverReady = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rag_retriever_ready",
			Help: "1 when the document retriever is ready, 0 otherwise",
		},
	)
	RAGChunksIndexed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rag_chunks_indexed",
			Help: "Number of document chunks held by the vector store",
		},
	)

	WebResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "web_results_total",
			Help: "Web search results by endpoint and outcome (kept, filtered, failed)",
		},
		[]string{"endpoint", "outcome"},
	)
)

var initOnce sync.Once

// InitMetrics registers the collectors with the default registry. Safe to call twice.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			AIRequestsTotal,
			AIRequestDuration,
			AIPromptTokens,
			RAGRetrieverReady,
			RAGChunksIndexed,
			WebResultsTotal,
		)
	})
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

// ObserveAIRequest records one upstream AI call.
func ObserveAIRequest(provider, operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	AIRequestsTotal.WithLabelValues(provider, operation, outcome).Inc()
	AIRequestDuration.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
}

// ObservePromptTokens records the estimated prompt size of one call.
func ObservePromptTokens(provider, operation string, tokens int) {
	if tokens > 0 {
		AIPromptTokens.WithLabelValues(provider, operation).Observe(float64(tokens))
	}
}

// SetRetrieverReady flips the retriever readiness gauge.
func SetRetrieverReady(ready bool) {
	if ready {
		RAGRetrieverReady.Set(1)
		return
	}
	RAGRetrieverReady.Set(0)
}

// SetChunksIndexed records the size of the vector index.
func SetChunksIndexed(n int) { RAGChunksIndexed.Set(float64(n)) }

// CountWebResult records what happened to one web search result.
func CountWebResult(endpoint, outcome string) {
	WebResultsTotal.WithLabelValues(endpoint, outcome).Inc()
}
