package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/fairyhunter13/ai-career-guide/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-career-guide/internal/adapter/observability"
	"github.com/fairyhunter13/ai-career-guide/internal/config"
)

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.RequestID())
	r.Use(httpserver.Deadline(cfg.RequestTimeout))
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Every route below reaches the model provider.
	r.Group(func(lr chi.Router) {
		if cfg.RateLimitPerMin > 0 {
			lr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, time.Minute))
		}
		lr.Post("/generate-question", srv.GenerateQuestionHandler())
		lr.Post("/analyze-answers", srv.AnalyzeAnswersHandler())
		lr.Post("/chat", srv.ChatHandler())
		lr.Get("/test-api", srv.TestAPIHandler())
		lr.Get("/list-models", srv.ListModelsHandler())
	})
	r.Post("/web-search", srv.WebSearchHandler())
	r.Post("/search-web-careers", srv.SearchWebCareersHandler())

	r.Get("/healthz", srv.HealthzHandler())
	r.Get("/readyz", srv.ReadyzHandler())
	r.Handle("/metrics", promhttp.Handler())

	return httpserver.SecurityHeaders(r)
}
