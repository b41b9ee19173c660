package observability

import (
	"io"
	"log/slog"
	"os"

	"github.com/fairyhunter13/ai-career-guide/internal/config"
)

// SetupLogger configures a JSON slog logger on stdout with service and env fields.
func SetupLogger(cfg config.Config) *slog.Logger {
	return NewLogger(os.Stdout, cfg)
}

// NewLogger builds the service logger on w. Dev runs at debug level, test runs
// at warn so suites stay quiet, everything else at info.
func NewLogger(w io.Writer, cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	switch {
	case cfg.IsDev():
		opts.Level = slog.LevelDebug
	case cfg.IsTest():
		opts.Level = slog.LevelWarn
	}
	return slog.New(slog.NewJSONHandler(w, opts)).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("env", cfg.AppEnv),
	)
}
