// Command server starts the AI career guide HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fairyhunter13/ai-career-guide/internal/adapter/observability"
	"github.com/fairyhunter13/ai-career-guide/internal/app"
	"github.com/fairyhunter13/ai-career-guide/internal/config"
)

func main() {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(observability.SetupLogger(cfg))

	if err := run(cfg); err != nil {
		slog.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("tracing setup failed, continuing without it", slog.Any("error", err))
	}
	if shutdownTracer != nil {
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	prompts, err := config.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, prompts)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("closing app", slog.Any("error", err))
		}
	}()

	// Indexing failures only disable the document-grounded careers.
	state := a.Bootstrap(ctx, cfg)
	slog.Info("retriever bootstrapped", slog.String("state", string(state)))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.BuildRouter(cfg, a.Server),
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server listening", slog.String("addr", srv.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("op=server.run: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("op=server.run: shutdown: %w", err)
	}
	return nil
}
