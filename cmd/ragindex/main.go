// Command ragindex loads the career list PDF into the Qdrant collection so
// servers can start with RAG_INDEX_ON_STARTUP=false.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fairyhunter13/ai-career-guide/internal/adapter/observability"
	"github.com/fairyhunter13/ai-career-guide/internal/adapter/vector/qdrant"
	"github.com/fairyhunter13/ai-career-guide/internal/app"
	"github.com/fairyhunter13/ai-career-guide/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}
	source := flag.String("source", cfg.RAGSourcePath, "PDF to index")
	flag.Parse()

	slog.SetDefault(observability.SetupLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aic, err := app.NewAIClient(ctx, cfg)
	if err != nil {
		slog.Error("ai client init failed", slog.Any("error", err))
		os.Exit(1)
	}
	store := qdrant.New(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantCollection)
	if err := store.Ping(ctx); err != nil {
		slog.Error("qdrant unreachable", slog.String("url", cfg.QdrantURL), slog.Any("error", err))
		os.Exit(1)
	}
	ix, err := app.NewIndexer(cfg, aic, store)
	if err != nil {
		slog.Error("indexer init failed", slog.Any("error", err))
		os.Exit(1)
	}
	n, err := ix.Index(ctx, *source)
	if err != nil {
		slog.Error("indexing failed", slog.String("source", *source), slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("document indexed",
		slog.String("source", *source),
		slog.String("collection", store.Collection()),
		slog.Int("chunks", n))
}
