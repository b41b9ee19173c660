package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

// BootstrapOptions controls how the retriever is brought up at startup.
type BootstrapOptions struct {
	SourcePath string
	// IndexOnStartup indexes SourcePath into the store. When false the store
	// must already hold chunks.
	IndexOnStartup bool
}

// Bootstrap prepares the index and moves the retriever to ready, or to
// unavailable with the failure as its cause. It never fails the caller.
func Bootstrap(ctx context.Context, r *Retriever, ix *Indexer, opts BootstrapOptions) domain.RetrieverState {
	n, err := prepare(ctx, ix, opts)
	if err != nil {
		r.MarkUnavailable(err)
		slog.Warn("document retriever unavailable, pdf based careers disabled",
			slog.String("source", opts.SourcePath),
			slog.Any("error", err))
		return r.State()
	}
	r.MarkReady(n)
	slog.Info("document retriever ready", slog.String("source", opts.SourcePath), slog.Int("chunks", n))
	return r.State()
}

func prepare(ctx context.Context, ix *Indexer, opts BootstrapOptions) (int, error) {
	if ix == nil || ix.Store == nil {
		return 0, errors.New("op=rag.Bootstrap: no vector store configured")
	}
	if opts.IndexOnStartup {
		return ix.Index(ctx, opts.SourcePath)
	}
	n, err := ix.Store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("op=rag.Bootstrap: count: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("op=rag.Bootstrap: %w: vector store is empty", domain.ErrUnavailable)
	}
	return n, nil
}
