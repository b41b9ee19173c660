package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/fairyhunter13/ai-career-guide/internal/adapter/loader/pdf"
	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

// DefaultEmbedBatch is how many chunks are embedded per call.
const DefaultEmbedBatch = 16

// chunkNamespace scopes the name-based chunk ids.
var chunkNamespace = uuid.MustParse("6f1c1c57-3c7e-4d0b-9b0e-2a4d3b1f7c21")

// DocumentLoader returns the text pages of a document.
type DocumentLoader interface {
	Load(path string) ([]pdf.Page, error)
}

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx domain.Context, texts []string) ([][]float32, error)
}

// Indexer loads a document, splits it, embeds the chunks and stores them.
type Indexer struct {
	Loader    DocumentLoader
	Splitter  *Splitter
	Embedder  Embedder
	Store     domain.VectorStore
	BatchSize int
}

// ChunkID is the deterministic id of the n-th chunk of a page, so re-indexing
// the same document overwrites points instead of duplicating them.
func ChunkID(source string, page, n int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(source+"#"+strconv.Itoa(page)+"#"+strconv.Itoa(n))).String()
}

// Chunks splits the pages into chunks carrying their source and page.
func (ix *Indexer) Chunks(pages []pdf.Page) []domain.Chunk {
	var out []domain.Chunk
	for _, p := range pages {
		for n, text := range ix.Splitter.Split(p.Text) {
			out = append(out, domain.Chunk{
				ID:     ChunkID(p.Source, p.Number, n),
				Text:   text,
				Source: p.Source,
				Page:   p.Number,
			})
		}
	}
	return out
}

// Index runs the full pipeline for the document at path and returns the
// number of chunks stored.
func (ix *Indexer) Index(ctx context.Context, path string) (int, error) {
	pages, err := ix.Loader.Load(path)
	if err != nil {
		return 0, fmt.Errorf("op=rag.Index: load: %w", err)
	}
	chunks := ix.Chunks(pages)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("op=rag.Index: %s produced no chunks", path)
	}

	batch := ix.BatchSize
	if batch <= 0 {
		batch = DefaultEmbedBatch
	}
	for i := 0; i < len(chunks); i += batch {
		end := i + batch
		if end > len(chunks) {
			end = len(chunks)
		}
		part := chunks[i:end]
		texts := make([]string, len(part))
		for j := range part {
			texts[j] = part[j].Text
		}
		vecs, err := ix.Embedder.Embed(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("op=rag.Index: embed: %w", err)
		}
		if len(vecs) != len(part) {
			return 0, fmt.Errorf("op=rag.Index: %w: %d vectors for %d chunks", domain.ErrUpstream, len(vecs), len(part))
		}
		for j := range part {
			part[j].Embedding = vecs[j]
		}
		if err := ix.Store.Upsert(ctx, part); err != nil {
			return 0, fmt.Errorf("op=rag.Index: upsert: %w", err)
		}
		slog.Debug("indexed chunk batch", slog.Int("from", i), slog.Int("to", end), slog.Int("total", len(chunks)))
	}
	return len(chunks), nil
}
