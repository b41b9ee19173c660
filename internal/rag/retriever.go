package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fairyhunter13/ai-career-guide/internal/adapter/observability"
	"github.com/fairyhunter13/ai-career-guide/internal/config"
	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

// DefaultTopK is the number of chunks used as grounding context.
const DefaultTopK = 4

// RetrieverOptions configures a Retriever.
type RetrieverOptions struct {
	AI          domain.AIClient
	Store       domain.VectorStore
	Prompts     *config.Prompts
	TopK        int
	Model       string
	Temperature float32
}

// Retriever answers queries from the indexed document. It starts
// uninitialized and moves exactly once to ready or unavailable.
type Retriever struct {
	opts RetrieverOptions

	mu     sync.RWMutex
	state  domain.RetrieverState
	cause  error
	chunks int
}

// NewRetriever returns an uninitialized retriever.
func NewRetriever(opts RetrieverOptions) *Retriever {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Prompts == nil {
		opts.Prompts = config.MustDefaultPrompts()
	}
	return &Retriever{opts: opts, state: domain.RetrieverUninitialized}
}

// State returns the lifecycle state.
func (r *Retriever) State() domain.RetrieverState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Cause returns why the retriever is unavailable, or nil.
func (r *Retriever) Cause() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cause
}

// Chunks returns how many chunks were indexed when the retriever became ready.
func (r *Retriever) Chunks() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chunks
}

// MarkReady moves an uninitialized retriever to ready. It reports whether the
// transition happened.
func (r *Retriever) MarkReady(chunks int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != domain.RetrieverUninitialized {
		return false
	}
	r.state = domain.RetrieverReady
	r.chunks = chunks
	observability.SetRetrieverReady(true)
	observability.SetChunksIndexed(chunks)
	return true
}

// MarkUnavailable moves an uninitialized retriever to unavailable.
func (r *Retriever) MarkUnavailable(cause error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != domain.RetrieverUninitialized {
		return false
	}
	r.state = domain.RetrieverUnavailable
	r.cause = cause
	observability.SetRetrieverReady(false)
	return true
}

// Retrieve embeds the query, pulls the nearest chunks and asks the model to
// answer from that context only. It returns ErrUnavailable unless ready.
func (r *Retriever) Retrieve(ctx context.Context, query string) (domain.Retrieval, error) {
	if st := r.State(); st != domain.RetrieverReady {
		return domain.Retrieval{}, fmt.Errorf("op=rag.Retrieve: %w: retriever %s", domain.ErrUnavailable, st)
	}
	vecs, err := r.opts.AI.Embed(ctx, []string{query})
	if err != nil {
		return domain.Retrieval{}, fmt.Errorf("op=rag.Retrieve: embed query: %w", err)
	}
	if len(vecs) != 1 {
		return domain.Retrieval{}, fmt.Errorf("op=rag.Retrieve: %w: %d query vectors", domain.ErrUpstream, len(vecs))
	}
	hits, err := r.opts.Store.Search(ctx, vecs[0], r.opts.TopK)
	if err != nil {
		return domain.Retrieval{}, fmt.Errorf("op=rag.Retrieve: search: %w", err)
	}

	refs := make([]domain.ChunkRef, 0, len(hits))
	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		texts = append(texts, h.Text)
		refs = append(refs, domain.ChunkRef{ID: h.ID, Source: h.Source, Page: h.Page, Score: h.Score, Text: h.Text})
	}
	prompt, err := r.opts.Prompts.Render(config.PromptRAG, map[string]any{
		"Input":   query,
		"Context": strings.Join(texts, "\n\n"),
	})
	if err != nil {
		return domain.Retrieval{}, fmt.Errorf("op=rag.Retrieve: %w", err)
	}
	temp := r.opts.Temperature
	answer, err := r.opts.AI.Complete(ctx, domain.CompletionRequest{
		Model:       r.opts.Model,
		Prompt:      prompt,
		Temperature: &temp,
	})
	if err != nil {
		return domain.Retrieval{}, fmt.Errorf("op=rag.Retrieve: complete: %w", err)
	}
	observability.LoggerFromContext(ctx).Debug("retrieval answered", "chunks", len(refs))
	return domain.Retrieval{Answer: answer, SupportingChunks: refs}, nil
}
