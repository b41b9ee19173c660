// Package memory is a process-local vector store using brute-force cosine similarity.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

// Store keeps chunks in insertion order. Upserting an existing id replaces it.
// It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	chunks []domain.Chunk
	index  map[string]int
}

// New creates an empty store.
func New() *Store {
	return &Store{index: make(map[string]int)}
}

// Upsert adds or replaces chunks. Every chunk needs an id and an embedding.
func (s *Store) Upsert(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		if c.ID == "" || len(c.Embedding) == 0 {
			return fmt.Errorf("op=memory.Upsert: %w: chunk without id or embedding", domain.ErrInvalidArgument)
		}
		if i, ok := s.index[c.ID]; ok {
			s.chunks[i] = c
			continue
		}
		s.index[c.ID] = len(s.chunks)
		s.chunks = append(s.chunks, c)
	}
	return nil
}

// Search returns up to topK chunks ordered by descending cosine similarity.
// Ties keep insertion order.
func (s *Store) Search(_ context.Context, vector []float32, topK int) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	results := make([]domain.ScoredChunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		results = append(results, domain.ScoredChunk{Chunk: c, Score: cosineSimilarity(vector, c.Embedding)})
	}
	s.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// cosineSimilarity returns 0 for mismatched lengths or zero vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
