package ai

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

// embedCacheClient wraps an AIClient and caches embedding vectors by text hash.
// It is safe for concurrent use. Complete and ListModels pass through.
// Eviction is FIFO.
type embedCacheClient struct {
	base     domain.AIClient
	capacity int
	mu       sync.RWMutex
	m        map[string][]float32
	ord      []string
}

// NewEmbedCache wraps base with an embedding cache of given capacity (number of entries).
// If capacity <= 0, base is returned unmodified.
func NewEmbedCache(base domain.AIClient, capacity int) domain.AIClient {
	if capacity <= 0 || base == nil {
		return base
	}
	return &embedCacheClient{base: base, capacity: capacity, m: make(map[string][]float32), ord: make([]string, 0, capacity)}
}

func (c *embedCacheClient) Embed(ctx domain.Context, texts []string) ([][]float32, error) {
	res := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	c.mu.RLock()
	for i, t := range texts {
		if v, ok := c.m[keyFor(t)]; ok {
			res[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	c.mu.RUnlock()
	if len(missIdx) == 0 {
		return res, nil
	}
	vecs, err := c.base.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIdx {
		if j >= len(vecs) {
			break
		}
		res[idx] = vecs[j]
		c.put(missTexts[j], vecs[j])
	}
	return res, nil
}

func (c *embedCacheClient) Complete(ctx domain.Context, req domain.CompletionRequest) (string, error) {
	return c.base.Complete(ctx, req)
}

func (c *embedCacheClient) ListModels(ctx domain.Context) ([]string, error) {
	return c.base.ListModels(ctx)
}

// Len reports the number of cached vectors.
func (c *embedCacheClient) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

func (c *embedCacheClient) put(text string, vec []float32) {
	k := keyFor(text)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.m[k]; exists {
		c.m[k] = vec
		return
	}
	if len(c.ord) >= c.capacity {
		old := c.ord[0]
		c.ord = c.ord[1:]
		delete(c.m, old)
	}
	c.m[k] = vec
	c.ord = append(c.ord, k)
}

func keyFor(text string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(h[:])
}
