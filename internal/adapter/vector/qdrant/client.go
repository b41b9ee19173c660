// Package qdrant stores document chunks in a Qdrant collection over its HTTP API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fairyhunter13/ai-career-guide/internal/adapter/observability"
	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

// DistanceCosine is the distance every collection is created with.
const DistanceCosine = "Cosine"

// Client is a minimal Qdrant HTTP client bound to one collection.
// It implements domain.VectorStore.
type Client struct {
	baseURL    string
	apiKey     string
	collection string
	httpClient *http.Client

	ensureMu sync.Mutex
	ensured  bool
}

// New constructs a Qdrant client with baseURL, optional apiKey and the collection name.
func New(baseURL, apiKey, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		collection: collection,
		httpClient: observability.NewHTTPClient("Qdrant", 10*time.Second),
	}
}

// Collection returns the collection name.
func (c *Client) Collection() string { return c.collection }

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/collections", nil)
	if err != nil {
		return fmt.Errorf("op=qdrant.Ping: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("op=qdrant.Ping: %w: status %d", domain.ErrUpstream, status)
	}
	return nil
}

// EnsureCollection creates the collection if it does not exist.
func (c *Client) EnsureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	if c.ensured {
		return nil
	}
	status, _, err := c.do(ctx, http.MethodGet, "/collections/"+c.collection, nil)
	if err != nil {
		return fmt.Errorf("op=qdrant.EnsureCollection: %w", err)
	}
	if status != http.StatusOK {
		payload := map[string]any{"vectors": map[string]any{"size": vectorSize, "distance": DistanceCosine}}
		status, _, err = c.do(ctx, http.MethodPut, "/collections/"+c.collection, payload)
		if err != nil {
			return fmt.Errorf("op=qdrant.EnsureCollection: %w", err)
		}
		if status < 200 || status >= 300 {
			return fmt.Errorf("op=qdrant.EnsureCollection: %w: create status %d", domain.ErrUpstream, status)
		}
	}
	c.ensured = true
	return nil
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Upsert writes chunks as points. Chunk ids must be UUIDs.
func (c *Client) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := c.EnsureCollection(ctx, len(chunks[0].Embedding)); err != nil {
		return err
	}
	points := make([]point, 0, len(chunks))
	for _, ch := range chunks {
		if ch.ID == "" || len(ch.Embedding) == 0 {
			return fmt.Errorf("op=qdrant.Upsert: %w: chunk without id or embedding", domain.ErrInvalidArgument)
		}
		points = append(points, point{
			ID:     ch.ID,
			Vector: ch.Embedding,
			Payload: map[string]any{
				"text":   ch.Text,
				"source": ch.Source,
				"page":   ch.Page,
			},
		})
	}
	status, body, err := c.do(ctx, http.MethodPut, "/collections/"+c.collection+"/points?wait=true", map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("op=qdrant.Upsert: %w", err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("op=qdrant.Upsert: %w: status %d: %s", domain.ErrUpstream, status, body)
	}
	return nil
}

// Search returns top-k nearest points for a given vector.
func (c *Client) Search(ctx context.Context, vector []float32, topK int) ([]domain.ScoredChunk, error) {
	req := map[string]any{"vector": vector, "limit": topK, "with_payload": true}
	status, body, err := c.do(ctx, http.MethodPost, "/collections/"+c.collection+"/points/search", req)
	if err != nil {
		return nil, fmt.Errorf("op=qdrant.Search: %w", err)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("op=qdrant.Search: %w: status %d", domain.ErrUpstream, status)
	}
	var out struct {
		Result []struct {
			ID      any     `json:"id"`
			Score   float64 `json:"score"`
			Payload struct {
				Text   string `json:"text"`
				Source string `json:"source"`
				Page   int    `json:"page"`
			} `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("op=qdrant.Search: %w: decode: %v", domain.ErrUpstream, err)
	}
	res := make([]domain.ScoredChunk, 0, len(out.Result))
	for _, r := range out.Result {
		res = append(res, domain.ScoredChunk{
			Chunk: domain.Chunk{
				ID:     fmt.Sprint(r.ID),
				Text:   r.Payload.Text,
				Source: r.Payload.Source,
				Page:   r.Payload.Page,
			},
			Score: r.Score,
		})
	}
	return res, nil
}

// Count returns the exact number of points. A missing collection counts as zero.
func (c *Client) Count(ctx context.Context) (int, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/collections/"+c.collection+"/points/count", map[string]any{"exact": true})
	if err != nil {
		return 0, fmt.Errorf("op=qdrant.Count: %w", err)
	}
	if status == http.StatusNotFound {
		return 0, nil
	}
	if status < 200 || status >= 300 {
		return 0, fmt.Errorf("op=qdrant.Count: %w: status %d", domain.ErrUpstream, status)
	}
	var out struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("op=qdrant.Count: %w: decode: %v", domain.ErrUpstream, err)
	}
	return out.Result.Count, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any) (int, []byte, error) {
	var rdr io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, nil, err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return 0, nil, err
	}
	c.setHeaders(req)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
}
