// Package gemini implements domain.AIClient on the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/genai"

	"github.com/fairyhunter13/ai-career-guide/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-career-guide/internal/adapter/observability"
	"github.com/fairyhunter13/ai-career-guide/internal/config"
	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

const provider = "gemini"

// maxEmbedBatch is the largest batch the embedding endpoint accepts.
const maxEmbedBatch = 100

// Client talks to the Gemini API.
type Client struct {
	models     *genai.Models
	chatModel  string
	embedModel string
}

// New builds a client from config. GEMINI_BASE_URL overrides the endpoint.
func New(ctx context.Context, cfg config.Config) (*Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("op=gemini.New: %w: GEMINI_API_KEY missing", domain.ErrInvalidArgument)
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: observability.NewHTTPClient("Gemini", cfg.AITimeout),
	}
	if cfg.GeminiBaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.GeminiBaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("op=gemini.New: %w", err)
	}
	return &Client{models: client.Models, chatModel: cfg.GeminiChatModel, embedModel: cfg.GeminiEmbedModel}, nil
}

// Complete runs one generateContent call and returns the concatenated text.
func (c *Client) Complete(ctx domain.Context, req domain.CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.chatModel
	}
	gc := &genai.GenerateContentConfig{Temperature: req.Temperature}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(req.MaxTokens)
	}
	observability.ObservePromptTokens(provider, "generate", tokencount.DefaultCounter.CountPrompt(req.System, req.Prompt))

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, model, genai.Text(req.Prompt), gc)
	observability.ObserveAIRequest(provider, "generate", start, err)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("gemini generate failed",
			slog.String("provider", provider), slog.String("model", model), slog.Any("error", err))
		return "", fmt.Errorf("op=gemini.Complete: %w", classify(err))
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("op=gemini.Complete: %w: empty response", domain.ErrUpstream)
	}
	return text, nil
}

// Embed embeds texts with the configured embedding model, in batches.
func (c *Client) Embed(ctx domain.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))
		contents := make([]*genai.Content, 0, end-start)
		for _, t := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
		}
		began := time.Now()
		resp, err := c.models.EmbedContent(ctx, c.embedModel, contents, nil)
		observability.ObserveAIRequest(provider, "embed", began, err)
		if err != nil {
			return nil, fmt.Errorf("op=gemini.Embed: %w", classify(err))
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("op=gemini.Embed: %w: got %d embeddings for %d inputs", domain.ErrUpstream, len(resp.Embeddings), end-start)
		}
		for _, e := range resp.Embeddings {
			if e == nil {
				return nil, fmt.Errorf("op=gemini.Embed: %w: missing embedding", domain.ErrUpstream)
			}
			out = append(out, e.Values)
		}
	}
	return out, nil
}

// ListModels returns every model name visible to the API key.
func (c *Client) ListModels(ctx domain.Context) ([]string, error) {
	start := time.Now()
	var names []string
	for m, err := range c.models.All(ctx) {
		if err != nil {
			observability.ObserveAIRequest(provider, "models", start, err)
			return nil, fmt.Errorf("op=gemini.ListModels: %w", classify(err))
		}
		names = append(names, m.Name)
	}
	observability.ObserveAIRequest(provider, "models", start, nil)
	return names, nil
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
}
