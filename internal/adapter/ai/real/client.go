// Package real implements domain.AIClient against OpenAI-compatible HTTP APIs:
// OpenRouter for chat completions and model listing, OpenAI for embeddings.
package real

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/fairyhunter13/ai-career-guide/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-career-guide/internal/adapter/observability"
	"github.com/fairyhunter13/ai-career-guide/internal/config"
	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

const (
	providerOpenRouter = "openrouter"
	providerOpenAI     = "openai"
	snippetLimit       = 512
)

// Client implements domain.AIClient using OpenRouter (chat) and OpenAI (embeddings).
type Client struct {
	cfg     config.Config
	retry   config.RetryConfig
	chatHC  *http.Client
	embedHC *http.Client
}

// New constructs a client whose HTTP calls are traced and bounded by AI_TIMEOUT.
func New(cfg config.Config) *Client {
	return &Client{
		cfg:     cfg,
		retry:   cfg.GetRetryConfig(),
		chatHC:  observability.NewHTTPClient("AI", cfg.AITimeout),
		embedHC: observability.NewHTTPClient("AI", cfg.AITimeout),
	}
}

// backoffFor returns the retry policy for one call. MaxRetries == 0 means a
// single attempt.
func (c *Client) backoffFor(ctx context.Context) backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.retry.InitialInterval
	expo.MaxInterval = c.retry.MaxInterval
	expo.Multiplier = c.retry.Multiplier
	expo.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(expo, uint64(c.retry.MaxRetries)), ctx)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete calls the OpenRouter chat completions endpoint and returns the first choice.
func (c *Client) Complete(ctx domain.Context, req domain.CompletionRequest) (string, error) {
	if c.cfg.OpenRouterAPIKey == "" {
		return "", fmt.Errorf("op=real.Complete: %w: OPENROUTER_API_KEY missing", domain.ErrInvalidArgument)
	}
	model := req.Model
	if model == "" {
		model = c.cfg.OpenRouterChatModel
	}
	body := chatRequest{Model: model, Temperature: req.Temperature, MaxTokens: req.MaxTokens}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.Prompt})
	observability.ObservePromptTokens(providerOpenRouter, "chat", tokencount.DefaultCounter.CountPrompt(req.System, req.Prompt))

	var out chatResponse
	url := strings.TrimRight(c.cfg.OpenRouterBaseURL, "/") + "/chat/completions"
	if err := c.do(ctx, c.chatHC, http.MethodPost, url, c.cfg.OpenRouterAPIKey, providerOpenRouter, "chat", body, &out); err != nil {
		return "", fmt.Errorf("op=real.Complete: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("op=real.Complete: %w: empty choices", domain.ErrUpstream)
	}
	if out.Model != "" && out.Model != model {
		observability.LoggerFromContext(ctx).Warn("model substitution detected",
			slog.String("provider", providerOpenRouter),
			slog.String("requested_model", model),
			slog.String("actual_model", out.Model))
	}
	return out.Choices[0].Message.Content, nil
}

// Embed calls the OpenAI embeddings endpoint.
func (c *Client) Embed(ctx domain.Context, texts []string) ([][]float32, error) {
	if c.cfg.OpenAIAPIKey == "" || c.cfg.EmbeddingsModel == "" {
		return nil, fmt.Errorf("op=real.Embed: %w: OPENAI_API_KEY or EMBEDDINGS_MODEL missing", domain.ErrInvalidArgument)
	}
	if len(texts) == 0 {
		return nil, nil
	}
	body := map[string]any{"model": c.cfg.EmbeddingsModel, "input": texts}
	var out struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	url := strings.TrimRight(c.cfg.OpenAIBaseURL, "/") + "/embeddings"
	if err := c.do(ctx, c.embedHC, http.MethodPost, url, c.cfg.OpenAIAPIKey, providerOpenAI, "embed", body, &out); err != nil {
		return nil, fmt.Errorf("op=real.Embed: %w", err)
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("op=real.Embed: %w: got %d embeddings for %d inputs", domain.ErrUpstream, len(out.Data), len(texts))
	}
	res := make([][]float32, len(out.Data))
	for i, d := range out.Data {
		idx := d.Index
		if idx < 0 || idx >= len(res) || res[idx] != nil {
			idx = i
		}
		v := make([]float32, len(d.Embedding))
		for j := range d.Embedding {
			v[j] = float32(d.Embedding[j])
		}
		res[idx] = v
	}
	return res, nil
}

// ListModels returns the model ids advertised by OpenRouter.
func (c *Client) ListModels(ctx domain.Context) ([]string, error) {
	var out struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	url := strings.TrimRight(c.cfg.OpenRouterBaseURL, "/") + "/models"
	if err := c.do(ctx, c.chatHC, http.MethodGet, url, c.cfg.OpenRouterAPIKey, providerOpenRouter, "models", nil, &out); err != nil {
		return nil, fmt.Errorf("op=real.ListModels: %w", err)
	}
	ids := make([]string, 0, len(out.Data))
	for _, m := range out.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// do sends one JSON request with retries. 4xx other than 429 is permanent.
func (c *Client) do(ctx context.Context, hc *http.Client, method, url, apiKey, provider, op string, in, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", domain.ErrInvalidArgument, err)
		}
		payload = b
	}
	lg := observability.LoggerFromContext(ctx)
	attempt := func() error {
		start := time.Now()
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		r, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return backoff.Permanent(err)
		}
		if apiKey != "" {
			r.Header.Set("Authorization", "Bearer "+apiKey)
		}
		if payload != nil {
			r.Header.Set("Content-Type", "application/json")
		}
		if provider == providerOpenRouter {
			if c.cfg.OpenRouterReferer != "" {
				r.Header.Set("HTTP-Referer", c.cfg.OpenRouterReferer)
			}
			if c.cfg.OpenRouterTitle != "" {
				r.Header.Set("X-Title", c.cfg.OpenRouterTitle)
			}
		}
		resp, err := hc.Do(r)
		if err != nil {
			observability.ObserveAIRequest(provider, op, start, err)
			return classify(err)
		}
		defer func() { _ = resp.Body.Close() }()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			observability.ObserveAIRequest(provider, op, start, err)
			return classify(err)
		}
		var statusErr error
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			lg.Warn("ai provider rate limited", slog.String("provider", provider), slog.String("op", op))
			statusErr = fmt.Errorf("%w: %s status 429", domain.ErrUpstream, op)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			lg.Warn("ai provider 4xx", slog.String("provider", provider), slog.String("op", op),
				slog.Int("status", resp.StatusCode), slog.String("body", snippet(raw)))
			statusErr = backoff.Permanent(fmt.Errorf("%w: %s status %d", domain.ErrUpstream, op, resp.StatusCode))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			lg.Error("ai provider non-2xx", slog.String("provider", provider), slog.String("op", op),
				slog.Int("status", resp.StatusCode), slog.String("body", snippet(raw)))
			statusErr = fmt.Errorf("%w: %s status %d", domain.ErrUpstream, op, resp.StatusCode)
		}
		observability.ObserveAIRequest(provider, op, start, statusErr)
		if statusErr != nil {
			return statusErr
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: decode %s response: %v", domain.ErrUpstream, op, err))
		}
		return nil
	}
	if err := backoff.Retry(attempt, c.backoffFor(ctx)); err != nil {
		lg.Error("ai provider call failed", slog.String("provider", provider), slog.String("op", op), slog.Any("error", err))
		return classify(err)
	}
	return nil
}

// classify maps transport errors onto the domain taxonomy.
func classify(err error) error {
	if errors.Is(err, domain.ErrUpstream) || errors.Is(err, domain.ErrUpstreamTimeout) || errors.Is(err, domain.ErrInvalidArgument) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
}

func snippet(b []byte) string {
	if len(b) > snippetLimit {
		b = b[:snippetLimit]
	}
	return string(b)
}
