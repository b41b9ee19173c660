package real

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-career-guide/internal/config"
	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

func testConfig(url string, retries int) config.Config {
	return config.Config{
		AppEnv:              "test",
		OpenRouterAPIKey:    "or-key",
		OpenRouterBaseURL:   url,
		OpenRouterChatModel: "openai/gpt-4o-mini",
		OpenRouterTitle:     "AI Career Guide",
		OpenAIAPIKey:        "oa-key",
		OpenAIBaseURL:       url,
		EmbeddingsModel:     "text-embedding-3-small",
		AIMaxRetries:        retries,
		AITimeout:           5 * time.Second,
	}
}

func TestComplete_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))
		assert.Equal(t, "AI Career Guide", r.Header.Get("X-Title"))
		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "custom-model", body.Model)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "hello", body.Messages[1].Content)
		require.NotNil(t, body.Temperature)
		assert.InDelta(t, 0.3, *body.Temperature, 1e-6)
		_, _ = w.Write([]byte(`{"model":"custom-model","choices":[{"message":{"content":"hi there"}}]}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL, 0))
	temp := float32(0.3)
	out, err := c.Complete(context.Background(), domain.CompletionRequest{Model: "custom-model", System: "be brief", Prompt: "hello", Temperature: &temp})
	require.NoError(t, err)
	assert.Equal(t, "hi there", out)
}

func TestComplete_DefaultModelAndNoSystem(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "openai/gpt-4o-mini", body.Model)
		assert.Len(t, body.Messages, 1)
		assert.Nil(t, body.Temperature)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	out, err := New(testConfig(srv.URL, 0)).Complete(context.Background(), domain.CompletionRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestComplete_SingleAttemptByDefault(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(testConfig(srv.URL, 0)).Complete(context.Background(), domain.CompletionRequest{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestComplete_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"third time"}}]}`))
	}))
	defer srv.Close()

	out, err := New(testConfig(srv.URL, 2)).Complete(context.Background(), domain.CompletionRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "third time", out)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestComplete_ClientErrorIsPermanent(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad"}`))
	}))
	defer srv.Close()

	_, err := New(testConfig(srv.URL, 3)).Complete(context.Background(), domain.CompletionRequest{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestComplete_EmptyChoicesAndMissingKey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := New(testConfig(srv.URL, 0)).Complete(context.Background(), domain.CompletionRequest{Prompt: "p"})
	assert.ErrorIs(t, err, domain.ErrUpstream)

	cfg := testConfig(srv.URL, 0)
	cfg.OpenRouterAPIKey = ""
	_, err = New(cfg).Complete(context.Background(), domain.CompletionRequest{Prompt: "p"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestComplete_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := New(testConfig(srv.URL, 0)).Complete(ctx, domain.CompletionRequest{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
}

func TestEmbed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer oa-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0.5,0.25]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	vecs, err := New(testConfig(srv.URL, 0)).Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0.5, 0.25}}, vecs)
}

func TestEmbed_CountMismatchAndMissingKey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1]}]}`))
	}))
	defer srv.Close()

	_, err := New(testConfig(srv.URL, 0)).Embed(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, domain.ErrUpstream)

	cfg := testConfig(srv.URL, 0)
	cfg.OpenAIAPIKey = ""
	_, err = New(cfg).Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	vecs, err := New(testConfig(srv.URL, 0)).Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestListModels(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[{"id":"openai/gpt-4o-mini"},{"id":"google/gemini-2.0-flash"}]}`))
	}))
	defer srv.Close()

	models, err := New(testConfig(srv.URL, 0)).ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"openai/gpt-4o-mini", "google/gemini-2.0-flash"}, models)
}
