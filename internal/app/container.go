// Package app wires adapters, use cases and the HTTP router together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-career-guide/internal/adapter/ai"
	"github.com/fairyhunter13/ai-career-guide/internal/adapter/ai/gemini"
	"github.com/fairyhunter13/ai-career-guide/internal/adapter/ai/real"
	"github.com/fairyhunter13/ai-career-guide/internal/adapter/ai/tokencount"
	rediscache "github.com/fairyhunter13/ai-career-guide/internal/adapter/cache/redis"
	httpserver "github.com/fairyhunter13/ai-career-guide/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-career-guide/internal/adapter/loader/pdf"
	"github.com/fairyhunter13/ai-career-guide/internal/adapter/scraper"
	"github.com/fairyhunter13/ai-career-guide/internal/adapter/vector/memory"
	"github.com/fairyhunter13/ai-career-guide/internal/adapter/vector/qdrant"
	"github.com/fairyhunter13/ai-career-guide/internal/adapter/websearch/duckduckgo"
	"github.com/fairyhunter13/ai-career-guide/internal/adapter/websearch/google"
	"github.com/fairyhunter13/ai-career-guide/internal/config"
	"github.com/fairyhunter13/ai-career-guide/internal/domain"
	"github.com/fairyhunter13/ai-career-guide/internal/rag"
	"github.com/fairyhunter13/ai-career-guide/internal/usecase"
)

// App is the assembled service.
type App struct {
	Server    *httpserver.Server
	Retriever *rag.Retriever
	Indexer   *rag.Indexer

	redis *goredis.Client
}

// Close releases connections held by the app.
func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

// Bootstrap brings the document retriever up. It never fails.
func (a *App) Bootstrap(ctx context.Context, cfg config.Config) domain.RetrieverState {
	return rag.Bootstrap(ctx, a.Retriever, a.Indexer, rag.BootstrapOptions{
		SourcePath:     cfg.RAGSourcePath,
		IndexOnStartup: cfg.RAGIndexOnStartup,
	})
}

// New builds every adapter named by cfg. Missing credentials for the chosen
// providers are reported here rather than on the first request.
func New(ctx context.Context, cfg config.Config, prompts *config.Prompts) (*App, error) {
	aic, err := NewAIClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("op=app.New: %w", err)
	}
	chatModel, ragModel := Models(cfg)

	var (
		store     domain.VectorStore
		qdrantCli *qdrant.Client
	)
	if cfg.UseQdrant() {
		qdrantCli = qdrant.New(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantCollection)
		store = qdrantCli
	} else {
		store = memory.New()
	}

	indexer, err := NewIndexer(cfg, aic, store)
	if err != nil {
		return nil, fmt.Errorf("op=app.New: %w", err)
	}
	retriever := rag.NewRetriever(rag.RetrieverOptions{
		AI:          aic,
		Store:       store,
		Prompts:     prompts,
		TopK:        cfg.RAGTopK,
		Model:       ragModel,
		Temperature: cfg.RAGTemperature,
	})

	searcher, err := NewSearcher(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("op=app.New: %w", err)
	}

	a := &App{Retriever: retriever, Indexer: indexer}
	sopts := scraper.Options{
		Timeout:   cfg.ScrapeTimeout,
		MaxBytes:  cfg.ScrapeMaxBytes,
		UserAgent: cfg.ScrapeUserAgent,
	}
	var redisPinger Pinger
	if cfg.RedisURL != "" {
		rdb, err := rediscache.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("op=app.New: %w", err)
		}
		a.redis = rdb
		pc := rediscache.NewPageCache(rdb, cfg.ScrapeCacheTTL)
		sopts.Cache = pc
		redisPinger = pc
	}

	var qdrantPinger Pinger
	if qdrantCli != nil {
		qdrantPinger = qdrantCli
	}

	a.Server = &httpserver.Server{
		Questions: usecase.NewQuestionService(aic, prompts, chatModel),
		Analyzer:  usecase.NewAnalyzeService(aic, retriever, prompts, chatModel),
		Web:       usecase.NewWebCareerService(searcher, scraper.New(sopts)),
		Chat:      usecase.NewChatService(aic, prompts, chatModel),
		Models:    usecase.NewModelService(aic, prompts, chatModel),
		Retriever: retriever,
		Checks:    BuildReadinessChecks(qdrantPinger, redisPinger),
	}
	slog.Info("app assembled",
		slog.String("llm_provider", cfg.LLMProvider),
		slog.String("chat_model", chatModel),
		slog.String("vector_backend", cfg.VectorBackend),
		slog.String("search_provider", cfg.SearchProvider),
		slog.Bool("page_cache", cfg.RedisURL != ""))
	return a, nil
}

// NewAIClient returns the configured provider behind an embedding cache.
func NewAIClient(ctx context.Context, cfg config.Config) (domain.AIClient, error) {
	var base domain.AIClient
	switch strings.ToLower(cfg.LLMProvider) {
	case config.ProviderGemini:
		c, err := gemini.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		base = c
	case config.ProviderOpenAI:
		base = real.New(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown LLM_PROVIDER %q", domain.ErrInvalidArgument, cfg.LLMProvider)
	}
	if cfg.EmbedCacheSize > 0 {
		return ai.NewEmbedCache(base, cfg.EmbedCacheSize), nil
	}
	return base, nil
}

// Models returns the model used for chat style calls and the one used to
// answer from retrieved chunks.
func Models(cfg config.Config) (chatModel, ragModel string) {
	if strings.ToLower(cfg.LLMProvider) == config.ProviderGemini {
		return cfg.GeminiChatModel, cfg.GeminiRAGModel
	}
	return cfg.OpenRouterChatModel, cfg.OpenRouterChatModel
}

// NewIndexer builds the document indexer. Chunk length is measured in runes
// or, with RAG_CHUNK_UNIT=tokens, in cl100k tokens.
func NewIndexer(cfg config.Config, emb rag.Embedder, store domain.VectorStore) (*rag.Indexer, error) {
	length := rag.RuneLength
	if strings.ToLower(cfg.RAGChunkUnit) == config.ChunkUnitTokens {
		length = tokencount.DefaultCounter.Count
	}
	sp, err := rag.NewSplitter(cfg.RAGChunkSize, cfg.RAGChunkOverlap, length)
	if err != nil {
		return nil, err
	}
	return &rag.Indexer{
		Loader:    pdf.New(),
		Splitter:  sp,
		Embedder:  emb,
		Store:     store,
		BatchSize: rag.DefaultEmbedBatch,
	}, nil
}

// NewSearcher returns the configured web searcher.
func NewSearcher(ctx context.Context, cfg config.Config) (domain.Searcher, error) {
	switch strings.ToLower(cfg.SearchProvider) {
	case config.SearchGoogle:
		s, err := google.New(ctx, google.Options{
			APIKey:   cfg.GoogleSearchAPIKey,
			EngineID: cfg.GoogleSearchEngineID,
			Timeout:  cfg.ScrapeTimeout,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.SearchDuckDuckGo:
		return duckduckgo.New(cfg.DuckDuckGoURL, cfg.ScrapeUserAgent, cfg.ScrapeTimeout), nil
	default:
		return nil, fmt.Errorf("%w: unknown SEARCH_PROVIDER %q", domain.ErrInvalidArgument, cfg.SearchProvider)
	}
}
