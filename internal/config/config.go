// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Supported provider and backend names.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	VectorMemory = "memory"
	VectorQdrant = "qdrant"

	SearchGoogle     = "google"
	SearchDuckDuckGo = "duckduckgo"

	ChunkUnitChars  = "chars"
	ChunkUnitTokens = "tokens"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"5002"`

	LLMProvider      string `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	GeminiBaseURL    string `env:"GEMINI_BASE_URL"`
	GeminiChatModel  string `env:"GEMINI_CHAT_MODEL" envDefault:"gemini-2.0-flash"`
	GeminiRAGModel   string `env:"GEMINI_RAG_MODEL" envDefault:"gemini-1.5-flash"`
	GeminiEmbedModel string `env:"GEMINI_EMBED_MODEL" envDefault:"text-embedding-004"`

	OpenRouterAPIKey    string `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL   string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	OpenRouterChatModel string `env:"OPENROUTER_CHAT_MODEL" envDefault:"openai/gpt-4o-mini"`
	OpenRouterReferer   string `env:"OPENROUTER_REFERER"`
	OpenRouterTitle     string `env:"OPENROUTER_TITLE" envDefault:"AI Career Guide"`
	OpenAIAPIKey        string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL       string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	EmbeddingsModel     string `env:"EMBEDDINGS_MODEL" envDefault:"text-embedding-3-small"`

	// AIMaxRetries is the number of retries after the first attempt. Zero means one attempt.
	AIMaxRetries             int           `env:"AI_MAX_RETRIES" envDefault:"0"`
	AITimeout                time.Duration `env:"AI_TIMEOUT" envDefault:"60s"`
	AIBackoffInitialInterval time.Duration `env:"AI_BACKOFF_INITIAL_INTERVAL" envDefault:"1s"`
	AIBackoffMaxInterval     time.Duration `env:"AI_BACKOFF_MAX_INTERVAL" envDefault:"10s"`
	AIBackoffMultiplier      float64       `env:"AI_BACKOFF_MULTIPLIER" envDefault:"2.0"`

	RAGSourcePath     string  `env:"RAG_SOURCE_PATH" envDefault:"Career-List.pdf"`
	RAGChunkSize      int     `env:"RAG_CHUNK_SIZE" envDefault:"1000"`
	RAGChunkOverlap   int     `env:"RAG_CHUNK_OVERLAP" envDefault:"200"`
	RAGChunkUnit      string  `env:"RAG_CHUNK_UNIT" envDefault:"chars"`
	RAGTopK           int     `env:"RAG_TOP_K" envDefault:"4"`
	RAGTemperature    float32 `env:"RAG_TEMPERATURE" envDefault:"0.3"`
	RAGIndexOnStartup bool    `env:"RAG_INDEX_ON_STARTUP" envDefault:"true"`

	VectorBackend    string `env:"VECTOR_BACKEND" envDefault:"memory"`
	QdrantURL        string `env:"QDRANT_URL" envDefault:"http://localhost:6333"`
	QdrantAPIKey     string `env:"QDRANT_API_KEY"`
	QdrantCollection string `env:"QDRANT_COLLECTION" envDefault:"career_list"`
	EmbedCacheSize   int    `env:"EMBED_CACHE_SIZE" envDefault:"2048"`

	SearchProvider       string        `env:"SEARCH_PROVIDER" envDefault:"duckduckgo"`
	GoogleSearchAPIKey   string        `env:"GOOGLE_SEARCH_API_KEY"`
	GoogleSearchEngineID string        `env:"GOOGLE_SEARCH_ENGINE_ID"`
	DuckDuckGoURL        string        `env:"DUCKDUCKGO_URL" envDefault:"https://html.duckduckgo.com/html/"`
	ScrapeTimeout        time.Duration `env:"SCRAPE_TIMEOUT" envDefault:"5s"`
	ScrapeMaxBytes       int64         `env:"SCRAPE_MAX_BYTES" envDefault:"2097152"`
	ScrapeUserAgent      string        `env:"SCRAPE_USER_AGENT" envDefault:"Mozilla/5.0 (compatible; ai-career-guide/1.0)"`
	RedisURL             string        `env:"REDIS_URL"`
	ScrapeCacheTTL       time.Duration `env:"SCRAPE_CACHE_TTL" envDefault:"1h"`

	PromptsFile string `env:"PROMPTS_FILE"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"ai-career-guide"`

	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin       int           `env:"RATE_LIMIT_PER_MIN" envDefault:"0"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"180s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	// RequestTimeout bounds a whole request, including every upstream call it makes.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"150s"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch strings.ToLower(c.LLMProvider) {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	switch strings.ToLower(c.VectorBackend) {
	case VectorMemory, VectorQdrant:
	default:
		return fmt.Errorf("unknown VECTOR_BACKEND %q", c.VectorBackend)
	}
	switch strings.ToLower(c.SearchProvider) {
	case SearchGoogle, SearchDuckDuckGo:
	default:
		return fmt.Errorf("unknown SEARCH_PROVIDER %q", c.SearchProvider)
	}
	switch strings.ToLower(c.RAGChunkUnit) {
	case ChunkUnitChars, ChunkUnitTokens:
	default:
		return fmt.Errorf("unknown RAG_CHUNK_UNIT %q", c.RAGChunkUnit)
	}
	if c.RAGChunkSize <= 0 {
		return fmt.Errorf("RAG_CHUNK_SIZE must be positive, got %d", c.RAGChunkSize)
	}
	if c.RAGChunkOverlap < 0 || c.RAGChunkOverlap >= c.RAGChunkSize {
		return fmt.Errorf("RAG_CHUNK_OVERLAP must be in [0, RAG_CHUNK_SIZE), got %d", c.RAGChunkOverlap)
	}
	if c.RAGTopK <= 0 {
		return fmt.Errorf("RAG_TOP_K must be positive, got %d", c.RAGTopK)
	}
	if c.AIMaxRetries < 0 {
		return fmt.Errorf("AI_MAX_RETRIES must not be negative, got %d", c.AIMaxRetries)
	}
	return nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// UseQdrant reports whether chunks live in Qdrant instead of process memory.
func (c Config) UseQdrant() bool { return strings.ToLower(c.VectorBackend) == VectorQdrant }

// AllowedOrigins splits CORS_ALLOW_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
