// Package domain holds the career guide's entities, error taxonomy and ports.
package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUpstream        = errors.New("upstream failure")
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrMalformedOutput = errors.New("malformed model output")
	ErrSchemaInvalid   = errors.New("schema invalid")
	ErrUnavailable     = errors.New("unavailable")
	ErrEmptyAnalysis   = errors.New("analysis has no terms")
)

// QuestionAnswer is one answered quiz question sent back by the client as history.
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuestionOptionCount is the number of options every generated question must carry.
const QuestionOptionCount = 4

// Question is a generated multiple-choice question.
// Invariant: len(Options) == QuestionOptionCount.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// College is a study option attached to an AI generated recommendation.
type College struct {
	Name     string `json:"name"`
	Program  string `json:"program"`
	Duration string `json:"duration"`
	Location string `json:"location"`
}

// CareerRecommendation is one career suggested by the model.
// Match is expected in [75,100] but the value is whatever the model produced.
type CareerRecommendation struct {
	Title       string     `json:"title"`
	Match       MatchScore `json:"match"`
	Description string     `json:"description"`
	Roadmap     []string   `json:"roadmap,omitempty"`
	Colleges    []College  `json:"colleges,omitempty"`
}

// MatchScore is a model-reported match percentage. Models send it as an
// integer, a fraction or a string like "90%"; all are rounded to an int.
type MatchScore int

// UnmarshalJSON accepts a JSON number, a numeric string with an optional
// trailing percent sign, or null.
func (m *MatchScore) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSuffix(strings.TrimSpace(s), "%")
		raw = strings.TrimSpace(raw)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("match %s is not a number", b)
	}
	*m = MatchScore(math.Round(f))
	return nil
}

// CareerAnalysis is the result of the analyze-answers pipeline.
type CareerAnalysis struct {
	DetailedAnalysis   string                 `json:"-"`
	AIGeneratedCareers []CareerRecommendation `json:"ai_generated_careers"`
	PDFBasedCareers    []CareerRecommendation `json:"pdf_based_careers"`
}

// WebCareerResult is a scraped page ranked against a list of career titles.
type WebCareerResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Relevance   int    `json:"relevance"`
}

// WebCareerInsight is a scraped page ranked against a free-text analysis.
type WebCareerInsight struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	KeySkills   []string `json:"keySkills"`
	MatchScore  int      `json:"matchScore"`
	SourceLink  string   `json:"sourceLink"`
}

// ChatMessage is one turn of the free-form chat history.
type ChatMessage struct {
	Role    string `json:"role" validate:"required"`
	Content string `json:"content"`
}

// Chunk is a slice of the source document held by the vector index.
type Chunk struct {
	ID        string
	Text      string
	Source    string
	Page      int
	Embedding []float32
}

// ScoredChunk is a chunk returned from a similarity search.
type ScoredChunk struct {
	Chunk
	Score float64
}

// ChunkRef points at a chunk that grounded a retrieval answer.
type ChunkRef struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Page   int     `json:"page"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

// Retrieval is the grounded answer produced by the retriever.
type Retrieval struct {
	Answer           string
	SupportingChunks []ChunkRef
}

// RetrieverState is the lifecycle state of the document retriever.
type RetrieverState string

const (
	RetrieverUninitialized RetrieverState = "uninitialized"
	RetrieverReady         RetrieverState = "ready"
	RetrieverUnavailable   RetrieverState = "unavailable"
)

// CompletionRequest is a single text completion call.
// Model and Temperature are optional; zero values use the provider defaults.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature *float32
	MaxTokens   int
}

// SearchHit is one organic web search result.
type SearchHit struct {
	Title   string
	Link    string
	Snippet string
}

// PageInfo is what the scraper keeps from a fetched page.
type PageInfo struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	Heading         string   `json:"heading"`
	MetaDescription string   `json:"meta_description"`
	FirstParagraph  string   `json:"first_paragraph"`
	Skills          []string `json:"skills"`
}

// Ports

// AIClient is the hosted LLM and embedding service.
type AIClient interface {
	Complete(ctx Context, req CompletionRequest) (string, error)
	Embed(ctx Context, texts []string) ([][]float32, error)
	ListModels(ctx Context) ([]string, error)
}

// VectorStore holds embedded chunks and answers nearest-neighbour queries.
type VectorStore interface {
	Upsert(ctx Context, chunks []Chunk) error
	Search(ctx Context, vector []float32, topK int) ([]ScoredChunk, error)
	Count(ctx Context) (int, error)
}

// Retriever answers a query grounded on the indexed document.
type Retriever interface {
	State() RetrieverState
	Retrieve(ctx Context, query string) (Retrieval, error)
}

// Searcher issues a web search and returns up to n hits.
type Searcher interface {
	Search(ctx Context, query string, n int) ([]SearchHit, error)
}

// PageFetcher downloads and parses a single web page.
type PageFetcher interface {
	Fetch(ctx Context, url string) (PageInfo, error)
}

// Context aliases the standard context so ports read uniformly.
type Context = context.Context
