package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-career-guide/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-career-guide/internal/config"
	"github.com/fairyhunter13/ai-career-guide/internal/domain"
	"github.com/fairyhunter13/ai-career-guide/internal/domain/mocks"
	"github.com/fairyhunter13/ai-career-guide/internal/usecase"
)

func newServer(aic domain.AIClient, r domain.Retriever, s domain.Searcher, p domain.PageFetcher) *httpserver.Server {
	prompts := config.MustDefaultPrompts()
	return &httpserver.Server{
		Questions: usecase.NewQuestionService(aic, prompts, "chat-model"),
		Analyzer:  usecase.NewAnalyzeService(aic, r, prompts, "chat-model"),
		Web:       usecase.NewWebCareerService(s, p),
		Chat:      usecase.NewChatService(aic, prompts, "chat-model"),
		Models:    usecase.NewModelService(aic, prompts, "chat-model"),
		Retriever: r,
	}
}

func do(t *testing.T, h http.HandlerFunc, method, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestGenerateQuestionHandler(t *testing.T) {
	t.Parallel()

	t.Run("returns_four_options", func(t *testing.T) {
		t.Parallel()
		aic := mocks.NewAIClient(t)
		aic.On("Complete", mock.Anything, mock.MatchedBy(func(req domain.CompletionRequest) bool {
			return strings.Contains(req.Prompt, "Question 1: Do you enjoy maths?\nAnswer: Yes")
		})).Return(`{"question":"Do you like teamwork?","options":["Always","Often","Rarely","Never"]}`, nil).Once()

		rec, out := do(t, newServer(aic, nil, nil, nil).GenerateQuestionHandler(), http.MethodPost,
			`{"previousQA":[{"question":"Do you enjoy maths?","answer":"Yes"}]}`)
		require.Equal(t, http.StatusOK, rec.Code)
		q, ok := out["question"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Do you like teamwork?", q["question"])
		assert.Len(t, q["options"], 4)
	})

	t.Run("missing_history_is_empty", func(t *testing.T) {
		t.Parallel()
		aic := mocks.NewAIClient(t)
		aic.On("Complete", mock.Anything, mock.Anything).Return(`{"question":"Q?","options":["a","b","c","d"]}`, nil).Once()

		rec, _ := do(t, newServer(aic, nil, nil, nil).GenerateQuestionHandler(), http.MethodPost, `{}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("history_with_blank_question_is_accepted", func(t *testing.T) {
		t.Parallel()
		aic := mocks.NewAIClient(t)
		aic.On("Complete", mock.Anything, mock.MatchedBy(func(req domain.CompletionRequest) bool {
			return strings.Contains(req.Prompt, "Answer: Sometimes")
		})).Return(`{"question":"Q?","options":["a","b","c","d"]}`, nil).Once()

		rec, _ := do(t, newServer(aic, nil, nil, nil).GenerateQuestionHandler(), http.MethodPost,
			`{"previousQA":[{"question":"","answer":"Sometimes"},{"answer":"No"}]}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bad_model_output_is_500", func(t *testing.T) {
		t.Parallel()
		aic := mocks.NewAIClient(t)
		aic.On("Complete", mock.Anything, mock.Anything).Return(`{"question":"Q?","options":["a"]}`, nil).Once()

		rec, out := do(t, newServer(aic, nil, nil, nil).GenerateQuestionHandler(), http.MethodPost, `{}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, out["error"], "schema")
	})
}

func TestHandlers_ValidationIs400(t *testing.T) {
	t.Parallel()

	s := newServer(mocks.NewAIClient(t), nil, mocks.NewSearcher(t), mocks.NewPageFetcher(t))
	tests := []struct {
		name      string
		h         http.HandlerFunc
		body      string
		wantField string
	}{
		{name: "web_search_career_without_title", h: s.WebSearchHandler(), body: `{"careers":[{"description":"d"}]}`, wantField: "careers[0].title"},
		{name: "invalid_json", h: s.AnalyzeAnswersHandler(), body: `{"answers":`},
		{name: "empty_body", h: s.WebSearchHandler(), body: ``},
		{name: "blank_analysis", h: s.SearchWebCareersHandler(), body: `{"analysis":"   "}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, out := do(t, tt.h, http.MethodPost, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotEmpty(t, out["error"])
			if tt.wantField != "" {
				details, ok := out["details"].([]any)
				require.True(t, ok)
				require.NotEmpty(t, details)
				assert.Equal(t, tt.wantField, details[0].(map[string]any)["field"])
			}
		})
	}
}

func TestAnalyzeAnswersHandler(t *testing.T) {
	t.Parallel()

	t.Run("retriever_unavailable_gives_empty_document_list", func(t *testing.T) {
		t.Parallel()
		aic := mocks.NewAIClient(t)
		aic.On("Complete", mock.Anything, mock.Anything).Return("Analytical and caring.", nil).Once()
		aic.On("Complete", mock.Anything, mock.Anything).
			Return("```json\n[{\"title\":\"Nurse\",\"match\":88,\"description\":\"Cares for patients\"}]\n```", nil).Once()
		ret := mocks.NewRetriever(t)
		ret.On("State").Return(domain.RetrieverUnavailable).Maybe()

		rec, out := do(t, newServer(aic, ret, nil, nil).AnalyzeAnswersHandler(), http.MethodPost,
			`{"answers":[{"question":"Help people?","answer":"Yes"}]}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []any{}, out["pdf_based_careers"])
		ai, ok := out["ai_generated_careers"].([]any)
		require.True(t, ok)
		require.Len(t, ai, 1)
		assert.Equal(t, "Nurse", ai[0].(map[string]any)["title"])
		_, leaked := out["detailed_analysis"]
		assert.False(t, leaked)
	})

	t.Run("analysis_failure_is_500", func(t *testing.T) {
		t.Parallel()
		aic := mocks.NewAIClient(t)
		aic.On("Complete", mock.Anything, mock.Anything).Return("", domain.ErrUpstream).Once()

		rec, out := do(t, newServer(aic, nil, nil, nil).AnalyzeAnswersHandler(), http.MethodPost, `{"answers":[]}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, out["error"], "upstream")
	})
}

func TestTestAPIAndListModels(t *testing.T) {
	t.Parallel()

	aic := mocks.NewAIClient(t)
	aic.On("Complete", mock.Anything, mock.Anything).Return("Working", nil).Once()
	aic.On("ListModels", mock.Anything).Return([]string{"models/gemini-2.0-flash"}, nil).Once()
	s := newServer(aic, nil, nil, nil)

	rec, out := do(t, s.TestAPIHandler(), http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok", "response": "Working"}, out)

	rec, out = do(t, s.ListModelsHandler(), http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"models/gemini-2.0-flash"}, out["available_models"])
}

func TestListModels_UpstreamFailure(t *testing.T) {
	t.Parallel()

	aic := mocks.NewAIClient(t)
	aic.On("ListModels", mock.Anything).Return(nil, domain.ErrUpstream).Once()

	rec, _ := do(t, newServer(aic, nil, nil, nil).ListModelsHandler(), http.MethodGet, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebSearchHandler(t *testing.T) {
	t.Parallel()

	search := mocks.NewSearcher(t)
	search.On("Search", mock.Anything, mock.Anything, 5).Return([]domain.SearchHit{
		{Title: "Data Scientist careers", Link: "https://a.example", Snippet: "data scientist jobs"},
	}, nil).Once()
	pages := mocks.NewPageFetcher(t)
	pages.On("Fetch", mock.Anything, "https://a.example").Return(domain.PageInfo{
		URL: "https://a.example", Title: "Senior Data Scientist careers", MetaDescription: "Become a lead data scientist engineer",
	}, nil).Once()

	rec, out := do(t, newServer(nil, nil, search, pages).WebSearchHandler(), http.MethodPost,
		`{"careers":[{"title":"Senior Data Scientist Engineer","description":"Builds models"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	results, ok := out["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, "https://a.example", first["link"])
	assert.Equal(t, float64(80), first["relevance"])
}

func TestSearchWebCareersHandler_SearchFailure(t *testing.T) {
	t.Parallel()

	search := mocks.NewSearcher(t)
	search.On("Search", mock.Anything, mock.Anything, 8).Return(nil, domain.ErrUpstream).Once()

	rec, _ := do(t, newServer(nil, nil, search, mocks.NewPageFetcher(t)).SearchWebCareersHandler(), http.MethodPost,
		`{"analysis":"analytical and creative"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChatHandler(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		aic := mocks.NewAIClient(t)
		aic.On("Complete", mock.Anything, mock.MatchedBy(func(req domain.CompletionRequest) bool {
			return strings.Contains(req.Prompt, "user: hi\nassistant: hello") && strings.Contains(req.Prompt, "What should I study?")
		})).Return("Try computer science.", nil).Once()

		rec, out := do(t, newServer(aic, nil, nil, nil).ChatHandler(), http.MethodPost,
			`{"message":"What should I study?","chatHistory":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"status": "success", "response": "Try computer science."}, out)
	})

	t.Run("missing_message_uses_chat_error_shape", func(t *testing.T) {
		t.Parallel()
		rec, out := do(t, newServer(mocks.NewAIClient(t), nil, nil, nil).ChatHandler(), http.MethodPost, `{"chatHistory":[]}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "error", out["status"])
		assert.NotEmpty(t, out["message"])
	})

	t.Run("upstream_failure", func(t *testing.T) {
		t.Parallel()
		aic := mocks.NewAIClient(t)
		aic.On("Complete", mock.Anything, mock.Anything).Return("", domain.ErrUpstreamTimeout).Once()

		rec, out := do(t, newServer(aic, nil, nil, nil).ChatHandler(), http.MethodPost, `{"message":"hi"}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "error", out["status"])
	})
}

func TestReadyzHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		state    domain.RetrieverState
		redisErr error
		withRed  bool
		want     int
	}{
		{name: "ready", state: domain.RetrieverReady, want: http.StatusOK},
		{name: "ready_with_redis", state: domain.RetrieverReady, withRed: true, want: http.StatusOK},
		{name: "retriever_unavailable", state: domain.RetrieverUnavailable, want: http.StatusServiceUnavailable},
		{name: "redis_down", state: domain.RetrieverReady, withRed: true, redisErr: errors.New("dial tcp"), want: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ret := mocks.NewRetriever(t)
			ret.On("State").Return(tt.state)
			s := newServer(nil, ret, nil, nil)
			if tt.withRed {
				s.Checks = []httpserver.Check{{Name: "redis", Run: func(context.Context) error { return tt.redisErr }}}
			}
			rec, out := do(t, s.ReadyzHandler(), http.MethodGet, "")
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, out["checks"])
		})
	}
}

func TestHealthzHandler(t *testing.T) {
	t.Parallel()

	rec, out := do(t, newServer(nil, nil, nil, nil).HealthzHandler(), http.MethodGet, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
}
