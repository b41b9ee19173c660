package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/fairyhunter13/ai-career-guide/internal/domain"
	"github.com/fairyhunter13/ai-career-guide/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Questions usecase.QuestionService
	Analyzer  usecase.AnalyzeService
	Web       usecase.WebCareerService
	Chat      usecase.ChatService
	Models    usecase.ModelService
	Retriever domain.Retriever
	// Checks are extra dependencies reported by /readyz.
	Checks []Check
}

// Check is a named readiness probe.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

type generateQuestionRequest struct {
	PreviousQA []domain.QuestionAnswer `json:"previousQA" validate:"dive"`
}

type analyzeAnswersRequest struct {
	Answers []domain.QuestionAnswer `json:"answers" validate:"dive"`
}

type careerRef struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

type webSearchRequest struct {
	Careers []careerRef `json:"careers" validate:"dive"`
}

type searchWebCareersRequest struct {
	Analysis string `json:"analysis"`
}

type chatRequest struct {
	Message     string               `json:"message" validate:"required"`
	ChatHistory []domain.ChatMessage `json:"chatHistory" validate:"dive"`
}

// GenerateQuestionHandler returns the next quiz question.
func (s *Server) GenerateQuestionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateQuestionRequest
		if details, err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err, details)
			return
		}
		q, err := s.Questions.Generate(r.Context(), req.PreviousQA)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"question": q})
	}
}

// AnalyzeAnswersHandler returns model and document based career lists.
func (s *Server) AnalyzeAnswersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeAnswersRequest
		if details, err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err, details)
			return
		}
		res, err := s.Analyzer.Analyze(r.Context(), req.Answers)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// TestAPIHandler checks that the model answers.
func (s *Server) TestAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := s.Models.Ping(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "response": out})
	}
}

// ListModelsHandler lists the provider's models.
func (s *Server) ListModelsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		models, err := s.Models.List(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"available_models": models})
	}
}

// WebSearchHandler finds web pages similar to a list of careers.
func (s *Server) WebSearchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req webSearchRequest
		if details, err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err, details)
			return
		}
		careers := make([]domain.CareerRecommendation, 0, len(req.Careers))
		for _, c := range req.Careers {
			careers = append(careers, domain.CareerRecommendation{Title: c.Title, Description: c.Description})
		}
		results, err := s.Web.ByCareerList(r.Context(), careers)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
	}
}

// SearchWebCareersHandler finds web career pages matching an analysis.
func (s *Server) SearchWebCareersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req searchWebCareersRequest
		if details, err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err, details)
			return
		}
		careers, err := s.Web.ByAnalysis(r.Context(), req.Analysis)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"careers": careers})
	}
}

// ChatHandler continues the guidance conversation.
func (s *Server) ChatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if _, err := decodeJSON(w, r, &req); err != nil {
			writeChatError(w, r, err)
			return
		}
		out, err := s.Chat.Reply(r.Context(), req.Message, req.ChatHistory)
		if err != nil {
			writeChatError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success", "response": out})
	}
}

// HealthzHandler reports that the process is up.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler reports the retriever state and every configured Check.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 1+len(s.Checks))

		rc := check{Name: "retriever"}
		switch {
		case s.Retriever == nil:
			rc.Details = "not configured"
		case s.Retriever.State() == domain.RetrieverReady:
			rc.OK = true
		default:
			rc.Details = string(s.Retriever.State())
			if c, ok := s.Retriever.(interface{ Cause() error }); ok && c.Cause() != nil {
				rc.Details += ": " + c.Cause().Error()
			}
		}
		checks = append(checks, rc)

		for _, c := range s.Checks {
			if err := c.Run(ctx); err != nil {
				checks = append(checks, check{Name: c.Name, Details: err.Error()})
				continue
			}
			checks = append(checks, check{Name: c.Name, OK: true})
		}

		st := http.StatusOK
		for _, c := range checks {
			if !c.OK {
				st = http.StatusServiceUnavailable
				break
			}
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
