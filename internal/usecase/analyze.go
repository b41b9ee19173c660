package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/ai-career-guide/internal/adapter/ai"
	"github.com/fairyhunter13/ai-career-guide/internal/adapter/observability"
	"github.com/fairyhunter13/ai-career-guide/internal/config"
	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

// AnalyzeService turns quiz answers into career recommendations.
type AnalyzeService struct {
	AI        domain.AIClient
	Retriever domain.Retriever
	Prompts   *config.Prompts
	Model     string
}

// NewAnalyzeService constructs an AnalyzeService. retriever may be nil.
func NewAnalyzeService(aic domain.AIClient, retriever domain.Retriever, prompts *config.Prompts, model string) AnalyzeService {
	return AnalyzeService{AI: aic, Retriever: retriever, Prompts: prompts, Model: model}
}

// Analyze writes a free-text profile of the answers, then produces the
// document-grounded and the model-only career lists concurrently. The
// document branch yields an empty list when the retriever is not ready or its
// answer does not parse; upstream failures in either branch fail the call.
func (s AnalyzeService) Analyze(ctx domain.Context, answers []domain.QuestionAnswer) (domain.CareerAnalysis, error) {
	encoded, err := json.MarshalIndent(answers, "", "  ")
	if err != nil {
		return domain.CareerAnalysis{}, fmt.Errorf("op=analyze.Analyze: %w: %v", domain.ErrInvalidArgument, err)
	}
	prompt, err := s.Prompts.Render(config.PromptAnalysis, map[string]any{"Answers": string(encoded)})
	if err != nil {
		return domain.CareerAnalysis{}, fmt.Errorf("op=analyze.Analyze: %w", err)
	}
	detailed, err := s.AI.Complete(ctx, domain.CompletionRequest{Model: s.Model, Prompt: prompt})
	if err != nil {
		return domain.CareerAnalysis{}, fmt.Errorf("op=analyze.Analyze: analysis: %w", err)
	}

	out := domain.CareerAnalysis{DetailedAnalysis: detailed}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		careers, err := s.documentCareers(gctx, detailed)
		if err != nil {
			return err
		}
		out.PDFBasedCareers = careers
		return nil
	})
	g.Go(func() error {
		careers, err := s.modelCareers(gctx, detailed)
		if err != nil {
			return err
		}
		out.AIGeneratedCareers = careers
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.CareerAnalysis{}, fmt.Errorf("op=analyze.Analyze: %w", err)
	}
	return out, nil
}

// documentCareers returns an empty list when the retriever is not ready or
// its answer is not a JSON array. Retrieval errors are returned.
func (s AnalyzeService) documentCareers(ctx domain.Context, analysis string) ([]domain.CareerRecommendation, error) {
	empty := []domain.CareerRecommendation{}
	if s.Retriever == nil || s.Retriever.State() != domain.RetrieverReady {
		return empty, nil
	}
	res, err := s.Retriever.Retrieve(ctx, analysis)
	if err != nil {
		return nil, fmt.Errorf("document careers: %w", err)
	}
	careers, err := ai.Decode[[]domain.CareerRecommendation](res.Answer, ai.StepFence)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("document careers not parseable", slog.Any("error", err))
		return empty, nil
	}
	if careers == nil {
		return empty, nil
	}
	return careers, nil
}

func (s AnalyzeService) modelCareers(ctx domain.Context, analysis string) ([]domain.CareerRecommendation, error) {
	prompt, err := s.Prompts.Render(config.PromptCareers, map[string]any{"Analysis": analysis})
	if err != nil {
		return nil, err
	}
	raw, err := s.AI.Complete(ctx, domain.CompletionRequest{Model: s.Model, Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("careers: %w", err)
	}
	careers, err := ai.Decode[[]domain.CareerRecommendation](raw, ai.StepFence)
	if err != nil {
		return nil, fmt.Errorf("careers: %w", err)
	}
	if careers == nil {
		careers = []domain.CareerRecommendation{}
	}
	return careers, nil
}
