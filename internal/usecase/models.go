package usecase

import (
	"fmt"

	"github.com/fairyhunter13/ai-career-guide/internal/config"
	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

// ModelService exposes provider diagnostics.
type ModelService struct {
	AI      domain.AIClient
	Prompts *config.Prompts
	Model   string
}

// NewModelService constructs a ModelService.
func NewModelService(aic domain.AIClient, prompts *config.Prompts, model string) ModelService {
	return ModelService{AI: aic, Prompts: prompts, Model: model}
}

// Ping sends the liveness prompt and returns the model's reply.
func (s ModelService) Ping(ctx domain.Context) (string, error) {
	prompt, err := s.Prompts.Render(config.PromptLiveness, nil)
	if err != nil {
		return "", fmt.Errorf("op=models.Ping: %w", err)
	}
	out, err := s.AI.Complete(ctx, domain.CompletionRequest{Model: s.Model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("op=models.Ping: %w", err)
	}
	return out, nil
}

// List returns the provider's model names.
func (s ModelService) List(ctx domain.Context) ([]string, error) {
	models, err := s.AI.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("op=models.List: %w", err)
	}
	if models == nil {
		models = []string{}
	}
	return models, nil
}
