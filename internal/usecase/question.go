package usecase

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-career-guide/internal/adapter/ai"
	"github.com/fairyhunter13/ai-career-guide/internal/config"
	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

// QuestionService generates the next quiz question from the answers so far.
type QuestionService struct {
	AI      domain.AIClient
	Prompts *config.Prompts
	Model   string
}

// NewQuestionService constructs a QuestionService.
func NewQuestionService(aic domain.AIClient, prompts *config.Prompts, model string) QuestionService {
	return QuestionService{AI: aic, Prompts: prompts, Model: model}
}

// FormatHistory renders answered questions as numbered Question/Answer pairs.
func FormatHistory(history []domain.QuestionAnswer) string {
	lines := make([]string, 0, len(history))
	for i, qa := range history {
		lines = append(lines, fmt.Sprintf("Question %d: %s\nAnswer: %s", i+1, qa.Question, qa.Answer))
	}
	return strings.Join(lines, "\n")
}

// Generate asks the model for one new question. The model is called once; a
// reply that is not a question with exactly four options is an error.
func (s QuestionService) Generate(ctx domain.Context, history []domain.QuestionAnswer) (domain.Question, error) {
	prompt, err := s.Prompts.Render(config.PromptQuestion, map[string]any{"History": FormatHistory(history)})
	if err != nil {
		return domain.Question{}, fmt.Errorf("op=question.Generate: %w", err)
	}
	raw, err := s.AI.Complete(ctx, domain.CompletionRequest{Model: s.Model, Prompt: prompt})
	if err != nil {
		return domain.Question{}, fmt.Errorf("op=question.Generate: %w", err)
	}
	obj, err := ai.Decode[map[string]any](raw, ai.StepDirect, ai.StepBrace)
	if err != nil {
		return domain.Question{}, fmt.Errorf("op=question.Generate: %w", err)
	}
	q, err := questionFrom(obj)
	if err != nil {
		return domain.Question{}, fmt.Errorf("op=question.Generate: %w", err)
	}
	return q, nil
}

func questionFrom(obj map[string]any) (domain.Question, error) {
	if obj == nil {
		return domain.Question{}, fmt.Errorf("%w: not an object", domain.ErrSchemaInvalid)
	}
	text, ok := obj["question"].(string)
	if !ok {
		return domain.Question{}, fmt.Errorf("%w: missing question text", domain.ErrSchemaInvalid)
	}
	opts, ok := obj["options"].([]any)
	if !ok {
		return domain.Question{}, fmt.Errorf("%w: missing options list", domain.ErrSchemaInvalid)
	}
	if len(opts) != domain.QuestionOptionCount {
		return domain.Question{}, fmt.Errorf("%w: want %d options, got %d", domain.ErrSchemaInvalid, domain.QuestionOptionCount, len(opts))
	}
	q := domain.Question{Question: text, Options: make([]string, 0, len(opts))}
	for i, o := range opts {
		s, ok := o.(string)
		if !ok {
			return domain.Question{}, fmt.Errorf("%w: option %d is not a string", domain.ErrSchemaInvalid, i+1)
		}
		q.Options = append(q.Options, s)
	}
	return q, nil
}
