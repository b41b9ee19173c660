package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-career-guide/internal/config"
	"github.com/fairyhunter13/ai-career-guide/internal/domain"
	"github.com/fairyhunter13/ai-career-guide/internal/domain/mocks"
	"github.com/fairyhunter13/ai-career-guide/internal/usecase"
)

func TestFormatHistory(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", usecase.FormatHistory(nil))
	got := usecase.FormatHistory([]domain.QuestionAnswer{
		{Question: "Do you like people?", Answer: "Yes"},
		{Question: "Indoors or outdoors?", Answer: "Outdoors"},
	})
	assert.Equal(t, "Question 1: Do you like people?\nAnswer: Yes\nQuestion 2: Indoors or outdoors?\nAnswer: Outdoors", got)
}

func TestQuestionService_Generate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		reply   string
		aiErr   error
		want    domain.Question
		wantErr error
	}{
		{
			name:  "direct_json",
			reply: `{"question":"Which task excites you?","options":["Coding","Caring","Drawing","Selling"]}`,
			want:  domain.Question{Question: "Which task excites you?", Options: []string{"Coding", "Caring", "Drawing", "Selling"}},
		},
		{
			name:  "commentary_around_object",
			reply: "Sure! Here it is:\n```json\n{\"question\":\"Q?\",\"options\":[\"a\",\"b\",\"c\",\"d\"]}\n```",
			want:  domain.Question{Question: "Q?", Options: []string{"a", "b", "c", "d"}},
		},
		{name: "three_options", reply: `{"question":"Q?","options":["a","b","c"]}`, wantErr: domain.ErrSchemaInvalid},
		{name: "missing_question", reply: `{"options":["a","b","c","d"]}`, wantErr: domain.ErrSchemaInvalid},
		{name: "options_not_list", reply: `{"question":"Q?","options":"a,b,c,d"}`, wantErr: domain.ErrSchemaInvalid},
		{name: "non_string_option", reply: `{"question":"Q?","options":["a","b","c",4]}`, wantErr: domain.ErrSchemaInvalid},
		{name: "no_json", reply: "I cannot help with that.", wantErr: domain.ErrMalformedOutput},
		{name: "top_level_array", reply: `["a","b","c","d"]`, wantErr: domain.ErrMalformedOutput},
		{name: "object_inside_array", reply: `[{"question":"Q?"}]`, wantErr: domain.ErrSchemaInvalid},
		{name: "upstream_error", aiErr: domain.ErrUpstream, wantErr: domain.ErrUpstream},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			aic := mocks.NewAIClient(t)
			aic.On("Complete", mock.Anything, mock.AnythingOfType("domain.CompletionRequest")).Return(tt.reply, tt.aiErr).Once()

			svc := usecase.NewQuestionService(aic, config.MustDefaultPrompts(), "")
			got, err := svc.Generate(context.Background(), nil)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got.Options, domain.QuestionOptionCount)
		})
	}
}

func TestQuestionService_PromptCarriesHistoryAndModel(t *testing.T) {
	t.Parallel()

	aic := mocks.NewAIClient(t)
	aic.On("Complete", mock.Anything, mock.MatchedBy(func(req domain.CompletionRequest) bool {
		return req.Model == "gemini-2.0-flash" &&
			strings.Contains(req.Prompt, "Question 1: Favourite subject?\nAnswer: Biology") &&
			strings.Contains(req.Prompt, "Return ONLY the JSON object")
	})).Return(`{"question":"Q?","options":["a","b","c","d"]}`, nil).Once()

	svc := usecase.NewQuestionService(aic, config.MustDefaultPrompts(), "gemini-2.0-flash")
	_, err := svc.Generate(context.Background(), []domain.QuestionAnswer{{Question: "Favourite subject?", Answer: "Biology"}})
	require.NoError(t, err)
}
