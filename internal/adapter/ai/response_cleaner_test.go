package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

type career struct {
	Title string `json:"title"`
	Match int    `json:"match"`
}

func TestDecode_Object(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		steps []ParseStep
		want  map[string]any
	}{
		{name: "clean_json_direct", input: `{"status": "success"}`, steps: []ParseStep{StepDirect}, want: map[string]any{"status": "success"}},
		{name: "padded_json_direct", input: "\n  {\"a\": 1}  \n", steps: []ParseStep{StepDirect}, want: map[string]any{"a": float64(1)}},
		{name: "commentary_falls_back_to_brace", input: "Here you go: {\"a\": \"b\"} hope it helps", steps: []ParseStep{StepDirect, StepBrace}, want: map[string]any{"a": "b"}},
		{name: "fenced_falls_back_to_brace", input: "```json\n{\"a\": \"b\"}\n```", steps: []ParseStep{StepDirect, StepBrace}, want: map[string]any{"a": "b"}},
		{name: "default_step_is_direct", input: `{"x": true}`, want: map[string]any{"x": true}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Decode[map[string]any](tt.input, tt.steps...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_FencedArray(t *testing.T) {
	t.Parallel()

	raw := "```json\n[{\"title\": \"Data Analyst\", \"match\": 90}]\n```"
	got, err := Decode[[]career](raw, StepFence)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, career{Title: "Data Analyst", Match: 90}, got[0])

	_, err = Decode[[]career](raw, StepDirect)
	require.Error(t, err)
}

func TestDecode_ParseErrorListsEveryAttempt(t *testing.T) {
	t.Parallel()

	_, err := Decode[map[string]any]("no json here", StepDirect, StepFence, StepBrace)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedOutput))

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Len(t, perr.Attempts, 3)
	assert.Equal(t, "direct", perr.Attempts[0].Step)
	assert.Equal(t, "fence", perr.Attempts[1].Step)
	assert.Equal(t, "brace", perr.Attempts[2].Step)
	assert.ErrorIs(t, perr.Attempts[2].Err, errStepSkipped)
	assert.Contains(t, err.Error(), "malformed model output")
}

func TestDecode_WrongShapeIsMalformed(t *testing.T) {
	t.Parallel()

	_, err := Decode[[]career](`{"title": "x"}`, StepFence)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedOutput)
}

func TestDecode_GreedyBraceSpan(t *testing.T) {
	t.Parallel()

	_, err := Decode[map[string]any](`{"a":1} then {"b":2}`, StepBrace)
	assert.ErrorIs(t, err, domain.ErrMalformedOutput)
}
