// Package ai holds the LLM client plumbing shared by the providers: JSON
// recovery from model output and the embedding cache.
package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-career-guide/internal/domain"
	"github.com/fairyhunter13/ai-career-guide/pkg/textx"
)

// ParseStep is one way of turning raw model output into a JSON candidate.
// Transform returns false when the step does not apply to the input.
type ParseStep struct {
	Name      string
	Transform func(string) (string, bool)
}

// Built-in steps, in the order they are usually tried.
var (
	// StepDirect parses the trimmed response as is.
	StepDirect = ParseStep{Name: "direct", Transform: func(s string) (string, bool) {
		return strings.TrimSpace(s), true
	}}
	// StepFence drops a leading ```json and a trailing ``` fence.
	StepFence = ParseStep{Name: "fence", Transform: func(s string) (string, bool) {
		return textx.StripJSONFence(s), true
	}}
	// StepBrace keeps the span from the first '{' to the last '}'.
	StepBrace = ParseStep{Name: "brace", Transform: textx.BraceSpan}
)

// ParseAttempt records the outcome of one step.
type ParseAttempt struct {
	Step string
	Err  error
}

// ParseError is returned when no step produced valid JSON. It matches
// domain.ErrMalformedOutput with errors.Is.
type ParseError struct {
	Attempts []ParseAttempt
}

func (e *ParseError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Step+": "+a.Err.Error())
	}
	return fmt.Sprintf("%s (%s)", domain.ErrMalformedOutput.Error(), strings.Join(parts, "; "))
}

func (e *ParseError) Unwrap() error { return domain.ErrMalformedOutput }

var errStepSkipped = errors.New("step not applicable")

// Decode tries each step in order and unmarshals the first candidate that is
// valid JSON for T. With no steps it behaves like StepDirect alone.
func Decode[T any](raw string, steps ...ParseStep) (T, error) {
	var zero T
	if len(steps) == 0 {
		steps = []ParseStep{StepDirect}
	}
	perr := &ParseError{}
	for _, st := range steps {
		candidate, ok := st.Transform(raw)
		if !ok {
			perr.Attempts = append(perr.Attempts, ParseAttempt{Step: st.Name, Err: errStepSkipped})
			continue
		}
		var out T
		if err := json.Unmarshal([]byte(candidate), &out); err != nil {
			perr.Attempts = append(perr.Attempts, ParseAttempt{Step: st.Name, Err: err})
			continue
		}
		return out, nil
	}
	return zero, perr
}
