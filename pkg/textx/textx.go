// Package textx provides small text utilities used across the project.
package textx

import (
	"encoding/json"
	"strings"
	"unicode"
)

// SanitizeText removes control characters except tab/newline/CR and trims spaces.
func SanitizeText(s string) string {
	// strip control chars outside tab/newline/carriage return
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// ExtractJSONObject parses the span between the first '{' and the last '}'
// in text. It returns false when there is no such span or it is not valid JSON.
// Top-level arrays are not recognised; strip code fences and parse directly
// for those.
func ExtractJSONObject(text string) (map[string]any, bool) {
	span, ok := BraceSpan(text)
	if !ok {
		return nil, false
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(span), &out); err != nil {
		return nil, false
	}
	return out, true
}

// BraceSpan returns text from the first '{' to the last '}' inclusive.
func BraceSpan(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// StripJSONFence trims the text and removes a leading "```json" and a
// trailing "```" when present. A bare leading "```" is left alone.
func StripJSONFence(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimSuffix(s, "```")
	return s
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// CleanTitle keeps the first 100 runes of a page title.
func CleanTitle(title string) string {
	if title == "" {
		return "Career Option"
	}
	return strings.TrimSpace(Truncate(title, 100))
}

// CleanDescription keeps the first 200 runes of a description and always
// appends an ellipsis.
func CleanDescription(desc string) string {
	if desc == "" {
		return "No description available"
	}
	return strings.TrimSpace(Truncate(desc, 200)) + "..."
}

// CleanText collapses whitespace runs and truncates to maxLen runes, adding
// an ellipsis only when something was cut.
func CleanText(text string, maxLen int) string {
	s := CollapseSpaces(text)
	if len([]rune(s)) > maxLen {
		return Truncate(s, maxLen) + "..."
	}
	return s
}

// CollapseSpaces replaces every whitespace run with a single space and trims.
func CollapseSpaces(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// FirstSentence returns the text before the first '.'.
func FirstSentence(s string) string {
	if i := strings.Index(s, "."); i >= 0 {
		return s[:i]
	}
	return s
}
