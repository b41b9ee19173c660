// Package scoring implements the keyword-overlap heuristics used to rank
// scraped web pages against career titles or a free-text analysis.
//
// Matching is plain substring containment on lower-cased text, so a short
// keyword such as "it" also matches inside "digital". That is accepted
// behaviour for these heuristics, not a bug.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

// Relevance bounds.
const (
	RelevanceFloor   = 70
	RelevanceCeiling = 98
	relevancePerHit  = 20
)

// Match score bounds.
const (
	MatchFloor   = 60
	MatchCeiling = 95
	matchSpan    = 35
)

// keyTermLimit is how many tokens KeyTerms keeps.
const keyTermLimit = 10

var stopwords = map[string]struct{}{
	"and": {}, "or": {}, "the": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {},
}

// Relevance scores text against a set of career titles: every distinct
// title word found in text adds 20, and the total is clamped to [70, 98].
func Relevance(text string, titles []string) int {
	text = strings.ToLower(text)
	keywords := make(map[string]struct{})
	for _, t := range titles {
		for _, w := range strings.Fields(strings.ToLower(t)) {
			keywords[w] = struct{}{}
		}
	}
	score := 0
	for k := range keywords {
		if strings.Contains(text, k) {
			score += relevancePerHit
		}
	}
	return clamp(score, RelevanceFloor, RelevanceCeiling)
}

// Match scores text against an analysis as 60 + 35 * matched/terms, rounded
// half to even and clamped to [60, 95]. Terms are the distinct whitespace
// tokens of the analysis. An analysis without terms returns ErrEmptyAnalysis.
func Match(text, analysis string) (int, error) {
	terms := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(analysis)) {
		terms[w] = struct{}{}
	}
	if len(terms) == 0 {
		return 0, fmt.Errorf("op=scoring.Match: %w", domain.ErrEmptyAnalysis)
	}
	text = strings.ToLower(text)
	matches := 0
	for term := range terms {
		if strings.Contains(text, term) {
			matches++
		}
	}
	raw := MatchFloor + float64(matches*matchSpan)/float64(len(terms))
	return clamp(int(math.RoundToEven(raw)), MatchFloor, MatchCeiling), nil
}

// KeyTerms returns the first ten lower-cased, non-stopword tokens of the
// analysis joined by spaces. Repeated tokens are kept.
func KeyTerms(analysis string) string {
	out := make([]string, 0, keyTermLimit)
	for _, w := range strings.Fields(strings.ToLower(analysis)) {
		if _, stop := stopwords[w]; stop {
			continue
		}
		out = append(out, w)
		if len(out) == keyTermLimit {
			break
		}
	}
	return strings.Join(out, " ")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
