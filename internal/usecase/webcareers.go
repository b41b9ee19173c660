package usecase

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/fairyhunter13/ai-career-guide/internal/adapter/observability"
	"github.com/fairyhunter13/ai-career-guide/internal/domain"
	"github.com/fairyhunter13/ai-career-guide/internal/scoring"
	"github.com/fairyhunter13/ai-career-guide/pkg/textx"
)

// Search sizes and cut-offs.
const (
	listSearchResults     = 5
	listSearchCareers     = 2
	analysisSearchResults = 8
	analysisKeep          = 5

	defaultTitle       = "Career Option"
	defaultDescription = "No description available"
)

// Metric endpoint labels.
const (
	endpointWebSearch   = "web-search"
	endpointWebCareers  = "search-web-careers"
	outcomeKept         = "kept"
	outcomeFiltered     = "filtered"
	outcomeFetchFailure = "failed"
)

// WebCareerService finds career pages on the web and ranks them.
type WebCareerService struct {
	Search domain.Searcher
	Pages  domain.PageFetcher
}

// NewWebCareerService constructs a WebCareerService.
func NewWebCareerService(s domain.Searcher, p domain.PageFetcher) WebCareerService {
	return WebCareerService{Search: s, Pages: p}
}

// ListQuery builds the search query from the first two careers.
func ListQuery(careers []domain.CareerRecommendation) string {
	terms := make([]string, 0, 2*listSearchCareers)
	for i, c := range careers {
		if i == listSearchCareers {
			break
		}
		terms = append(terms, c.Title, textx.FirstSentence(c.Description))
	}
	return fmt.Sprintf("alternative careers similar to %s career path requirements skills", strings.Join(terms, " "))
}

// AnalysisQuery builds the search query from the key terms of an analysis.
func AnalysisQuery(analysis string) string {
	return fmt.Sprintf("career paths for people with skills in %s job requirements and description", scoring.KeyTerms(analysis))
}

// ByCareerList searches for pages similar to the given careers and keeps the
// ones whose relevance is above the floor, best first. A failing search fails
// the call; a failing page is skipped.
func (s WebCareerService) ByCareerList(ctx domain.Context, careers []domain.CareerRecommendation) ([]domain.WebCareerResult, error) {
	hits, err := s.Search.Search(ctx, ListQuery(careers), listSearchResults)
	if err != nil {
		return nil, fmt.Errorf("op=webcareers.ByCareerList: %w", err)
	}
	titles := make([]string, 0, len(careers))
	for _, c := range careers {
		titles = append(titles, c.Title)
	}

	lg := observability.LoggerFromContext(ctx)
	results := []domain.WebCareerResult{}
	for _, h := range hits {
		page, err := s.Pages.Fetch(ctx, h.Link)
		if err != nil {
			lg.Info("skipping search result", slog.String("url", h.Link), slog.Any("error", err))
			observability.CountWebResult(endpointWebSearch, outcomeFetchFailure)
			continue
		}
		title := orDefault(page.Title, defaultTitle)
		desc := orDefault(page.MetaDescription, defaultDescription)
		relevance := scoring.Relevance(title+" "+desc, titles)
		if relevance <= scoring.RelevanceFloor {
			observability.CountWebResult(endpointWebSearch, outcomeFiltered)
			continue
		}
		observability.CountWebResult(endpointWebSearch, outcomeKept)
		results = append(results, domain.WebCareerResult{
			Title:       textx.CleanTitle(title),
			Description: textx.CleanDescription(desc),
			Link:        h.Link,
			Relevance:   relevance,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Relevance > results[j].Relevance })
	return results, nil
}

// ByAnalysis searches for career pages matching a free-text analysis and
// returns the five best matches above the floor. The analysis must contain
// at least one term.
func (s WebCareerService) ByAnalysis(ctx domain.Context, analysis string) ([]domain.WebCareerInsight, error) {
	if strings.TrimSpace(analysis) == "" {
		return nil, fmt.Errorf("op=webcareers.ByAnalysis: %w: %w", domain.ErrInvalidArgument, domain.ErrEmptyAnalysis)
	}
	hits, err := s.Search.Search(ctx, AnalysisQuery(analysis), analysisSearchResults)
	if err != nil {
		return nil, fmt.Errorf("op=webcareers.ByAnalysis: %w", err)
	}

	lg := observability.LoggerFromContext(ctx)
	careers := []domain.WebCareerInsight{}
	for _, h := range hits {
		page, err := s.Pages.Fetch(ctx, h.Link)
		if err != nil {
			lg.Info("skipping search result", slog.String("url", h.Link), slog.Any("error", err))
			observability.CountWebResult(endpointWebCareers, outcomeFetchFailure)
			continue
		}
		title := orDefault(page.Heading, orDefault(page.Title, defaultTitle))
		desc := orDefault(page.MetaDescription, orDefault(page.FirstParagraph, defaultDescription))
		score, err := scoring.Match(title+" "+desc, analysis)
		if err != nil {
			return nil, fmt.Errorf("op=webcareers.ByAnalysis: %w", err)
		}
		if score <= scoring.MatchFloor {
			observability.CountWebResult(endpointWebCareers, outcomeFiltered)
			continue
		}
		observability.CountWebResult(endpointWebCareers, outcomeKept)
		var skills []string
		if len(page.Skills) > 0 {
			skills = page.Skills
		}
		link := page.URL
		if link == "" {
			link = h.Link
		}
		careers = append(careers, domain.WebCareerInsight{
			Title:       textx.CleanText(title, 100),
			Description: textx.CleanText(desc, 200),
			KeySkills:   skills,
			MatchScore:  score,
			SourceLink:  link,
		})
	}
	sort.SliceStable(careers, func(i, j int) bool { return careers[i].MatchScore > careers[j].MatchScore })
	if len(careers) > analysisKeep {
		careers = careers[:analysisKeep]
	}
	return careers, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
