// Package duckduckgo searches the web by scraping DuckDuckGo's HTML endpoint.
// It needs no API key.
package duckduckgo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/fairyhunter13/ai-career-guide/internal/adapter/observability"
	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

// DefaultURL is the HTML-only search endpoint.
const DefaultURL = "https://html.duckduckgo.com/html/"

// Searcher implements domain.Searcher.
type Searcher struct {
	baseURL   string
	userAgent string
	hc        *http.Client
}

// New returns a searcher against baseURL (DefaultURL when empty).
func New(baseURL, userAgent string, timeout time.Duration) *Searcher {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Searcher{
		baseURL:   baseURL,
		userAgent: userAgent,
		hc:        observability.NewHTTPClient("Search", timeout),
	}
}

// Search returns up to n organic results, skipping ads.
func (s *Searcher) Search(ctx context.Context, query string, n int) ([]domain.SearchHit, error) {
	if n <= 0 {
		return nil, nil
	}
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("op=duckduckgo.Search: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("op=duckduckgo.Search: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	resp, err := s.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("op=duckduckgo.Search: %w: %v", domain.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("op=duckduckgo.Search: %w: %v", domain.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("op=duckduckgo.Search: %w: status %d", domain.ErrUpstream, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("op=duckduckgo.Search: %w: parse: %v", domain.ErrUpstream, err)
	}

	var hits []domain.SearchHit
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.HasClass("result--ad") {
			return true
		}
		a := sel.Find("a.result__a").First()
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		link := resolveLink(href)
		if link == "" {
			return true
		}
		hits = append(hits, domain.SearchHit{
			Title:   strings.TrimSpace(a.Text()),
			Link:    link,
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
		})
		return len(hits) < n
	})
	return hits, nil
}

// resolveLink unwraps DuckDuckGo's redirect links and keeps only http(s) URLs.
func resolveLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" && strings.HasSuffix(u.Host, "duckduckgo.com") {
		u, err = url.Parse(target)
		if err != nil {
			return ""
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
