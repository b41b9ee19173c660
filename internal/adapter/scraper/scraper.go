// Package scraper downloads web pages and pulls out the fields used to rank
// them as career suggestions.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"

	"github.com/fairyhunter13/ai-career-guide/internal/adapter/observability"
	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

// DefaultUserAgent is a desktop browser string; many career sites reject Go's default.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// maxSkills caps the skill list taken from a page.
const maxSkills = 5

// ErrNotHTML is returned for pages whose content is not HTML.
var ErrNotHTML = errors.New("page is not html")

// Cache stores parsed pages by URL.
type Cache interface {
	Get(ctx context.Context, url string) (domain.PageInfo, bool, error)
	Set(ctx context.Context, url string, page domain.PageInfo) error
}

// Options configures a Scraper.
type Options struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
	Cache     Cache
}

// Scraper implements domain.PageFetcher.
type Scraper struct {
	opts Options
	hc   *http.Client
}

// New returns a Scraper. Zero options take the defaults: 5s timeout, 2 MiB
// body cap and DefaultUserAgent.
func New(opts Options) *Scraper {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 2 << 20
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Scraper{opts: opts, hc: observability.NewHTTPClient("Scrape", opts.Timeout)}
}

// Fetch downloads url and extracts its PageInfo. Cache failures are logged
// and otherwise ignored.
func (s *Scraper) Fetch(ctx context.Context, url string) (domain.PageInfo, error) {
	lg := observability.LoggerFromContext(ctx)
	if s.opts.Cache != nil {
		page, ok, err := s.opts.Cache.Get(ctx, url)
		if err != nil {
			lg.Warn("page cache get failed", slog.String("url", url), slog.Any("error", err))
		} else if ok {
			return page, nil
		}
	}

	body, err := s.download(ctx, url)
	if err != nil {
		return domain.PageInfo{}, err
	}
	if mt := mimetype.Detect(body); !mt.Is("text/html") {
		return domain.PageInfo{}, fmt.Errorf("op=scraper.Fetch: %w: %s", ErrNotHTML, mt.String())
	}
	page, err := Parse(bytes.NewReader(body), url)
	if err != nil {
		return domain.PageInfo{}, err
	}

	if s.opts.Cache != nil {
		if err := s.opts.Cache.Set(ctx, url, page); err != nil {
			lg.Warn("page cache set failed", slog.String("url", url), slog.Any("error", err))
		}
	}
	return page, nil
}

func (s *Scraper) download(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("op=scraper.Fetch: %w: %v", domain.ErrInvalidArgument, err)
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := s.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("op=scraper.Fetch: %w: %v", domain.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("op=scraper.Fetch: %w: %v", domain.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("op=scraper.Fetch: %w: status %d", domain.ErrUpstream, resp.StatusCode)
	}
	// oversized pages are parsed from their first MaxBytes
	body, err := io.ReadAll(io.LimitReader(resp.Body, s.opts.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("op=scraper.Fetch: %w: read: %v", domain.ErrUpstream, err)
	}
	return body, nil
}

// Parse extracts PageInfo from an HTML document. Missing fields are empty.
func Parse(r io.Reader, url string) (domain.PageInfo, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return domain.PageInfo{}, fmt.Errorf("op=scraper.Parse: %w", err)
	}
	page := domain.PageInfo{
		URL:            url,
		Title:          strings.TrimSpace(doc.Find("title").First().Text()),
		Heading:        strings.TrimSpace(doc.Find("h1").First().Text()),
		FirstParagraph: strings.TrimSpace(doc.Find("p").First().Text()),
		Skills:         skillList(doc),
	}
	doc.Find("meta").EachWithBreak(func(_ int, m *goquery.Selection) bool {
		if name, _ := m.Attr("name"); strings.EqualFold(name, "description") {
			page.MetaDescription, _ = m.Attr("content")
			return false
		}
		return true
	})
	return page, nil
}

// skillList returns up to five items of the first list that mentions skills
// in its own text or in the heading right before it.
func skillList(doc *goquery.Document) []string {
	var skills []string
	doc.Find("ul, ol").EachWithBreak(func(_ int, list *goquery.Selection) bool {
		if !mentionsSkill(list.Text()) && !mentionsSkill(list.PrevFiltered("h1, h2, h3, h4, h5, h6").Text()) {
			return true
		}
		list.Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
			skills = append(skills, strings.TrimSpace(li.Text()))
			return len(skills) < maxSkills
		})
		return false
	})
	return skills
}

func mentionsSkill(s string) bool {
	return strings.Contains(strings.ToLower(s), "skill")
}
