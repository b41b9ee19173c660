// Package google searches the web through the Custom Search JSON API.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/fairyhunter13/ai-career-guide/internal/adapter/observability"
	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

// maxResults is the API's per-request cap.
const maxResults = 10

// Options configures the searcher. Endpoint overrides the API base URL.
type Options struct {
	APIKey   string
	EngineID string
	Endpoint string
	Timeout  time.Duration
}

// Searcher implements domain.Searcher.
type Searcher struct {
	svc      *customsearch.Service
	engineID string
}

// keyTransport appends the API key to every request.
type keyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *keyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	q := r.URL.Query()
	q.Set("key", t.key)
	r.URL.RawQuery = q.Encode()
	return t.base.RoundTrip(r)
}

// New builds a Custom Search client.
func New(ctx context.Context, opts Options) (*Searcher, error) {
	if opts.APIKey == "" || opts.EngineID == "" {
		return nil, fmt.Errorf("op=google.New: %w: api key and engine id are required", domain.ErrInvalidArgument)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	hc := observability.NewHTTPClient("Search", opts.Timeout)
	hc.Transport = &keyTransport{key: opts.APIKey, base: hc.Transport}

	clientOpts := []option.ClientOption{option.WithHTTPClient(hc)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	svc, err := customsearch.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("op=google.New: %w", err)
	}
	return &Searcher{svc: svc, engineID: opts.EngineID}, nil
}

// Search returns up to n organic results for query.
func (s *Searcher) Search(ctx context.Context, query string, n int) ([]domain.SearchHit, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > maxResults {
		n = maxResults
	}
	res, err := s.svc.Cse.List().Cx(s.engineID).Q(query).Num(int64(n)).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return nil, fmt.Errorf("op=google.Search: %w: status %d: %s", domain.ErrUpstream, gerr.Code, gerr.Message)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("op=google.Search: %w: %v", domain.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("op=google.Search: %w: %v", domain.ErrUpstream, err)
	}
	hits := make([]domain.SearchHit, 0, len(res.Items))
	for _, it := range res.Items {
		if it == nil || it.Link == "" {
			continue
		}
		hits = append(hits, domain.SearchHit{Title: it.Title, Link: it.Link, Snippet: it.Snippet})
		if len(hits) == n {
			break
		}
	}
	return hits, nil
}
