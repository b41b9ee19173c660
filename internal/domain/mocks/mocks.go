// Package mocks provides testify mocks of the domain ports.
package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// AIClient mocks domain.AIClient.
type AIClient struct{ mock.Mock }

// NewAIClient returns a mock that asserts its expectations on cleanup.
func NewAIClient(t testingT) *AIClient {
	m := &AIClient{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *AIClient) Complete(ctx domain.Context, req domain.CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *AIClient) Embed(ctx domain.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	v, _ := args.Get(0).([][]float32)
	return v, args.Error(1)
}

func (m *AIClient) ListModels(ctx domain.Context) ([]string, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]string)
	return v, args.Error(1)
}

// Retriever mocks domain.Retriever.
type Retriever struct{ mock.Mock }

// NewRetriever returns a mock that asserts its expectations on cleanup.
func NewRetriever(t testingT) *Retriever {
	m := &Retriever{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Retriever) State() domain.RetrieverState {
	return m.Called().Get(0).(domain.RetrieverState)
}

func (m *Retriever) Retrieve(ctx domain.Context, query string) (domain.Retrieval, error) {
	args := m.Called(ctx, query)
	v, _ := args.Get(0).(domain.Retrieval)
	return v, args.Error(1)
}

// Searcher mocks domain.Searcher.
type Searcher struct{ mock.Mock }

// NewSearcher returns a mock that asserts its expectations on cleanup.
func NewSearcher(t testingT) *Searcher {
	m := &Searcher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Searcher) Search(ctx domain.Context, query string, n int) ([]domain.SearchHit, error) {
	args := m.Called(ctx, query, n)
	v, _ := args.Get(0).([]domain.SearchHit)
	return v, args.Error(1)
}

// PageFetcher mocks domain.PageFetcher.
type PageFetcher struct{ mock.Mock }

// NewPageFetcher returns a mock that asserts its expectations on cleanup.
func NewPageFetcher(t testingT) *PageFetcher {
	m := &PageFetcher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *PageFetcher) Fetch(ctx domain.Context, url string) (domain.PageInfo, error) {
	args := m.Called(ctx, url)
	v, _ := args.Get(0).(domain.PageInfo)
	return v, args.Error(1)
}
