package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPMetricsMiddleware_Basic(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	mw := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))
	mw.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusNoContent, rec.Result().StatusCode)
	assert.GreaterOrEqual(t, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/x", "GET", "No Content")), 1.0)
}

func TestMetricHelpers(t *testing.T) {
	InitMetrics()
	InitMetrics()

	before := testutil.ToFloat64(AIRequestsTotal.WithLabelValues("gemini", "complete", "error"))
	ObserveAIRequest("gemini", "complete", time.Now(), errors.New("x"))
	assert.Equal(t, before+1, testutil.ToFloat64(AIRequestsTotal.WithLabelValues("gemini", "complete", "error")))

	ObservePromptTokens("gemini", "complete", 120)
	ObservePromptTokens("gemini", "complete", 0)

	SetRetrieverReady(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(RAGRetrieverReady))
	SetRetrieverReady(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(RAGRetrieverReady))

	SetChunksIndexed(42)
	assert.Equal(t, 42.0, testutil.ToFloat64(RAGChunksIndexed))

	CountWebResult("web-search", "kept")
	assert.GreaterOrEqual(t, testutil.ToFloat64(WebResultsTotal.WithLabelValues("web-search", "kept")), 1.0)
}

func TestNewHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) }))
	defer srv.Close()

	c := NewHTTPClient("test", time.Second)
	assert.Equal(t, time.Second, c.Timeout)
	resp, err := c.Get(srv.URL)
	if assert.NoError(t, err) {
		defer resp.Body.Close()
		assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	}
}
