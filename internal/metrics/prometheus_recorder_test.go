package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveRequestDuration("textDocument/documentLink", 15*time.Millisecond)
	pr.IncRequestResult("textDocument/rename", ResultUnsupported)
	pr.IncCacheLookup("links", true)
	pr.IncCacheLookup("links", false)
	pr.ObserveDocumentLinks(12)
	pr.SetOpenDocuments(3)

	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 5)
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncCacheLookup("toc", true)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `mdls_cache_lookups_total{cache="toc",result="hit"} 1`)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	require.NotPanics(t, func() {
		pr.IncCacheLookup("links", true)
		pr.SetOpenDocuments(1)
	})
}
