package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	requestDuration *prom.HistogramVec
	requestResults  *prom.CounterVec
	cacheLookups    *prom.CounterVec
	documentLinks   prom.Histogram
	openDocuments   prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.requestDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "mdls",
			Name:      "request_duration_seconds",
			Help:      "Duration of language server requests",
			Buckets:   prom.DefBuckets,
		}, []string{"method"})
		pr.requestResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdls",
			Name:      "request_results_total",
			Help:      "Request result counts by outcome",
		}, []string{"method", "result"})
		pr.cacheLookups = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdls",
			Name:      "cache_lookups_total",
			Help:      "Per-document cache lookups by cache and outcome",
		}, []string{"cache", "result"})
		pr.documentLinks = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mdls",
			Name:      "document_links",
			Help:      "Number of links extracted per document scan",
			Buckets:   prom.ExponentialBuckets(1, 4, 7),
		})
		pr.openDocuments = prom.NewGauge(prom.GaugeOpts{
			Namespace: "mdls",
			Name:      "open_documents",
			Help:      "Documents currently opened by the editor",
		})
		reg.MustRegister(pr.requestDuration, pr.requestResults, pr.cacheLookups, pr.documentLinks, pr.openDocuments)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveRequestDuration(method string, d time.Duration) {
	if p == nil || p.requestDuration == nil {
		return
	}
	p.requestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRequestResult(method string, result ResultLabel) {
	if p == nil || p.requestResults == nil {
		return
	}
	p.requestResults.WithLabelValues(method, string(result)).Inc()
}

func (p *PrometheusRecorder) IncCacheLookup(cache string, hit bool) {
	if p == nil || p.cacheLookups == nil {
		return
	}
	res := "miss"
	if hit {
		res = "hit"
	}
	p.cacheLookups.WithLabelValues(cache, res).Inc()
}

func (p *PrometheusRecorder) ObserveDocumentLinks(n int) {
	if p == nil || p.documentLinks == nil {
		return
	}
	p.documentLinks.Observe(float64(n))
}

func (p *PrometheusRecorder) SetOpenDocuments(n int) {
	if p == nil || p.openDocuments == nil {
		return
	}
	p.openDocuments.Set(float64(n))
}
