package metrics

import "time"

// ResultLabel enumerates request result categories for counters.
type ResultLabel string

const (
	ResultSuccess     ResultLabel = "success"
	ResultUnsupported ResultLabel = "unsupported"
	ResultError       ResultLabel = "error"
	ResultCanceled    ResultLabel = "canceled"
)

// Recorder defines observability hooks for language-server requests and caches.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods must
// be safe for nil receivers when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveRequestDuration(method string, d time.Duration)
	IncRequestResult(method string, result ResultLabel)
	IncCacheLookup(cache string, hit bool)
	ObserveDocumentLinks(n int)
	SetOpenDocuments(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRequestDuration(string, time.Duration) {}
func (NoopRecorder) IncRequestResult(string, ResultLabel)         {}
func (NoopRecorder) IncCacheLookup(string, bool)                  {}
func (NoopRecorder) ObserveDocumentLinks(int)                     {}
func (NoopRecorder) SetOpenDocuments(int)                         {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
