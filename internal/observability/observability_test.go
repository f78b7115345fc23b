package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdls/internal/config"
	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/metrics"
)

type recordingRecorder struct {
	metrics.NoopRecorder
	durations map[string]time.Duration
	results   map[string]metrics.ResultLabel
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{
		durations: make(map[string]time.Duration),
		results:   make(map[string]metrics.ResultLabel),
	}
}

func (r *recordingRecorder) ObserveRequestDuration(method string, d time.Duration) {
	r.durations[method] = d
}

func (r *recordingRecorder) IncRequestResult(method string, result metrics.ResultLabel) {
	r.results[method] = result
}

func captureDefault(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLogContextAccumulates(t *testing.T) {
	ctx := WithRequestID(context.Background(), "7")
	ctx = WithMethod(ctx, "textDocument/rename")
	ctx = WithURI(ctx, "file:///ws/a.md")

	lc := GetContext(ctx)
	assert.Equal(t, LogContext{RequestID: "7", Method: "textDocument/rename", URI: "file:///ws/a.md"}, lc)
}

func TestContextLoggersIncludeFields(t *testing.T) {
	buf := captureDefault(t)
	ctx := WithURI(WithMethod(context.Background(), "textDocument/documentLink"), "file:///ws/a.md")

	InfoContext(ctx, "hello", slog.Int("n", 3))

	out := buf.String()
	assert.Contains(t, out, "method=textDocument/documentLink")
	assert.Contains(t, out, "uri=file:///ws/a.md")
	assert.Contains(t, out, "n=3")
}

func TestRequestSpanRecordsOutcome(t *testing.T) {
	captureDefault(t)

	tests := []struct {
		name   string
		cancel bool
		err    error
		want   metrics.ResultLabel
	}{
		{name: "success", want: metrics.ResultSuccess},
		{name: "unsupported", err: mdlserrors.RenameError("nope").Build(), want: metrics.ResultUnsupported},
		{name: "error", err: errors.New("boom"), want: metrics.ResultError},
		{name: "canceled", cancel: true, want: metrics.ResultCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecordingRecorder()
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			_, span := StartRequestSpan(ctx, rec, "m")
			start := span.startTime
			span.now = func() time.Time { return start.Add(25 * time.Millisecond) }
			if tt.cancel {
				cancel()
			}
			span.End(tt.err)

			assert.Equal(t, tt.want, rec.results["m"])
			assert.Equal(t, 25*time.Millisecond, rec.durations["m"])
		})
	}
}

func TestNilSpanEnd(t *testing.T) {
	var span *RequestSpan
	assert.NotPanics(t, func() { span.End(nil) })
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.LoggingConfig{Level: config.LogLevelWarn, Format: config.LogFormatJSON}, false)
	logger.Info("hidden")
	logger.Warn("shown")
	require.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	logger = NewLogger(&buf, config.LoggingConfig{Level: config.LogLevelWarn, Format: config.LogFormatText}, true)
	logger.Debug("verbose")
	assert.Contains(t, buf.String(), "msg=verbose")
}
