// Package observability carries request-scoped logging context and request
// spans for the language server.
package observability

import (
	"context"
	"io"
	"log/slog"

	"git.home.luguber.info/inful/mdls/internal/config"
	"git.home.luguber.info/inful/mdls/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	RequestID string
	Method    string
	URI       string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithRequestID adds a JSON-RPC request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	lc := extractLogContext(ctx)
	lc.RequestID = id
	return context.WithValue(ctx, logContextKey, lc)
}

// WithMethod adds the LSP method name to the context.
func WithMethod(ctx context.Context, method string) context.Context {
	lc := extractLogContext(ctx)
	lc.Method = method
	return context.WithValue(ctx, logContextKey, lc)
}

// WithURI adds the document URI a request targets to the context.
func WithURI(ctx context.Context, uri string) context.Context {
	lc := extractLogContext(ctx)
	lc.URI = uri
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.RequestID != "" {
		attrs = append(attrs, slog.String("request.id", lc.RequestID))
	}
	if lc.Method != "" {
		attrs = append(attrs, logfields.Method(lc.Method))
	}
	if lc.URI != "" {
		attrs = append(attrs, logfields.URI(lc.URI))
	}
	return attrs
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelInfo, msg, append(getLogAttrs(ctx), attrs...)...)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelWarn, msg, append(getLogAttrs(ctx), attrs...)...)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelError, msg, append(getLogAttrs(ctx), attrs...)...)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelDebug, msg, append(getLogAttrs(ctx), attrs...)...)
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

// NewLogger builds the process logger. Logs always go to w, which must not be
// the LSP transport. verbose forces debug level.
func NewLogger(w io.Writer, cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := cfg.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
