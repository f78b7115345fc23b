// Package server exposes the Markdown language features over the Language
// Server Protocol.
package server

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"git.home.luguber.info/inful/mdls/internal/config"
	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/docuri"
	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/langservice"
	"git.home.luguber.info/inful/mdls/internal/logfields"
	"git.home.luguber.info/inful/mdls/internal/metrics"
	"git.home.luguber.info/inful/mdls/internal/observability"
	"git.home.luguber.info/inful/mdls/internal/services"
	"git.home.luguber.info/inful/mdls/internal/workspace"
)

const serverName = "mdls"

// ErrNotInitialized is returned for requests that arrive before initialize.
var ErrNotInitialized = mdlserrors.ValidationError("server not initialized").Build()

// Options configures a LanguageServer.
type Options struct {
	Config  *config.Config
	Version string
	// Registry receives the Prometheus metrics. When nil, metrics are not
	// collected and no endpoint is served.
	Registry *prom.Registry
	// Debug enables glsp's protocol message logging.
	Debug bool
}

// LanguageServer holds the protocol handler and the per-session state.
type LanguageServer struct {
	cfg          *config.Config
	version      string
	registry     *prom.Registry
	recorder     metrics.Recorder
	debug        bool
	handler      protocol.Handler
	orchestrator *services.Orchestrator

	baseCtx  context.Context
	cancel   context.CancelFunc
	requests atomic.Uint64

	mu  sync.RWMutex
	ws  *workspace.FileSystem
	svc *langservice.Service
}

// New creates a language server. It does nothing until a client initializes it.
func New(opts Options) *LanguageServer {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if opts.Registry != nil {
		recorder = metrics.NewPrometheusRecorder(opts.Registry)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ls := &LanguageServer{
		cfg:          cfg,
		version:      opts.Version,
		registry:     opts.Registry,
		recorder:     recorder,
		debug:        opts.Debug,
		orchestrator: services.NewOrchestrator(),
		baseCtx:      ctx,
		cancel:       cancel,
	}
	ls.handler = protocol.Handler{
		Initialize:                 ls.initialize,
		Initialized:                ls.initialized,
		Shutdown:                   ls.shutdown,
		SetTrace:                   ls.setTrace,
		TextDocumentDidOpen:        ls.textDocumentDidOpen,
		TextDocumentDidChange:      ls.textDocumentDidChange,
		TextDocumentDidClose:       ls.textDocumentDidClose,
		TextDocumentDocumentLink:   ls.textDocumentDocumentLink,
		DocumentLinkResolve:        ls.documentLinkResolve,
		TextDocumentPrepareRename:  ls.textDocumentPrepareRename,
		TextDocumentRename:         ls.textDocumentRename,
		TextDocumentSelectionRange: ls.textDocumentSelectionRange,
		WorkspaceWillRenameFiles:   ls.workspaceWillRenameFiles,
	}
	return ls
}

// Handler returns the protocol handler.
func (ls *LanguageServer) Handler() *protocol.Handler {
	return &ls.handler
}

// RunStdio serves the protocol over stdin and stdout until the client exits.
func (ls *LanguageServer) RunStdio() error {
	defer ls.stop()
	return glspserver.NewServer(&ls.handler, serverName, ls.debug).RunStdio()
}

// service returns the language features of the initialized session.
func (ls *LanguageServer) service() (*langservice.Service, *workspace.FileSystem, error) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	if ls.svc == nil {
		return nil, nil, ErrNotInitialized
	}
	return ls.svc, ls.ws, nil
}

// request starts a span for one request against a document.
func (ls *LanguageServer) request(ctx *glsp.Context, method, uri string) (context.Context, *observability.RequestSpan) {
	reqCtx := observability.WithRequestID(ls.baseCtx, strconv.FormatUint(ls.requests.Add(1), 10))
	if uri != "" {
		reqCtx = observability.WithURI(reqCtx, uri)
	}
	if ctx != nil && ctx.Method != "" {
		method = ctx.Method
	}
	return observability.StartRequestSpan(reqCtx, ls.recorder, method)
}

// document returns the current snapshot of a Markdown document, either the
// editor's copy or the file on disk.
func (ls *LanguageServer) document(ctx context.Context, raw string) (*langservice.Service, *document.Document, error) {
	svc, ws, err := ls.service()
	if err != nil {
		return nil, nil, err
	}
	uri, err := parseURI(raw)
	if err != nil {
		return nil, nil, err
	}
	doc, err := ws.OpenMarkdownDocument(ctx, uri)
	if err != nil {
		return nil, nil, err
	}
	if doc == nil {
		return svc, nil, nil
	}
	return svc, doc, nil
}

func (ls *LanguageServer) invalidate(uri docuri.URI) {
	ls.mu.RLock()
	svc := ls.svc
	ls.mu.RUnlock()
	if svc != nil {
		svc.Invalidate(uri)
	}
}

func (ls *LanguageServer) stop() {
	ls.cancel()
	if err := ls.orchestrator.StopAll(context.Background()); err != nil {
		observability.WarnContext(context.Background(), "Failed to stop background services", logfields.Error(err))
	}
}
