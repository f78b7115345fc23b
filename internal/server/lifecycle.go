package server

import (
	"log/slog"
	"net/http"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"git.home.luguber.info/inful/mdls/internal/docuri"
	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/langservice"
	"git.home.luguber.info/inful/mdls/internal/logfields"
	"git.home.luguber.info/inful/mdls/internal/metrics"
	"git.home.luguber.info/inful/mdls/internal/observability"
	"git.home.luguber.info/inful/mdls/internal/services"
	"git.home.luguber.info/inful/mdls/internal/workspace"
)

func (ls *LanguageServer) initialize(_ *glsp.Context, params *protocol.InitializeParams) (any, error) {
	folders, err := workspaceFolders(params)
	if err != nil {
		return nil, err
	}

	ws := workspace.NewFileSystem(folders, workspace.FileSystemOptions{
		Extensions: langservice.Extensions(ls.cfg.Markdown),
		Exclude:    ls.cfg.Workspace.Exclude,
		CacheDisk:  ls.cfg.Workspace.WatchEnabled(),
	})
	svc := langservice.New(ws, langservice.OptionsFromConfig(ls.cfg, ls.recorder))

	ls.mu.Lock()
	if ls.svc != nil {
		ls.mu.Unlock()
		return nil, mdlserrors.ValidationError("server already initialized").Build()
	}
	ls.ws = ws
	ls.svc = svc
	ls.mu.Unlock()

	if err := ls.registerServices(ws, svc); err != nil {
		return nil, err
	}

	folderNames := make([]string, len(folders))
	for i, f := range folders {
		folderNames[i] = f.String()
	}
	clientName := ""
	if params.ClientInfo != nil {
		clientName = params.ClientInfo.Name
	}
	observability.InfoContext(ls.baseCtx, "Initializing language server",
		slog.Any("folders", folderNames),
		slog.String("client", clientName))

	version := ls.version
	return protocol.InitializeResult{
		Capabilities: ls.capabilities(),
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

func (ls *LanguageServer) registerServices(ws *workspace.FileSystem, svc *langservice.Service) error {
	if ls.cfg.Workspace.WatchEnabled() {
		watcher, err := workspace.NewWatcher(ws, svc.Invalidate)
		if err != nil {
			return mdlserrors.WrapError(err, mdlserrors.CategoryInternal, "failed to create workspace watcher").Build()
		}
		if err := ls.orchestrator.Register(services.NewWatcherService("workspace-watcher", watcher)); err != nil {
			return err
		}
	}
	if ls.registry != nil && ls.cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle(ls.cfg.Metrics.Path, metrics.HTTPHandler(ls.registry))
		if err := ls.orchestrator.Register(services.NewHTTPService("metrics", ls.cfg.Metrics.Listen, mux)); err != nil {
			return err
		}
	}
	return nil
}

func (ls *LanguageServer) capabilities() protocol.ServerCapabilities {
	capabilities := ls.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	capabilities.DocumentLinkProvider = &protocol.DocumentLinkOptions{ResolveProvider: &protocol.True}
	capabilities.RenameProvider = &protocol.RenameOptions{PrepareProvider: &protocol.True}
	capabilities.SelectionRangeProvider = true

	scheme := "file"
	capabilities.Workspace = &protocol.ServerCapabilitiesWorkspace{
		FileOperations: &protocol.ServerCapabilitiesWorkspaceFileOperations{
			WillRename: &protocol.FileOperationRegistrationOptions{
				Filters: []protocol.FileOperationFilter{{
					Scheme:  &scheme,
					Pattern: protocol.FileOperationPattern{Glob: "**/*"},
				}},
			},
		},
	}
	return capabilities
}

func (ls *LanguageServer) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	if err := ls.orchestrator.StartAll(ls.baseCtx); err != nil {
		// The language features work without the watcher or the metrics endpoint.
		observability.ErrorContext(ls.baseCtx, "Failed to start background services", logfields.Error(err))
	}
	return nil
}

func (ls *LanguageServer) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	observability.InfoContext(ls.baseCtx, "Shutting down language server")
	if err := ls.orchestrator.StopAll(ls.baseCtx); err != nil {
		observability.WarnContext(ls.baseCtx, "Failed to stop background services", logfields.Error(err))
	}
	return nil
}

func (ls *LanguageServer) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// workspaceFolders picks the roots from the workspace folders, the root URI
// or the root path, in that order.
func workspaceFolders(params *protocol.InitializeParams) ([]docuri.URI, error) {
	var out []docuri.URI
	for _, f := range params.WorkspaceFolders {
		uri, err := parseURI(f.URI)
		if err != nil {
			return nil, err
		}
		out = append(out, uri)
	}
	if len(out) > 0 {
		return out, nil
	}
	if params.RootURI != nil && *params.RootURI != "" {
		uri, err := parseURI(*params.RootURI)
		if err != nil {
			return nil, err
		}
		return []docuri.URI{uri}, nil
	}
	if params.RootPath != nil && *params.RootPath != "" {
		return []docuri.URI{docuri.File(*params.RootPath)}, nil
	}
	return nil, nil
}
