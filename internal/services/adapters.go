package services

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/logfields"
)

// HTTPService serves a handler on a TCP address until stopped.
type HTTPService struct {
	name    string
	addr    string
	handler http.Handler

	mu     sync.Mutex
	server *http.Server
	ln     net.Listener
}

// NewHTTPService creates an HTTP service adapter.
func NewHTTPService(name, addr string, handler http.Handler) *HTTPService {
	return &HTTPService{name: name, addr: addr, handler: handler}
}

func (h *HTTPService) Name() string { return h.name }

func (h *HTTPService) Dependencies() []string { return nil }

// Start binds the listener before returning so address errors surface early.
func (h *HTTPService) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", h.addr)
	if err != nil {
		return mdlserrors.WrapError(err, mdlserrors.CategoryConfig, "failed to bind listener").
			WithContext("addr", h.addr).
			Build()
	}

	srv := &http.Server{Handler: h.handler, ReadHeaderTimeout: 10 * time.Second}
	h.mu.Lock()
	h.server = srv
	h.ln = ln
	h.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP service error", logfields.Service(h.name), logfields.Error(err))
		}
	}()
	slog.Info("HTTP service listening", logfields.Service(h.name), slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or nil before Start.
func (h *HTTPService) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ln == nil {
		return nil
	}
	return h.ln.Addr()
}

func (h *HTTPService) Stop(ctx context.Context) error {
	h.mu.Lock()
	srv := h.server
	h.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Watcher is the part of a workspace watcher a WatcherService drives.
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// WatcherService adapts a file watcher to the ManagedService interface.
type WatcherService struct {
	name    string
	watcher Watcher
	cancel  context.CancelFunc
}

// NewWatcherService creates a watcher service adapter.
func NewWatcherService(name string, watcher Watcher) *WatcherService {
	return &WatcherService{name: name, watcher: watcher}
}

func (w *WatcherService) Name() string { return w.name }

func (w *WatcherService) Dependencies() []string { return nil }

func (w *WatcherService) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.cancel = cancel
	if err := w.watcher.Start(runCtx); err != nil {
		cancel()
		return err
	}
	return nil
}

func (w *WatcherService) Stop(context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}
	return w.watcher.Stop()
}
