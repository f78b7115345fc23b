package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/mdls/internal/docuri"
	"git.home.luguber.info/inful/mdls/internal/logfields"
)

// Watcher keeps a FileSystem workspace's disk snapshots current.
type Watcher struct {
	ws       *FileSystem
	watcher  *fsnotify.Watcher
	onChange func(docuri.URI)

	mu       sync.Mutex
	stopChan chan struct{}
	stopped  bool
}

// NewWatcher creates a watcher. onChange, when set, is called for every changed path.
func NewWatcher(ws *FileSystem, onChange func(docuri.URI)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		ws:       ws,
		watcher:  watcher,
		onChange: onChange,
		stopChan: make(chan struct{}),
	}, nil
}

// Start watches every non-excluded directory below the workspace folders.
func (w *Watcher) Start(ctx context.Context) error {
	for _, folder := range w.ws.WorkspaceFolders() {
		if folder.Scheme() != "file" {
			continue
		}
		if err := w.addTree(folder.FSPath()); err != nil {
			return err
		}
	}

	slog.Info("Starting workspace watcher", logfields.Count(len(w.watcher.WatchList())))
	go w.watchLoop(ctx)
	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)
	return w.watcher.Close()
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.ws.excluded(root, p, d) {
			return filepath.SkipDir
		}
		if addErr := w.watcher.Add(p); addErr != nil {
			return fmt.Errorf("failed to watch directory %s: %w", p, addErr)
		}
		return nil
	})
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Workspace watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	uri := docuri.File(event.Name)

	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				slog.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
			}
		}
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	slog.Debug("Workspace file changed", logfields.Path(event.Name), slog.String("op", event.Op.String()))
	w.ws.Invalidate(uri)
	if w.onChange != nil {
		w.onChange(uri)
	}
}
