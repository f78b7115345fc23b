package workspace

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/docuri"
	ferrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/logfields"
)

// FileSystemOptions configures a FileSystem workspace.
type FileSystemOptions struct {
	Extensions Extensions
	// Exclude holds glob patterns matched against folder-relative paths and base names.
	Exclude []string
	// CacheDisk keeps snapshots of files read from disk. It should only be enabled
	// together with a Watcher, which drops snapshots when files change.
	CacheDisk bool
}

// FileSystem is a Workspace backed by folders on disk with an overlay of
// documents opened in the editor.
type FileSystem struct {
	folders []docuri.URI
	opts    FileSystemOptions

	mu       sync.RWMutex
	open     map[string]*document.Document
	disk     map[string]*document.Document
	versions map[string]int32
}

// NewFileSystem creates a workspace over the given root folders.
func NewFileSystem(folders []docuri.URI, opts FileSystemOptions) *FileSystem {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	return &FileSystem{
		folders:  folders,
		opts:     opts,
		open:     make(map[string]*document.Document),
		disk:     make(map[string]*document.Document),
		versions: make(map[string]int32),
	}
}

// Extensions returns the configured Markdown extensions.
func (w *FileSystem) Extensions() Extensions {
	return w.opts.Extensions
}

// DidOpen registers an editor-owned document. It shadows the file on disk.
func (w *FileSystem) DidOpen(doc *document.Document) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.open[doc.URI().Key()] = doc
}

// DidChange replaces an editor-owned document with a newer snapshot.
func (w *FileSystem) DidChange(doc *document.Document) {
	w.DidOpen(doc)
}

// DidClose hands a document back to the disk view.
func (w *FileSystem) DidClose(uri docuri.URI) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.open, uri.Key())
}

// OpenDocuments returns the number of editor-owned documents.
func (w *FileSystem) OpenDocuments() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.open)
}

// Lookup returns an editor-owned document.
func (w *FileSystem) Lookup(uri docuri.URI) (*document.Document, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	doc, ok := w.open[uri.Key()]
	return doc, ok
}

// Invalidate drops any disk snapshot of uri and bumps its version.
func (w *FileSystem) Invalidate(uri docuri.URI) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := uri.Key()
	delete(w.disk, key)
	w.versions[key]++
}

func (w *FileSystem) WorkspaceFolders() []docuri.URI {
	return w.folders
}

func (w *FileSystem) Stat(ctx context.Context, uri docuri.URI) (*FileStat, error) {
	if ctx.Err() != nil {
		return nil, nil
	}
	if _, ok := w.Lookup(uri); ok {
		return &FileStat{}, nil
	}
	if uri.Scheme() != "file" {
		return nil, nil
	}
	info, err := os.Stat(uri.FSPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to stat resource").
			WithContext("uri", uri.String()).
			Build()
	}
	return &FileStat{IsDirectory: info.IsDir()}, nil
}

func (w *FileSystem) OpenMarkdownDocument(ctx context.Context, uri docuri.URI) (*document.Document, error) {
	if ctx.Err() != nil {
		return nil, nil
	}
	if doc, ok := w.Lookup(uri); ok {
		return doc, nil
	}
	if uri.Scheme() != "file" || !w.opts.Extensions.IsMarkdown(uri) {
		return nil, nil
	}
	return w.readDisk(uri)
}

func (w *FileSystem) readDisk(uri docuri.URI) (*document.Document, error) {
	key := uri.Key()
	if w.opts.CacheDisk {
		w.mu.RLock()
		cached, ok := w.disk[key]
		w.mu.RUnlock()
		if ok {
			return cached, nil
		}
	}

	// #nosec G304 -- paths come from workspace folders or editor requests.
	content, err := os.ReadFile(uri.FSPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		if info, statErr := os.Stat(uri.FSPath()); statErr == nil && info.IsDir() {
			return nil, nil
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read document").
			WithContext("uri", uri.String()).
			Build()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	doc := document.New(uri.WithFragment(""), w.versions[key], string(content))
	if w.opts.CacheDisk {
		w.disk[key] = doc
	}
	return doc, nil
}

func (w *FileSystem) GetContainingDocument(docuri.URI) (*ContainingDocument, bool) {
	return nil, false
}

func (w *FileSystem) AllMarkdownDocuments(ctx context.Context) ([]*document.Document, error) {
	seen := make(map[string]bool)
	var out []*document.Document

	w.mu.RLock()
	for key, doc := range w.open {
		seen[key] = true
		out = append(out, doc)
	}
	w.mu.RUnlock()

	for _, folder := range w.folders {
		if folder.Scheme() != "file" {
			continue
		}
		root := folder.FSPath()
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				slog.Debug("Skipping unreadable path", logfields.Path(p), logfields.Error(err))
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if w.excluded(root, p, d) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !w.opts.Extensions.IsMarkdownPath(p) {
				return nil
			}
			uri := docuri.File(p)
			if seen[uri.Key()] {
				return nil
			}
			seen[uri.Key()] = true
			doc, readErr := w.readDisk(uri)
			if readErr != nil {
				slog.Warn("Failed to read workspace document", logfields.Path(p), logfields.Error(readErr))
				return nil
			}
			if doc != nil {
				out = append(out, doc)
			}
			return nil
		})
		if ctx.Err() != nil {
			return nil, nil
		}
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to walk workspace folder").
				WithContext("uri", folder.String()).
				Build()
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].URI().String() < out[j].URI().String() })
	return out, nil
}

func (w *FileSystem) excluded(root, p string, d fs.DirEntry) bool {
	if p == root {
		return false
	}
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.opts.Exclude {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := path.Match(pattern, d.Name()); ok {
			return true
		}
	}
	return false
}
