package workspace

import (
	"context"
	"sort"
	"sync"

	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/docuri"
)

// InMemory is a Workspace over a fixed set of documents and files.
type InMemory struct {
	folders []docuri.URI

	mu         sync.RWMutex
	docs       map[string]*document.Document
	files      map[string]docuri.URI
	containers map[string]*ContainingDocument
}

// NewInMemory creates an empty in-memory workspace rooted at the given folders.
func NewInMemory(folders ...docuri.URI) *InMemory {
	return &InMemory{
		folders:    folders,
		docs:       make(map[string]*document.Document),
		files:      make(map[string]docuri.URI),
		containers: make(map[string]*ContainingDocument),
	}
}

// AddDocument adds or replaces a Markdown document.
func (w *InMemory) AddDocument(doc *document.Document) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.docs[doc.URI().Key()] = doc
}

// AddFile registers a non-Markdown file such as an image.
func (w *InMemory) AddFile(uri docuri.URI) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[uri.Key()] = uri
}

// Remove drops a document or file.
func (w *InMemory) Remove(uri docuri.URI) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.docs, uri.Key())
	delete(w.files, uri.Key())
}

// SetContainingDocument registers a container for each of its children.
func (w *InMemory) SetContainingDocument(container *ContainingDocument) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, child := range container.Children {
		w.containers[child.Key()] = container
	}
}

func (w *InMemory) WorkspaceFolders() []docuri.URI {
	return w.folders
}

func (w *InMemory) Stat(ctx context.Context, uri docuri.URI) (*FileStat, error) {
	if ctx.Err() != nil {
		return nil, nil
	}
	w.mu.RLock()
	defer w.mu.RUnlock()

	key := uri.Key()
	if _, ok := w.docs[key]; ok {
		return &FileStat{}, nil
	}
	if _, ok := w.files[key]; ok {
		return &FileStat{}, nil
	}
	for _, doc := range w.docs {
		if uri.IsParentOf(doc.URI()) {
			return &FileStat{IsDirectory: true}, nil
		}
	}
	for _, file := range w.files {
		if uri.IsParentOf(file) {
			return &FileStat{IsDirectory: true}, nil
		}
	}
	for _, folder := range w.folders {
		if folder.Equal(uri) {
			return &FileStat{IsDirectory: true}, nil
		}
	}
	return nil, nil
}

func (w *InMemory) OpenMarkdownDocument(ctx context.Context, uri docuri.URI) (*document.Document, error) {
	if ctx.Err() != nil {
		return nil, nil
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.docs[uri.Key()], nil
}

func (w *InMemory) GetContainingDocument(uri docuri.URI) (*ContainingDocument, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	container, ok := w.containers[uri.Key()]
	return container, ok
}

func (w *InMemory) AllMarkdownDocuments(ctx context.Context) ([]*document.Document, error) {
	if ctx.Err() != nil {
		return nil, nil
	}
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]*document.Document, 0, len(w.docs))
	for _, doc := range w.docs {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI().String() < out[j].URI().String() })
	return out, nil
}
