// Package doccache keeps values derived from one document version.
//
// Each cache holds a single slot per document URI. A slot is replaced when a value
// for a newer version is computed and stale slots are never returned.
package doccache

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/metrics"
)

// ComputeFunc derives a value from a document.
type ComputeFunc[T any] func(ctx context.Context, doc *document.Document) (T, error)

type entry[T any] struct {
	version int32
	text    string
	value   T
}

// VersionCache caches the latest computed value per document.
type VersionCache[T any] struct {
	name     string
	compute  ComputeFunc[T]
	recorder metrics.Recorder

	mu      sync.Mutex
	entries map[string]entry[T]
}

// New creates a cache. The name labels cache metrics.
func New[T any](name string, compute ComputeFunc[T], recorder metrics.Recorder) *VersionCache[T] {
	return &VersionCache[T]{
		name:     name,
		compute:  compute,
		recorder: metrics.OrNoop(recorder),
		entries:  make(map[string]entry[T]),
	}
}

// Get returns the cached value for doc's version or computes it.
//
// A hit requires both the version and the text to match, so two sources that
// number versions independently cannot alias each other.
func (c *VersionCache[T]) Get(ctx context.Context, doc *document.Document) (T, error) {
	key := doc.URI().Key()

	c.mu.Lock()
	existing, ok := c.entries[key]
	c.mu.Unlock()
	if ok && existing.version == doc.Version() && existing.text == doc.Text() {
		c.recorder.IncCacheLookup(c.name, true)
		return existing.value, nil
	}
	c.recorder.IncCacheLookup(c.name, false)

	value, err := c.compute(ctx, doc)
	if err != nil {
		var zero T
		return zero, err
	}
	if ctx.Err() != nil {
		return value, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.entries[key]; !ok || current.version <= doc.Version() {
		c.entries[key] = entry[T]{version: doc.Version(), text: doc.Text(), value: value}
	}
	return value, nil
}

// Invalidate drops the slot for a document.
func (c *VersionCache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every slot.
func (c *VersionCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[T])
}

// Len reports the number of cached documents.
func (c *VersionCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
