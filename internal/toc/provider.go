package toc

import (
	"context"

	"git.home.luguber.info/inful/mdls/internal/doccache"
	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/docuri"
	"git.home.luguber.info/inful/mdls/internal/markdown"
	"git.home.luguber.info/inful/mdls/internal/metrics"
	"git.home.luguber.info/inful/mdls/internal/slugify"
	"git.home.luguber.info/inful/mdls/internal/workspace"
)

// Provider computes and caches tables of contents per document version.
type Provider struct {
	ws        workspace.Workspace
	tokenizer markdown.Tokenizer
	slugifier slugify.Slugifier
	cache     *doccache.VersionCache[*TableOfContents]
}

// NewProvider creates a provider.
func NewProvider(ws workspace.Workspace, tokenizer markdown.Tokenizer, slugifier slugify.Slugifier, recorder metrics.Recorder) *Provider {
	p := &Provider{ws: ws, tokenizer: tokenizer, slugifier: slugifier}
	p.cache = doccache.New("toc", func(ctx context.Context, doc *document.Document) (*TableOfContents, error) {
		return Create(ctx, p.tokenizer, p.slugifier, doc)
	}, recorder)
	return p
}

// Slugifier returns the slugifier used for headers.
func (p *Provider) Slugifier() slugify.Slugifier {
	return p.slugifier
}

// GetForDocument returns the table of contents of doc.
func (p *Provider) GetForDocument(ctx context.Context, doc *document.Document) (*TableOfContents, error) {
	return p.cache.Get(ctx, doc)
}

// Get opens the document at uri and returns its table of contents. Documents
// that cannot be opened have an empty table of contents.
func (p *Provider) Get(ctx context.Context, uri docuri.URI) (*TableOfContents, error) {
	doc, err := p.ws.OpenMarkdownDocument(ctx, uri)
	if err != nil {
		return nil, err
	}
	if doc == nil || ctx.Err() != nil {
		return Empty(p.slugifier), nil
	}
	return p.GetForDocument(ctx, doc)
}

// GetForContainingDoc merges the tables of contents of every document embedded
// in doc's container. Documents without a container get their own table.
func (p *Provider) GetForContainingDoc(ctx context.Context, doc *document.Document) (*TableOfContents, error) {
	container, ok := p.ws.GetContainingDocument(doc.URI())
	if !ok {
		return p.GetForDocument(ctx, doc)
	}

	merged := Empty(p.slugifier)
	for _, child := range container.Children {
		var childTOC *TableOfContents
		var err error
		if child.Equal(doc.URI()) {
			childTOC, err = p.GetForDocument(ctx, doc)
		} else {
			childTOC, err = p.Get(ctx, child)
		}
		if err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			return Empty(p.slugifier), nil
		}
		merged.Entries = append(merged.Entries, childTOC.Entries...)
	}
	return merged, nil
}
