// Package references finds every place that refers to the same header, file,
// URL or reference definition as a given position.
package references

import (
	"context"

	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/docuri"
	"git.home.luguber.info/inful/mdls/internal/links"
	"git.home.luguber.info/inful/mdls/internal/slugify"
	"git.home.luguber.info/inful/mdls/internal/textrange"
	"git.home.luguber.info/inful/mdls/internal/toc"
	"git.home.luguber.info/inful/mdls/internal/workspace"
)

// Kind tells link references from header references.
type Kind int

const (
	KindLink Kind = iota + 1
	KindHeader
)

// Reference is one occurrence of a referenced entity.
type Reference struct {
	Kind Kind
	// IsTriggerLocation marks the occurrence the request was made on.
	IsTriggerLocation bool
	// IsDefinition marks headers and reference definitions.
	IsDefinition bool
	Location     document.Location

	// Link is set for KindLink.
	Link *links.Link

	// Header and HeaderTextLocation are set for KindHeader.
	Header             *toc.Entry
	HeaderTextLocation document.Location
}

// Provider computes references across the workspace.
type Provider struct {
	ws         workspace.Workspace
	links      *links.Provider
	toc        *toc.Provider
	slugifier  slugify.Slugifier
	extensions workspace.Extensions
}

// NewProvider creates a references provider.
func NewProvider(linkProvider *links.Provider, tocProvider *toc.Provider) *Provider {
	return &Provider{
		ws:         linkProvider.Workspace(),
		links:      linkProvider,
		toc:        tocProvider,
		slugifier:  tocProvider.Slugifier(),
		extensions: linkProvider.Extensions(),
	}
}

// GetReferencesAtPosition returns the references to the header on pos's line
// or to the link under pos.
func (p *Provider) GetReferencesAtPosition(ctx context.Context, doc *document.Document, pos textrange.Position) ([]Reference, error) {
	contents, err := p.toc.GetForDocument(ctx, doc)
	if err != nil || ctx.Err() != nil {
		return nil, err
	}
	if header, ok := contents.LookupByLine(pos.Line); ok {
		return p.ReferencesToHeader(ctx, doc, header)
	}
	return p.referencesToLinkAtPosition(ctx, doc, pos)
}

// GetReferencesToFileInWorkspace returns every link in the workspace that
// points at resource.
func (p *Provider) GetReferencesToFileInWorkspace(ctx context.Context, resource docuri.URI) ([]Reference, error) {
	all, err := p.workspaceLinks(ctx)
	if err != nil || ctx.Err() != nil {
		return nil, err
	}
	return p.findLinksToFile(resource, all, nil), nil
}

// GetReferencesToFileInDocs returns the links in docs that point at resource.
func (p *Provider) GetReferencesToFileInDocs(ctx context.Context, resource docuri.URI, docs []*document.Document) ([]Reference, error) {
	var all []links.Link
	for _, doc := range docs {
		dl, err := p.links.GetLinks(ctx, doc)
		if err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, nil
		}
		all = append(all, dl.Links...)
	}
	return p.findLinksToFile(resource, all, nil), nil
}

func (p *Provider) workspaceLinks(ctx context.Context) ([]links.Link, error) {
	perDoc, err := p.links.WorkspaceLinks(ctx)
	if err != nil {
		return nil, err
	}
	var all []links.Link
	for _, dl := range perDoc {
		all = append(all, dl.Links...)
	}
	return all, nil
}

// ReferencesToHeader returns the header itself followed by every link whose
// fragment names it.
func (p *Provider) ReferencesToHeader(ctx context.Context, doc *document.Document, header toc.Entry) ([]Reference, error) {
	all, err := p.workspaceLinks(ctx)
	if err != nil || ctx.Err() != nil {
		return nil, err
	}

	entry := header
	refs := []Reference{{
		Kind:               KindHeader,
		IsTriggerLocation:  true,
		IsDefinition:       true,
		Location:           header.HeaderLocation,
		Header:             &entry,
		HeaderTextLocation: header.HeaderTextLocation,
	}}
	for i := range all {
		link := &all[i]
		href, ok := link.Href.(links.InternalHref)
		if !ok || href.Fragment == "" || link.Source.HrefFragmentRange == nil {
			continue
		}
		if !links.LooksLikeLinkToResource(href, doc.URI(), p.extensions) {
			continue
		}
		if p.slugifier.FromHeading(href.Fragment).Equals(header.Slug) {
			refs = append(refs, Reference{
				Kind:     KindLink,
				Link:     link,
				Location: document.Location{URI: link.Source.Resource, Range: *link.Source.HrefFragmentRange},
			})
		}
	}
	return refs, nil
}

func (p *Provider) referencesToLinkAtPosition(ctx context.Context, doc *document.Document, pos textrange.Position) ([]Reference, error) {
	dl, err := p.links.GetLinks(ctx, doc)
	if err != nil || ctx.Err() != nil {
		return nil, err
	}
	for i := range dl.Links {
		link := &dl.Links[i]
		if link.Kind == links.KindDefinition && link.Ref.Range.Contains(pos) {
			return referencesToLinkReference(dl.Links, link.Ref.Text, document.Location{URI: doc.URI(), Range: link.Ref.Range}), nil
		}
		if link.Source.HrefRange.Contains(pos) {
			return p.referencesToLink(ctx, dl.Links, link, pos)
		}
	}
	return nil, nil
}

func (p *Provider) referencesToLink(ctx context.Context, docLinks []links.Link, source *links.Link, trigger textrange.Position) ([]Reference, error) {
	switch href := source.Href.(type) {
	case links.ReferenceHref:
		return referencesToLinkReference(docLinks, href.Ref, document.Location{URI: source.Source.Resource, Range: source.Source.HrefRange}), nil
	case links.ExternalHref:
		all, err := p.workspaceLinks(ctx)
		if err != nil || ctx.Err() != nil {
			return nil, err
		}
		var refs []Reference
		for i := range all {
			link := &all[i]
			ext, ok := link.Href.(links.ExternalHref)
			if !ok || ext.URI.String() != href.URI.String() {
				continue
			}
			refs = append(refs, Reference{
				Kind:              KindLink,
				IsTriggerLocation: isSameLink(source, link),
				Link:              link,
				Location:          document.Location{URI: link.Source.Resource, Range: link.Source.HrefRange},
			})
		}
		return refs, nil
	case links.InternalHref:
		return p.referencesToInternalLink(ctx, source, href, trigger)
	default:
		return nil, nil
	}
}

func (p *Provider) referencesToInternalLink(ctx context.Context, source *links.Link, href links.InternalHref, trigger textrange.Position) ([]Reference, error) {
	resolved, found, err := links.StatLinkToMarkdownFile(ctx, p.ws, p.extensions, href.Path)
	if err != nil || ctx.Err() != nil {
		return nil, err
	}
	all, err := p.workspaceLinks(ctx)
	if err != nil || ctx.Err() != nil {
		return nil, err
	}

	onFragment := href.Fragment != "" && source.Source.HrefFragmentRange != nil && source.Source.HrefFragmentRange.Contains(trigger)
	if !found || !p.extensions.IsMarkdown(resolved) || !onFragment {
		target := href.Path
		if found {
			target = resolved
		}
		return p.findLinksToFile(target, all, source), nil
	}

	var refs []Reference
	contents, err := p.toc.Get(ctx, resolved)
	if err != nil || ctx.Err() != nil {
		return nil, err
	}
	if entry, ok := contents.LookupByFragment(href.Fragment); ok {
		refs = append(refs, Reference{
			Kind:               KindHeader,
			IsDefinition:       true,
			Location:           entry.HeaderLocation,
			Header:             &entry,
			HeaderTextLocation: entry.HeaderTextLocation,
		})
	}

	want := p.slugifier.FromHeading(href.Fragment)
	for i := range all {
		link := &all[i]
		other, ok := link.Href.(links.InternalHref)
		if !ok || link.Source.HrefFragmentRange == nil || !links.LooksLikeLinkToResource(other, resolved, p.extensions) {
			continue
		}
		if p.slugifier.FromHeading(other.Fragment).Equals(want) {
			refs = append(refs, Reference{
				Kind:              KindLink,
				IsTriggerLocation: isSameLink(source, link),
				Link:              link,
				Location:          document.Location{URI: link.Source.Resource, Range: *link.Source.HrefFragmentRange},
			})
		}
	}
	return refs, nil
}

func (p *Provider) findLinksToFile(resource docuri.URI, all []links.Link, source *links.Link) []Reference {
	var refs []Reference
	for i := range all {
		link := &all[i]
		href, ok := link.Href.(links.InternalHref)
		if !ok || !links.LooksLikeLinkToResource(href, resource, p.extensions) {
			continue
		}
		// A fragment-only link is the document referring to itself.
		if len(link.Source.HrefText) > 0 && link.Source.HrefText[0] == '#' && link.Source.Resource.Equal(resource) {
			continue
		}
		refs = append(refs, Reference{
			Kind:              KindLink,
			IsTriggerLocation: source != nil && isSameLink(source, link),
			Link:              link,
			Location:          document.Location{URI: link.Source.Resource, Range: link.Source.HrefPathRange()},
		})
	}
	return refs
}

// referencesToLinkReference returns the reference links and definitions of
// ref within a single document.
func referencesToLinkReference(docLinks []links.Link, ref string, from document.Location) []Reference {
	want := links.NormalizeRef(ref)
	var refs []Reference
	for i := range docLinks {
		link := &docLinks[i]
		var name string
		var r textrange.Range
		switch {
		case link.Kind == links.KindDefinition:
			name, r = link.Ref.Text, link.Ref.Range
		default:
			href, ok := link.Href.(links.ReferenceHref)
			if !ok {
				continue
			}
			name, r = href.Ref, link.Source.HrefRange
		}
		if links.NormalizeRef(name) != want || !link.Source.Resource.Equal(from.URI) {
			continue
		}
		refs = append(refs, Reference{
			Kind:              KindLink,
			IsTriggerLocation: r.Equal(from.Range),
			IsDefinition:      link.Kind == links.KindDefinition,
			Link:              link,
			Location:          document.Location{URI: from.URI, Range: r},
		})
	}
	return refs
}

func isSameLink(a, b *links.Link) bool {
	return a.Source.Resource.Equal(b.Source.Resource) && a.Source.HrefRange.Equal(b.Source.HrefRange)
}
