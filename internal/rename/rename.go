// Package rename computes rename edits for headers, reference names, external
// URLs, link fragments and linked file paths.
package rename

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/mdls/internal/document"
	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/links"
	"git.home.luguber.info/inful/mdls/internal/markdown"
	"git.home.luguber.info/inful/mdls/internal/references"
	"git.home.luguber.info/inful/mdls/internal/slugify"
	"git.home.luguber.info/inful/mdls/internal/textrange"
	"git.home.luguber.info/inful/mdls/internal/toc"
	"git.home.luguber.info/inful/mdls/internal/workspace"
	"git.home.luguber.info/inful/mdls/internal/wsedit"
)

// ErrRenameNotSupported is returned by PrepareRename when nothing renameable
// is under the position.
var ErrRenameNotSupported = mdlserrors.RenameError("Renaming is not supported here. Try renaming a header or link.").Build()

// PrepareResult is the span a rename would replace and its suggested text.
type PrepareResult struct {
	Range       textrange.Range
	Placeholder string
}

type referenceSet struct {
	key        string
	version    int32
	text       string
	position   textrange.Position
	references []references.Reference
	trigger    references.Reference
}

// Provider answers prepare-rename and rename requests.
type Provider struct {
	ws         workspace.Workspace
	refs       *references.Provider
	toc        *toc.Provider
	tokenizer  markdown.Tokenizer
	slugifier  slugify.Slugifier
	extensions workspace.Extensions

	mu   sync.Mutex
	last *referenceSet
}

// NewProvider creates a rename provider.
func NewProvider(linkProvider *links.Provider, refs *references.Provider, tocProvider *toc.Provider, tokenizer markdown.Tokenizer) *Provider {
	return &Provider{
		ws:         linkProvider.Workspace(),
		refs:       refs,
		toc:        tocProvider,
		tokenizer:  tokenizer,
		slugifier:  tocProvider.Slugifier(),
		extensions: linkProvider.Extensions(),
	}
}

// PrepareRename reports what a rename at pos would change.
func (p *Provider) PrepareRename(ctx context.Context, doc *document.Document, pos textrange.Position) (*PrepareResult, error) {
	set, err := p.allReferences(ctx, doc, pos)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, nil
	}
	if set == nil || len(set.references) == 0 {
		return nil, ErrRenameNotSupported
	}

	trigger := set.trigger
	if trigger.Kind == references.KindHeader {
		return &PrepareResult{Range: trigger.HeaderTextLocation.Range, Placeholder: trigger.Header.RawText}, nil
	}

	link := trigger.Link
	if link.Kind == links.KindDefinition && link.Ref.Range.Contains(pos) {
		return &PrepareResult{Range: link.Ref.Range, Placeholder: link.Ref.Text}, nil
	}
	if _, external := link.Href.(links.ExternalHref); external {
		return &PrepareResult{Range: link.Source.HrefRange, Placeholder: doc.TextIn(link.Source.HrefRange)}, nil
	}
	if fragment := link.Source.HrefFragmentRange; fragment != nil && fragment.Contains(pos) {
		placeholder := doc.TextIn(*fragment)
		if decl := findHeaderDeclaration(set.references); decl != nil {
			placeholder = decl.Header.RawText
		}
		return &PrepareResult{Range: *fragment, Placeholder: placeholder}, nil
	}

	pathRange := link.Source.HrefPathRange()
	return &PrepareResult{Range: pathRange, Placeholder: DecodePath(doc.TextIn(pathRange))}, nil
}

// ProvideRenameEdits computes the workspace edit renaming the entity at pos to newName.
func (p *Provider) ProvideRenameEdits(ctx context.Context, doc *document.Document, pos textrange.Position, newName string) (*wsedit.WorkspaceEdit, error) {
	set, err := p.allReferences(ctx, doc, pos)
	if err != nil || ctx.Err() != nil || set == nil || len(set.references) == 0 {
		return nil, err
	}

	trigger := set.trigger
	if trigger.Kind == references.KindHeader {
		return p.renameFragment(ctx, set, newName)
	}

	link := trigger.Link
	_, isReference := link.Href.(links.ReferenceHref)
	if isReference || (link.Kind == links.KindDefinition && link.Ref.Range.Contains(pos)) {
		return renameReferenceLinks(set, newName), nil
	}

	switch href := link.Href.(type) {
	case links.ExternalHref:
		return renameExternalLink(set, newName), nil
	case links.InternalHref:
		if fragment := link.Source.HrefFragmentRange; fragment != nil && fragment.Contains(pos) {
			return p.renameFragment(ctx, set, newName)
		}
		return p.renameFilePath(ctx, link.Source.Resource, href, set, newName)
	}
	return nil, nil
}

// allReferences returns the references at pos, reusing the previous result
// for the same document version and position.
func (p *Provider) allReferences(ctx context.Context, doc *document.Document, pos textrange.Position) (*referenceSet, error) {
	key := doc.URI().Key()
	p.mu.Lock()
	last := p.last
	p.mu.Unlock()
	if last != nil && last.key == key && last.version == doc.Version() && last.text == doc.Text() && last.position.IsEqual(pos) {
		return last, nil
	}

	refs, err := p.refs.GetReferencesAtPosition(ctx, doc, pos)
	if err != nil || ctx.Err() != nil {
		return nil, err
	}
	var trigger *references.Reference
	for i := range refs {
		if refs[i].IsTriggerLocation {
			trigger = &refs[i]
			break
		}
	}
	if trigger == nil {
		return nil, nil
	}

	set := &referenceSet{
		key:        key,
		version:    doc.Version(),
		text:       doc.Text(),
		position:   pos,
		references: refs,
		trigger:    *trigger,
	}
	p.mu.Lock()
	p.last = set
	p.mu.Unlock()
	return set, nil
}

func findHeaderDeclaration(refs []references.Reference) *references.Reference {
	for i := range refs {
		if refs[i].IsDefinition && refs[i].Kind == references.KindHeader {
			return &refs[i]
		}
	}
	return nil
}

func renameReferenceLinks(set *referenceSet, newName string) *wsedit.WorkspaceEdit {
	b := wsedit.NewBuilder()
	for _, ref := range set.references {
		if ref.Kind != references.KindLink {
			continue
		}
		if ref.Link.Kind == links.KindDefinition {
			b.Replace(ref.Link.Source.Resource, ref.Link.Ref.Range, newName)
			continue
		}
		b.Replace(ref.Link.Source.Resource, ref.Location.Range, newName)
	}
	return b.Build()
}

func renameExternalLink(set *referenceSet, newName string) *wsedit.WorkspaceEdit {
	b := wsedit.NewBuilder()
	for _, ref := range set.references {
		if ref.Kind == references.KindLink {
			b.Replace(ref.Link.Source.Resource, ref.Location.Range, newName)
		}
	}
	return b.Build()
}
