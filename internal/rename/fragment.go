package rename

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/links"
	"git.home.luguber.info/inful/mdls/internal/logfields"
	"git.home.luguber.info/inful/mdls/internal/references"
	"git.home.luguber.info/inful/mdls/internal/toc"
	"git.home.luguber.info/inful/mdls/internal/wsedit"
)

// slugChange is a header whose slug changes as a side effect of a rename.
type slugChange struct {
	doc      *document.Document
	old      toc.Entry
	newValue string
}

// renameFragment renames a header and every link fragment naming it. Other
// headers of the same document whose duplicate-numbered slugs shift because
// of the rename have their links updated too.
func (p *Provider) renameFragment(ctx context.Context, set *referenceSet, newName string) (*wsedit.WorkspaceEdit, error) {
	slug := p.slugifier.FromHeading(newName).Value()

	var changes []slugChange
	if decl := findHeaderDeclaration(set.references); decl != nil {
		newSlug, shifted, err := p.slugShifts(ctx, decl, newName)
		if err != nil {
			return nil, err
		}
		if newSlug != "" {
			slug = newSlug
		}
		changes = shifted
	}
	if ctx.Err() != nil {
		return nil, nil
	}

	b := wsedit.NewBuilder()
	for _, ref := range set.references {
		switch ref.Kind {
		case references.KindHeader:
			b.Replace(ref.Location.URI, ref.HeaderTextLocation.Range, newName)
		case references.KindLink:
			b.Replace(ref.Link.Source.Resource, ref.Location.Range, linkFragmentText(ref.Link, newName, slug))
		}
	}

	for _, change := range changes {
		refs, err := p.refs.ReferencesToHeader(ctx, change.doc, change.old)
		if err != nil || ctx.Err() != nil {
			return nil, err
		}
		for _, ref := range refs {
			if ref.Kind == references.KindLink {
				b.Replace(ref.Link.Source.Resource, ref.Location.Range, change.newValue)
			}
		}
	}
	return b.Build(), nil
}

// linkFragmentText is what a header rename writes into a link: the slug for
// fragments, the plain header text for external links and links without one.
func linkFragmentText(link *links.Link, newName, slug string) string {
	if _, external := link.Href.(links.ExternalHref); external || link.Source.HrefFragmentRange == nil {
		return newName
	}
	return slug
}

// slugShifts renames the declaring header in a copy of its document and
// compares the tables of contents entry by entry. It returns the renamed
// header's new slug and every other header whose slug changed.
func (p *Provider) slugShifts(ctx context.Context, decl *references.Reference, newName string) (string, []slugChange, error) {
	doc, err := p.ws.OpenMarkdownDocument(ctx, decl.Location.URI)
	if err != nil || doc == nil || ctx.Err() != nil {
		return "", nil, err
	}
	before, err := p.toc.GetForDocument(ctx, doc)
	if err != nil || ctx.Err() != nil {
		return "", nil, err
	}

	edited, err := wsedit.Apply(doc, []wsedit.TextEdit{{Range: decl.HeaderTextLocation.Range, NewText: newName}})
	if err != nil {
		return "", nil, err
	}
	// A negative version keeps the copy out of the per-document caches.
	hypothetical := document.New(doc.URI(), -1, edited)
	after, err := toc.Create(ctx, p.tokenizer, p.slugifier, hypothetical)
	if err != nil || ctx.Err() != nil {
		return "", nil, err
	}
	if len(after.Entries) != len(before.Entries) {
		slog.Debug("Header rename changes document structure; skipping slug shift detection",
			logfields.URI(doc.URI().String()))
		return "", nil, nil
	}

	var newSlug string
	var changes []slugChange
	for i, old := range before.Entries {
		next := after.Entries[i]
		if old.Line == decl.Header.Line {
			newSlug = next.Slug.Value()
			continue
		}
		if !old.Slug.Equals(next.Slug) {
			changes = append(changes, slugChange{doc: doc, old: old, newValue: next.Slug.Value()})
		}
	}
	return newSlug, changes, nil
}
