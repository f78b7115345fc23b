// Package filerename rewrites the links affected by moving files and
// directories in the workspace.
//
// Edits are expressed against the workspace as it is before the move: they
// address documents by their old URIs and are meant to be applied before the
// files are renamed.
package filerename

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"git.home.luguber.info/inful/mdls/internal/docuri"
	"git.home.luguber.info/inful/mdls/internal/links"
	"git.home.luguber.info/inful/mdls/internal/logfields"
	"git.home.luguber.info/inful/mdls/internal/rename"
	"git.home.luguber.info/inful/mdls/internal/workspace"
	"git.home.luguber.info/inful/mdls/internal/wsedit"
)

// Result is the edit for a batch of renames together with the renames that
// contributed to it.
type Result struct {
	Edit                 *wsedit.WorkspaceEdit
	ParticipatingRenames []FileRename
}

// Provider computes link updates for file renames.
type Provider struct {
	ws         workspace.Workspace
	links      *links.Provider
	extensions workspace.Extensions
}

// NewProvider creates a file-rename provider.
func NewProvider(linkProvider *links.Provider) *Provider {
	return &Provider{
		ws:         linkProvider.Workspace(),
		links:      linkProvider,
		extensions: linkProvider.Extensions(),
	}
}

// GetRenameFilesInWorkspaceEdit computes the edits that keep links working
// after every rename in the batch has been carried out.
//
// A link is rewritten when its target moves, or when the document holding it
// moves and the link is relative. Renames in the same batch chain: a link
// between two moved files points at the target's new location from the
// source's new location. Fragment-only links never change and root-relative
// links only change when their target moves.
func (p *Provider) GetRenameFilesInWorkspaceEdit(ctx context.Context, renames []FileRename) (*Result, error) {
	batch, err := newRenameSet(renames)
	if err != nil {
		return nil, err
	}

	empty := &Result{Edit: wsedit.NewBuilder().Build()}
	if len(batch.renames) == 0 {
		return empty, nil
	}
	all, err := p.links.WorkspaceLinks(ctx)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return empty, nil
	}

	b := wsedit.NewBuilder()
	participating := make([]bool, len(batch.renames))
	for _, docLinks := range all {
		newSource, sourceRename, sourceMoved := batch.move(docLinks.URI)
		for i := range docLinks.Links {
			link := &docLinks.Links[i]
			href, ok := link.Href.(links.InternalHref)
			if !ok || strings.HasPrefix(link.Source.HrefText, "#") {
				continue
			}

			newTarget, targetRename, targetMoved := batch.moveLinkTarget(href, p.extensions)
			if !targetMoved && (!sourceMoved || strings.HasPrefix(link.Source.PathText, "/")) {
				continue
			}

			text, ok := p.newLinkText(link, newSource, newTarget)
			if !ok || text == rename.DecodePath(link.Source.PathText) {
				continue
			}
			rename.ReplaceLinkPath(b, link, text)
			if targetMoved {
				participating[targetRename] = true
			} else {
				participating[sourceRename] = true
			}
		}
	}

	result := &Result{Edit: b.Build()}
	for i, r := range batch.renames {
		if participating[i] {
			result.ParticipatingRenames = append(result.ParticipatingRenames, r)
		}
	}
	slog.Debug("Computed link updates for file renames",
		logfields.Count(len(batch.renames)),
		slog.Int("participating", len(result.ParticipatingRenames)),
		slog.Int("documents", len(result.Edit.Documents)))
	return result, nil
}

// newLinkText expresses newTarget as seen from newSource, keeping the link's
// style: root-relative or relative, a leading "./" and whether the Markdown
// extension is written out.
func (p *Provider) newLinkText(link *links.Link, newSource, newTarget docuri.URI) (string, bool) {
	if path.Ext(link.Source.PathText) == "" && p.extensions.IsMarkdown(newTarget) {
		newTarget = newTarget.WithPath(strings.TrimSuffix(newTarget.Path(), newTarget.Ext()))
	}
	source := link.Source
	source.Resource = newSource
	return rename.LinkRenameText(p.ws, source, newTarget, strings.HasPrefix(link.Source.PathText, "./"))
}
