package links

import (
	"context"

	"git.home.luguber.info/inful/mdls/internal/docuri"
	"git.home.luguber.info/inful/mdls/internal/workspace"
)

// TryAppendMarkdownExtension returns uri with the default Markdown extension
// appended when its path has no extension. Markdown paths are returned as is.
func TryAppendMarkdownExtension(uri docuri.URI, exts workspace.Extensions) (docuri.URI, bool) {
	if exts.IsMarkdown(uri) {
		return uri, true
	}
	if uri.Ext() != "" {
		return docuri.URI{}, false
	}
	return uri.WithPath(uri.Path() + "." + exts.Default()), true
}

// StatLinkToMarkdownFile returns the existing resource a link path points at,
// trying the default Markdown extension when the path itself is missing.
func StatLinkToMarkdownFile(ctx context.Context, ws workspace.Workspace, exts workspace.Extensions, uri docuri.URI) (docuri.URI, bool, error) {
	stat, err := ws.Stat(ctx, uri)
	if err != nil {
		return docuri.URI{}, false, err
	}
	if stat != nil {
		return uri, true, nil
	}
	withExt, ok := TryAppendMarkdownExtension(uri, exts)
	if !ok || withExt.Equal(uri) {
		return docuri.URI{}, false, nil
	}
	stat, err = ws.Stat(ctx, withExt)
	if err != nil || stat == nil {
		return docuri.URI{}, false, err
	}
	return withExt, true, nil
}

// LooksLikeLinkToResource reports whether href names target, either exactly
// or with a Markdown extension left off.
func LooksLikeLinkToResource(href InternalHref, target docuri.URI, exts workspace.Extensions) bool {
	if href.Path.Equal(target) {
		return true
	}
	if len(exts) == 0 {
		exts = workspace.DefaultExtensions
	}
	for _, ext := range exts {
		if href.Path.WithPath(href.Path.Path() + "." + ext).Equal(target) {
			return true
		}
	}
	return false
}
