package workspace

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/docuri"
)

// FileStat describes an existing resource.
type FileStat struct {
	IsDirectory bool
}

// ContainingDocument is a document that embeds other documents, such as a notebook and its cells.
type ContainingDocument struct {
	URI      docuri.URI
	Children []docuri.URI
}

// Workspace is the view of the outside world the language features consume.
//
// Missing resources are reported as nil results with a nil error.
type Workspace interface {
	// WorkspaceFolders returns the root folders, outermost first.
	WorkspaceFolders() []docuri.URI
	// Stat reports whether a resource exists and whether it is a directory.
	Stat(ctx context.Context, uri docuri.URI) (*FileStat, error)
	// OpenMarkdownDocument returns the current snapshot of a Markdown document.
	OpenMarkdownDocument(ctx context.Context, uri docuri.URI) (*document.Document, error)
	// GetContainingDocument returns the document that embeds uri, if any.
	GetContainingDocument(uri docuri.URI) (*ContainingDocument, bool)
	// AllMarkdownDocuments lists every Markdown document in the workspace.
	AllMarkdownDocuments(ctx context.Context) ([]*document.Document, error)
}

// Extensions lists the file extensions treated as Markdown, without the leading dot.
type Extensions []string

// DefaultExtensions are used when no configuration is supplied.
var DefaultExtensions = Extensions{"md", "markdown"}

// Default returns the extension appended to extensionless link targets.
func (e Extensions) Default() string {
	if len(e) == 0 {
		return DefaultExtensions[0]
	}
	return e[0]
}

// IsMarkdown reports whether the URI's path carries a Markdown extension.
func (e Extensions) IsMarkdown(uri docuri.URI) bool {
	return e.IsMarkdownPath(uri.Path())
}

// IsMarkdownPath reports whether a path carries a Markdown extension.
func (e Extensions) IsMarkdownPath(p string) bool {
	exts := e
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	lower := strings.ToLower(p)
	for _, ext := range exts {
		if strings.HasSuffix(lower, "."+strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// WorkspaceFolderFor returns the innermost workspace folder containing uri.
func WorkspaceFolderFor(ws Workspace, uri docuri.URI) (docuri.URI, bool) {
	var best docuri.URI
	found := false
	for _, folder := range ws.WorkspaceFolders() {
		if folder.IsEqualOrParentOf(uri) && (!found || best.IsParentOf(folder)) {
			best = folder
			found = true
		}
	}
	if !found && len(ws.WorkspaceFolders()) > 0 {
		return ws.WorkspaceFolders()[0], true
	}
	return best, found
}
