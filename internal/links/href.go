package links

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/mdls/internal/docuri"
	"git.home.luguber.info/inful/mdls/internal/logfields"
	"git.home.luguber.info/inful/mdls/internal/workspace"
)

var schemeRe = regexp.MustCompile(`(?i)^[a-z\-][a-z\-]+:`)

// LooksLikeExternal reports whether text starts with a URI scheme.
func LooksLikeExternal(text string) bool {
	return schemeRe.MatchString(text)
}

// CreateHref classifies link text as external or internal. Internal paths are
// resolved against the source document without touching the filesystem. The
// second result is false when the text cannot be turned into an href.
func CreateHref(source docuri.URI, link string, ws workspace.Workspace) (Href, bool) {
	link = stripAngleBrackets(link)
	if LooksLikeExternal(link) {
		u, err := docuri.Parse(link)
		if err != nil {
			slog.Debug("Dropping malformed link", logfields.URI(source.String()), logfields.Href(link), logfields.Error(err))
			return nil, false
		}
		return ExternalHref{URI: u}, true
	}

	resource, fragment, ok := ResolveInternalLink(source, link, ws)
	if !ok {
		return nil, false
	}
	// Embedded documents are addressed by fragment and keep it.
	if _, embedded := ws.GetContainingDocument(resource); !embedded {
		resource = resource.WithFragment("")
	}
	return InternalHref{Path: resource, Fragment: fragment}, true
}

// ResolveInternalLink resolves a document-relative, root-relative or
// fragment-only link to a workspace resource and the decoded fragment.
func ResolveInternalLink(source docuri.URI, link string, ws workspace.Workspace) (docuri.URI, string, bool) {
	pathPart, fragment, _ := strings.Cut(link, "#")
	pathPart, _, _ = strings.Cut(pathPart, "?")
	pathPart = tryDecode(pathPart)
	fragment = tryDecode(fragment)

	base := source
	if container, ok := ws.GetContainingDocument(source); ok {
		base = container.URI
	}

	switch {
	case pathPart == "":
		return source, fragment, true
	case strings.HasPrefix(pathPart, "/"):
		root, ok := workspace.WorkspaceFolderFor(ws, base)
		if !ok {
			return docuri.URI{}, "", false
		}
		return root.Join(pathPart), fragment, true
	case base.Scheme() == "untitled":
		root, ok := workspace.WorkspaceFolderFor(ws, base)
		if !ok {
			return docuri.URI{}, "", false
		}
		return root.Join(pathPart), fragment, true
	default:
		return base.WithFragment("").Dir().Join(pathPart), fragment, true
	}
}

// tryDecode percent-decodes text, keeping it verbatim when it is not valid encoding.
func tryDecode(text string) string {
	if !strings.Contains(text, "%") {
		return text
	}
	decoded, err := url.PathUnescape(text)
	if err != nil {
		return text
	}
	return decoded
}

func stripAngleBrackets(link string) string {
	trimmed := strings.TrimSpace(link)
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, "<") && strings.HasSuffix(trimmed, ">") {
		return trimmed[1 : len(trimmed)-1]
	}
	return link
}
