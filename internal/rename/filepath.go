package rename

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/mdls/internal/docuri"
	"git.home.luguber.info/inful/mdls/internal/links"
	"git.home.luguber.info/inful/mdls/internal/references"
	"git.home.luguber.info/inful/mdls/internal/workspace"
	"git.home.luguber.info/inful/mdls/internal/wsedit"
)

// renameFilePath moves the linked file and rewrites every link to it.
func (p *Provider) renameFilePath(ctx context.Context, triggerDoc docuri.URI, href links.InternalHref, set *referenceSet, newName string) (*wsedit.WorkspaceEdit, error) {
	b := wsedit.NewBuilder()

	target, found, err := links.StatLinkToMarkdownFile(ctx, p.ws, p.extensions, href.Path)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return b.Build(), nil
	}

	rawNew, _, ok := links.ResolveInternalLink(triggerDoc, newName, p.ws)
	if !ok {
		return b.Build(), nil
	}
	rawNew = rawNew.WithFragment("")

	original := href.Path
	isDir := false
	if found {
		original = target
		stat, err := p.ws.Stat(ctx, target)
		if err != nil {
			return nil, err
		}
		isDir = stat != nil && stat.IsDirectory
	}

	// The new name inherits the Markdown extension only when the old file
	// carried one.
	newFile := rawNew
	if newFile.Ext() == "" && original.Ext() != "" && !isDir {
		newFile = newFile.WithPath(newFile.Path() + "." + p.extensions.Default())
	}

	if found {
		b.RenameFile(target, newFile)
	}

	preferDotSlash := strings.HasPrefix(newName, "./") || strings.HasPrefix(newName, `.\`)
	for _, ref := range set.references {
		if ref.Kind != references.KindLink {
			continue
		}
		text, ok := LinkRenameText(p.ws, ref.Link.Source, rawNew, preferDotSlash)
		if !ok {
			text = newName
		}
		ReplaceLinkPath(b, ref.Link, strings.ReplaceAll(text, `\`, "/"))
	}
	return b.Build(), nil
}

// LinkRenameText expresses newPath the way source writes its links: root
// relative when the link starts with '/', otherwise relative to the linking
// document.
func LinkRenameText(ws workspace.Workspace, source links.Source, newPath docuri.URI, preferDotSlash bool) (string, bool) {
	if strings.HasPrefix(source.HrefText, "/") {
		root, ok := workspace.WorkspaceFolderFor(ws, source.Resource)
		if !ok {
			return "", false
		}
		return "/" + docuri.RelativePath(root, newPath), true
	}

	dir := source.Resource.Dir()
	if dir.Scheme() != newPath.Scheme() || dir.Scheme() == "untitled" {
		return "", false
	}
	rel := docuri.RelativePath(dir, newPath)
	if preferDotSlash && !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel, true
}

// ReplaceLinkPath records an edit replacing the path part of link's
// destination. Angle-bracket links take the path verbatim; other links get it
// URI-encoded and are wrapped in angle brackets when the result would not
// parse as a bare destination.
func ReplaceLinkPath(b *wsedit.Builder, link *links.Link, newPath string) {
	src := link.Source
	if src.IsAngleBracketLink {
		b.Replace(src.Resource, src.HrefPathRange(), newPath)
		return
	}

	encoded := EncodeURI(newPath)
	if !NeedsAngleBrackets(encoded) {
		b.Replace(src.Resource, src.HrefPathRange(), encoded)
		return
	}
	text := newPath
	if i := strings.IndexByte(src.HrefText, '#'); i >= 0 {
		text += src.HrefText[i:]
	}
	b.Replace(src.Resource, src.TargetRange, "<"+text+">")
}

// NeedsAngleBrackets reports whether a link destination must be written as
// <destination>: it contains whitespace or control characters, or its
// parentheses are unbalanced.
func NeedsAngleBrackets(dest string) bool {
	if strings.HasPrefix(dest, "<") {
		return true
	}
	for _, r := range dest {
		if r <= 0x20 || r == 0x7f {
			return true
		}
	}
	if !strings.ContainsAny(dest, "()") {
		return false
	}
	depth := 0
	var prev rune
	for _, r := range dest {
		switch {
		case r == '(' && prev != '\\':
			depth++
		case r == ')' && prev != '\\':
			depth--
		}
		if depth < 0 {
			return true
		}
		prev = r
	}
	return depth > 0
}

// EncodeURI percent-encodes everything except the characters a URI may carry
// literally.
func EncodeURI(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isURIChar(c) {
			sb.WriteByte(c)
			continue
		}
		fmt.Fprintf(&sb, "%%%02X", c)
	}
	return sb.String()
}

func isURIChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte(";,/?:@&=+$-_.!~*'()#", c) >= 0
}

// DecodePath percent-decodes a link path for display.
func DecodePath(text string) string {
	decoded, err := url.PathUnescape(text)
	if err != nil {
		return text
	}
	return decoded
}
