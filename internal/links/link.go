// Package links extracts link-like constructs from Markdown documents and
// resolves them to navigable targets.
package links

import (
	"git.home.luguber.info/inful/mdls/internal/docuri"
	"git.home.luguber.info/inful/mdls/internal/textrange"
)

// Kind classifies a link construct.
type Kind int

const (
	// KindLink covers inline links, reference links and HTML attribute links.
	KindLink Kind = iota + 1
	// KindAutoLink is an angle-bracketed URI such as <https://example.com>.
	KindAutoLink
	// KindDefinition is a reference definition such as [ref]: ./target.md.
	KindDefinition
)

func (k Kind) String() string {
	switch k {
	case KindLink:
		return "link"
	case KindAutoLink:
		return "autolink"
	case KindDefinition:
		return "definition"
	default:
		return "unknown"
	}
}

// Href is the destination of a link: ExternalHref, InternalHref or ReferenceHref.
type Href interface {
	isHref()
}

// ExternalHref points outside the workspace.
type ExternalHref struct {
	URI docuri.URI
}

// InternalHref points at a workspace resource with an optional fragment.
type InternalHref struct {
	Path     docuri.URI
	Fragment string
}

// ReferenceHref names a reference definition.
type ReferenceHref struct {
	Ref string
}

func (ExternalHref) isHref()  {}
func (InternalHref) isHref()  {}
func (ReferenceHref) isHref() {}

// Source locates a link in its document.
//
// Range encloses TargetRange, which encloses HrefRange, which encloses
// HrefFragmentRange when present.
type Source struct {
	Resource docuri.URI
	// HrefText is the raw destination text without angle brackets.
	HrefText string
	// PathText is HrefText up to the first '#'.
	PathText string
	// Range spans the whole construct.
	Range textrange.Range
	// TargetRange spans the destination including any angle brackets.
	TargetRange textrange.Range
	// HrefRange spans the destination text.
	HrefRange textrange.Range
	// HrefFragmentRange spans the text after '#' in the destination.
	HrefFragmentRange *textrange.Range
	// TitleRange spans the link title including its delimiters.
	TitleRange *textrange.Range
	// IsAngleBracketLink reports a <destination> form.
	IsAngleBracketLink bool
}

// HrefPathRange returns the part of HrefRange before the fragment marker.
func (s Source) HrefPathRange() textrange.Range {
	if s.HrefFragmentRange == nil {
		return s.HrefRange
	}
	return textrange.Range{Start: s.HrefRange.Start, End: s.HrefFragmentRange.Start.Translate(0, -1)}
}

// Ref is the label of a reference definition.
type Ref struct {
	Text  string
	Range textrange.Range
}

// Link is one link construct found in a document. Links are immutable.
type Link struct {
	Kind   Kind
	Href   Href
	Source Source
	// Ref is set for definitions only.
	Ref *Ref
}
