// Package selection computes nested selection ranges: for a cursor position,
// the chain of inline constructs, blocks and header sections around it.
package selection

import (
	"context"

	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/links"
	"git.home.luguber.info/inful/mdls/internal/markdown"
	"git.home.luguber.info/inful/mdls/internal/textrange"
	"git.home.luguber.info/inful/mdls/internal/toc"
)

// Range is one node of a selection chain. Parent is nil for the outermost
// range and always encloses Range.
type Range struct {
	Range  textrange.Range `json:"range"`
	Parent *Range          `json:"parent,omitempty"`
}

// Ranges flattens the chain from innermost to outermost.
func (r *Range) Ranges() []textrange.Range {
	var out []textrange.Range
	for n := r; n != nil; n = n.Parent {
		out = append(out, n.Range)
	}
	return out
}

// newRange links r under the nearest ancestor of parent that encloses it. A
// range equal to that ancestor is the ancestor.
func newRange(r textrange.Range, parent *Range) *Range {
	for parent != nil && !parent.Range.ContainsRange(r) {
		parent = parent.Parent
	}
	if parent != nil && parent.Range.Equal(r) {
		return parent
	}
	return &Range{Range: r, Parent: parent}
}

// Provider answers selection range requests.
type Provider struct {
	tokenizer markdown.Tokenizer
	toc       *toc.Provider
	links     *links.Provider
}

// NewProvider creates a selection range provider.
func NewProvider(tokenizer markdown.Tokenizer, tocProvider *toc.Provider, linkProvider *links.Provider) *Provider {
	return &Provider{tokenizer: tokenizer, toc: tocProvider, links: linkProvider}
}

// ProvideSelectionRanges returns one chain per position, innermost range
// first. Entries are nil for positions where nothing applies.
func (p *Provider) ProvideSelectionRanges(ctx context.Context, doc *document.Document, positions []textrange.Position) ([]*Range, error) {
	contents, err := p.toc.GetForDocument(ctx, doc)
	if err != nil || ctx.Err() != nil {
		return nil, err
	}
	tokens, err := p.tokenizer.Tokenize(ctx, doc)
	if err != nil || ctx.Err() != nil {
		return nil, err
	}
	docLinks, err := p.links.GetLinks(ctx, doc)
	if err != nil || ctx.Err() != nil {
		return nil, err
	}

	out := make([]*Range, len(positions))
	for i, pos := range positions {
		out[i] = selectionAt(doc, contents, tokens, docLinks.Links, pos)
	}
	return out, nil
}

func selectionAt(doc *document.Document, contents *toc.TableOfContents, tokens []markdown.Token, docLinks []links.Link, pos textrange.Position) *Range {
	if pos.Line < 0 || pos.Line >= doc.LineCount() {
		return nil
	}
	header := headerRange(doc, contents.Entries, pos)
	block := blockRange(doc, tokens, pos, header)
	if inCode(tokens, pos.Line) {
		return firstNonNil(block, header)
	}
	if inline := inlineRange(doc, docLinks, pos, firstNonNil(block, header)); inline != nil {
		return inline
	}
	return firstNonNil(block, header)
}

// inCode reports whether line holds literal text without inline markup.
func inCode(tokens []markdown.Token, line int) bool {
	for _, tok := range tokens {
		switch tok.Type {
		case markdown.TokenFence, markdown.TokenCodeBlock, markdown.TokenFrontMatter:
			if tok.StartLine() <= line && line < tok.EndLine() {
				return true
			}
		}
	}
	return false
}

func firstNonNil(ranges ...*Range) *Range {
	for _, r := range ranges {
		if r != nil {
			return r
		}
	}
	return nil
}
