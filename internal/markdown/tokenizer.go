package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/mdls/internal/doccache"
	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/frontmatter"
	"git.home.luguber.info/inful/mdls/internal/metrics"
)

// GoldmarkTokenizer tokenizes documents with goldmark and caches the latest
// token stream per document version.
type GoldmarkTokenizer struct {
	md    goldmark.Markdown
	cache *doccache.VersionCache[[]Token]
}

// NewTokenizer creates a tokenizer with GFM tables, strikethrough and task lists enabled.
func NewTokenizer(recorder metrics.Recorder) *GoldmarkTokenizer {
	t := &GoldmarkTokenizer{
		md: goldmark.New(goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		)),
	}
	t.cache = doccache.New("tokens", t.tokenize, recorder)
	return t
}

// Tokenize returns the block tokens of doc. A canceled context yields no tokens.
func (t *GoldmarkTokenizer) Tokenize(ctx context.Context, doc *document.Document) ([]Token, error) {
	if ctx.Err() != nil {
		return nil, nil
	}
	return t.cache.Get(ctx, doc)
}

func (t *GoldmarkTokenizer) tokenize(ctx context.Context, doc *document.Document) ([]Token, error) {
	content := []byte(doc.Text())

	b := &tokenBuilder{doc: doc}
	if block, had, err := frontmatter.Locate(content); err == nil && had {
		b.tokens = append(b.tokens, Token{
			Type:    TokenFrontMatter,
			Map:     [2]int{0, block.EndLine + 1},
			Markup:  "---",
			Content: string(block.Raw),
		})
		b.base = block.BodyOffset
		b.floor = block.EndLine + 1
	}

	b.src = content[b.base:]
	root := t.md.Parser().Parse(text.NewReader(b.src))
	if ctx.Err() != nil {
		return nil, nil
	}

	for child := root.FirstChild(); child != nil; child = child.NextSibling() {
		b.visit(child, 0)
	}
	return b.tokens, nil
}

type tokenBuilder struct {
	doc    *document.Document
	src    []byte
	base   int
	floor  int
	tokens []Token
}

// lineSpan accumulates the inclusive first and last line of a node.
type lineSpan struct {
	start, end int
	ok         bool
}

func (s *lineSpan) add(line int) {
	if !s.ok {
		s.start, s.end, s.ok = line, line, true
		return
	}
	if line < s.start {
		s.start = line
	}
	if line > s.end {
		s.end = line
	}
}

func (s *lineSpan) merge(other lineSpan) {
	if other.ok {
		s.add(other.start)
		s.add(other.end)
	}
}

func (b *tokenBuilder) lineOf(offset int) int {
	return b.doc.PositionAt(b.base + offset).Line
}

func (b *tokenBuilder) visit(n gmast.Node, depth int) lineSpan {
	tok, emit := b.tokenFor(n)
	idx := -1
	childDepth := depth
	if emit {
		tok.Depth = depth
		b.tokens = append(b.tokens, tok)
		idx = len(b.tokens) - 1
		childDepth = depth + 1
	}

	span := b.ownSpan(n)
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() == gmast.TypeBlock {
			span.merge(b.visit(c, childDepth))
		} else {
			span.merge(b.inlineSpan(c))
		}
	}
	if !span.ok {
		span = b.scanFallback(n)
	}
	if !span.ok {
		if idx >= 0 {
			b.tokens = append(b.tokens[:idx], b.tokens[idx+1:]...)
		}
		return span
	}

	span = b.extendSpan(n, span)
	if span.end+1 > b.floor {
		b.floor = span.end + 1
	}
	if idx >= 0 {
		b.tokens[idx].Map = [2]int{span.start, span.end + 1}
		b.finishToken(&b.tokens[idx], n, span)
	}
	return span
}

func (b *tokenBuilder) tokenFor(n gmast.Node) (Token, bool) {
	switch node := n.(type) {
	case *gmast.Heading:
		return Token{Type: TokenHeadingOpen, Level: node.Level, Markup: strings.Repeat("#", node.Level)}, true
	case *gmast.Paragraph, *gmast.TextBlock:
		return Token{Type: TokenParagraphOpen}, true
	case *gmast.FencedCodeBlock:
		info := ""
		if node.Info != nil {
			info = string(node.Info.Segment.Value(b.src))
		}
		return Token{Type: TokenFence, Content: info}, true
	case *gmast.CodeBlock:
		return Token{Type: TokenCodeBlock}, true
	case *gmast.HTMLBlock:
		return Token{Type: TokenHTMLBlock}, true
	case *gmast.Blockquote:
		return Token{Type: TokenBlockquoteOpen, Markup: ">"}, true
	case *gmast.List:
		if node.IsOrdered() {
			return Token{Type: TokenOrderedListOpen, Markup: string(node.Marker)}, true
		}
		return Token{Type: TokenBulletListOpen, Markup: string(node.Marker)}, true
	case *gmast.ListItem:
		marker := ""
		if list, ok := node.Parent().(*gmast.List); ok {
			marker = string(list.Marker)
		}
		return Token{Type: TokenListItemOpen, Markup: marker}, true
	case *gmast.ThematicBreak:
		return Token{Type: TokenHR}, true
	case *east.Table:
		return Token{Type: TokenTableOpen}, true
	default:
		return Token{}, false
	}
}

// ownSpan returns the lines of a node's own segments.
func (b *tokenBuilder) ownSpan(n gmast.Node) lineSpan {
	var span lineSpan
	if n.Type() != gmast.TypeBlock {
		return span
	}
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		span.add(b.lineOf(lines.At(i).Start))
	}
	switch node := n.(type) {
	case *gmast.FencedCodeBlock:
		if node.Info != nil {
			span.add(b.lineOf(node.Info.Segment.Start))
		} else if span.ok {
			span.add(span.start - 1)
		}
	case *gmast.HTMLBlock:
		if node.HasClosure() {
			span.add(b.lineOf(node.ClosureLine.Start))
		}
	}
	return span
}

func (b *tokenBuilder) inlineSpan(n gmast.Node) lineSpan {
	var span lineSpan
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := c.(type) {
		case *gmast.Text:
			span.add(b.lineOf(node.Segment.Start))
		case *gmast.RawHTML:
			for i := 0; i < node.Segments.Len(); i++ {
				span.add(b.lineOf(node.Segments.At(i).Start))
			}
		}
		return gmast.WalkContinue, nil
	})
	return span
}

var (
	containerPrefix = `^(?:[ \t]*(?:>|[-*+]|\d{1,9}[.)])?)*?[ \t]*`
	fenceOpenRe     = regexp.MustCompile(containerPrefix + "(`{3,}|~{3,})")
	atxHeadingRe    = regexp.MustCompile(containerPrefix + `#{1,6}(?:[ \t]|$)`)
	hrRe            = regexp.MustCompile(containerPrefix + `(?:(?:\*[ \t]*){3,}|(?:-[ \t]*){3,}|(?:_[ \t]*){3,})$`)
	listMarkerRe    = regexp.MustCompile(`^[ \t>]*(?:[-*+]|\d{1,9}[.)])(?:[ \t]|$)`)
	setextRe        = regexp.MustCompile(`^[ \t>]*(?:=+|-+)[ \t]*$`)
)

// scanFallback locates nodes that carry no segments, such as thematic breaks,
// empty fences and empty headings, by scanning forward from the last claimed line.
func (b *tokenBuilder) scanFallback(n gmast.Node) lineSpan {
	var re *regexp.Regexp
	switch n.(type) {
	case *gmast.FencedCodeBlock:
		re = fenceOpenRe
	case *gmast.Heading:
		re = atxHeadingRe
	case *gmast.ThematicBreak:
		re = hrRe
	case *gmast.ListItem, *gmast.List:
		re = listMarkerRe
	default:
		return lineSpan{}
	}
	for line := b.floor; line < b.doc.LineCount(); line++ {
		if re.MatchString(b.doc.Line(line)) {
			var span lineSpan
			span.add(line)
			return span
		}
	}
	return lineSpan{}
}

// extendSpan adds delimiter lines that goldmark does not record as segments.
func (b *tokenBuilder) extendSpan(n gmast.Node, span lineSpan) lineSpan {
	switch n.(type) {
	case *gmast.FencedCodeBlock:
		open := fenceOpenRe.FindStringSubmatch(b.doc.Line(span.start))
		if open == nil {
			return span
		}
		fence := open[1]
		closing := span.end + 1
		if closing < b.doc.LineCount() && isClosingFence(b.doc.Line(closing), fence) {
			span.add(closing)
		}
	case *gmast.Heading:
		next := span.end + 1
		if !atxHeadingRe.MatchString(b.doc.Line(span.start)) && next < b.doc.LineCount() && setextRe.MatchString(b.doc.Line(next)) {
			span.add(next)
		}
	case *east.Table:
		// The delimiter row has no inline content.
		if span.end == span.start {
			span.add(span.start + 1)
		}
	}
	return span
}

func isClosingFence(line, fence string) bool {
	m := fenceOpenRe.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	run := m[1]
	if run[0] != fence[0] || len(run) < len(fence) {
		return false
	}
	idx := strings.Index(line, run)
	return strings.TrimSpace(line[idx+len(run):]) == ""
}

func (b *tokenBuilder) finishToken(tok *Token, n gmast.Node, span lineSpan) {
	switch node := n.(type) {
	case *gmast.Heading:
		tok.Content = PlainText(node, b.src)
		if span.end > span.start {
			// Setext underline.
			underline := strings.TrimSpace(strings.TrimLeft(b.doc.Line(span.end), " \t>"))
			tok.Markup = underline[:1]
		}
	case *gmast.FencedCodeBlock:
		if m := fenceOpenRe.FindStringSubmatch(b.doc.Line(span.start)); m != nil {
			tok.Markup = m[1]
		}
	case *gmast.CodeBlock, *gmast.HTMLBlock:
		var sb strings.Builder
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			sb.Write(seg.Value(b.src))
		}
		tok.Content = sb.String()
	}
}

// PlainText renders the inline children of a node as unformatted text.
func PlainText(n gmast.Node, src []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering || c == n {
			return gmast.WalkContinue, nil
		}
		switch node := c.(type) {
		case *gmast.Text:
			sb.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *gmast.String:
			sb.Write(node.Value)
		case *gmast.AutoLink:
			sb.Write(node.Label(src))
			return gmast.WalkSkipChildren, nil
		case *gmast.RawHTML:
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
