package links

import (
	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/markdown"
	"git.home.luguber.info/inful/mdls/internal/textrange"
)

type blockSpan struct {
	typ        markdown.TokenType
	start, end int
}

// NoLinkRanges indexes the regions where link syntax must not be recognised:
// code blocks, fences, HTML blocks, front matter and inline code spans.
type NoLinkRanges struct {
	blocks []blockSpan
	// inline maps a line number to the half-open spans touching it.
	inline map[int][]textrange.Range
	// codeSpans are the byte spans of inline code.
	codeSpans [][2]int
}

// ComputeNoLinkRanges builds the index for doc from its block tokens.
func ComputeNoLinkRanges(tokens []markdown.Token, doc *document.Document) *NoLinkRanges {
	nl := &NoLinkRanges{inline: map[int][]textrange.Range{}}
	for _, tok := range tokens {
		switch tok.Type {
		case markdown.TokenCodeBlock, markdown.TokenFence, markdown.TokenHTMLBlock, markdown.TokenFrontMatter:
			nl.blocks = append(nl.blocks, blockSpan{typ: tok.Type, start: tok.StartLine(), end: tok.EndLine()})
		}
	}
	nl.codeSpans = findCodeSpans(doc, nl.inCode)
	for _, span := range nl.codeSpans {
		nl.addInline(doc.RangeAt(span[0], span[1]))
	}
	return nl
}

// Contains reports whether pos lies in a no-link region. Blocks of type
// excludeType are ignored.
func (nl *NoLinkRanges) Contains(pos textrange.Position, excludeType markdown.TokenType) bool {
	for _, b := range nl.blocks {
		if b.typ != excludeType && pos.Line >= b.start && pos.Line < b.end {
			return true
		}
	}
	for _, r := range nl.inline[pos.Line] {
		if r.Start.IsBeforeOrEqual(pos) && pos.IsBefore(r.End) {
			return true
		}
	}
	return false
}

// ConcatInline returns a copy extended with additional inline spans. The
// receiver is left untouched.
func (nl *NoLinkRanges) ConcatInline(ranges []textrange.Range) *NoLinkRanges {
	next := &NoLinkRanges{blocks: nl.blocks, codeSpans: nl.codeSpans, inline: make(map[int][]textrange.Range, len(nl.inline))}
	for line, rs := range nl.inline {
		next.inline[line] = append([]textrange.Range(nil), rs...)
	}
	for _, r := range ranges {
		next.addInline(r)
	}
	return next
}

// MaskCode returns doc's text with code blocks, fences, front matter and
// inline code overwritten by spaces. Line breaks and byte offsets are kept.
func (nl *NoLinkRanges) MaskCode(doc *document.Document) string {
	buf := []byte(doc.Text())
	blank := func(from, to int) {
		for i := from; i < to && i < len(buf); i++ {
			if buf[i] != '\n' && buf[i] != '\r' {
				buf[i] = ' '
			}
		}
	}
	for _, b := range nl.blocks {
		if b.typ == markdown.TokenHTMLBlock {
			continue
		}
		blank(doc.OffsetAt(textrange.Pos(b.start, 0)), doc.OffsetAt(textrange.Pos(b.end, 0)))
	}
	for _, span := range nl.codeSpans {
		blank(span[0], span[1])
	}
	return string(buf)
}

func (nl *NoLinkRanges) addInline(r textrange.Range) {
	for line := r.Start.Line; line <= r.End.Line; line++ {
		nl.inline[line] = append(nl.inline[line], r)
	}
}

func (nl *NoLinkRanges) inCode(line int) bool {
	for _, b := range nl.blocks {
		if b.typ != markdown.TokenHTMLBlock && line >= b.start && line < b.end {
			return true
		}
	}
	return false
}

// findCodeSpans returns the byte spans of inline code. A run of N backticks is
// closed by the next run of exactly N backticks. Spans never cross a blank line
// or enter a code block.
func findCodeSpans(doc *document.Document, inCode func(line int) bool) [][2]int {
	text := doc.Text()
	var spans [][2]int
	i := 0
	for i < len(text) {
		if text[i] != '`' {
			i++
			continue
		}
		start := i
		n := runLength(text, i, '`')
		i += n
		if inCode(doc.PositionAt(start).Line) {
			continue
		}
		if precedingBackslashes(text, start)%2 == 1 {
			// The first backtick is escaped; the rest of the run may still open a span.
			i = start + 1
			continue
		}
		if end, ok := findClosingRun(doc, text, i, n, inCode); ok {
			spans = append(spans, [2]int{start, end})
			i = end
		}
	}
	return spans
}

func findClosingRun(doc *document.Document, text string, from, n int, inCode func(line int) bool) (int, bool) {
	lineBlank := false
	lineStart := false
	for j := from; j < len(text); {
		c := text[j]
		switch {
		case c == '\n':
			if lineStart && lineBlank {
				return 0, false
			}
			lineStart, lineBlank = true, true
			if inCode(doc.PositionAt(j+1).Line) {
				return 0, false
			}
			j++
		case c == '`':
			lineBlank = false
			m := runLength(text, j, '`')
			if m == n {
				return j + m, true
			}
			j += m
		default:
			if c != ' ' && c != '\t' && c != '\r' {
				lineBlank = false
			}
			j++
		}
	}
	return 0, false
}

func runLength(text string, at int, c byte) int {
	n := 0
	for at+n < len(text) && text[at+n] == c {
		n++
	}
	return n
}

func precedingBackslashes(text string, at int) int {
	n := 0
	for i := at - 1; i >= 0 && text[i] == '\\'; i-- {
		n++
	}
	return n
}
