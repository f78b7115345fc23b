package selection

import (
	"sort"
	"strings"

	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/markdown"
	"git.home.luguber.info/inful/mdls/internal/textrange"
)

// blockRange nests the blocks enclosing pos under parent, largest first.
func blockRange(doc *document.Document, tokens []markdown.Token, pos textrange.Position, parent *Range) *Range {
	var enclosing []markdown.Token
	for _, tok := range tokens {
		if tok.Type == markdown.TokenHeadingOpen {
			continue
		}
		if tok.StartLine() > pos.Line || tok.EndLine() <= pos.Line {
			continue
		}
		if parent != nil && (tok.StartLine() < parent.Range.Start.Line || tok.EndLine() > parent.Range.End.Line+1) {
			continue
		}
		enclosing = append(enclosing, tok)
	}
	if len(enclosing) == 0 {
		return nil
	}
	sort.SliceStable(enclosing, func(i, j int) bool {
		return enclosing[i].EndLine()-enclosing[i].StartLine() > enclosing[j].EndLine()-enclosing[j].StartLine()
	})

	current := parent
	for _, tok := range enclosing {
		current = tokenRange(doc, tok, pos.Line, current)
	}
	return current
}

func tokenRange(doc *document.Document, tok markdown.Token, cursorLine int, parent *Range) *Range {
	if tok.Type == markdown.TokenFence {
		return fenceRange(doc, tok, cursorLine, parent)
	}

	start := tok.StartLine()
	if isBlank(doc.Line(start)) {
		start++
	}
	end := tok.EndLine() - 1
	if end < start {
		end = start
	}
	for end > start && isBlank(doc.Line(end)) && (tok.IsList() || tok.Type == markdown.TokenParagraphOpen) {
		end--
	}
	return newRange(textrange.Range{Start: textrange.Pos(start, 0), End: doc.LineEnd(end)}, parent)
}

// fenceRange selects the fence's content before the whole fence, unless the
// cursor is on a delimiter line or there is no room for content.
func fenceRange(doc *document.Document, tok markdown.Token, cursorLine int, parent *Range) *Range {
	start := tok.StartLine()
	end := tok.EndLine() - 1
	fence := newRange(textrange.Range{Start: textrange.Pos(start, 0), End: doc.LineEnd(end)}, parent)

	onDelimiter := cursorLine == start || cursorLine == end
	if end-start < 2 || onDelimiter {
		return fence
	}
	return newRange(textrange.Range{Start: textrange.Pos(start+1, 0), End: doc.LineEnd(end - 1)}, fence)
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
