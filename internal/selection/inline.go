package selection

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/links"
	"git.home.luguber.info/inful/mdls/internal/textrange"
)

// delimiter describes an inline construct wrapped in marker characters.
type delimiter struct {
	re    *regexp.Regexp
	width int
	// isolated rejects matches touching another '*'.
	isolated bool
}

var (
	bold     = delimiter{re: regexp.MustCompile(`\*\*([^*]+\*?[^*]+\*?[^*]+)\*\*`), width: 2}
	// Italic spans may contain a bold run.
	italic   = delimiter{re: regexp.MustCompile(`\*[^*\s](?:[^*]|\*\*[^*]+\*\*)*\*`), width: 1, isolated: true}
	codeSpan = delimiter{re: regexp.MustCompile("`[^`]+`"), width: 1}
)

// lineSpan is a match on the cursor's line, in byte offsets.
type lineSpan struct {
	line       int
	text       string
	start, end int
}

func (s lineSpan) rangeOf(start, end int) textrange.Range {
	return textrange.NewRange(s.line, document.UTF16Column(s.text, start), s.line, document.UTF16Column(s.text, end))
}

// inlineRange nests the inline constructs around pos under parent: emphasis,
// then links, then code spans.
func inlineRange(doc *document.Document, docLinks []links.Link, pos textrange.Position, parent *Range) *Range {
	line := doc.Line(pos.Line)
	cursor := document.ByteOffset(line, pos.Character)

	strong := bold.rangeAround(line, pos.Line, cursor, parent)
	emph := italic.rangeAround(line, pos.Line, cursor, parent)
	var combined *Range
	if strong != nil && emph != nil && !strong.Range.Equal(emph.Range) {
		switch {
		case strong.Range.ContainsRange(emph.Range):
			combined = italic.rangeAround(line, pos.Line, cursor, strong)
		case emph.Range.ContainsRange(strong.Range):
			combined = bold.rangeAround(line, pos.Line, cursor, emph)
		}
	}
	emphasis := firstNonNil(combined, strong, emph)

	link := linkRange(doc, docLinks, pos, firstNonNil(emphasis, parent))
	code := codeSpan.rangeAround(line, pos.Line, cursor, firstNonNil(link, parent))
	return firstNonNil(code, link, emphasis)
}

// rangeAround finds the construct around cursor. The content is selected
// first unless the cursor sits on a delimiter, in which case the span with
// its delimiters is.
func (d delimiter) rangeAround(line string, lineNumber, cursor int, parent *Range) *Range {
	span, ok := d.find(line, cursor)
	if !ok {
		return nil
	}
	span.line = lineNumber
	outer := newRange(span.rangeOf(span.start, span.end), parent)

	onDelimiter := cursor == span.start || cursor == span.end
	if d.width == 2 {
		onDelimiter = onDelimiter || cursor == span.start+1 || cursor == span.end-1
	}
	if onDelimiter || span.end-span.start < 2*d.width {
		return outer
	}
	return newRange(span.rangeOf(span.start+d.width, span.end-d.width), outer)
}

// find returns the first match enclosing cursor.
func (d delimiter) find(line string, cursor int) (lineSpan, bool) {
	for offset := 0; offset < len(line); {
		loc := d.re.FindStringIndex(line[offset:])
		if loc == nil {
			break
		}
		start, end := offset+loc[0], offset+loc[1]
		if d.isolated && ((start > 0 && line[start-1] == '*') || (end < len(line) && line[end] == '*')) {
			offset = start + 1
			continue
		}
		if start <= cursor && cursor <= end {
			return lineSpan{text: line, start: start, end: end}, true
		}
		if start > cursor {
			break
		}
		offset = end
	}
	return lineSpan{}, false
}

// linkRange selects the parts of the single-line link under pos.
func linkRange(doc *document.Document, docLinks []links.Link, pos textrange.Position, parent *Range) *Range {
	var link *links.Link
	for i := range docLinks {
		src := docLinks[i].Source
		if !src.Range.IsSingleLine() || src.Range.Start.Line != pos.Line || !src.Range.Contains(pos) {
			continue
		}
		// Images nested in link text win over the enclosing link.
		if link == nil || link.Source.Range.ContainsRange(src.Range) {
			link = &docLinks[i]
		}
	}
	if link == nil {
		return nil
	}

	src := link.Source
	whole := newRange(src.Range, parent)
	switch link.Kind {
	case links.KindDefinition:
		return definitionRange(link, pos, whole)
	case links.KindAutoLink:
		return nestIn(whole, pos, src.HrefRange)
	}
	if _, ok := link.Href.(links.ReferenceHref); ok {
		return nestIn(whole, pos, src.HrefRange)
	}
	return inlineLinkRange(doc, link, pos, whole)
}

// inlineLinkRange handles [text](target "title") links.
func inlineLinkRange(doc *document.Document, link *links.Link, pos textrange.Position, whole *Range) *Range {
	src := link.Source
	text := doc.Text()
	start := doc.OffsetAt(src.Range.Start)
	end := doc.OffsetAt(src.Range.End)
	targetStart := doc.OffsetAt(src.TargetRange.Start)

	open := strings.IndexByte(text[start:end], '[')
	paren := strings.LastIndexByte(text[start:targetStart], '(')
	if open < 0 || paren < 0 {
		return whole
	}
	open += start
	paren += start

	label := doc.RangeAt(open+1, paren-1)
	if label.Contains(pos) {
		return newRange(label, whole)
	}

	parens := doc.RangeAt(paren, end)
	if !parens.Contains(pos) {
		return whole
	}
	current := newRange(parens, whole)
	inner := doc.RangeAt(paren+1, end-1)
	if !inner.Contains(pos) {
		return current
	}
	current = newRange(inner, current)

	if src.TitleRange != nil && src.TitleRange.Contains(pos) {
		return titleRange(*src.TitleRange, pos, current)
	}
	return nestIn(current, pos, src.TargetRange, src.HrefRange)
}

// definitionRange handles [label]: target "title" definitions.
func definitionRange(link *links.Link, pos textrange.Position, whole *Range) *Range {
	src := link.Source
	switch {
	case link.Ref != nil && link.Ref.Range.Contains(pos):
		return newRange(link.Ref.Range, whole)
	case src.TitleRange != nil && src.TitleRange.Contains(pos):
		return titleRange(*src.TitleRange, pos, whole)
	}
	return nestIn(whole, pos, src.TargetRange, src.HrefRange)
}

// titleRange selects a title's text inside its quotes.
func titleRange(title textrange.Range, pos textrange.Position, parent *Range) *Range {
	return nestIn(parent, pos, title, shrink(title))
}

// nestIn adds each range containing pos, outermost first.
func nestIn(parent *Range, pos textrange.Position, ranges ...textrange.Range) *Range {
	current := parent
	for _, r := range ranges {
		if !r.Contains(pos) {
			break
		}
		current = newRange(r, current)
	}
	return current
}

// shrink drops one character from each end of a single-line range.
func shrink(r textrange.Range) textrange.Range {
	if !r.IsSingleLine() || r.End.Character-r.Start.Character < 2 {
		return r
	}
	return textrange.Range{Start: r.Start.Translate(0, 1), End: r.End.Translate(0, -1)}
}
