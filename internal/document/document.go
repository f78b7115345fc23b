// Package document holds an immutable snapshot of a Markdown text document
// together with the line index needed to translate between byte offsets and
// editor positions.
package document

import (
	"sort"
	"strings"

	"git.home.luguber.info/inful/mdls/internal/docuri"
	"git.home.luguber.info/inful/mdls/internal/textrange"
)

// Document is one version of a text document. It is safe for concurrent reads.
type Document struct {
	uri        docuri.URI
	version    int32
	text       string
	lineStarts []int
}

// New creates a document snapshot.
func New(uri docuri.URI, version int32, text string) *Document {
	return &Document{
		uri:        uri,
		version:    version,
		text:       text,
		lineStarts: computeLineStarts(text),
	}
}

func computeLineStarts(text string) []int {
	starts := make([]int, 1, strings.Count(text, "\n")+1)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func (d *Document) URI() docuri.URI { return d.uri }
func (d *Document) Version() int32 { return d.version }
func (d *Document) Text() string { return d.text }
func (d *Document) LineCount() int { return len(d.lineStarts) }

// WithText returns a new snapshot of the same document.
func (d *Document) WithText(version int32, text string) *Document {
	return New(d.uri, version, text)
}

// lineBounds returns the byte offsets of a line's content, excluding the line break.
func (d *Document) lineBounds(line int) (int, int) {
	start := d.lineStarts[line]
	end := len(d.text)
	if line+1 < len(d.lineStarts) {
		end = d.lineStarts[line+1] - 1
		if end > start && d.text[end-1] == '\r' {
			end--
		}
	}
	return start, end
}

// Line returns the text of a line without its line break. Out of range lines are empty.
func (d *Document) Line(line int) string {
	if line < 0 || line >= len(d.lineStarts) {
		return ""
	}
	start, end := d.lineBounds(line)
	return d.text[start:end]
}

// LineLength returns the length of a line in UTF-16 code units.
func (d *Document) LineLength(line int) int {
	return UTF16Len(d.Line(line))
}

// LineEnd returns the position at the end of a line's content.
func (d *Document) LineEnd(line int) textrange.Position {
	return textrange.Pos(line, d.LineLength(line))
}

// PositionAt converts a byte offset into a position.
func (d *Document) PositionAt(offset int) textrange.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}
	line := sort.Search(len(d.lineStarts), func(i int) bool { return d.lineStarts[i] > offset }) - 1
	start, end := d.lineBounds(line)
	if offset > end {
		offset = end
	}
	return textrange.Pos(line, UTF16Len(d.text[start:offset]))
}

// OffsetAt converts a position into a byte offset, clamping to the document.
func (d *Document) OffsetAt(pos textrange.Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(d.lineStarts) {
		return len(d.text)
	}
	start, end := d.lineBounds(pos.Line)
	return start + ByteOffset(d.text[start:end], pos.Character)
}

// RangeAt converts a byte span into a range.
func (d *Document) RangeAt(startOffset, endOffset int) textrange.Range {
	return textrange.Range{Start: d.PositionAt(startOffset), End: d.PositionAt(endOffset)}
}

// TextIn returns the text covered by r.
func (d *Document) TextIn(r textrange.Range) string {
	start := d.OffsetAt(r.Start)
	end := d.OffsetAt(r.End)
	if end < start {
		return ""
	}
	return d.text[start:end]
}
