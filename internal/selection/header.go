package selection

import (
	"sort"

	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/textrange"
	"git.home.luguber.info/inful/mdls/internal/toc"
)

// headerRange folds the sections enclosing pos, outermost first.
func headerRange(doc *document.Document, entries []toc.Entry, pos textrange.Position) *Range {
	var enclosing []toc.Entry
	onHeaderLine := false
	for _, entry := range entries {
		section := entry.SectionLocation.Range
		if section.Start.Line <= pos.Line && section.End.Line >= pos.Line {
			enclosing = append(enclosing, entry)
		}
		if entry.Line == pos.Line {
			onHeaderLine = true
		}
	}
	sort.SliceStable(enclosing, func(i, j int) bool { return enclosing[i].Line < enclosing[j].Line })

	var current *Range
	for i, entry := range enclosing {
		closest := i == len(enclosing)-1
		current = sectionRange(entry, closest && onHeaderLine, closest, current, firstChildBoundary(doc, entry, entries))
	}
	return current
}

// sectionRange builds the ranges of one header's section. childStart is the
// end of the line before the header's first sub-header, if it has one.
func sectionRange(entry toc.Entry, onHeaderLine, closest bool, parent *Range, childStart *textrange.Position) *Range {
	section := newRange(entry.SectionLocation.Range, parent)
	if onHeaderLine {
		if childStart != nil {
			section = newRange(section.Range.WithEnd(*childStart), section)
		}
		return newRange(entry.HeaderLocation.Range, section)
	}

	content := section.Range.WithStart(textrange.Pos(section.Range.Start.Line+1, 0))
	if content.End.IsBefore(content.Start) {
		return section
	}
	current := newRange(content, section)
	if closest && childStart != nil && !childStart.IsBefore(content.Start) {
		current = newRange(content.WithEnd(*childStart), current)
	}
	return current
}

// firstChildBoundary returns the end of the line before entry's first nested header.
func firstChildBoundary(doc *document.Document, entry toc.Entry, entries []toc.Entry) *textrange.Position {
	section := entry.SectionLocation.Range
	for _, other := range entries {
		if other.Line <= entry.Line || !section.ContainsRange(other.SectionLocation.Range) {
			continue
		}
		end := doc.LineEnd(other.Line - 1)
		return &end
	}
	return nil
}
