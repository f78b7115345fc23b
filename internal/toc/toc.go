// Package toc builds the table of contents of a Markdown document: its headers,
// their slugs and the sections they own.
package toc

import (
	"context"
	"regexp"

	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/markdown"
	"git.home.luguber.info/inful/mdls/internal/slugify"
	"git.home.luguber.info/inful/mdls/internal/textrange"
)

// Entry is one header of a document.
type Entry struct {
	Slug slugify.Slug
	// Text is the header's text with inline markup removed.
	Text string
	// RawText is the header's source text between the markers.
	RawText string
	Level   int
	Line    int
	// SectionLocation spans from the header line to the last line before the
	// next header of the same or a lower level.
	SectionLocation document.Location
	// HeaderLocation spans the whole header line.
	HeaderLocation document.Location
	// HeaderTextLocation spans the header's text without the # markers.
	HeaderTextLocation document.Location
}

// TableOfContents lists the headers of one document in order.
type TableOfContents struct {
	Entries   []Entry
	slugifier slugify.Slugifier
}

// Empty is a table of contents without entries.
func Empty(slugifier slugify.Slugifier) *TableOfContents {
	return &TableOfContents{slugifier: slugifier}
}

// LookupByFragment finds the header whose slug equals the slugified fragment.
func (t *TableOfContents) LookupByFragment(fragment string) (Entry, bool) {
	slug := t.slugifier.FromFragment(fragment)
	for _, entry := range t.Entries {
		if entry.Slug.Equals(slug) {
			return entry, true
		}
	}
	return Entry{}, false
}

// LookupByLine finds the header on a line.
func (t *TableOfContents) LookupByLine(line int) (Entry, bool) {
	for _, entry := range t.Entries {
		if entry.Line == line {
			return entry, true
		}
	}
	return Entry{}, false
}

var (
	headerPrefixRe = regexp.MustCompile(`^[ \t]{0,3}#+[ \t]*`)
	headerSuffixRe = regexp.MustCompile(`(?:[ \t]+#+)?[ \t]*$`)
)

// Create builds the table of contents of doc without caching.
func Create(ctx context.Context, tokenizer markdown.Tokenizer, slugifier slugify.Slugifier, doc *document.Document) (*TableOfContents, error) {
	tokens, err := tokenizer.Tokenize(ctx, doc)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return Empty(slugifier), nil
	}

	builder := slugifier.NewBuilder()
	entries := make([]Entry, 0)
	for _, tok := range tokens {
		if tok.Type != markdown.TokenHeadingOpen {
			continue
		}
		lineNumber := tok.StartLine()
		line := doc.Line(lineNumber)
		lineLen := document.UTF16Len(line)

		textStart := 0
		if m := headerPrefixRe.FindStringIndex(line); m != nil {
			textStart = m[1]
		}
		textEnd := len(line)
		if m := headerSuffixRe.FindStringIndex(line[textStart:]); m != nil {
			textEnd = textStart + m[0]
		}

		headerLocation := document.Location{URI: doc.URI(), Range: textrange.NewRange(lineNumber, 0, lineNumber, lineLen)}
		entries = append(entries, Entry{
			Slug:           builder.Add(tok.Content),
			Text:           tok.Content,
			RawText:        line[textStart:textEnd],
			Level:          tok.Level,
			Line:           lineNumber,
			HeaderLocation: headerLocation,
			HeaderTextLocation: document.Location{
				URI: doc.URI(),
				Range: textrange.NewRange(
					lineNumber, document.UTF16Column(line, textStart),
					lineNumber, document.UTF16Column(line, textEnd)),
			},
		})
	}

	for i := range entries {
		end := doc.LineCount() - 1
		for j := i + 1; j < len(entries); j++ {
			if entries[j].Level <= entries[i].Level {
				end = entries[j].Line - 1
				break
			}
		}
		entries[i].SectionLocation = document.Location{
			URI:   doc.URI(),
			Range: textrange.Range{Start: textrange.Pos(entries[i].Line, 0), End: doc.LineEnd(end)},
		}
	}

	return &TableOfContents{Entries: entries, slugifier: slugifier}, nil
}
