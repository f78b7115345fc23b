// Package wsedit builds workspace edits: text replacements grouped per
// document plus file renames.
package wsedit

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/docuri"
	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/textrange"
)

// TextEdit replaces the text in Range with NewText.
type TextEdit struct {
	Range   textrange.Range `json:"range"`
	NewText string          `json:"newText"`
}

// DocumentEdit lists the text edits of one document.
type DocumentEdit struct {
	URI   docuri.URI
	Edits []TextEdit
}

// RenameFile moves a file.
type RenameFile struct {
	OldURI docuri.URI
	NewURI docuri.URI
}

// WorkspaceEdit is a set of per-document text edits followed by file renames.
type WorkspaceEdit struct {
	Renames   []RenameFile
	Documents []DocumentEdit
}

// IsEmpty reports whether the edit changes nothing.
func (e *WorkspaceEdit) IsEmpty() bool {
	return e == nil || (len(e.Renames) == 0 && len(e.Documents) == 0)
}

// EditsFor returns the text edits of one document.
func (e *WorkspaceEdit) EditsFor(uri docuri.URI) []TextEdit {
	if e == nil {
		return nil
	}
	for _, d := range e.Documents {
		if d.URI.Equal(uri) {
			return d.Edits
		}
	}
	return nil
}

type jsonRename struct {
	Kind   string `json:"kind"`
	OldURI string `json:"oldUri"`
	NewURI string `json:"newUri"`
}

type jsonDocumentEdit struct {
	TextDocument struct {
		URI     string `json:"uri"`
		Version *int32 `json:"version"`
	} `json:"textDocument"`
	Edits []TextEdit `json:"edits"`
}

// MarshalJSON renders the edit in the LSP documentChanges shape. Text edits
// address documents by their URIs before any rename, so they come first.
func (e *WorkspaceEdit) MarshalJSON() ([]byte, error) {
	changes := make([]any, 0, len(e.Renames)+len(e.Documents))
	for _, d := range e.Documents {
		var doc jsonDocumentEdit
		doc.TextDocument.URI = d.URI.String()
		doc.Edits = d.Edits
		changes = append(changes, doc)
	}
	for _, r := range e.Renames {
		changes = append(changes, jsonRename{Kind: "rename", OldURI: r.OldURI.String(), NewURI: r.NewURI.String()})
	}
	return json.Marshal(struct {
		DocumentChanges []any `json:"documentChanges"`
	}{changes})
}

// Builder accumulates edits. Identical edits to the same document are kept once.
type Builder struct {
	renames []RenameFile
	order   []docuri.URI
	edits   map[string][]TextEdit
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{edits: make(map[string][]TextEdit)}
}

// Replace records a text replacement in uri.
func (b *Builder) Replace(uri docuri.URI, r textrange.Range, newText string) {
	key := uri.Key()
	existing, seen := b.edits[key]
	if !seen {
		b.order = append(b.order, uri)
	}
	for _, e := range existing {
		if e.Range.Equal(r) && e.NewText == newText {
			return
		}
	}
	b.edits[key] = append(existing, TextEdit{Range: r, NewText: newText})
}

// RenameFile records a file move.
func (b *Builder) RenameFile(oldURI, newURI docuri.URI) {
	for _, r := range b.renames {
		if r.OldURI.Equal(oldURI) && r.NewURI.Equal(newURI) {
			return
		}
	}
	b.renames = append(b.renames, RenameFile{OldURI: oldURI, NewURI: newURI})
}

// HasEdits reports whether anything was recorded for uri.
func (b *Builder) HasEdits(uri docuri.URI) bool {
	return len(b.edits[uri.Key()]) > 0
}

// Build returns the accumulated edit. The builder can keep accumulating afterwards.
func (b *Builder) Build() *WorkspaceEdit {
	out := &WorkspaceEdit{Renames: append([]RenameFile(nil), b.renames...)}
	for _, uri := range b.order {
		out.Documents = append(out.Documents, DocumentEdit{
			URI:   uri,
			Edits: append([]TextEdit(nil), b.edits[uri.Key()]...),
		})
	}
	return out
}

// Apply returns the text of doc with edits applied. Edits refer to positions
// in the original text and must not overlap. Insertions at the same position
// keep their order.
func Apply(doc *document.Document, edits []TextEdit) (string, error) {
	text := doc.Text()
	if len(edits) == 0 {
		return text, nil
	}

	type span struct {
		start, end int
		newText    string
	}
	spans := make([]span, len(edits))
	for i, e := range edits {
		if err := checkRange(doc, e.Range); err != nil {
			return "", mdlserrors.ValidationError(err.Error()).
				WithContext("uri", doc.URI().String()).
				WithContext("edit", i).
				WithContext("range", e.Range.Start.String()+"-"+e.Range.End.String()).
				Build()
		}
		spans[i] = span{start: doc.OffsetAt(e.Range.Start), end: doc.OffsetAt(e.Range.End), newText: e.NewText}
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end < spans[j].end
	})

	var sb strings.Builder
	sb.Grow(len(text))
	last := 0
	for i, sp := range spans {
		if sp.start < last {
			return "", mdlserrors.ValidationError("overlapping edits").
				WithContext("uri", doc.URI().String()).
				WithContext("edit", i).
				Build()
		}
		sb.WriteString(text[last:sp.start])
		sb.WriteString(sp.newText)
		last = sp.end
	}
	sb.WriteString(text[last:])
	return sb.String(), nil
}

func checkRange(doc *document.Document, r textrange.Range) error {
	switch {
	case r.Start.Line < 0 || r.Start.Character < 0:
		return errors.New("edit range starts before the document")
	case r.End.IsBefore(r.Start):
		return errors.New("edit range ends before it starts")
	case r.End.Line >= doc.LineCount():
		return errors.New("edit range ends after the document")
	}
	return nil
}
