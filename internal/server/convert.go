package server

import (
	"encoding/json"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"git.home.luguber.info/inful/mdls/internal/docuri"
	"git.home.luguber.info/inful/mdls/internal/filerename"
	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/links"
	"git.home.luguber.info/inful/mdls/internal/selection"
	"git.home.luguber.info/inful/mdls/internal/textrange"
	"git.home.luguber.info/inful/mdls/internal/wsedit"
)

func toPosition(p textrange.Position) protocol.Position {
	return protocol.Position{Line: protocol.UInteger(p.Line), Character: protocol.UInteger(p.Character)}
}

func fromPosition(p protocol.Position) textrange.Position {
	return textrange.Pos(int(p.Line), int(p.Character))
}

func toRange(r textrange.Range) protocol.Range {
	return protocol.Range{Start: toPosition(r.Start), End: toPosition(r.End)}
}

func fromRange(r protocol.Range) textrange.Range {
	return textrange.Range{Start: fromPosition(r.Start), End: fromPosition(r.End)}
}

func parseURI(raw string) (docuri.URI, error) {
	uri, err := docuri.Parse(raw)
	if err != nil {
		return docuri.URI{}, mdlserrors.WrapError(err, mdlserrors.CategoryValidation, "invalid document URI").
			WithContext("uri", raw).
			Build()
	}
	return uri, nil
}

func toDocumentLink(link links.DocumentLink) protocol.DocumentLink {
	out := protocol.DocumentLink{Range: toRange(link.Range)}
	if link.Target != "" {
		target := link.Target
		out.Target = &target
	}
	if link.Tooltip != "" {
		tooltip := link.Tooltip
		out.Tooltip = &tooltip
	}
	if link.Data != nil {
		out.Data = link.Data
	}
	return out
}

// fromDocumentLink restores a link the client sent back for resolution. Data
// arrives as generic JSON and is decoded again.
func fromDocumentLink(link *protocol.DocumentLink) (*links.DocumentLink, error) {
	out := &links.DocumentLink{Range: fromRange(link.Range)}
	if link.Target != nil {
		out.Target = *link.Target
	}
	if link.Tooltip != nil {
		out.Tooltip = *link.Tooltip
	}
	if link.Data == nil {
		return out, nil
	}
	raw, err := json.Marshal(link.Data)
	if err != nil {
		return nil, mdlserrors.WrapError(err, mdlserrors.CategoryValidation, "invalid document link data").Build()
	}
	var data links.LinkData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, mdlserrors.WrapError(err, mdlserrors.CategoryValidation, "invalid document link data").Build()
	}
	if data.Path != "" {
		out.Data = &data
	}
	return out, nil
}

func toSelectionRange(r *selection.Range) protocol.SelectionRange {
	out := protocol.SelectionRange{Range: toRange(r.Range)}
	if r.Parent != nil {
		parent := toSelectionRange(r.Parent)
		out.Parent = &parent
	}
	return out
}

// textDocumentEdit mirrors the LSP TextDocumentEdit with concrete edits.
type textDocumentEdit struct {
	TextDocument protocol.OptionalVersionedTextDocumentIdentifier `json:"textDocument"`
	Edits        []protocol.TextEdit                              `json:"edits"`
}

// toWorkspaceEdit converts an edit into documentChanges form. Text edits are
// listed before file renames since they address the documents' old URIs.
func toWorkspaceEdit(edit *wsedit.WorkspaceEdit) *protocol.WorkspaceEdit {
	if edit == nil {
		return nil
	}
	changes := make([]any, 0, len(edit.Documents)+len(edit.Renames))
	for _, doc := range edit.Documents {
		edits := make([]protocol.TextEdit, len(doc.Edits))
		for i, e := range doc.Edits {
			edits[i] = protocol.TextEdit{Range: toRange(e.Range), NewText: e.NewText}
		}
		changes = append(changes, textDocumentEdit{
			TextDocument: protocol.OptionalVersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: doc.URI.String()},
			},
			Edits: edits,
		})
	}
	for _, r := range edit.Renames {
		changes = append(changes, protocol.RenameFile{
			Kind:   "rename",
			OldURI: r.OldURI.String(),
			NewURI: r.NewURI.String(),
		})
	}
	return &protocol.WorkspaceEdit{DocumentChanges: changes}
}

func fromFileRenames(files []protocol.FileRename) ([]filerename.FileRename, error) {
	out := make([]filerename.FileRename, 0, len(files))
	for _, f := range files {
		oldURI, err := parseURI(f.OldURI)
		if err != nil {
			return nil, err
		}
		newURI, err := parseURI(f.NewURI)
		if err != nil {
			return nil, err
		}
		out = append(out, filerename.FileRename{OldURI: oldURI, NewURI: newURI})
	}
	return out, nil
}
