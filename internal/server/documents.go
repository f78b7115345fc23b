package server

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"git.home.luguber.info/inful/mdls/internal/document"
	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/wsedit"
)

func (ls *LanguageServer) textDocumentDidOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	_, ws, err := ls.service()
	if err != nil {
		return err
	}
	uri, err := parseURI(params.TextDocument.URI)
	if err != nil {
		return err
	}
	ws.DidOpen(document.New(uri, int32(params.TextDocument.Version), params.TextDocument.Text))
	ls.recorder.SetOpenDocuments(ws.OpenDocuments())
	return nil
}

// textDocumentDidChange replaces the editor's copy. Whole-document changes are
// expected; ranged changes are applied in order on top of the previous text.
func (ls *LanguageServer) textDocumentDidChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	_, ws, err := ls.service()
	if err != nil {
		return err
	}
	uri, err := parseURI(params.TextDocument.URI)
	if err != nil {
		return err
	}

	current, ok := ws.Lookup(uri)
	if !ok {
		current = document.New(uri, int32(params.TextDocument.Version), "")
	}
	text := current.Text()
	for _, raw := range params.ContentChanges {
		switch change := raw.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = change.Text
		case protocol.TextDocumentContentChangeEvent:
			if change.Range == nil {
				text = change.Text
				continue
			}
			edited, err := wsedit.Apply(document.New(uri, 0, text), []wsedit.TextEdit{{
				Range:   fromRange(*change.Range),
				NewText: change.Text,
			}})
			if err != nil {
				return mdlserrors.WrapError(err, mdlserrors.CategoryValidation, "failed to apply document change").
					WithContext("uri", uri.String()).
					Build()
			}
			text = edited
		default:
			return mdlserrors.ValidationError(fmt.Sprintf("unexpected change event type %T", raw)).Build()
		}
	}

	ws.DidChange(current.WithText(int32(params.TextDocument.Version), text))
	return nil
}

func (ls *LanguageServer) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	_, ws, err := ls.service()
	if err != nil {
		return err
	}
	uri, err := parseURI(params.TextDocument.URI)
	if err != nil {
		return err
	}
	ws.DidClose(uri)
	ls.invalidate(uri)
	ls.recorder.SetOpenDocuments(ws.OpenDocuments())
	return nil
}
