package server

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"git.home.luguber.info/inful/mdls/internal/logfields"
	"git.home.luguber.info/inful/mdls/internal/observability"
	"git.home.luguber.info/inful/mdls/internal/textrange"
)

// prepareRenameResult is the range-with-placeholder form of a prepareRename reply.
type prepareRenameResult struct {
	Range       protocol.Range `json:"range"`
	Placeholder string         `json:"placeholder"`
}

func (ls *LanguageServer) textDocumentDocumentLink(gctx *glsp.Context, params *protocol.DocumentLinkParams) (result []protocol.DocumentLink, err error) {
	ctx, span := ls.request(gctx, "textDocument/documentLink", params.TextDocument.URI)
	defer func() { span.End(err) }()

	svc, doc, err := ls.document(ctx, params.TextDocument.URI)
	if err != nil || doc == nil {
		return nil, err
	}
	docLinks, err := svc.Links.ProvideDocumentLinks(ctx, doc)
	if err != nil {
		return nil, err
	}
	result = make([]protocol.DocumentLink, 0, len(docLinks))
	for _, link := range docLinks {
		result = append(result, toDocumentLink(link))
	}
	observability.DebugContext(ctx, "Provided document links", logfields.LinkCount(len(result)))
	return result, nil
}

// documentLinkResolve fills in the target of an internal link. Links that
// cannot be resolved are returned unchanged.
func (ls *LanguageServer) documentLinkResolve(gctx *glsp.Context, params *protocol.DocumentLink) (result *protocol.DocumentLink, err error) {
	ctx, span := ls.request(gctx, "documentLink/resolve", "")
	defer func() { span.End(err) }()

	svc, _, err := ls.service()
	if err != nil {
		return nil, err
	}
	link, err := fromDocumentLink(params)
	if err != nil {
		return nil, err
	}
	resolved, err := svc.Links.ResolveDocumentLink(ctx, link)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return params, nil
	}
	out := toDocumentLink(*resolved)
	out.Data = params.Data
	return &out, nil
}

func (ls *LanguageServer) textDocumentPrepareRename(gctx *glsp.Context, params *protocol.PrepareRenameParams) (result any, err error) {
	ctx, span := ls.request(gctx, "textDocument/prepareRename", params.TextDocument.URI)
	defer func() { span.End(err) }()

	svc, doc, err := ls.document(ctx, params.TextDocument.URI)
	if err != nil || doc == nil {
		return nil, err
	}
	prepared, err := svc.Rename.PrepareRename(ctx, doc, fromPosition(params.Position))
	if err != nil || prepared == nil {
		return nil, err
	}
	return prepareRenameResult{Range: toRange(prepared.Range), Placeholder: prepared.Placeholder}, nil
}

func (ls *LanguageServer) textDocumentRename(gctx *glsp.Context, params *protocol.RenameParams) (result *protocol.WorkspaceEdit, err error) {
	ctx, span := ls.request(gctx, "textDocument/rename", params.TextDocument.URI)
	defer func() { span.End(err) }()

	svc, doc, err := ls.document(ctx, params.TextDocument.URI)
	if err != nil || doc == nil {
		return nil, err
	}
	edit, err := svc.Rename.ProvideRenameEdits(ctx, doc, fromPosition(params.Position), params.NewName)
	if err != nil {
		return nil, err
	}
	return toWorkspaceEdit(edit), nil
}

func (ls *LanguageServer) textDocumentSelectionRange(gctx *glsp.Context, params *protocol.SelectionRangeParams) (result []protocol.SelectionRange, err error) {
	ctx, span := ls.request(gctx, "textDocument/selectionRange", params.TextDocument.URI)
	defer func() { span.End(err) }()

	svc, doc, err := ls.document(ctx, params.TextDocument.URI)
	if err != nil || doc == nil {
		return nil, err
	}
	positions := make([]textrange.Position, len(params.Positions))
	for i, p := range params.Positions {
		positions[i] = fromPosition(p)
	}
	ranges, err := svc.Selection.ProvideSelectionRanges(ctx, doc, positions)
	if err != nil || ranges == nil {
		return nil, err
	}

	result = make([]protocol.SelectionRange, len(ranges))
	for i, r := range ranges {
		if r == nil {
			// Replies are positional, so a position without structure selects itself.
			pos := toPosition(positions[i])
			result[i] = protocol.SelectionRange{Range: protocol.Range{Start: pos, End: pos}}
			continue
		}
		result[i] = toSelectionRange(r)
	}
	return result, nil
}

func (ls *LanguageServer) workspaceWillRenameFiles(gctx *glsp.Context, params *protocol.RenameFilesParams) (result *protocol.WorkspaceEdit, err error) {
	ctx, span := ls.request(gctx, "workspace/willRenameFiles", "")
	defer func() { span.End(err) }()

	svc, _, err := ls.service()
	if err != nil {
		return nil, err
	}
	renames, err := fromFileRenames(params.Files)
	if err != nil {
		return nil, err
	}
	res, err := svc.FileRename.GetRenameFilesInWorkspaceEdit(ctx, renames)
	if err != nil || res == nil || res.Edit.IsEmpty() {
		return nil, err
	}
	observability.DebugContext(ctx, "Updating links for renamed files",
		logfields.Count(len(res.ParticipatingRenames)))
	return toWorkspaceEdit(res.Edit), nil
}
