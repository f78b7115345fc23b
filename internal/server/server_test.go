package server

import (
	"path/filepath"
	"strings"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"git.home.luguber.info/inful/mdls/internal/config"
	"git.home.luguber.info/inful/mdls/internal/docuri"
	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/links"
	"git.home.luguber.info/inful/mdls/internal/testutil"
)

type fixture struct {
	ls   *LanguageServer
	root string
}

func newFixture(t *testing.T, files map[string]string, reg *prom.Registry) *fixture {
	t.Helper()
	root := testutil.WriteTree(t, files)

	cfg := config.Default()
	watch := false
	cfg.Workspace.Watch = &watch
	ls := New(Options{Config: cfg, Version: "test", Registry: reg})
	t.Cleanup(ls.stop)

	rootURI := docuri.File(root).String()
	res, err := ls.initialize(nil, &protocol.InitializeParams{RootURI: &rootURI})
	require.NoError(t, err)
	require.IsType(t, protocol.InitializeResult{}, res)
	require.NoError(t, ls.initialized(nil, &protocol.InitializedParams{}))
	return &fixture{ls: ls, root: root}
}

func (f *fixture) uri(name string) string {
	return docuri.File(filepath.Join(f.root, filepath.FromSlash(name))).String()
}

func (f *fixture) open(t *testing.T, name, text string) {
	t.Helper()
	require.NoError(t, f.ls.textDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: f.uri(name), LanguageID: "markdown", Version: 1, Text: text},
	}))
}

func textDocument(uri string) protocol.TextDocumentIdentifier {
	return protocol.TextDocumentIdentifier{URI: uri}
}

func positionParams(uri string, line, character int) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: textDocument(uri),
		Position:     protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(character)},
	}
}

// editsByURI collects the text edits of a workspace edit per document URI.
func editsByURI(t *testing.T, edit *protocol.WorkspaceEdit) map[string][]protocol.TextEdit {
	t.Helper()
	require.NotNil(t, edit)
	out := make(map[string][]protocol.TextEdit)
	for _, change := range edit.DocumentChanges {
		if doc, ok := change.(textDocumentEdit); ok {
			out[doc.TextDocument.URI] = append(out[doc.TextDocument.URI], doc.Edits...)
		}
	}
	return out
}

func TestRequestsBeforeInitialize(t *testing.T) {
	ls := New(Options{})
	_, err := ls.textDocumentDocumentLink(nil, &protocol.DocumentLinkParams{TextDocument: textDocument("file:///x.md")})
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, ls.textDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{}), ErrNotInitialized)
}

func TestInitializeCapabilities(t *testing.T) {
	f := newFixture(t, nil, nil)
	caps := f.ls.capabilities()

	sync, ok := caps.TextDocumentSync.(*protocol.TextDocumentSyncOptions)
	require.True(t, ok)
	assert.Equal(t, protocol.TextDocumentSyncKindFull, *sync.Change)
	require.NotNil(t, caps.DocumentLinkProvider)
	assert.True(t, *caps.DocumentLinkProvider.ResolveProvider)
	assert.Equal(t, true, caps.SelectionRangeProvider)
	require.NotNil(t, caps.Workspace)
	require.NotNil(t, caps.Workspace.FileOperations.WillRename)

	rootURI := docuri.File(f.root).String()
	_, err := f.ls.initialize(nil, &protocol.InitializeParams{RootURI: &rootURI})
	assert.Error(t, err)
}

func TestWorkspaceFolders(t *testing.T) {
	rootURI := "file:///root"
	rootPath := "/path"

	folders, err := workspaceFolders(&protocol.InitializeParams{
		WorkspaceFolders: []protocol.WorkspaceFolder{{URI: "file:///a", Name: "a"}, {URI: "file:///b", Name: "b"}},
		RootURI:          &rootURI,
	})
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, "file:///a", folders[0].String())

	folders, err = workspaceFolders(&protocol.InitializeParams{RootURI: &rootURI})
	require.NoError(t, err)
	assert.Equal(t, "file:///root", folders[0].String())

	folders, err = workspaceFolders(&protocol.InitializeParams{RootPath: &rootPath})
	require.NoError(t, err)
	assert.Equal(t, "file:///path", folders[0].String())
}

func TestDocumentLinksAndResolve(t *testing.T) {
	f := newFixture(t, map[string]string{"b.md": "# Intro\n\ntext\n"}, nil)
	f.open(t, "a.md", "[b](./b.md#intro) [web](https://example.com)\n")

	got, err := f.ls.textDocumentDocumentLink(nil, &protocol.DocumentLinkParams{TextDocument: textDocument(f.uri("a.md"))})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Nil(t, got[0].Target)
	require.NotNil(t, got[0].Data)
	require.NotNil(t, got[1].Target)
	assert.Equal(t, "https://example.com", *got[1].Target)

	resolved, err := f.ls.documentLinkResolve(nil, &got[0])
	require.NoError(t, err)
	require.NotNil(t, resolved.Target)
	command, args, ok := links.ParseCommandURI(*resolved.Target)
	require.True(t, ok)
	assert.Equal(t, links.CommandOpen, command)
	assert.Contains(t, string(args), f.uri("b.md"))
}

func TestDocumentLinkResolveWithoutData(t *testing.T) {
	f := newFixture(t, nil, nil)
	target := "https://example.com"
	link := &protocol.DocumentLink{Target: &target}

	resolved, err := f.ls.documentLinkResolve(nil, link)
	require.NoError(t, err)
	assert.Same(t, link, resolved)
}

func TestDidChange(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.open(t, "a.md", "hello\n")

	require.NoError(t, f.ls.textDocumentDidChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{TextDocumentIdentifier: textDocument(f.uri("a.md")), Version: 2},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEventWhole{Text: "[x](./x.md)\n"},
			protocol.TextDocumentContentChangeEvent{
				Range: &protocol.Range{
					Start: protocol.Position{Line: 0, Character: 6},
					End:   protocol.Position{Line: 0, Character: 7},
				},
				Text: "y",
			},
		},
	}))

	_, ws, err := f.ls.service()
	require.NoError(t, err)
	uri, err := docuri.Parse(f.uri("a.md"))
	require.NoError(t, err)
	doc, ok := ws.Lookup(uri)
	require.True(t, ok)
	assert.Equal(t, "[x](./y.md)\n", doc.Text())
	assert.Equal(t, int32(2), doc.Version())
}

func TestDidCloseFallsBackToDisk(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "[disk](./disk.md)\n"}, nil)
	f.open(t, "a.md", "[editor](./editor.md) [two](./two.md)\n")

	got, err := f.ls.textDocumentDocumentLink(nil, &protocol.DocumentLinkParams{TextDocument: textDocument(f.uri("a.md"))})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.NoError(t, f.ls.textDocumentDidClose(nil, &protocol.DidCloseTextDocumentParams{TextDocument: textDocument(f.uri("a.md"))}))
	got, err = f.ls.textDocumentDocumentLink(nil, &protocol.DocumentLinkParams{TextDocument: textDocument(f.uri("a.md"))})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPrepareRename(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.open(t, "a.md", "# Hello\n\nplain text\n")

	res, err := f.ls.textDocumentPrepareRename(nil, &protocol.PrepareRenameParams{TextDocumentPositionParams: positionParams(f.uri("a.md"), 0, 3)})
	require.NoError(t, err)
	prepared, ok := res.(prepareRenameResult)
	require.True(t, ok)
	assert.Equal(t, "Hello", prepared.Placeholder)
	assert.Equal(t, protocol.Position{Line: 0, Character: 2}, prepared.Range.Start)

	_, err = f.ls.textDocumentPrepareRename(nil, &protocol.PrepareRenameParams{TextDocumentPositionParams: positionParams(f.uri("a.md"), 2, 3)})
	require.Error(t, err)
	assert.True(t, mdlserrors.HasCategory(err, mdlserrors.CategoryRename))
}

func TestRenameHeaderUpdatesLinksOnDisk(t *testing.T) {
	f := newFixture(t, map[string]string{"b.md": "see [a](./a.md#hello)\n"}, nil)
	f.open(t, "a.md", "# Hello\n\n[self](#hello)\n")

	edit, err := f.ls.textDocumentRename(nil, &protocol.RenameParams{
		TextDocumentPositionParams: positionParams(f.uri("a.md"), 0, 3),
		NewName:                    "Good bye",
	})
	require.NoError(t, err)

	edits := editsByURI(t, edit)
	require.Len(t, edits[f.uri("b.md")], 1)
	assert.Equal(t, "good-bye", edits[f.uri("b.md")][0].NewText)
	assert.Len(t, edits[f.uri("a.md")], 2)
}

func TestRenameFilePathListsRenameLast(t *testing.T) {
	f := newFixture(t, map[string]string{"b.md": "# B\n"}, nil)
	f.open(t, "a.md", "[b](./b.md)\n")

	edit, err := f.ls.textDocumentRename(nil, &protocol.RenameParams{
		TextDocumentPositionParams: positionParams(f.uri("a.md"), 0, 7),
		NewName:                    "./c.md",
	})
	require.NoError(t, err)
	require.NotEmpty(t, edit.DocumentChanges)

	last, ok := edit.DocumentChanges[len(edit.DocumentChanges)-1].(protocol.RenameFile)
	require.True(t, ok)
	assert.Equal(t, f.uri("b.md"), last.OldURI)
	assert.Equal(t, f.uri("c.md"), last.NewURI)
}

func TestSelectionRange(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.open(t, "a.md", "# A\n\ntext with **bold** words\n")

	got, err := f.ls.textDocumentSelectionRange(nil, &protocol.SelectionRangeParams{
		TextDocument: textDocument(f.uri("a.md")),
		Positions:    []protocol.Position{{Line: 2, Character: 13}, {Line: 40, Character: 0}},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	inner := got[0]
	assert.Equal(t, protocol.Position{Line: 2, Character: 12}, inner.Range.Start)
	assert.Equal(t, protocol.Position{Line: 2, Character: 16}, inner.Range.End)
	depth := 0
	for r := &inner; r != nil; r = r.Parent {
		depth++
	}
	assert.Greater(t, depth, 2)

	assert.Equal(t, got[1].Range.Start, got[1].Range.End)
	assert.Nil(t, got[1].Parent)
}

func TestWillRenameFiles(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md":      "[b](./b.md) [img](./img.png)\n",
		"b.md":      "# B\n",
		"other.txt": "x",
	}, nil)

	edit, err := f.ls.workspaceWillRenameFiles(nil, &protocol.RenameFilesParams{
		Files: []protocol.FileRename{{OldURI: f.uri("b.md"), NewURI: f.uri("docs/b.md")}},
	})
	require.NoError(t, err)
	edits := editsByURI(t, edit)
	require.Len(t, edits[f.uri("a.md")], 1)
	assert.Equal(t, "./docs/b.md", edits[f.uri("a.md")][0].NewText)

	for _, change := range edit.DocumentChanges {
		_, isRename := change.(protocol.RenameFile)
		assert.False(t, isRename, "the client performs the renames itself")
	}

	edit, err = f.ls.workspaceWillRenameFiles(nil, &protocol.RenameFilesParams{
		Files: []protocol.FileRename{{OldURI: f.uri("other.txt"), NewURI: f.uri("moved.txt")}},
	})
	require.NoError(t, err)
	assert.Nil(t, edit)
}

func TestRequestMetrics(t *testing.T) {
	reg := prom.NewRegistry()
	f := newFixture(t, nil, reg)
	f.open(t, "a.md", "plain\n")

	_, err := f.ls.textDocumentPrepareRename(nil, &protocol.PrepareRenameParams{TextDocumentPositionParams: positionParams(f.uri("a.md"), 0, 1)})
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, fam := range families {
		names = append(names, fam.GetName())
		if fam.GetName() == "mdls_request_results_total" {
			found := false
			for _, m := range fam.GetMetric() {
				labels := map[string]string{}
				for _, l := range m.GetLabel() {
					labels[l.GetName()] = l.GetValue()
				}
				if labels["method"] == "textDocument/prepareRename" && labels["result"] == "unsupported" {
					found = true
				}
			}
			assert.True(t, found)
		}
	}
	assert.Contains(t, strings.Join(names, ","), "mdls_request_duration_seconds")
	assert.Contains(t, strings.Join(names, ","), "mdls_open_documents")
}
