package links

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/docuri"
	"git.home.luguber.info/inful/mdls/internal/markdown"
	"git.home.luguber.info/inful/mdls/internal/slugify"
	"git.home.luguber.info/inful/mdls/internal/textrange"
	"git.home.luguber.info/inful/mdls/internal/toc"
	"git.home.luguber.info/inful/mdls/internal/workspace"
)

type fixture struct {
	ws       *workspace.InMemory
	provider *Provider
}

func newFixture(docs ...*document.Document) *fixture {
	ws := workspace.NewInMemory(docuri.MustParse("file:///ws"))
	for _, d := range docs {
		ws.AddDocument(d)
	}
	tokenizer := markdown.NewTokenizer(nil)
	tocs := toc.NewProvider(ws, tokenizer, slugify.GitHub, nil)
	return &fixture{
		ws:       ws,
		provider: NewProvider(NewComputer(tokenizer, ws), ws, tocs, nil),
	}
}

func doc(uri, text string) *document.Document {
	return document.New(docuri.MustParse(uri), 1, text)
}

func TestDefinitionSet_FirstWins(t *testing.T) {
	d := doc(docURI, "[A]: one.md\n[a]: two.md\n[ B  c ]: three.md\n")
	f := newFixture(d)

	links, err := f.provider.GetLinks(context.Background(), d)
	require.NoError(t, err)
	require.Equal(t, 2, links.Definitions.Len())

	def, ok := links.Definitions.Lookup("a")
	require.True(t, ok)
	require.Equal(t, "one.md", def.Source.HrefText)

	def, ok = links.Definitions.Lookup("b C")
	require.True(t, ok)
	require.Equal(t, "three.md", def.Source.HrefText)

	_, ok = links.Definitions.Lookup("missing")
	require.False(t, ok)
}

func TestGetLinks_Cached(t *testing.T) {
	d := doc(docURI, "[a](b.md)")
	f := newFixture(d)
	first, err := f.provider.GetLinks(context.Background(), d)
	require.NoError(t, err)
	second, err := f.provider.GetLinks(context.Background(), d)
	require.NoError(t, err)
	require.Same(t, first, second)

	third, err := f.provider.GetLinks(context.Background(), d.WithText(2, "[a](c.md)"))
	require.NoError(t, err)
	require.NotSame(t, first, third)
	require.Equal(t, "c.md", third.Links[0].Source.HrefText)
}

func TestProvideDocumentLinks(t *testing.T) {
	d := doc(docURI, "[x](https://e.com) [y](b.md#h) [z][def] [w][nope]\n\n[def]: c.md\n")
	f := newFixture(d)

	got, err := f.provider.ProvideDocumentLinks(context.Background(), d)
	require.NoError(t, err)
	require.Len(t, got, 4, "undefined reference is skipped")

	require.Equal(t, "https://e.com", got[0].Target)
	require.Nil(t, got[0].Data)

	require.Empty(t, got[1].Target)
	require.Equal(t, &LinkData{Path: "file:///ws/sub/b.md", Fragment: "h"}, got[1].Data)

	command, args, ok := ParseCommandURI(got[2].Target)
	require.True(t, ok)
	require.Equal(t, CommandMoveCursor, command)
	var pos []int
	require.NoError(t, json.Unmarshal(args, &pos))
	require.Equal(t, []int{2, 7}, pos)
	require.Equal(t, "Go to link definition", got[2].Tooltip)

	require.Equal(t, textrange.NewRange(2, 7, 2, 11), got[3].Range, "definition target")
	require.NotNil(t, got[3].Data)
}

func TestResolveLinkTarget(t *testing.T) {
	source := doc(docURI, "")
	target := doc("file:///ws/sub/b.md", "intro\n\n## Hello World\n")
	f := newFixture(source, target)
	f.ws.AddFile(docuri.MustParse("file:///ws/img/pic.png"))
	ctx := context.Background()

	t.Run("header fragment", func(t *testing.T) {
		got, err := f.provider.ResolveLinkTarget(ctx, "b.md#hello-world", source.URI())
		require.NoError(t, err)
		require.Equal(t, TargetFile, got.Kind)
		require.Equal(t, "file:///ws/sub/b.md", got.URI.String())
		require.Equal(t, &textrange.Position{Line: 2, Character: 0}, got.Position)
		require.Equal(t, "hello-world", got.Fragment)
	})

	t.Run("extension fallback", func(t *testing.T) {
		got, err := f.provider.ResolveLinkTarget(ctx, "b#Hello-World", source.URI())
		require.NoError(t, err)
		require.Equal(t, "file:///ws/sub/b.md", got.URI.String())
		require.NotNil(t, got.Position)
	})

	t.Run("line fragment", func(t *testing.T) {
		got, err := f.provider.ResolveLinkTarget(ctx, "b.md#L3,5", source.URI())
		require.NoError(t, err)
		require.Equal(t, &textrange.Position{Line: 2, Character: 4}, got.Position)
	})

	t.Run("folder", func(t *testing.T) {
		got, err := f.provider.ResolveLinkTarget(ctx, "../img", source.URI())
		require.NoError(t, err)
		require.Equal(t, TargetFolder, got.Kind)
		require.Equal(t, "file:///ws/img", got.URI.String())
	})

	t.Run("missing file", func(t *testing.T) {
		got, err := f.provider.ResolveLinkTarget(ctx, "nope.md#x", source.URI())
		require.NoError(t, err)
		require.Equal(t, TargetFile, got.Kind)
		require.Equal(t, "file:///ws/sub/nope.md", got.URI.String())
		require.Nil(t, got.Position)
	})

	t.Run("unknown header", func(t *testing.T) {
		got, err := f.provider.ResolveLinkTarget(ctx, "b.md#nothing", source.URI())
		require.NoError(t, err)
		require.Nil(t, got.Position)
	})

	t.Run("external", func(t *testing.T) {
		got, err := f.provider.ResolveLinkTarget(ctx, "https://e.com/x", source.URI())
		require.NoError(t, err)
		require.Equal(t, TargetExternal, got.Kind)
	})
}

func TestResolveLinkTarget_Canceled(t *testing.T) {
	source := doc(docURI, "")
	f := newFixture(source, doc("file:///ws/sub/b.md", "# Hello\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, link := range []string{"b.md", "b.md#hello", "missing.md"} {
		got, err := f.provider.ResolveLinkTarget(ctx, link, source.URI())
		require.NoError(t, err, link)
		require.Nil(t, got, link)
	}

	resolved, err := f.provider.ResolveDocumentLink(ctx, &DocumentLink{Data: &LinkData{Path: "file:///ws/sub/b.md"}})
	require.NoError(t, err)
	require.Nil(t, resolved)
}

func TestResolveDocumentLink(t *testing.T) {
	source := doc(docURI, "[f](../img) [h](b.md#hello) [p](b.md)\n")
	target := doc("file:///ws/sub/b.md", "# Hello\n")
	f := newFixture(source, target)
	f.ws.AddFile(docuri.MustParse("file:///ws/img/pic.png"))
	ctx := context.Background()

	links, err := f.provider.ProvideDocumentLinks(ctx, source)
	require.NoError(t, err)
	require.Len(t, links, 3)

	folder, err := f.provider.ResolveDocumentLink(ctx, &links[0])
	require.NoError(t, err)
	command, _, ok := ParseCommandURI(folder.Target)
	require.True(t, ok)
	require.Equal(t, CommandRevealInExplorer, command)

	header, err := f.provider.ResolveDocumentLink(ctx, &links[1])
	require.NoError(t, err)
	command, args, ok := ParseCommandURI(header.Target)
	require.True(t, ok)
	require.Equal(t, CommandOpen, command)
	require.JSONEq(t, `["file:///ws/sub/b.md",{"line":0,"character":0}]`, string(args))

	plain, err := f.provider.ResolveDocumentLink(ctx, &links[2])
	require.NoError(t, err)
	require.Equal(t, "file:///ws/sub/b.md", plain.Target)

	none, err := f.provider.ResolveDocumentLink(ctx, &DocumentLink{Target: "https://e.com"})
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestResolveLinkTarget_NotebookCells(t *testing.T) {
	cell1 := doc("file:///ws/nb.ipynb#cell1", "[jump](#second)\n")
	cell2 := doc("file:///ws/nb.ipynb#cell2", "# Second\n")
	f := newFixture(cell1, cell2)
	f.ws.SetContainingDocument(&workspace.ContainingDocument{
		URI:      docuri.MustParse("file:///ws/nb.ipynb"),
		Children: []docuri.URI{cell1.URI(), cell2.URI()},
	})

	got, err := f.provider.ResolveLinkTarget(context.Background(), "#second", cell1.URI())
	require.NoError(t, err)
	require.Equal(t, TargetFile, got.Kind)
	require.NotNil(t, got.Position)

	href, ok := CreateHref(cell1.URI(), "other.md", f.ws)
	require.True(t, ok)
	require.Equal(t, "file:///ws/other.md", href.(InternalHref).Path.String(), "relative to the notebook")
}

func TestWorkspaceLinks(t *testing.T) {
	f := newFixture(doc("file:///ws/a.md", "[x](b.md)"), doc("file:///ws/b.md", "[y](a.md) [z](c.md)"))
	all, err := f.provider.WorkspaceLinks(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Len(t, all[0].Links, 1)
	require.Len(t, all[1].Links, 2)
}

func TestParseLineFragment(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want *textrange.Position
	}{
		{"L1", &textrange.Position{}},
		{"l10,3", &textrange.Position{Line: 9, Character: 2}},
		{"L0", &textrange.Position{}},
		{"L1-2", nil},
		{"heading", nil},
	} {
		got, ok := ParseLineFragment(tc.in)
		if tc.want == nil {
			require.False(t, ok, tc.in)
			continue
		}
		require.True(t, ok, tc.in)
		require.Equal(t, *tc.want, got, tc.in)
	}
}

func TestCommandURI_RoundTrip(t *testing.T) {
	uri := CommandURI(CommandOpen, "file:///a b.md", textrange.Position{Line: 1, Character: 2})
	require.NotContains(t, uri, " ")
	require.NotContains(t, uri, "+")
	command, args, ok := ParseCommandURI(uri)
	require.True(t, ok)
	require.Equal(t, CommandOpen, command)
	require.JSONEq(t, `["file:///a b.md",{"line":1,"character":2}]`, string(args))

	_, _, ok = ParseCommandURI("https://e.com")
	require.False(t, ok)
}

func TestCreateHref(t *testing.T) {
	ws := workspace.NewInMemory(docuri.MustParse("file:///ws"))
	source := docuri.MustParse(docURI)

	href, ok := CreateHref(source, "../a%20b.md?x=1#Sec%20One", ws)
	require.True(t, ok)
	require.Equal(t, "/ws/a b.md", href.(InternalHref).Path.Path())
	require.Equal(t, "Sec One", href.(InternalHref).Fragment)

	href, ok = CreateHref(source, "bad%zz.md", ws)
	require.True(t, ok, "undecodable text is kept verbatim")
	require.Equal(t, "/ws/sub/bad%zz.md", href.(InternalHref).Path.Path())

	href, ok = CreateHref(source, "<c.md>", ws)
	require.True(t, ok)
	require.Equal(t, "/ws/sub/c.md", href.(InternalHref).Path.Path())

	href, ok = CreateHref(source, "mailto:me@example.com", ws)
	require.True(t, ok)
	require.IsType(t, ExternalHref{}, href)

	_, ok = CreateHref(docuri.MustParse("untitled:Untitled-1"), "/x.md", workspace.NewInMemory())
	require.False(t, ok, "no workspace folder to anchor a root-relative path")
}
