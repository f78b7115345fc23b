package references

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/docuri"
	"git.home.luguber.info/inful/mdls/internal/links"
	"git.home.luguber.info/inful/mdls/internal/markdown"
	"git.home.luguber.info/inful/mdls/internal/slugify"
	"git.home.luguber.info/inful/mdls/internal/textrange"
	"git.home.luguber.info/inful/mdls/internal/toc"
	"git.home.luguber.info/inful/mdls/internal/workspace"
)

const (
	aText = "# Hello World\n\n[self](#hello-world)\n[b](b.md#other)\n"
	bText = "# Other\n\n[to a](a.md#hello-world) [to a2](./a#Hello-World) [ext](https://e.com) [plain](a.md)\n\n[ref]: a.md\n[r][ref]\n"
)

type fixture struct {
	a, b     *document.Document
	provider *Provider
}

func newFixture() *fixture {
	ws := workspace.NewInMemory(docuri.MustParse("file:///ws"))
	f := &fixture{
		a: document.New(docuri.MustParse("file:///ws/a.md"), 1, aText),
		b: document.New(docuri.MustParse("file:///ws/b.md"), 1, bText),
	}
	ws.AddDocument(f.a)
	ws.AddDocument(f.b)
	tokenizer := markdown.NewTokenizer(nil)
	tocs := toc.NewProvider(ws, tokenizer, slugify.GitHub, nil)
	linkProvider := links.NewProvider(links.NewComputer(tokenizer, ws), ws, tocs, nil)
	f.provider = NewProvider(linkProvider, tocs)
	return f
}

func hrefs(refs []Reference) []string {
	var out []string
	for _, r := range refs {
		if r.Kind == KindHeader {
			out = append(out, "header:"+r.Header.Slug.Value())
			continue
		}
		out = append(out, r.Location.URI.Base()+":"+r.Link.Source.HrefText)
	}
	return out
}

func TestReferencesToHeader(t *testing.T) {
	f := newFixture()
	refs, err := f.provider.GetReferencesAtPosition(context.Background(), f.a, textrange.Pos(0, 3))
	require.NoError(t, err)
	require.Equal(t, []string{
		"header:hello-world",
		"a.md:#hello-world",
		"b.md:a.md#hello-world",
		"b.md:./a#Hello-World",
	}, hrefs(refs))
	require.True(t, refs[0].IsTriggerLocation)
	require.True(t, refs[0].IsDefinition)
	require.Equal(t, textrange.NewRange(0, 2, 0, 13), refs[0].HeaderTextLocation.Range)
	require.Equal(t, textrange.NewRange(2, 12, 2, 23), refs[2].Location.Range, "links are located by their fragment")
}

func TestReferencesFromFragment(t *testing.T) {
	f := newFixture()
	refs, err := f.provider.GetReferencesAtPosition(context.Background(), f.b, textrange.Pos(2, 15))
	require.NoError(t, err)
	require.Equal(t, []string{
		"header:hello-world",
		"a.md:#hello-world",
		"b.md:a.md#hello-world",
		"b.md:./a#Hello-World",
	}, hrefs(refs))
	require.False(t, refs[0].IsTriggerLocation)
	require.True(t, refs[2].IsTriggerLocation)
	require.False(t, refs[3].IsTriggerLocation)
}

func TestReferencesFromPath(t *testing.T) {
	f := newFixture()
	refs, err := f.provider.GetReferencesAtPosition(context.Background(), f.b, textrange.Pos(2, 8))
	require.NoError(t, err)
	require.Equal(t, []string{
		"b.md:a.md#hello-world",
		"b.md:./a#Hello-World",
		"b.md:a.md",
		"b.md:a.md",
	}, hrefs(refs), "the fragment-only self link is not a file reference")
	require.Equal(t, textrange.NewRange(2, 7, 2, 11), refs[0].Location.Range)
	require.True(t, refs[0].IsTriggerLocation)

	inWorkspace, err := f.provider.GetReferencesToFileInWorkspace(context.Background(), f.a.URI())
	require.NoError(t, err)
	require.Len(t, inWorkspace, 4)

	inDocs, err := f.provider.GetReferencesToFileInDocs(context.Background(), f.b.URI(), []*document.Document{f.a})
	require.NoError(t, err)
	require.Equal(t, []string{"a.md:b.md#other"}, hrefs(inDocs))
}

func TestReferencesToExternalLink(t *testing.T) {
	f := newFixture()
	refs, err := f.provider.GetReferencesAtPosition(context.Background(), f.b, textrange.Pos(2, 60))
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.True(t, refs[0].IsTriggerLocation)
	require.Equal(t, "https://e.com", refs[0].Link.Source.HrefText)
}

func TestReferencesToLinkReference(t *testing.T) {
	f := newFixture()
	for _, pos := range []textrange.Position{textrange.Pos(5, 5), textrange.Pos(4, 2)} {
		refs, err := f.provider.GetReferencesAtPosition(context.Background(), f.b, pos)
		require.NoError(t, err)
		require.Len(t, refs, 2, pos.String())

		var defs, triggers int
		for _, r := range refs {
			if r.IsDefinition {
				defs++
				require.Equal(t, textrange.NewRange(4, 1, 4, 4), r.Location.Range)
			}
			if r.IsTriggerLocation {
				triggers++
			}
		}
		require.Equal(t, 1, defs)
		require.Equal(t, 1, triggers)
	}
}

func TestNoReferencesOutsideLinks(t *testing.T) {
	f := newFixture()
	refs, err := f.provider.GetReferencesAtPosition(context.Background(), f.a, textrange.Pos(1, 0))
	require.NoError(t, err)
	require.Empty(t, refs)
}
