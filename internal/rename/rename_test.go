package rename

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/docuri"
	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/links"
	"git.home.luguber.info/inful/mdls/internal/markdown"
	"git.home.luguber.info/inful/mdls/internal/references"
	"git.home.luguber.info/inful/mdls/internal/slugify"
	"git.home.luguber.info/inful/mdls/internal/textrange"
	"git.home.luguber.info/inful/mdls/internal/toc"
	"git.home.luguber.info/inful/mdls/internal/workspace"
	"git.home.luguber.info/inful/mdls/internal/wsedit"
)

type fixture struct {
	ws       *workspace.InMemory
	docs     map[string]*document.Document
	provider *Provider
}

func newFixture(files map[string]string) *fixture {
	ws := workspace.NewInMemory(docuri.MustParse("file:///ws"))
	f := &fixture{ws: ws, docs: map[string]*document.Document{}}
	for name, text := range files {
		d := document.New(docuri.MustParse("file:///ws/"+name), 1, text)
		ws.AddDocument(d)
		f.docs[name] = d
	}
	tokenizer := markdown.NewTokenizer(nil)
	tocs := toc.NewProvider(ws, tokenizer, slugify.GitHub, nil)
	linkProvider := links.NewProvider(links.NewComputer(tokenizer, ws), ws, tocs, nil)
	f.provider = NewProvider(linkProvider, references.NewProvider(linkProvider, tocs), tocs, tokenizer)
	return f
}

// applied returns the text of every edited document after applying edit.
func (f *fixture) applied(t *testing.T, edit *wsedit.WorkspaceEdit) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, d := range edit.Documents {
		name := d.URI.Base()
		text, err := wsedit.Apply(f.docs[name], d.Edits)
		require.NoError(t, err)
		out[name] = text
	}
	return out
}

func TestPrepareRename_NotSupported(t *testing.T) {
	f := newFixture(map[string]string{"a.md": "plain text\n"})
	_, err := f.provider.PrepareRename(context.Background(), f.docs["a.md"], textrange.Pos(0, 2))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrRenameNotSupported))
	require.True(t, mdlserrors.HasCategory(err, mdlserrors.CategoryRename))
	require.Contains(t, err.Error(), "Renaming is not supported here. Try renaming a header or link.")
}

func TestPrepareRename_Placeholders(t *testing.T) {
	f := newFixture(map[string]string{
		"a.md": "# Hello *World*\n\n[x](./old%20name.md#hello-world) [y](https://e.com) [z][ref]\n\n[ref]: b.md\n[self](#hello-world)\n",
	})
	d := f.docs["a.md"]
	ctx := context.Background()

	header, err := f.provider.PrepareRename(ctx, d, textrange.Pos(0, 4))
	require.NoError(t, err)
	require.Equal(t, "Hello *World*", header.Placeholder)
	require.Equal(t, textrange.NewRange(0, 2, 0, 15), header.Range)

	path, err := f.provider.PrepareRename(ctx, d, textrange.Pos(2, 6))
	require.NoError(t, err)
	require.Equal(t, "./old name.md", path.Placeholder)
	require.Equal(t, textrange.NewRange(2, 4, 2, 19), path.Range)

	fragment, err := f.provider.PrepareRename(ctx, d, textrange.Pos(5, 10))
	require.NoError(t, err)
	require.Equal(t, "Hello *World*", fragment.Placeholder, "fragments suggest the declaring header's text")

	external, err := f.provider.PrepareRename(ctx, d, textrange.Pos(2, 40))
	require.NoError(t, err)
	require.Equal(t, "https://e.com", external.Placeholder)

	def, err := f.provider.PrepareRename(ctx, d, textrange.Pos(4, 2))
	require.NoError(t, err)
	require.Equal(t, "ref", def.Placeholder)
	require.Equal(t, textrange.NewRange(4, 1, 4, 4), def.Range)
}

func TestRename_ReferenceLinks(t *testing.T) {
	f := newFixture(map[string]string{"a.md": "[t][Ref] [u][ref]\n\n[ref]: b.md\n"})
	edit, err := f.provider.ProvideRenameEdits(context.Background(), f.docs["a.md"], textrange.Pos(0, 5), "next")
	require.NoError(t, err)
	require.Equal(t, "[t][next] [u][next]\n\n[next]: b.md\n", f.applied(t, edit)["a.md"])
}

func TestRename_ExternalLinks(t *testing.T) {
	f := newFixture(map[string]string{
		"a.md": "[x](https://old.example) <https://old.example>\n",
		"b.md": "[y](https://old.example)\n",
	})
	edit, err := f.provider.ProvideRenameEdits(context.Background(), f.docs["a.md"], textrange.Pos(0, 8), "https://new.example")
	require.NoError(t, err)
	got := f.applied(t, edit)
	require.Equal(t, "[x](https://new.example) <https://new.example>\n", got["a.md"])
	require.Equal(t, "[y](https://new.example)\n", got["b.md"])
}

func TestRename_Header(t *testing.T) {
	f := newFixture(map[string]string{
		"a.md": "# Old Name\n\n[self](#old-name)\n",
		"b.md": "[x](a.md#old-name) [y](./a#Old-Name) [z](a.md)\n",
	})
	edit, err := f.provider.ProvideRenameEdits(context.Background(), f.docs["a.md"], textrange.Pos(0, 3), "New Name")
	require.NoError(t, err)
	got := f.applied(t, edit)
	require.Equal(t, "# New Name\n\n[self](#new-name)\n", got["a.md"])
	require.Equal(t, "[x](a.md#new-name) [y](./a#new-name) [z](a.md)\n", got["b.md"])
	require.Empty(t, edit.Renames)
}

func TestRename_FromFragment(t *testing.T) {
	f := newFixture(map[string]string{
		"a.md": "# Old Name\n",
		"b.md": "[x](a.md#old-name)\n",
	})
	edit, err := f.provider.ProvideRenameEdits(context.Background(), f.docs["b.md"], textrange.Pos(0, 12), "Other")
	require.NoError(t, err)
	got := f.applied(t, edit)
	require.Equal(t, "# Other\n", got["a.md"])
	require.Equal(t, "[x](a.md#other)\n", got["b.md"])
}

func TestRenameFragment_LinkText(t *testing.T) {
	f := newFixture(map[string]string{"a.md": "x\n"})
	uri := docuri.MustParse("file:///ws/a.md")
	fragment := textrange.NewRange(1, 9, 1, 12)
	set := &referenceSet{references: []references.Reference{
		{
			Kind:     references.KindLink,
			Link:     &links.Link{Kind: links.KindLink, Href: links.ExternalHref{URI: docuri.MustParse("https://x.com/old")}, Source: links.Source{Resource: uri}},
			Location: document.Location{URI: uri, Range: textrange.NewRange(0, 4, 0, 21)},
		},
		{
			Kind:     references.KindLink,
			Link:     &links.Link{Kind: links.KindLink, Href: links.InternalHref{Path: uri, Fragment: "old"}, Source: links.Source{Resource: uri, HrefFragmentRange: &fragment}},
			Location: document.Location{URI: uri, Range: fragment},
		},
	}}

	edit, err := f.provider.renameFragment(context.Background(), set, "New Name")
	require.NoError(t, err)
	require.Equal(t, []wsedit.TextEdit{
		{Range: textrange.NewRange(0, 4, 0, 21), NewText: "New Name"},
		{Range: fragment, NewText: "new-name"},
	}, edit.EditsFor(uri))
}

func TestRename_HeaderCascadesDuplicateSlugs(t *testing.T) {
	f := newFixture(map[string]string{
		"a.md": "# Foo\n# Bar\n# Bar\n\n[1](#foo) [2](#bar) [3](#bar-1)\n",
	})
	edit, err := f.provider.ProvideRenameEdits(context.Background(), f.docs["a.md"], textrange.Pos(0, 2), "Bar")
	require.NoError(t, err)
	require.Equal(t, "# Bar\n# Bar\n# Bar\n\n[1](#bar) [2](#bar-1) [3](#bar-2)\n", f.applied(t, edit)["a.md"])

	// The real document's table of contents is untouched by the hypothetical edit.
	contents, err := f.provider.toc.GetForDocument(context.Background(), f.docs["a.md"])
	require.NoError(t, err)
	require.Equal(t, "foo", contents.Entries[0].Slug.Value())
}

func TestRename_FilePath(t *testing.T) {
	files := map[string]string{
		"a.md": "[b](./b.md#x) [b2](<./b.md>)\n",
		"b.md": "# X\n",
		"c.md": "[b](/b.md)\n\n[def]: b.md\n",
	}
	ctx := context.Background()

	t.Run("relative and root relative", func(t *testing.T) {
		f := newFixture(files)
		edit, err := f.provider.ProvideRenameEdits(ctx, f.docs["a.md"], textrange.Pos(0, 6), "./sub/new.md")
		require.NoError(t, err)
		require.Len(t, edit.Renames, 1)
		require.Equal(t, "file:///ws/b.md", edit.Renames[0].OldURI.String())
		require.Equal(t, "file:///ws/sub/new.md", edit.Renames[0].NewURI.String())

		got := f.applied(t, edit)
		require.Equal(t, "[b](./sub/new.md#x) [b2](<./sub/new.md>)\n", got["a.md"])
		require.Equal(t, "[b](/sub/new.md)\n\n[def]: ./sub/new.md\n", got["c.md"])
	})

	t.Run("extension added to the file only", func(t *testing.T) {
		f := newFixture(files)
		edit, err := f.provider.ProvideRenameEdits(ctx, f.docs["a.md"], textrange.Pos(0, 6), "renamed")
		require.NoError(t, err)
		require.Equal(t, "file:///ws/renamed.md", edit.Renames[0].NewURI.String())
		require.Equal(t, "[b](renamed#x) [b2](<renamed>)\n", f.applied(t, edit)["a.md"])
	})

	t.Run("spaces are encoded outside angle brackets", func(t *testing.T) {
		f := newFixture(files)
		edit, err := f.provider.ProvideRenameEdits(ctx, f.docs["a.md"], textrange.Pos(0, 6), "my file.md")
		require.NoError(t, err)
		require.Equal(t, "[b](my%20file.md#x) [b2](<my file.md>)\n", f.applied(t, edit)["a.md"])
	})

	t.Run("unbalanced parentheses need angle brackets", func(t *testing.T) {
		f := newFixture(files)
		edit, err := f.provider.ProvideRenameEdits(ctx, f.docs["a.md"], textrange.Pos(0, 6), "f(1.md")
		require.NoError(t, err)
		require.Equal(t, "[b](<f(1.md#x>) [b2](<f(1.md>)\n", f.applied(t, edit)["a.md"])
	})
}

func TestRename_FilePathWithoutExtension(t *testing.T) {
	ctx := context.Background()
	newLicenseFixture := func() *fixture {
		f := newFixture(map[string]string{"a.md": "[lic](./LICENSE) [img](./images)\n"})
		f.ws.AddFile(docuri.MustParse("file:///ws/LICENSE"))
		f.ws.AddFile(docuri.MustParse("file:///ws/images/logo.png"))
		return f
	}

	t.Run("extensionless file keeps no extension", func(t *testing.T) {
		f := newLicenseFixture()
		edit, err := f.provider.ProvideRenameEdits(ctx, f.docs["a.md"], textrange.Pos(0, 8), "./COPYING")
		require.NoError(t, err)
		require.Len(t, edit.Renames, 1)
		require.Equal(t, "file:///ws/LICENSE", edit.Renames[0].OldURI.String())
		require.Equal(t, "file:///ws/COPYING", edit.Renames[0].NewURI.String())
		require.Equal(t, "[lic](./COPYING) [img](./images)\n", f.applied(t, edit)["a.md"])
	})

	t.Run("folder is renamed as a folder", func(t *testing.T) {
		f := newLicenseFixture()
		edit, err := f.provider.ProvideRenameEdits(ctx, f.docs["a.md"], textrange.Pos(0, 25), "./pics")
		require.NoError(t, err)
		require.Len(t, edit.Renames, 1)
		require.Equal(t, "file:///ws/images", edit.Renames[0].OldURI.String())
		require.Equal(t, "file:///ws/pics", edit.Renames[0].NewURI.String())
		require.Equal(t, "[lic](./LICENSE) [img](./pics)\n", f.applied(t, edit)["a.md"])
	})
}

func TestReferencesAreMemoised(t *testing.T) {
	f := newFixture(map[string]string{"a.md": "# Title\n"})
	ctx := context.Background()
	_, err := f.provider.PrepareRename(ctx, f.docs["a.md"], textrange.Pos(0, 3))
	require.NoError(t, err)
	first := f.provider.last
	require.NotNil(t, first)

	_, err = f.provider.ProvideRenameEdits(ctx, f.docs["a.md"], textrange.Pos(0, 3), "Next")
	require.NoError(t, err)
	require.Same(t, first, f.provider.last)

	_, err = f.provider.PrepareRename(ctx, f.docs["a.md"], textrange.Pos(0, 4))
	require.NoError(t, err)
	require.NotSame(t, first, f.provider.last)
}

func TestNeedsAngleBrackets(t *testing.T) {
	require.False(t, NeedsAngleBrackets("a/b.md"))
	require.False(t, NeedsAngleBrackets("a(1).md"))
	require.True(t, NeedsAngleBrackets("a b.md"))
	require.True(t, NeedsAngleBrackets("a(1.md"))
	require.True(t, NeedsAngleBrackets("a)1(.md"))
	require.False(t, NeedsAngleBrackets(`a\(1.md`))
}

func TestEncodeURI(t *testing.T) {
	require.Equal(t, "a%20b/%C3%A9.md#x", EncodeURI("a b/é.md#x"))
	require.Equal(t, "f(1).md", EncodeURI("f(1).md"))
}
