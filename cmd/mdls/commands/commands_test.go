package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/testutil"
)

func writeWorkspace(t *testing.T) string {
	t.Helper()
	return testutil.WriteTree(t, map[string]string{
		"a.md":        "# Start\n\nSee [intro](./docs/b.md#intro) and [home][site].\n\n[site]: https://example.com\n",
		"docs/b.md":   "# Intro\n\nBack to [start](../a.md).\n\n## Details\n",
		"docs/c.txt":  "not markdown\n",
		"img/logo.md": "# Logo\n",
	})
}

func TestLinksText(t *testing.T) {
	dir := writeWorkspace(t)
	var buf bytes.Buffer
	cmd := &LinksCmd{WorkspaceFlags: WorkspaceFlags{Root: dir}, OutputFlags: OutputFlags{Format: "text"}, File: filepath.Join(dir, "a.md")}

	require.NoError(t, cmd.Run(&Global{Out: &buf}, &CLI{}))

	out := buf.String()
	assert.Contains(t, out, "./docs/b.md#intro")
	assert.Contains(t, out, "https://example.com")
	assert.Contains(t, out, "definition")
}

func TestLinksJSONResolved(t *testing.T) {
	dir := writeWorkspace(t)
	var buf bytes.Buffer
	cmd := &LinksCmd{
		WorkspaceFlags: WorkspaceFlags{Root: dir},
		OutputFlags:    OutputFlags{Format: "json"},
		File:           filepath.Join(dir, "a.md"),
		Resolve:        true,
	}
	require.NoError(t, cmd.Run(&Global{Out: &buf}, &CLI{}))

	var records []linkRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.NotEmpty(t, records)

	var internal *linkRecord
	for i := range records {
		if records[i].Href == "./docs/b.md#intro" {
			internal = &records[i]
		}
	}
	require.NotNil(t, internal)
	assert.Equal(t, "link", internal.Kind)
	require.NotNil(t, internal.Resolved)
	assert.Equal(t, "file", internal.Resolved.Kind)
	require.NotNil(t, internal.Resolved.Position)
	assert.Equal(t, 0, internal.Resolved.Position.Line)
}

func TestLinksRejectsNonMarkdown(t *testing.T) {
	dir := writeWorkspace(t)
	cmd := &LinksCmd{WorkspaceFlags: WorkspaceFlags{Root: dir}, File: filepath.Join(dir, "docs", "c.txt")}

	err := cmd.Run(&Global{Out: &bytes.Buffer{}}, &CLI{})
	require.Error(t, err)
	assert.True(t, mdlserrors.HasCategory(err, mdlserrors.CategoryValidation))
}

func TestLinksMissingFile(t *testing.T) {
	dir := writeWorkspace(t)
	cmd := &LinksCmd{WorkspaceFlags: WorkspaceFlags{Root: dir}, File: filepath.Join(dir, "missing.md")}

	err := cmd.Run(&Global{Out: &bytes.Buffer{}}, &CLI{})
	require.Error(t, err)
	assert.True(t, mdlserrors.HasCategory(err, mdlserrors.CategoryNotFound))
}

func TestResolveHeader(t *testing.T) {
	dir := writeWorkspace(t)
	var buf bytes.Buffer
	cmd := &ResolveCmd{
		WorkspaceFlags: WorkspaceFlags{Root: dir},
		OutputFlags:    OutputFlags{Format: "yaml"},
		File:           filepath.Join(dir, "a.md"),
		Link:           "./docs/b.md#details",
	}
	require.NoError(t, cmd.Run(&Global{Out: &buf}, &CLI{}))

	var rec struct {
		Kind     string `yaml:"kind"`
		URI      string `yaml:"uri"`
		Position struct {
			Line int `yaml:"line"`
		} `yaml:"position"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "file", rec.Kind)
	assert.Contains(t, rec.URI, "docs/b.md")
	assert.Equal(t, 4, rec.Position.Line)
}

func TestResolveExternal(t *testing.T) {
	dir := writeWorkspace(t)
	var buf bytes.Buffer
	cmd := &ResolveCmd{WorkspaceFlags: WorkspaceFlags{Root: dir}, File: filepath.Join(dir, "a.md"), Link: "https://example.com/x"}

	require.NoError(t, cmd.Run(&Global{Out: &buf}, &CLI{}))
	assert.Equal(t, "external https://example.com/x\n", buf.String())
}

func TestToc(t *testing.T) {
	dir := writeWorkspace(t)
	var buf bytes.Buffer
	cmd := &TocCmd{WorkspaceFlags: WorkspaceFlags{Root: dir}, OutputFlags: OutputFlags{Format: "text"}, File: filepath.Join(dir, "docs", "b.md")}

	require.NoError(t, cmd.Run(&Global{Out: &buf}, &CLI{}))
	assert.Equal(t, "- Intro (#intro) 1-6\n  - Details (#details) 5-6\n", buf.String())
}

func TestReferencesToFile(t *testing.T) {
	dir := writeWorkspace(t)
	var buf bytes.Buffer
	cmd := &ReferencesCmd{WorkspaceFlags: WorkspaceFlags{Root: dir}, OutputFlags: OutputFlags{Format: "json"}, File: filepath.Join(dir, "docs", "b.md")}

	require.NoError(t, cmd.Run(&Global{Out: &buf}, &CLI{}))

	var records []referenceRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "link", records[0].Kind)
	assert.Contains(t, records[0].URI, "a.md")
}

func TestReferencesAtHeader(t *testing.T) {
	dir := writeWorkspace(t)
	var buf bytes.Buffer
	cmd := &ReferencesCmd{
		WorkspaceFlags: WorkspaceFlags{Root: dir},
		OutputFlags:    OutputFlags{Format: "json"},
		File:           filepath.Join(dir, "docs", "b.md"),
		Line:           1,
		Col:            4,
	}
	require.NoError(t, cmd.Run(&Global{Out: &buf}, &CLI{}))

	var records []referenceRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2)

	kinds := []string{records[0].Kind, records[1].Kind}
	assert.ElementsMatch(t, []string{"header", "link"}, kinds)
}

func TestRenameFileJSON(t *testing.T) {
	dir := writeWorkspace(t)
	var buf bytes.Buffer
	cmd := &RenameFileCmd{
		WorkspaceFlags: WorkspaceFlags{Root: dir},
		OutputFlags:    OutputFlags{Format: "json"},
		Old:            filepath.Join(dir, "docs", "b.md"),
		New:            filepath.Join(dir, "guide", "b.md"),
	}
	require.NoError(t, cmd.Run(&Global{Out: &buf}, &CLI{}))

	// Only the path part is replaced; the fragment stays in the document.
	assert.Contains(t, buf.String(), `"newText": "./guide/b.md"`)
	assert.NotContains(t, buf.String(), "#intro")
	assert.NotContains(t, buf.String(), `"kind": "rename"`)

	testutil.NewFileAssertions(t, dir).
		AssertFileExists("docs/b.md").
		AssertFileNotExists("guide/b.md")
}

func TestRenameFileYAML(t *testing.T) {
	dir := writeWorkspace(t)
	var buf bytes.Buffer
	cmd := &RenameFileCmd{
		WorkspaceFlags: WorkspaceFlags{Root: dir},
		OutputFlags:    OutputFlags{Format: "yaml"},
		Old:            filepath.Join(dir, "docs", "b.md"),
		New:            filepath.Join(dir, "guide", "b.md"),
	}
	require.NoError(t, cmd.Run(&Global{Out: &buf}, &CLI{}))
	assert.Contains(t, buf.String(), "newText: ./guide/b.md")
}

func TestInitWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mdls.yaml")
	var buf bytes.Buffer

	require.NoError(t, (&InitCmd{}).Run(&Global{Out: &buf}, &CLI{Config: path}))
	assert.FileExists(t, path)

	err := (&InitCmd{}).Run(&Global{Out: &buf}, &CLI{Config: path})
	assert.True(t, mdlserrors.HasCategory(err, mdlserrors.CategoryConfig))

	require.NoError(t, (&InitCmd{Force: true}).Run(&Global{Out: &buf}, &CLI{Config: path}))
}

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&VersionCmd{}).Run(&Global{Out: &buf}, &CLI{}))
	assert.Contains(t, buf.String(), "mdls ")
}

func TestParseAndRunThroughKong(t *testing.T) {
	dir := writeWorkspace(t)
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("mdls"), kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)

	kctx, err := parser.Parse([]string{"toc", "-r", dir, "-f", "json", filepath.Join(dir, "a.md")})
	require.NoError(t, err)
	assert.Equal(t, "toc <file>", kctx.Command())

	var buf bytes.Buffer
	require.NoError(t, kctx.Run(&Global{Out: &buf}, &cli))

	var records []tocRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "start", records[0].Slug)
}

func TestParseRejectsUnknownFormat(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("mdls"), kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)

	_, err = parser.Parse([]string{"links", "-f", "xml", "a.md"})
	assert.Error(t, err)
}
