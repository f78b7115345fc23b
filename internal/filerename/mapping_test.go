package filerename

import (
	"testing"

	"github.com/stretchr/testify/require"

	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/links"
)

func TestNormalizeRenames(t *testing.T) {
	got, err := normalizeRenames([]FileRename{
		move("b.md", "c.md"),
		move("a.md", "a.md"),
		move("b.md", "c.md"),
		move("d", "e"),
	})
	require.NoError(t, err)
	require.Equal(t, []FileRename{move("b.md", "c.md"), move("d", "e")}, got)

	_, err = normalizeRenames([]FileRename{{NewURI: uri("x.md")}})
	require.True(t, mdlserrors.HasCategory(err, mdlserrors.CategoryValidation))
}

func TestRenameSetPrefersMostSpecificMove(t *testing.T) {
	set, err := newRenameSet([]FileRename{move("docs", "guide"), move("docs/a.md", "top.md")})
	require.NoError(t, err)

	moved, idx, ok := set.move(uri("docs/a.md"))
	require.True(t, ok)
	require.Equal(t, 1, idx)
	require.Equal(t, "file:///ws/top.md", moved.String())

	moved, idx, ok = set.move(uri("docs/sub/b.md"))
	require.True(t, ok)
	require.Equal(t, 0, idx)
	require.Equal(t, "file:///ws/guide/sub/b.md", moved.String())

	_, _, ok = set.move(uri("docsx/a.md"))
	require.False(t, ok)
}

func TestRenameSetMovesExtensionlessLinks(t *testing.T) {
	set, err := newRenameSet([]FileRename{move("b.md", "c.md")})
	require.NoError(t, err)

	moved, _, ok := set.moveLinkTarget(links.InternalHref{Path: uri("b")}, nil)
	require.True(t, ok)
	require.Equal(t, "file:///ws/c.md", moved.String())
}
