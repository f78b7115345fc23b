// Package testutil holds on-disk workspace fixtures shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTree writes files, keyed by slash-separated relative path, below a
// fresh temporary directory and returns that directory.
func WriteTree(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return root
}

// FileAssertions checks the state of files below a base directory.
type FileAssertions struct {
	t       testing.TB
	baseDir string
}

// NewFileAssertions creates a new file assertions helper.
func NewFileAssertions(t testing.TB, baseDir string) *FileAssertions {
	return &FileAssertions{t: t, baseDir: baseDir}
}

// AssertFileExists validates that a file exists.
func (fa *FileAssertions) AssertFileExists(relativePath string) *FileAssertions {
	fa.t.Helper()
	require.FileExists(fa.t, filepath.Join(fa.baseDir, filepath.FromSlash(relativePath)))
	return fa
}

// AssertFileNotExists validates that a file does not exist.
func (fa *FileAssertions) AssertFileNotExists(relativePath string) *FileAssertions {
	fa.t.Helper()
	require.NoFileExists(fa.t, filepath.Join(fa.baseDir, filepath.FromSlash(relativePath)))
	return fa
}

// AssertFileContent validates a file's exact content.
func (fa *FileAssertions) AssertFileContent(relativePath, expected string) *FileAssertions {
	fa.t.Helper()
	data, err := os.ReadFile(filepath.Join(fa.baseDir, filepath.FromSlash(relativePath)))
	require.NoError(fa.t, err)
	require.Equal(fa.t, expected, string(data))
	return fa
}
