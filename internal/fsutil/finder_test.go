package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	// Arrange
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "b"), 0o755))
	for _, name := range []string{"b/two.json", "one.json", "skip.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("{}"), 0o644))
	}

	// Act
	files, err := FindFilesByExtension(root, ".json")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "b", "two.json"), filepath.Join(root, "one.json")}, files)

	assert.Panics(t, func() { _, _ = FindFilesByExtension(root, "") })

	_, err = FindFilesByExtension(filepath.Join(root, "missing"), ".json")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first")))
	require.NoError(t, WriteFileAtomic(path, []byte("second")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}
