package adapters

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checking.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date,Description,Amount\n"), 0o644))

	handles, err := Walk(path)
	require.NoError(t, err)
	require.Len(t, handles, 1)
	assert.Equal(t, path, handles[0].Name)

	data, err := io.ReadAll(handles[0].Reader)
	require.NoError(t, err)
	assert.Equal(t, "Date,Description,Amount\n", string(data))
}

func TestWalkDirectorySortedNonRecursive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "c.csv"), []byte("c"), 0o644))

	handles, err := Walk(dir)
	require.NoError(t, err)
	require.Len(t, handles, 2)
	assert.Equal(t, filepath.Join(dir, "a.csv"), handles[0].Name)
	assert.Equal(t, filepath.Join(dir, "b.csv"), handles[1].Name)
}

func TestWalkMissingPath(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "does-not-exist.csv"))
	assert.Error(t, err)
}
