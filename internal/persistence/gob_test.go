package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cached struct {
	Names []string
	Count int
}

func TestSaveAndLoadGob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", CorpusCacheFile)

	require.NoError(t, SaveGob(path, cached{Names: []string{"Anti", "Jaan"}, Count: 2}))

	var got cached
	require.NoError(t, LoadGob(path, &got))
	assert.Equal(t, cached{Names: []string{"Anti", "Jaan"}, Count: 2}, got)
}

func TestSaveGob_OverwritesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := CachePath(dir)

	require.NoError(t, SaveGob(path, cached{Count: 1}))
	require.NoError(t, SaveGob(path, cached{Count: 2}))

	var got cached
	require.NoError(t, LoadGob(path, &got))
	assert.Equal(t, 2, got.Count)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLoadGob_MissingFile(t *testing.T) {
	var got cached
	err := LoadGob(filepath.Join(t.TempDir(), "missing.gob"), &got)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadGob_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.gob")
	require.NoError(t, os.WriteFile(path, []byte("not gob"), 0600))

	var got cached
	err := LoadGob(path, &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, os.ErrNotExist)
}
