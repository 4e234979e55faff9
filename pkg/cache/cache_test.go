package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/enpkg/pkg/cache"
	"github.com/glorpus-work/enpkg/pkg/fsutil"
)

// populate writes two eggs, a partial download and an unrelated file.
func populate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]int{
		"nose-1.3.4-1.egg":             100,
		"numpy-1.8.0-1.egg":            2048,
		".numpy-1.9.0-1.egg-1234.part": 10,
		"index.json":                   5,
	}
	for name, size := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), make([]byte, size), fsutil.FileModeDefault))
	}
	return dir
}

func TestNewDefaultManager(t *testing.T) {
	mgr, err := cache.NewDefaultManager()
	if err != nil {
		t.Skip("no user cache directory")
	}
	expected, err := fsutil.GetEggCacheDir()
	require.NoError(t, err)
	assert.Equal(t, expected, mgr.GetDirectory())
}

func TestSetDirectory(t *testing.T) {
	mgr := cache.NewManager(t.TempDir())
	dir := filepath.Join(t.TempDir(), "nonexistent")
	require.NoError(t, mgr.SetDirectory(dir))
	assert.Equal(t, dir, mgr.GetDirectory())
	assert.ErrorIs(t, mgr.SetDirectory(""), cache.ErrCacheDirectory)
}

func TestCleanPartialOnly(t *testing.T) {
	dir := populate(t)
	result, err := cache.NewManager(dir).Clean(cache.CleanOptions{})
	require.NoError(t, err)

	assert.Equal(t, int64(10), result.TotalFreed)
	assert.Equal(t, int64(10), result.PartialFreed)
	assert.Empty(t, result.EggsRemoved)
	assert.FileExists(t, filepath.Join(dir, "nose-1.3.4-1.egg"))
	assert.NoFileExists(t, filepath.Join(dir, ".numpy-1.9.0-1.egg-1234.part"))
}

func TestCleanAll(t *testing.T) {
	dir := populate(t)
	result, err := cache.NewManager(dir).Clean(cache.CleanOptions{All: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"nose-1.3.4-1.egg", "numpy-1.8.0-1.egg"}, result.EggsRemoved)
	assert.Equal(t, int64(2158), result.TotalFreed)
	assert.FileExists(t, filepath.Join(dir, "index.json"))
}

func TestCleanKeep(t *testing.T) {
	dir := populate(t)
	keep := func(key string) bool { return key == "numpy-1.8.0-1.egg" }
	result, err := cache.NewManager(dir).Clean(cache.CleanOptions{Keep: keep})
	require.NoError(t, err)

	assert.Equal(t, []string{"nose-1.3.4-1.egg"}, result.EggsRemoved)
	assert.FileExists(t, filepath.Join(dir, "numpy-1.8.0-1.egg"))
	assert.NoFileExists(t, filepath.Join(dir, "nose-1.3.4-1.egg"))
}

func TestCleanMissingDirectory(t *testing.T) {
	result, err := cache.NewManager(filepath.Join(t.TempDir(), "missing")).Clean(cache.CleanOptions{All: true})
	require.NoError(t, err)
	assert.Zero(t, result.TotalFreed)
}

func TestGetInfo(t *testing.T) {
	dir := populate(t)
	info, err := cache.NewManager(dir).GetInfo()
	require.NoError(t, err)

	assert.Equal(t, dir, info.Directory)
	assert.Equal(t, 2, info.EggFiles)
	assert.Equal(t, int64(2148), info.EggSize)
	assert.Equal(t, 1, info.PartialFiles)
	assert.Equal(t, int64(2158), info.TotalSize)
	assert.False(t, info.Oldest.IsZero())

	info, err = cache.NewManager(t.TempDir()).GetInfo()
	require.NoError(t, err)
	assert.Zero(t, info.TotalSize)
	assert.True(t, info.Oldest.IsZero())
}

func TestGetInfoNotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, fsutil.FileModeDefault))
	_, err := cache.NewManager(file).GetInfo()
	assert.ErrorIs(t, err, cache.ErrCacheInfo)
}

func TestOperation(t *testing.T) {
	dir := populate(t)
	op := cache.NewOperation(cache.NewManager(dir))
	assert.Equal(t, dir, op.GetDirectory())

	msg, err := op.GetInfo()
	require.NoError(t, err)
	assert.Contains(t, msg, "2.1 KB (2 files)")
	assert.Contains(t, msg, "10 B (1 files)")

	msg, err = op.Clean(cache.CleanOptions{All: true})
	require.NoError(t, err)
	assert.Contains(t, msg, "Freed 2.1 KB")
	assert.Contains(t, msg, "nose-1.3.4-1.egg, numpy-1.8.0-1.egg")
	assert.Contains(t, msg, "Partial downloads: 10 B")

	msg, err = op.Clean(cache.CleanOptions{All: true})
	require.NoError(t, err)
	assert.Equal(t, "No files were removed from the cache.", msg)
}
