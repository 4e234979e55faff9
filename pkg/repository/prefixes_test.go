package repository_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/enpkg/pkg/model"
	"github.com/glorpus-work/enpkg/pkg/repository"
	"github.com/glorpus-work/enpkg/pkg/version"
	"github.com/glorpus-work/enpkg/test/testutil"
)

func writeInstalled(t *testing.T, prefix, name, upstream string, build int) {
	t.Helper()
	metaDir := filepath.Join(prefix, repository.EggInfoDir, name)
	require.NoError(t, os.MkdirAll(metaDir, 0o755))
	data, err := json.Marshal(map[string]any{
		"key":      fmt.Sprintf("%s-%s-%d.egg", name, upstream, build),
		"name":     name,
		"version":  upstream,
		"build":    build,
		"packages": []string{},
		"python":   "2.7",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(metaDir, repository.InstalledMetadataFile), data, 0o644))
}

func TestFromPrefixes(t *testing.T) {
	top := t.TempDir()
	system := t.TempDir()
	writeInstalled(t, top, "numpy", "1.8.0", 1)
	writeInstalled(t, system, "scipy", "0.14.0", 2)
	require.NoError(t, os.MkdirAll(filepath.Join(top, repository.EggInfoDir, "empty"), 0o755))

	repo, err := repository.FromPrefixes([]string{top, system, filepath.Join(t.TempDir(), "missing")}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 2, repo.Len())

	numpy, err := repo.FindPackage("numpy", "1.8.0-1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(top, repository.EggInfoDir), numpy.StoreLocation())
	assert.Equal(t, int64(-1), numpy.Size())

	scipy, err := repo.FindPackage("scipy", "0.14.0-2")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(system, repository.EggInfoDir), scipy.StoreLocation())
}

func TestFromPrefixesInvalidMetadata(t *testing.T) {
	prefix := t.TempDir()
	metaDir := filepath.Join(prefix, repository.EggInfoDir, "broken")
	require.NoError(t, os.MkdirAll(metaDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(metaDir, repository.InstalledMetadataFile), []byte("{"), 0o644))

	_, err := repository.FromPrefixes([]string{prefix}, nil, nil)
	assert.Error(t, err)
}

type fakeScanner map[string][]repository.MetaDir

func (f fakeScanner) Scan(prefix string) ([]repository.MetaDir, error) { return f[prefix], nil }

type fakeReader map[string]*model.RepositoryPackageMetadata

func (f fakeReader) Read(dir repository.MetaDir) (*model.RepositoryPackageMetadata, error) {
	return f[dir.Path], nil
}

func TestFromPrefixesCustomCollaborators(t *testing.T) {
	pkg := model.NewRepositoryPackageMetadata(mustPackage(t, "a-1.0-1.egg"), model.Provenance{})
	scanner := fakeScanner{"/p": {{Root: "/p/meta", Path: "/p/meta/a"}, {Root: "/p/meta", Path: "/p/meta/b"}}}
	reader := fakeReader{"/p/meta/a": pkg}

	repo, err := repository.FromPrefixes([]string{"/p"}, scanner, reader)
	require.NoError(t, err)
	require.Equal(t, 1, repo.Len())
	got, err := repo.FindPackage("a", "1.0-1")
	require.NoError(t, err)
	assert.Equal(t, "/p/meta", got.StoreLocation())
}

func mustPackage(t *testing.T, key string) *model.PackageMetadata {
	t.Helper()
	name, fullVersion, err := model.EggNameToNameVersion(key)
	require.NoError(t, err)
	v, err := version.Parse(fullVersion)
	require.NoError(t, err)
	p, err := model.NewPackageMetadata(key, name, v.Upstream.String(), v.Build, nil, "", 1, "x")
	require.NoError(t, err)
	return p
}

type fakeStore struct {
	records map[string]string
	keys    []string
	calls   atomic.Int32
	fail    string
}

func (s *fakeStore) Info() repository.StoreInfo { return repository.StoreInfo{Root: "http://store/"} }

func (s *fakeStore) QueryKeys(context.Context) ([]string, error) { return s.keys, nil }

func (s *fakeStore) GetMetadata(_ context.Context, key string) ([]byte, error) {
	s.calls.Add(1)
	if key == s.fail {
		return nil, fmt.Errorf("boom")
	}
	return []byte(s.records[key]), nil
}

func record(name, upstream string, build int) string {
	return fmt.Sprintf(`{"name": %q, "version": %q, "build": %d, "packages": [], "python": null, "size": 1, "md5": "x"}`,
		name, upstream, build)
}

func TestFromStore(t *testing.T) {
	store := &fakeStore{
		keys: []string{"numpy-1.8.0-1.egg", "numpy-1.7.0-1.egg", "scipy-0.14.0-1.egg"},
		records: map[string]string{
			"numpy-1.8.0-1.egg":  record("numpy", "1.8.0", 1),
			"numpy-1.7.0-1.egg":  record("numpy", "1.7.0", 1),
			"scipy-0.14.0-1.egg": record("scipy", "0.14.0", 1),
		},
	}

	repo, err := repository.FromStore(context.Background(), store, 2)
	require.NoError(t, err)
	assert.Equal(t, store.keys, testutil.Keys(repo))
	assert.EqualValues(t, 3, store.calls.Load())
	assert.Equal(t, "http://store/", repo.StoreInfo())

	p, err := repo.FindPackage("scipy", "0.14.0-1")
	require.NoError(t, err)
	assert.Equal(t, "http://store/", p.StoreLocation())
}

func TestFromStoreError(t *testing.T) {
	store := &fakeStore{
		keys:    []string{"a-1.0-1.egg", "b-1.0-1.egg"},
		records: map[string]string{"a-1.0-1.egg": record("a", "1.0", 1)},
		fail:    "b-1.0-1.egg",
	}
	_, err := repository.FromStore(context.Background(), store, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b-1.0-1.egg")
}
