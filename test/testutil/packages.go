package testutil

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/enpkg/pkg/archive"
	"github.com/glorpus-work/enpkg/pkg/model"
	"github.com/glorpus-work/enpkg/pkg/repository"
	"github.com/glorpus-work/enpkg/pkg/version"
)

// Package builds a repository record from an egg name such as
// "numpy-1.8.0-1.egg" and legacy dependency strings.
func Package(t testing.TB, key string, deps ...string) *model.RepositoryPackageMetadata {
	t.Helper()
	return PackageWithContent(t, key, []byte(key), deps...)
}

// PackageWithContent is Package with the size and md5 of content.
func PackageWithContent(t testing.TB, key string, content []byte, deps ...string) *model.RepositoryPackageMetadata {
	t.Helper()
	name, fullVersion, err := model.EggNameToNameVersion(key)
	require.NoError(t, err)
	v, err := version.Parse(fullVersion)
	require.NoError(t, err)

	sum := md5.Sum(content)
	pkg, err := model.NewPackageMetadata(key, name, v.Upstream.String(), v.Build, deps, "2.7",
		int64(len(content)), hex.EncodeToString(sum[:]))
	require.NoError(t, err)
	return model.NewRepositoryPackageMetadata(pkg, model.Provenance{Available: true})
}

// Repository builds a repository holding pkgs in order.
func Repository(pkgs ...*model.RepositoryPackageMetadata) *repository.Repository {
	repo := repository.New("")
	for _, pkg := range pkgs {
		repo.AddPackage(pkg)
	}
	return repo
}

// Keys returns the keys of every record of repo in insertion order.
func Keys(repo *repository.Repository) []string {
	var out []string
	for pkg := range repo.IterPackages() {
		out = append(out, pkg.Key())
	}
	return out
}

// Egg is an egg archive written by BuildEgg.
type Egg struct {
	Path string
	Key  string
	MD5  string
	Size int64
	// Record is the store record of the egg, as found in an index.
	Record map[string]any
}

// BuildEgg writes the egg <dir>/<key> holding files and an EGG-INFO/info.json
// describing it.
func BuildEgg(t testing.TB, dir, key string, deps []string, files map[string]string) Egg {
	t.Helper()
	name, fullVersion, err := model.EggNameToNameVersion(key)
	require.NoError(t, err)
	v, err := version.Parse(fullVersion)
	require.NoError(t, err)
	if deps == nil {
		deps = []string{}
	}

	info := map[string]any{
		"name":     name,
		"version":  v.Upstream.String(),
		"build":    v.Build,
		"packages": deps,
		"python":   "2.7",
	}
	data, err := json.Marshal(info)
	require.NoError(t, err)

	source := t.TempDir()
	all := map[string]string{"EGG-INFO/info.json": string(data)}
	for p, content := range files {
		all[p] = content
	}
	for p, content := range all {
		full := filepath.Join(source, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, key)
	require.NoError(t, archive.NewManager().Create(context.Background(), source, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	sum := md5.Sum(content)

	record := make(map[string]any, len(info)+2)
	for k, val := range info {
		record[k] = val
	}
	record["md5"] = hex.EncodeToString(sum[:])
	record["size"] = len(content)

	return Egg{Path: path, Key: key, MD5: record["md5"].(string), Size: int64(len(content)), Record: record}
}

// WriteIndex writes <dir>/index.json mapping every egg key to its record.
func WriteIndex(t testing.TB, dir string, eggs ...Egg) {
	t.Helper()
	index := make(map[string]any, len(eggs))
	for _, egg := range eggs {
		index[egg.Key] = egg.Record
	}
	data, err := json.Marshal(index)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), data, 0o644))
}
