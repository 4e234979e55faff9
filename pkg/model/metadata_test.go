package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/version"
)

const numpyRecord = `{
	"name": "numpy",
	"version": "1.8.0",
	"build": 1,
	"packages": ["MKL 10.3-1"],
	"python": "2.7",
	"size": 1024,
	"md5": "0123456789abcdef0123456789abcdef"
}`

func TestPackageMetadataFromJSON(t *testing.T) {
	p, err := PackageMetadataFromJSON("numpy-1.8.0-1.egg", []byte(numpyRecord))
	require.NoError(t, err)

	assert.Equal(t, "numpy-1.8.0-1.egg", p.Key())
	assert.Equal(t, "numpy", p.Name())
	assert.Equal(t, "1.8.0-1", p.FullVersion())
	assert.True(t, p.Version().Equal(version.MustParse("1.8.0-1")))
	assert.Equal(t, []string{"MKL 10.3-1"}, p.Dependencies())
	require.Len(t, p.Requirements(), 1)
	assert.Equal(t, "mkl", p.Requirements()[0].Name)
	assert.Equal(t, "2.7", p.Python())
	assert.Equal(t, int64(1024), p.Size())
	assert.Equal(t, "numpy-1.8.0-1", p.String())
}

func TestPackageMetadataFromJSONNullPython(t *testing.T) {
	data := `{"name": "MKL", "version": "10.3", "build": 1, "packages": [], "python": null, "size": 1, "md5": "x"}`
	p, err := PackageMetadataFromJSON("MKL-10.3-1.egg", []byte(data))
	require.NoError(t, err)
	assert.Equal(t, "mkl", p.Name())
	assert.Equal(t, "", p.Python())
}

func TestPackageMetadataFromJSONInvalid(t *testing.T) {
	tests := map[string]string{
		"missing md5":      `{"name": "a", "version": "1.0", "build": 1, "packages": [], "python": null, "size": 1}`,
		"missing python":   `{"name": "a", "version": "1.0", "build": 1, "packages": [], "size": 1, "md5": "x"}`,
		"unknown field":    `{"name": "a", "version": "1.0", "build": 1, "packages": [], "python": null, "size": 1, "md5": "x", "colour": "red"}`,
		"bad dependency":   `{"name": "a", "version": "1.0", "build": 1, "packages": ["b >="], "python": null, "size": 1, "md5": "x"}`,
		"negative build":   `{"name": "a", "version": "1.0", "build": -1, "packages": [], "python": null, "size": 1, "md5": "x"}`,
		"not an object":    `[1, 2]`,
		"python no string": `{"name": "a", "version": "1.0", "build": 1, "packages": [], "python": 27, "size": 1, "md5": "x"}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := PackageMetadataFromJSON("a-1.0-1.egg", []byte(data))
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidRecord)
		})
	}
}

func TestNewPackageMetadataValidation(t *testing.T) {
	_, err := NewPackageMetadata("", "a", "1.0", 1, nil, "", 0, "")
	assert.ErrorIs(t, err, errors.ErrInvalidRecord)
	_, err = NewPackageMetadata("a-1.0-1.egg", "", "1.0", 1, nil, "", 0, "")
	assert.ErrorIs(t, err, errors.ErrInvalidRecord)
	_, err = NewPackageMetadata("a-1.0-1.egg", "a", "", 1, nil, "", 0, "")
	assert.ErrorIs(t, err, errors.ErrInvalidRecord)
}

func TestPackageMetadataImmutable(t *testing.T) {
	deps := []string{"b"}
	p, err := NewPackageMetadata("a-1.0-1.egg", "a", "1.0", 1, deps, "", 0, "")
	require.NoError(t, err)
	deps[0] = "c"
	got := p.Dependencies()
	assert.Equal(t, []string{"b"}, got)
	got[0] = "d"
	assert.Equal(t, []string{"b"}, p.Dependencies())
}

func TestSamePackage(t *testing.T) {
	a, err := NewPackageMetadata("a-1.0-1.egg", "a", "1.0", 1, nil, "", 1, "x")
	require.NoError(t, err)
	b, err := NewPackageMetadata("a-1.0-1.egg", "A", "1.0", 1, nil, "", 2, "y")
	require.NoError(t, err)
	c, err := NewPackageMetadata("a-1.0-2.egg", "a", "1.0", 2, nil, "", 1, "x")
	require.NoError(t, err)

	assert.True(t, a.SamePackage(b))
	assert.False(t, a.SamePackage(c))
}

func TestRepositoryPackageMetadataFromJSON(t *testing.T) {
	data := `{"name": "numpy", "version": "1.8.0", "build": 1, "packages": [], "python": "2.7",
		"size": 10, "md5": "x", "mtime": 1400000000.5, "product": "commercial", "available": false,
		"store_location": "https://example.com/eggs/", "type": "egg"}`

	p, err := RepositoryPackageMetadataFromJSON("numpy-1.8.0-1.egg", []byte(data), "")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/eggs/", p.StoreLocation())
	assert.Equal(t, 1400000000.5, p.Mtime())
	assert.Equal(t, "commercial", p.Product())
	assert.False(t, p.Available())

	p, err = RepositoryPackageMetadataFromJSON("numpy-1.8.0-1.egg", []byte(data), "file:///repo/")
	require.NoError(t, err)
	assert.Equal(t, "file:///repo/", p.StoreLocation())
}

func TestRepositoryPackageMetadataDefaults(t *testing.T) {
	p, err := RepositoryPackageMetadataFromJSON("numpy-1.8.0-1.egg", []byte(numpyRecord), "")
	require.NoError(t, err)
	assert.True(t, p.Available())
	assert.Equal(t, "", p.Product())
	assert.Equal(t, 0.0, p.Mtime())
}

func TestInstalledRoundTrip(t *testing.T) {
	remote, err := RepositoryPackageMetadataFromJSON("numpy-1.8.0-1.egg", []byte(numpyRecord), "")
	require.NoError(t, err)

	data, err := remote.InstalledJSON()
	require.NoError(t, err)

	installed, err := FromInstalledJSON(data, "/prefix/EGG-INFO")
	require.NoError(t, err)
	assert.Equal(t, "numpy-1.8.0-1.egg", installed.Key())
	assert.True(t, installed.SamePackage(remote.PackageMetadata))
	assert.Equal(t, int64(-1), installed.Size())
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", installed.MD5())
	assert.Equal(t, "/prefix/EGG-INFO", installed.StoreLocation())
	assert.Equal(t, remote.Dependencies(), installed.Dependencies())
}

func TestFromInstalledJSONRequiresKey(t *testing.T) {
	_, err := FromInstalledJSON([]byte(`{"name": "a", "version": "1.0", "build": 1, "packages": [], "python": null}`), "")
	assert.ErrorIs(t, err, errors.ErrInvalidRecord)
}

func TestIndexData(t *testing.T) {
	p, err := RepositoryPackageMetadataFromJSON("numpy-1.8.0-1.egg", []byte(numpyRecord), "")
	require.NoError(t, err)

	data := p.IndexData()
	assert.ElementsMatch(t,
		[]string{"available", "build", "md5", "name", "packages", "product", "python", "mtime", "size", "type", "version"},
		keysOf(data))
	assert.Equal(t, "egg", data["type"])
	assert.Equal(t, "1.8.0", data["version"])
	assert.Nil(t, data["product"])

	_, err = json.Marshal(data)
	require.NoError(t, err)
}

func keysOf(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestEggNameToNameVersion(t *testing.T) {
	tests := []struct {
		in          string
		name, fullV string
	}{
		{"numpy-1.8.0-1.egg", "numpy", "1.8.0-1"},
		{"MKL-10.3-1.egg", "mkl", "10.3-1"},
		{"/some/dir/scipy-0.14.0-2.egg", "scipy", "0.14.0-2"},
	}
	for _, tt := range tests {
		name, fullV, err := EggNameToNameVersion(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.name, name)
		assert.Equal(t, tt.fullV, fullV)
	}

	_, _, err := EggNameToNameVersion("numpy.egg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid egg name")

	assert.Equal(t, "numpy-1.8.0-1.egg", EggName("numpy", "1.8.0-1"))
}

func TestProjectRecord(t *testing.T) {
	data := []byte(`{"name": "numpy", "version": "1.8.0", "build": 1, "arch": "amd64", "platform": "linux2", "osdist": "RedHat_5"}`)
	rec, err := ProjectRecord(data)
	require.NoError(t, err)
	assert.Contains(t, rec, "name")
	assert.Contains(t, rec, "build")
	assert.NotContains(t, rec, "arch")
	assert.NotContains(t, rec, "osdist")

	_, err = ProjectRecord([]byte(`[1, 2]`))
	assert.ErrorIs(t, err, errors.ErrInvalidRecord)
}
