package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePackageString(t *testing.T) {
	p, err := ParsePackageString("numpy 1.8.1-1; depends (MKL == 10.3-1, nose ~= 1.3.4)")
	require.NoError(t, err)
	assert.Equal(t, "numpy", p.Name)
	assert.True(t, p.Version.Equal(V("1.8.1-1")))
	require.Len(t, p.Dependencies, 2)
	assert.True(t, p.Dependencies["MKL"].Equal(NewSet(Equal(V("10.3-1")))))
	assert.True(t, p.Dependencies["nose"].Equal(NewSet(UpstreamMatch(V("1.3.4-0")))))

	p, err = ParsePackageString("nose 1.3.4-1")
	require.NoError(t, err)
	assert.Empty(t, p.Dependencies)
}

func TestParsePackageStringInvalid(t *testing.T) {
	_, err := ParsePackageString("numpy")
	assert.Error(t, err)

	_, err = ParsePackageString("numpy 1.8.1")
	assert.Error(t, err, "package strings need a build number")

	_, err = ParsePackageString("numpy 1.8.1-1; requires (nose)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid constraint block: 'requires (nose)'")
}

func TestLegacyDependencies(t *testing.T) {
	p, err := ParsePackageString("numpy 1.8.1-1; depends (nose, MKL == 10.3-1)")
	require.NoError(t, err)
	deps, err := p.LegacyDependencies()
	require.NoError(t, err)
	assert.Equal(t, []string{"MKL 10.3-1", "nose"}, deps)
}

func TestPackageToPrettyString(t *testing.T) {
	s, err := PackageToPrettyString("numpy", "1.8.1-1", []string{"MKL 10.3-1", "nose 1.3.4"})
	require.NoError(t, err)
	assert.Equal(t, "numpy 1.8.1-1; depends (MKL == 10.3-1, nose ~= 1.3.4-0)", s)

	s, err = PackageToPrettyString("nose", "1.3.4-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "nose 1.3.4-1", s)

	p, err := ParsePackageString(s)
	require.NoError(t, err)
	assert.Equal(t, "nose", p.Name)
}
