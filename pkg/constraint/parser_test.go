package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/version"
)

var V = version.MustParse

func assertSet(t *testing.T, want Set, got Set) {
	t.Helper()
	assert.True(t, want.Equal(got), "want %v, got %v", want.Strings(), got.Strings())
}

func TestParseConstraints(t *testing.T) {
	tests := []struct {
		in   string
		want Set
	}{
		{"", NewSet(Any())},
		{"> 1.2.0-1", NewSet(GT(V("1.2.0-1")))},
		{">= 1.2.0-1", NewSet(GEQ(V("1.2.0-1")))},
		{"<= 1.2.0-1", NewSet(LEQ(V("1.2.0-1")))},
		{"< 1.2.0-1", NewSet(LT(V("1.2.0-1")))},
		{"~= 1.2.0-1", NewSet(UpstreamMatch(V("1.2.0-1")))},
		{"== 1.2.0-1", NewSet(Equal(V("1.2.0-1")))},
		{"1.2.0", NewSet(UpstreamMatch(V("1.2.0-0")))},
		{">= 1.2.0-1, < 1.4, != 1.3.8-1", NewSet(GEQ(V("1.2.0-1")), LT(V("1.4")), Not(V("1.3.8-1")))},
		{">=1.2.0-1,<1.4", NewSet(GEQ(V("1.2.0-1")), LT(V("1.4-0")))},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseConstraints(tt.in)
			require.NoError(t, err)
			assertSet(t, tt.want, got)
		})
	}
}

func TestParseConstraintsInvalid(t *testing.T) {
	tests := map[string]string{
		">= 1.2.0-1 123": "Invalid constraint string: unexpected '123' after '1.2.0-1'",
		">=":             "Invalid constraint string: missing version after '>='",
		">= 1.0,":        "Invalid constraint string: trailing ','",
		"numpy":          "Invalid constraint string: unexpected 'numpy'",
		">= 1.3.0-a":     "Invalid constraint string: invalid version '1.3.0-a'",
		"= 1.0":          "Invalid constraint string: unexpected character at '= 1.0'",
	}
	for in, msg := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := ParseConstraints(in)
			require.Error(t, err)
			assert.EqualError(t, err, msg)
			assert.ErrorIs(t, err, errors.ErrSolver)
			assert.ErrorIs(t, err, errors.ErrInvalidFormat)
		})
	}
}

func TestParseRequirements(t *testing.T) {
	tests := []struct {
		in   string
		want map[string]Set
	}{
		{"numpy == 1.8.1-1", map[string]Set{"numpy": NewSet(Equal(V("1.8.1-1")))}},
		{"numpy >= 1.8.1, numpy < 1.9.0", map[string]Set{"numpy": NewSet(GEQ(V("1.8.1-0")), LT(V("1.9.0")))}},
		{"numpy >= 1.8.1, < 1.9.0", map[string]Set{"numpy": NewSet(GEQ(V("1.8.1-0")), LT(V("1.9.0")))}},
		{"numpy >= 1.8.1, scipy >= 0.14.0", map[string]Set{
			"numpy": NewSet(GEQ(V("1.8.1-0"))),
			"scipy": NewSet(GEQ(V("0.14.0"))),
		}},
		{"numpy", map[string]Set{"numpy": NewSet(Any())}},
		{"MKL == 10.3-1, numpy", map[string]Set{
			"numpy": NewSet(Any()),
			"MKL":   NewSet(Equal(V("10.3-1"))),
		}},
		{"scikits.statsmodels", map[string]Set{"scikits.statsmodels": NewSet(Any())}},
		{"special_package.123", map[string]Set{"special_package.123": NewSet(Any())}},
		{"numpy 1.8.0", map[string]Set{"numpy": NewSet(UpstreamMatch(V("1.8.0-0")))}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRequirements(tt.in)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for name, set := range tt.want {
				require.Contains(t, got, name)
				assertSet(t, set, got[name])
			}
		})
	}
}

func TestParseRequirementsInvalid(t *testing.T) {
	tests := map[string]string{
		"numpy >= ":    "Invalid requirement string: missing version after '>='",
		"numpy-no-mkl": "Invalid requirement string: unexpected character at '-no-mkl'",
		"numpy mkl":    "Invalid requirement string: unexpected 'mkl' after 'numpy'",
		"":             "Invalid requirement string: empty requirement",
		">= 1.0":       "Invalid requirement string: expected a package name, got '>='",
		"numpy, ":      "Invalid requirement string: trailing ','",
	}
	for in, msg := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := ParseRequirements(in)
			require.Error(t, err)
			assert.EqualError(t, err, msg)
			assert.ErrorIs(t, err, errors.ErrSolver)
		})
	}
}
