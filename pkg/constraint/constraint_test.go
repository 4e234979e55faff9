package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/enpkg/pkg/version"
)

func TestConstraintMatches(t *testing.T) {
	tests := []struct {
		name string
		c    Constraint
		v    string
		want bool
	}{
		{"any", Any(), "0.1-1", true},
		{"equal", Equal(V("1.2-1")), "1.2-1", true},
		{"equal other build", Equal(V("1.2-1")), "1.2-2", false},
		{"equal padded", Equal(V("1.2-1")), "1.2.0-1", true},
		{"not", Not(V("1.2-1")), "1.2-1", false},
		{"not other", Not(V("1.2-1")), "1.3-1", true},
		{"gt", GT(V("1.2-1")), "1.2-2", true},
		{"gt equal", GT(V("1.2-1")), "1.2-1", false},
		{"geq equal", GEQ(V("1.2-1")), "1.2-1", true},
		{"geq lower", GEQ(V("1.2-1")), "1.1-5", false},
		{"lt", LT(V("1.2-0")), "1.1.9-3", true},
		{"lt dev", LT(V("1.2-0")), "1.2.dev1-1", true},
		{"leq", LEQ(V("1.2-1")), "1.2-1", true},
		{"leq higher", LEQ(V("1.2-1")), "1.2-2", false},
		{"upstream same build", UpstreamMatch(V("1.2-1")), "1.2-1", true},
		{"upstream higher build", UpstreamMatch(V("1.2-1")), "1.2-7", true},
		{"upstream lower build", UpstreamMatch(V("1.2-1")), "1.2-0", false},
		{"upstream other", UpstreamMatch(V("1.2-1")), "1.2.1-1", false},
		{"upstream build 0", UpstreamMatch(V("1.2")), "1.2-0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.c.Matches(V(tt.v))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConstraintMatchesIncomparable(t *testing.T) {
	irrational, err := version.FromUpstreamAndBuild("1.0_beta", 1)
	require.NoError(t, err)

	_, err = GEQ(V("1.0-1")).Matches(irrational)
	assert.Error(t, err)

	ok, err := Any().Matches(irrational)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConstraintString(t *testing.T) {
	assert.Equal(t, "", Any().String())
	assert.Equal(t, ">= 1.2-1", GEQ(V("1.2-1")).String())
	assert.Equal(t, "~= 1.2-0", UpstreamMatch(V("1.2")).String())
	assert.Equal(t, "!= 2.0-3", Not(V("2.0-3")).String())
}

func TestConstraintSame(t *testing.T) {
	assert.True(t, Any().Same(Any()))
	assert.True(t, GEQ(V("1.2-1")).Same(GEQ(V("1.2.0-1"))))
	assert.False(t, GEQ(V("1.2-1")).Same(GT(V("1.2-1"))))
	assert.False(t, Equal(V("1.2-1")).Same(Equal(V("1.2-2"))))
}

func TestSet(t *testing.T) {
	s := NewSet(GEQ(V("1.2-1")), LT(V("2.0")), GEQ(V("1.2-1")))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, ">= 1.2-1, < 2.0-0", s.String())

	ok, err := s.Matches(V("1.5-1"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Matches(V("2.0-1"))
	require.NoError(t, err)
	assert.False(t, ok)

	var empty Set
	ok, err = empty.Matches(V("9.9-9"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, empty.IsAny())
	assert.True(t, NewSet(Any()).IsAny())
	assert.False(t, s.IsAny())
}

func TestSetMergeAndEqual(t *testing.T) {
	a := NewSet(GEQ(V("1.0")))
	b := NewSet(LT(V("2.0")), GEQ(V("1.0")))

	merged := a.Merge(b)
	assert.Equal(t, 2, merged.Len())
	assert.Equal(t, 1, a.Len(), "merge must not modify the receiver")
	assert.True(t, merged.Equal(NewSet(LT(V("2.0")), GEQ(V("1.0")))))
	assert.False(t, merged.Equal(a))
}
