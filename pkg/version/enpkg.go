package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/glorpus-work/enpkg/pkg/errors"
)

// EnpkgVersion is the full version of an egg: an upstream version plus a
// build number. The zero value is not a valid version.
type EnpkgVersion struct {
	Upstream Upstream
	Build    int
}

// Parse parses a full version "upstream-build". Exactly one "-" is allowed
// and the build must be a non-negative integer.
func Parse(s string) (EnpkgVersion, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return EnpkgVersion{}, fmt.Errorf("%w: %q is not of the form upstream-build", errors.ErrInvalidVersion, s)
	}
	return fromParts(s, parts[0], parts[1])
}

// ParseLoose is Parse where a missing build means build 0.
func ParseLoose(s string) (EnpkgVersion, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "-") {
		return FromUpstreamAndBuild(s, 0)
	}
	return Parse(s)
}

// FromUpstreamAndBuild builds a version from its two components.
func FromUpstreamAndBuild(upstream string, build int) (EnpkgVersion, error) {
	if build < 0 {
		return EnpkgVersion{}, fmt.Errorf("%w: negative build %d", errors.ErrInvalidVersion, build)
	}
	u, err := ParseUpstream(upstream)
	if err != nil {
		return EnpkgVersion{}, err
	}
	return EnpkgVersion{Upstream: u, Build: build}, nil
}

func fromParts(s, upstream, build string) (EnpkgVersion, error) {
	n, err := strconv.Atoi(build)
	if err != nil || n < 0 {
		return EnpkgVersion{}, fmt.Errorf("%w: invalid build in %q", errors.ErrInvalidVersion, s)
	}
	return FromUpstreamAndBuild(upstream, n)
}

// MustParse is ParseLoose that panics on error. Meant for literals.
func MustParse(s string) EnpkgVersion {
	v, err := ParseLoose(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the full version "upstream-build".
func (v EnpkgVersion) String() string {
	return v.Upstream.String() + "-" + strconv.Itoa(v.Build)
}

// IsZero reports whether v is the zero value.
func (v EnpkgVersion) IsZero() bool { return v.Upstream.IsZero() }

// Compare orders versions by upstream, then build.
func (v EnpkgVersion) Compare(o EnpkgVersion) (int, error) {
	c, err := v.Upstream.Compare(o.Upstream)
	if err != nil || c != 0 {
		return c, err
	}
	return cmpInt(v.Build, o.Build), nil
}

// Equal reports whether both versions compare equal.
func (v EnpkgVersion) Equal(o EnpkgVersion) bool {
	c, err := v.Compare(o)
	return err == nil && c == 0
}

// Less reports whether v sorts before o. Incomparable versions are never
// less than one another.
func (v EnpkgVersion) Less(o EnpkgVersion) bool {
	c, err := v.Compare(o)
	return err == nil && c < 0
}

// Compare is the function form of EnpkgVersion.Compare.
func Compare(a, b EnpkgVersion) (int, error) { return a.Compare(b) }
