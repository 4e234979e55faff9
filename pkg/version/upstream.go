// Package version implements the ordered version types used by eggs: a
// PEP 386 style upstream version and the (upstream, build) pair.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/glorpus-work/enpkg/pkg/errors"
)

var rationalRe = regexp.MustCompile(
	`^(\d+\.\d+(?:\.\d+)*)` + // release, at least N.N
		`(?:([abc])(\d+(?:\.\d+)*))?` + // pre-release
		`(?:\.post(\d+))?` +
		`(?:\.dev(\d+))?$`)

// Ranks of the pre-release phase. A bare .devN release sorts before every
// alpha of the same release.
const (
	phaseDev   = 0
	phaseAlpha = 1
	phaseBeta  = 2
	phaseRC    = 3
	phaseFinal = 4
)

const noSuffix = -1

// Upstream is a parsed upstream version. Versions that do not follow the
// normalized grammar are kept as irrational versions, compared as strings.
type Upstream struct {
	raw      string
	rational bool

	release *goversion.Version
	phase   int
	preNums []int
	post    int
	dev     int
}

// NormalizeString applies the egg specific rewrites before parsing: "rc" is
// spelled ".dev99999", a single number gets ".0" and a trailing ".dev"
// becomes ".dev1".
func NormalizeString(s string) string {
	s = strings.ReplaceAll(s, "rc", ".dev99999")
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	if strings.HasSuffix(s, ".dev") {
		s += "1"
	}
	return s
}

// ParseUpstream parses an upstream version string.
func ParseUpstream(s string) (Upstream, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Upstream{}, fmt.Errorf("%w: empty upstream version", errors.ErrInvalidVersion)
	}
	if strings.ContainsAny(s, " \t,") {
		return Upstream{}, fmt.Errorf("%w: %q", errors.ErrInvalidVersion, s)
	}

	m := rationalRe.FindStringSubmatch(NormalizeString(s))
	if m == nil {
		return Upstream{raw: s}, nil
	}

	release, err := goversion.NewVersion(m[1])
	if err != nil {
		return Upstream{raw: s}, nil
	}
	u := Upstream{
		raw:      s,
		rational: true,
		release:  release,
		phase:    phaseFinal,
		post:     noSuffix,
		dev:      noSuffix,
	}
	if m[2] != "" {
		u.phase = map[string]int{"a": phaseAlpha, "b": phaseBeta, "c": phaseRC}[m[2]]
		u.preNums = parseDots(m[3])
	}
	if m[4] != "" {
		u.post = atoi(m[4])
	}
	if m[5] != "" {
		u.dev = atoi(m[5])
		if m[2] == "" && m[4] == "" {
			u.phase = phaseDev
		}
	}
	return u, nil
}

// MustParseUpstream is ParseUpstream that panics on error.
func MustParseUpstream(s string) Upstream {
	u, err := ParseUpstream(s)
	if err != nil {
		panic(err)
	}
	return u
}

// IsRational reports whether the version follows the normalized grammar.
func (u Upstream) IsRational() bool { return u.rational }

// IsZero reports whether u is the zero value.
func (u Upstream) IsZero() bool { return u.raw == "" }

// String returns the version as it was written.
func (u Upstream) String() string { return u.raw }

// Compare returns -1, 0 or 1. Comparing a rational with an irrational
// version fails with ErrIncomparable.
func (u Upstream) Compare(o Upstream) (int, error) {
	if u.rational != o.rational {
		return 0, fmt.Errorf("%w: %q and %q", errors.ErrIncomparable, u.raw, o.raw)
	}
	if !u.rational {
		return strings.Compare(u.raw, o.raw), nil
	}
	if c := u.release.Compare(o.release); c != 0 {
		return c, nil
	}
	if c := cmpInt(u.phase, o.phase); c != 0 {
		return c, nil
	}
	if c := cmpInts(u.preNums, o.preNums); c != 0 {
		return c, nil
	}
	if c := cmpInt(u.post, o.post); c != 0 {
		return c, nil
	}
	// A .devN suffix sorts before the same version without one.
	return cmpInt(devKey(u.dev), devKey(o.dev)), nil
}

// Equal reports whether both versions compare equal. Incomparable versions
// are never equal.
func (u Upstream) Equal(o Upstream) bool {
	c, err := u.Compare(o)
	return err == nil && c == 0
}

func devKey(dev int) int {
	if dev == noSuffix {
		return int(^uint(0) >> 1)
	}
	return dev
}

func parseDots(s string) []int {
	parts := strings.Split(s, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		out[i] = atoi(p)
	}
	return out
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// cmpInts compares numeric segment lists with zero padding.
func cmpInts(a, b []int) int {
	n := max(len(a), len(b))
	for i := range n {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if c := cmpInt(x, y); c != 0 {
			return c
		}
	}
	return 0
}
