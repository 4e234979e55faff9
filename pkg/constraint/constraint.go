// Package constraint models version constraints over egg versions and parses
// the requirement and constraint syntaxes found in metadata and on the
// command line.
package constraint

import (
	"github.com/glorpus-work/enpkg/pkg/version"
)

// Kind discriminates the constraint variants.
type Kind int

// Constraint kinds.
const (
	KindAny Kind = iota
	KindEqual
	KindNot
	KindGT
	KindGEQ
	KindLT
	KindLEQ
	KindUpstreamMatch
)

var kindOperators = map[Kind]string{
	KindAny:           "",
	KindEqual:         "==",
	KindNot:           "!=",
	KindGT:            ">",
	KindGEQ:           ">=",
	KindLT:            "<",
	KindLEQ:           "<=",
	KindUpstreamMatch: "~=",
}

var operatorKinds = map[string]Kind{
	"==": KindEqual,
	"!=": KindNot,
	">":  KindGT,
	">=": KindGEQ,
	"<":  KindLT,
	"<=": KindLEQ,
	"~=": KindUpstreamMatch,
}

// Operator returns the textual operator of the kind ("" for KindAny).
func (k Kind) Operator() string { return kindOperators[k] }

// Constraint is a predicate over versions. The Version is unused for KindAny.
type Constraint struct {
	Kind    Kind
	Version version.EnpkgVersion
}

// Any matches every version.
func Any() Constraint { return Constraint{Kind: KindAny} }

// Equal matches exactly v.
func Equal(v version.EnpkgVersion) Constraint { return Constraint{Kind: KindEqual, Version: v} }

// Not matches everything but v.
func Not(v version.EnpkgVersion) Constraint { return Constraint{Kind: KindNot, Version: v} }

// GT matches versions strictly greater than v.
func GT(v version.EnpkgVersion) Constraint { return Constraint{Kind: KindGT, Version: v} }

// GEQ matches versions greater than or equal to v.
func GEQ(v version.EnpkgVersion) Constraint { return Constraint{Kind: KindGEQ, Version: v} }

// LT matches versions strictly less than v.
func LT(v version.EnpkgVersion) Constraint { return Constraint{Kind: KindLT, Version: v} }

// LEQ matches versions less than or equal to v.
func LEQ(v version.EnpkgVersion) Constraint { return Constraint{Kind: KindLEQ, Version: v} }

// UpstreamMatch matches any build of v's upstream version at or above v's
// build.
func UpstreamMatch(v version.EnpkgVersion) Constraint {
	return Constraint{Kind: KindUpstreamMatch, Version: v}
}

// Matches reports whether w satisfies c. The error is non-nil only when w
// and the constraint version are incomparable.
func (c Constraint) Matches(w version.EnpkgVersion) (bool, error) {
	if c.Kind == KindAny {
		return true, nil
	}
	if c.Kind == KindUpstreamMatch {
		cmp, err := w.Upstream.Compare(c.Version.Upstream)
		if err != nil {
			return false, err
		}
		return cmp == 0 && w.Build >= c.Version.Build, nil
	}

	cmp, err := w.Compare(c.Version)
	if err != nil {
		return false, err
	}
	switch c.Kind {
	case KindEqual:
		return cmp == 0, nil
	case KindNot:
		return cmp != 0, nil
	case KindGT:
		return cmp > 0, nil
	case KindGEQ:
		return cmp >= 0, nil
	case KindLT:
		return cmp < 0, nil
	case KindLEQ:
		return cmp <= 0, nil
	}
	return false, nil
}

// Same reports whether both constraints have the same kind and equal
// versions.
func (c Constraint) Same(o Constraint) bool {
	if c.Kind != o.Kind {
		return false
	}
	return c.Kind == KindAny || c.Version.Equal(o.Version)
}

// String renders the constraint as "<op> <version>", or "" for Any.
func (c Constraint) String() string {
	if c.Kind == KindAny {
		return ""
	}
	return c.Kind.Operator() + " " + c.Version.String()
}
