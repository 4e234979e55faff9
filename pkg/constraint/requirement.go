package constraint

import (
	"sort"
	"strings"

	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/version"
)

// Requirement is a package name with the constraints its version must meet.
type Requirement struct {
	Name        string
	Constraints Set
}

// NewRequirement builds a requirement; the name is lower-cased. Without
// constraints the requirement matches any version.
func NewRequirement(name string, cs ...Constraint) Requirement {
	if len(cs) == 0 {
		cs = []Constraint{Any()}
	}
	return Requirement{Name: strings.ToLower(name), Constraints: NewSet(cs...)}
}

// Matches reports whether v satisfies the requirement's constraints.
func (r Requirement) Matches(v version.EnpkgVersion) (bool, error) {
	return r.Constraints.Matches(v)
}

// String renders the requirement in the pretty syntax.
func (r Requirement) String() string {
	if c := r.Constraints.String(); c != "" {
		return r.Name + " " + c
	}
	return r.Name
}

// ParseRequirement parses a single requirement in the pretty syntax, e.g.
// "numpy >= 1.8.1, numpy < 1.9". Exactly one distinct name is allowed.
func ParseRequirement(s string) (Requirement, error) {
	parsed, err := ParseRequirements(s)
	if err != nil {
		return Requirement{}, err
	}
	merged := make(map[string]Set, len(parsed))
	for name, set := range parsed {
		lower := strings.ToLower(name)
		merged[lower] = merged[lower].Merge(set)
	}
	if len(merged) != 1 {
		return Requirement{}, errors.NewSolverError(errors.ErrInvalidFormat,
			"Invalid requirement string: expected a single package in '%s'", s)
	}
	for name, set := range merged {
		return Requirement{Name: name, Constraints: set}, nil
	}
	panic("unreachable")
}

// ParseLegacyRequirement parses the requirement syntax of egg metadata:
// "name", "name upstream" (any build of upstream) or "name upstream-build"
// (that exact version).
func ParseLegacyRequirement(s string) (Requirement, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 || nameRe.FindString(fields[0]) != fields[0] {
		return Requirement{}, errors.NewSolverError(errors.ErrInvalidFormat,
			"Invalid legacy requirement string: '%s'", s)
	}
	if len(fields) == 1 {
		return NewRequirement(fields[0]), nil
	}

	raw := fields[1]
	if strings.Contains(raw, "-") {
		v, err := version.Parse(raw)
		if err != nil {
			return Requirement{}, errors.NewSolverError(errors.ErrInvalidFormat,
				"Invalid legacy requirement string: invalid version '%s'", raw)
		}
		return NewRequirement(fields[0], Equal(v)), nil
	}
	v, err := version.FromUpstreamAndBuild(raw, 0)
	if err != nil {
		return Requirement{}, errors.NewSolverError(errors.ErrInvalidFormat,
			"Invalid legacy requirement string: invalid version '%s'", raw)
	}
	return NewRequirement(fields[0], UpstreamMatch(v)), nil
}

// ParseDependency parses a dependency entry of package metadata. Entries
// containing an operator use the pretty syntax while the others use the
// legacy one.
func ParseDependency(s string) (Requirement, error) {
	if strings.ContainsAny(s, "=<>!~") {
		return ParseRequirement(s)
	}
	return ParseLegacyRequirement(s)
}

// ToLegacyString renders r in the legacy syntax. Only Any, Equal and
// UpstreamMatch with build 0 have a legacy form.
func (r Requirement) ToLegacyString() (string, error) {
	cs := r.Constraints.Constraints()
	if r.Constraints.IsAny() {
		return r.Name, nil
	}
	if len(cs) == 1 {
		switch c := cs[0]; c.Kind {
		case KindEqual:
			return r.Name + " " + c.Version.String(), nil
		case KindUpstreamMatch:
			if c.Version.Build == 0 {
				return r.Name + " " + c.Version.Upstream.String(), nil
			}
		}
	}
	return "", errors.NewSolverError(errors.ErrInvalidFormat,
		"Requirement '%s' has no legacy form", r.String())
}

// SortedNames returns the keys of a requirements mapping in sorted order.
func SortedNames(reqs map[string]Set) []string {
	names := make([]string, 0, len(reqs))
	for name := range reqs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
