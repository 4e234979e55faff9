package constraint

import (
	"strings"

	"github.com/glorpus-work/enpkg/pkg/version"
)

// Set is a conjunction of constraints. Duplicates are dropped on insertion;
// insertion order is kept for rendering.
type Set struct {
	items []Constraint
}

// NewSet builds a set from the given constraints.
func NewSet(cs ...Constraint) Set {
	var s Set
	for _, c := range cs {
		s.Add(c)
	}
	return s
}

// Add inserts c unless an equal constraint is already present.
func (s *Set) Add(c Constraint) {
	for _, existing := range s.items {
		if existing.Same(c) {
			return
		}
	}
	s.items = append(s.items, c)
}

// Merge returns the conjunction of s and o.
func (s Set) Merge(o Set) Set {
	out := Set{items: append([]Constraint(nil), s.items...)}
	for _, c := range o.items {
		out.Add(c)
	}
	return out
}

// Len returns the number of distinct constraints.
func (s Set) Len() int { return len(s.items) }

// Constraints returns a copy of the constraints in insertion order.
func (s Set) Constraints() []Constraint {
	return append([]Constraint(nil), s.items...)
}

// Matches reports whether w satisfies every constraint. An empty set
// matches everything.
func (s Set) Matches(w version.EnpkgVersion) (bool, error) {
	for _, c := range s.items {
		ok, err := c.Matches(w)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// IsAny reports whether the set only holds Any constraints.
func (s Set) IsAny() bool {
	for _, c := range s.items {
		if c.Kind != KindAny {
			return false
		}
	}
	return true
}

// Equal reports whether both sets hold the same constraints, ignoring order.
func (s Set) Equal(o Set) bool {
	if len(s.items) != len(o.items) {
		return false
	}
	for _, c := range s.items {
		found := false
		for _, d := range o.items {
			if c.Same(d) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Strings renders every constraint.
func (s Set) Strings() []string {
	out := make([]string, 0, len(s.items))
	for _, c := range s.items {
		out = append(out, c.String())
	}
	return out
}

// String joins the non-Any constraints with ", ".
func (s Set) String() string {
	parts := make([]string, 0, len(s.items))
	for _, c := range s.items {
		if c.Kind != KindAny {
			parts = append(parts, c.String())
		}
	}
	return strings.Join(parts, ", ")
}
