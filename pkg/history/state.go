package history

import (
	"encoding/json"
	"sort"
)

// State is the set of package keys installed in a prefix.
type State map[string]struct{}

// NewState builds a state holding keys.
func NewState(keys ...string) State {
	s := make(State, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Contains reports whether key is part of s.
func (s State) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the keys of s in sorted order.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Difference returns the sorted keys of s missing from o.
func (s State) Difference(o State) []string {
	var out []string
	for k := range s {
		if !o.Contains(k) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both states hold the same keys.
func (s State) Equal(o State) bool {
	if len(s) != len(o) {
		return false
	}
	for k := range s {
		if !o.Contains(k) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the state as a sorted array.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Keys())
}

// UnmarshalJSON decodes an array of keys.
func (s *State) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*s = NewState(keys...)
	return nil
}
