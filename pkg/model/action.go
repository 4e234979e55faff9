package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/glorpus-work/enpkg/pkg/errors"
)

// Opcode is the textual operation of an action. The values are a stable
// contract persisted in logs.
type Opcode string

const (
	// OpFetch fetches an archive unless a valid copy is cached.
	OpFetch Opcode = "fetch_0"
	// OpFetchForce always fetches an archive.
	OpFetchForce Opcode = "fetch_1"
	// OpInstall installs a cached archive.
	OpInstall Opcode = "install"
	// OpRemove removes an installed package.
	OpRemove Opcode = "remove"
)

// FetchOpcode returns the fetch opcode for the given force flag.
func FetchOpcode(force bool) Opcode {
	if force {
		return OpFetchForce
	}
	return OpFetch
}

// ParseOpcode validates s as an opcode.
func ParseOpcode(s string) (Opcode, error) {
	switch op := Opcode(s); op {
	case OpFetch, OpFetchForce, OpInstall, OpRemove:
		return op, nil
	}
	return "", fmt.Errorf("%w: %q", errors.ErrInvalidOpcode, s)
}

// IsFetch reports whether o is one of the fetch opcodes.
func (o Opcode) IsFetch() bool { return o == OpFetch || o == OpFetchForce }

// Force reports whether o is a forced fetch.
func (o Opcode) Force() bool { return o == OpFetchForce }

// Action is one step of a plan: an opcode applied to a package key.
type Action struct {
	Opcode Opcode
	Key    string
}

// String renders "opcode: key".
func (a Action) String() string { return string(a.Opcode) + ": " + a.Key }

// MarshalJSON encodes the action as an [opcode, key] pair.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{string(a.Opcode), a.Key})
}

// UnmarshalJSON decodes an [opcode, key] pair.
func (a *Action) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: expected [opcode, key], got %d items", errors.ErrInvalidFormat, len(pair))
	}
	op, err := ParseOpcode(pair[0])
	if err != nil {
		return err
	}
	a.Opcode, a.Key = op, pair[1]
	return nil
}

// ActionList is an ordered plan.
type ActionList []Action

// String renders one action per line.
func (l ActionList) String() string {
	lines := make([]string, len(l))
	for i, a := range l {
		lines[i] = a.String()
	}
	return strings.Join(lines, "\n")
}

// Keys returns the keys of the actions with the given opcode, in order.
func (l ActionList) Keys(op Opcode) []string {
	var out []string
	for _, a := range l {
		if a.Opcode == op {
			out = append(out, a.Key)
		}
	}
	return out
}
