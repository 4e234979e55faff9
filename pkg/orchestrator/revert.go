package orchestrator

import (
	"os"
	"strconv"
	"strings"

	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/history"
	"github.com/glorpus-work/enpkg/pkg/model"
)

func (e *Enpkg) isSelf(key string) bool {
	return strings.HasPrefix(strings.ToLower(key), e.selfName)
}

// RevertActionsTo plans the revert to the revision arg, which may be
// negative to count back from the latest.
func (e *Enpkg) RevertActionsTo(arg string) (model.ActionList, error) {
	rev, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return nil, errors.NewEnpkgError(nil, "Invalid argument: integer expected, got: %q", arg)
	}
	if err := e.history.Update(); err != nil {
		return nil, err
	}
	state, err := e.history.State(rev)
	if err != nil {
		if errors.Is(err, errors.ErrNoSuchRevision) {
			return nil, errors.NewEnpkgError(errors.ErrNoSuchRevision, "Error: no such revision: %q", arg)
		}
		return nil, err
	}
	return e.RevertActions(state)
}

// RevertActions plans the transition from the latest recorded state to
// target: removals first, then the fetches and installs of the missing
// packages, each group sorted by key. Eggs known to the remote repository
// are fetched unless a verified copy is cached; other eggs must be in the
// cache or the revert fails.
func (e *Enpkg) RevertActions(target history.State) (model.ActionList, error) {
	current := e.history.CurrentState()
	if e.history.Len() == 0 {
		current = e.currentState()
	}
	if target.Equal(current) {
		return nil, nil
	}

	var actions model.ActionList
	for _, key := range current.Difference(target) {
		if e.isSelf(key) {
			continue
		}
		actions = append(actions, model.Action{Opcode: model.OpRemove, Key: key})
	}
	for _, key := range target.Difference(current) {
		if e.isSelf(key) {
			continue
		}
		if e.remote.HasPackageKey(key) {
			if !e.downloads.IsCached(key) {
				actions = append(actions, model.Action{Opcode: model.OpFetch, Key: key})
			}
		} else if _, err := os.Stat(e.downloads.Path(key)); err != nil {
			return nil, errors.NewEnpkgError(errors.ErrMissingPackage, "cannot revert -- missing %q", key)
		}
		actions = append(actions, model.Action{Opcode: model.OpInstall, Key: key})
	}
	return actions, nil
}
