package executor

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/model"
	"github.com/glorpus-work/enpkg/pkg/repository"
)

// State is the lifecycle state of an action.
type State int32

// Action states. pending → running → done | canceled | failed.
const (
	StatePending State = iota
	StateRunning
	StateDone
	StateCanceled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateCanceled:
		return "canceled"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Reporter receives the progress of a running action. Returning false asks
// the action to stop reporting.
type Reporter func(step, total int64) bool

// Unit is an executable action.
type Unit interface {
	Action() model.Action
	State() State
	// Run executes the action. It returns nil when the action was canceled.
	Run(ctx context.Context, report Reporter) error
	// Cancel stops the action if it can still be interrupted.
	Cancel()
}

type unitState struct {
	action model.Action
	state  atomic.Int32
}

func (u *unitState) Action() model.Action { return u.action }

func (u *unitState) State() State { return State(u.state.Load()) }

func (u *unitState) set(s State) { u.state.Store(int32(s)) }

// finish records the outcome of a run.
func (u *unitState) finish(err error) error {
	if err != nil {
		u.set(StateFailed)
		return err
	}
	u.set(StateDone)
	return nil
}

// FetchAction downloads an egg into the cache. It observes the abort flag
// between chunks and stops when its reporter returns false.
type FetchAction struct {
	unitState
	fetcher  Fetcher
	abort    *AbortFlag
	transfer atomic.Pointer[Transfer]
	canceled atomic.Bool
}

// Cancel implements Unit. The partial download is removed.
func (a *FetchAction) Cancel() {
	a.canceled.Store(true)
	if t := a.transfer.Load(); t != nil {
		(*t).Cancel()
	}
}

func (a *FetchAction) stop(t Transfer) {
	t.Cancel()
	a.canceled.Store(true)
}

// Run implements Unit.
func (a *FetchAction) Run(ctx context.Context, report Reporter) error {
	if a.canceled.Load() {
		a.set(StateCanceled)
		return nil
	}
	a.set(StateRunning)
	key := a.action.Key

	t, err := a.fetcher.IterFetch(ctx, key, a.action.Opcode.Force())
	if err != nil {
		return a.finish(err)
	}
	a.transfer.Store(&t)
	if t.Skipped() {
		logger.Debug("Fetch skipped, egg is cached", logger.Fields{"key": key})
		return a.finish(nil)
	}

	total := t.Size()
	var done int64
	for n, err := range t.Chunks() {
		if err != nil {
			return a.finish(err)
		}
		done += n
		if !report(done, total) || a.abort.IsSet() {
			a.stop(t)
			break
		}
	}
	if a.canceled.Load() || t.Canceled() {
		logger.Info("Fetch canceled", logger.Fields{"key": key, "bytes": done})
		a.set(StateCanceled)
		return nil
	}
	return a.finish(nil)
}

// InstallAction installs a cached egg into the top prefix. It runs to
// completion once started.
type InstallAction struct {
	unitState
	fetcher   Fetcher
	installer Installer
	remote    *repository.Repository
	installed *Installed
	canceled  atomic.Bool
}

// Cancel implements Unit. It only has an effect before Run.
func (a *InstallAction) Cancel() { a.canceled.Store(true) }

// Run implements Unit.
func (a *InstallAction) Run(ctx context.Context, report Reporter) error {
	if a.canceled.Load() {
		a.set(StateCanceled)
		return nil
	}
	a.set(StateRunning)
	key := a.action.Key

	var extra map[string]any
	if pkg, ok := a.remote.FindPackageByKey(key); ok {
		extra = pkg.IndexData()
	}
	reporting := true
	for step, err := range a.installer.IterInstall(ctx, a.fetcher.Path(key), extra) {
		if err != nil {
			return a.finish(err)
		}
		if reporting && !report(int64(step), 0) {
			reporting = false
		}
	}

	name, _, err := model.EggNameToNameVersion(key)
	if err != nil {
		return a.finish(err)
	}
	return a.finish(a.installed.AddInstalled(name))
}

// RemoveAction removes a package from the top prefix. Removing a package
// that is not installed is a no-op.
type RemoveAction struct {
	unitState
	installer Installer
	installed *Installed
	canceled  atomic.Bool
}

// Cancel implements Unit. It only has an effect before Run.
func (a *RemoveAction) Cancel() { a.canceled.Store(true) }

// Run implements Unit.
func (a *RemoveAction) Run(ctx context.Context, report Reporter) error {
	if a.canceled.Load() {
		a.set(StateCanceled)
		return nil
	}
	a.set(StateRunning)

	reporting := true
	for step, err := range a.installer.IterRemove(ctx, a.action.Key) {
		if errors.Is(err, errors.ErrMissingPackage) {
			logger.Error("Cannot remove package, it is not installed", logger.Fields{"key": a.action.Key, "error": err.Error()})
			break
		}
		if err != nil {
			return a.finish(err)
		}
		if reporting && !report(int64(step), 0) {
			reporting = false
		}
	}
	return a.finish(a.installed.Refresh())
}

// NewUnit builds the unit executing action.
func (e *Executor) NewUnit(action model.Action) (Unit, error) {
	switch action.Opcode {
	case model.OpFetch, model.OpFetchForce:
		return &FetchAction{unitState: unitState{action: action}, fetcher: e.fetcher, abort: e.abort}, nil
	case model.OpInstall:
		return &InstallAction{
			unitState: unitState{action: action},
			fetcher:   e.fetcher,
			installer: e.installer,
			remote:    e.remote,
			installed: e.installed,
		}, nil
	case model.OpRemove:
		return &RemoveAction{unitState: unitState{action: action}, installer: e.installer, installed: e.installed}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrInvalidOpcode, action.Opcode)
	}
}
