// Package executor runs action lists against the top prefix. Actions run
// in order; a failure stops the list and an abort request cancels what is
// left.
package executor

import (
	"context"
	"fmt"
	"iter"

	"github.com/google/uuid"

	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/model"
	"github.com/glorpus-work/enpkg/pkg/repository"
)

// Progress reports the state of one action of a transaction.
type Progress struct {
	TxID   uuid.UUID
	Index  int
	Count  int
	Action model.Action
	Step   int64
	Total  int64
	State  State
}

// Summary is the outcome of a transaction.
type Summary struct {
	TxID      uuid.UUID
	Completed []model.Action
	// Failed is the action that stopped the transaction, if any.
	Failed    *model.Action
	Canceled  bool
	Remaining []model.Action
}

// Hooks carries callbacks for progress notifications.
type Hooks struct {
	OnProgress func(Progress)
}

// Executor runs actions.
type Executor struct {
	remote    *repository.Repository
	installed *Installed
	fetcher   Fetcher
	installer Installer
	abort     *AbortFlag
	hooks     Hooks
}

// Option configures an Executor.
type Option func(*Executor)

// WithHooks sets the progress callbacks.
func WithHooks(h Hooks) Option {
	return func(e *Executor) { e.hooks = h }
}

// New creates an executor. A nil abort flag gets a private one.
func New(remote *repository.Repository, installed *Installed, fetcher Fetcher, installer Installer, abort *AbortFlag, opts ...Option) *Executor {
	if abort == nil {
		abort = &AbortFlag{}
	}
	e := &Executor{
		remote:    remote,
		installed: installed,
		fetcher:   fetcher,
		installer: installer,
		abort:     abort,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Abort returns the abort flag the executor observes.
func (e *Executor) Abort() *AbortFlag { return e.abort }

// Installed returns the installed views the executor maintains.
func (e *Executor) Installed() *Installed { return e.installed }

// Iter runs actions and yields their progress. A failed action is yielded
// with its error and ends the sequence. When the abort flag is observed it
// is cleared and every action not yet done is yielded as canceled. Breaking
// out of the iteration cancels the running fetch and stops after the
// current action.
func (e *Executor) Iter(ctx context.Context, actions model.ActionList) iter.Seq2[Progress, error] {
	return e.iter(ctx, uuid.New(), actions)
}

func (e *Executor) iter(ctx context.Context, txID uuid.UUID, actions model.ActionList) iter.Seq2[Progress, error] {
	return func(yield func(Progress, error) bool) {
		count := len(actions)
		progress := func(i int, state State, step, total int64) Progress {
			return Progress{TxID: txID, Index: i, Count: count, Action: actions[i], Step: step, Total: total, State: state}
		}

		units := make([]Unit, count)
		for i, action := range actions {
			u, err := e.NewUnit(action)
			if err != nil {
				yield(progress(i, StateFailed, 0, 0), err)
				return
			}
			units[i] = u
		}

		cancelFrom := func(from int) {
			for j := from; j < count; j++ {
				units[j].Cancel()
				if !yield(progress(j, StateCanceled, 0, 0), nil) {
					return
				}
			}
		}

		for i, u := range units {
			if e.abort.IsSet() {
				logger.Info("Abort requested, canceling remaining actions", logger.Fields{"tx": txID.String(), "remaining": count - i})
				e.abort.Clear()
				cancelFrom(i)
				return
			}
			if err := ctx.Err(); err != nil {
				yield(progress(i, StateFailed, 0, 0), err)
				return
			}
			if !yield(progress(i, StateRunning, 0, 0), nil) {
				return
			}

			stopped := false
			err := u.Run(ctx, func(step, total int64) bool {
				if stopped {
					return false
				}
				if !yield(progress(i, StateRunning, step, total), nil) {
					stopped = true
				}
				return !stopped
			})
			if err != nil {
				if !stopped {
					yield(progress(i, StateFailed, 0, 0), fmt.Errorf("%w: %s %s: %w", errors.ErrActionFailed, u.Action().Opcode, u.Action().Key, err))
				}
				return
			}
			if stopped {
				return
			}
			if u.State() == StateCanceled {
				e.abort.Clear()
				cancelFrom(i)
				return
			}
			if !yield(progress(i, StateDone, 0, 0), nil) {
				return
			}
		}
	}
}

// Execute runs actions to the end, an abort or the first failure. An
// aborted transaction is not an error.
func (e *Executor) Execute(ctx context.Context, actions model.ActionList) (Summary, error) {
	sum := Summary{TxID: uuid.New()}
	done := make(map[int]bool, len(actions))
	var runErr error

	for p, err := range e.iter(ctx, sum.TxID, actions) {
		if e.hooks.OnProgress != nil {
			e.hooks.OnProgress(p)
		}
		if err != nil {
			failed := p.Action
			sum.Failed = &failed
			runErr = err
			break
		}
		switch p.State {
		case StateDone:
			done[p.Index] = true
			sum.Completed = append(sum.Completed, p.Action)
			logger.Info(string(p.Action.Opcode), logger.Fields{"key": p.Action.Key})
		case StateCanceled:
			sum.Canceled = true
		}
	}

	for i, action := range actions {
		if !done[i] {
			sum.Remaining = append(sum.Remaining, action)
		}
	}
	if runErr != nil {
		logger.Error("Transaction failed", logger.Fields{"tx": sum.TxID.String(), "error": runErr.Error()})
		return sum, runErr
	}
	return sum, nil
}
