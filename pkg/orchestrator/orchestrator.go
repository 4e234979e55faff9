// Package orchestrator ties the remote repository, the solver, the executor
// and the history of the top prefix together.
package orchestrator

import (
	"context"
	"strings"

	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/constraint"
	"github.com/glorpus-work/enpkg/pkg/egginst"
	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/executor"
	"github.com/glorpus-work/enpkg/pkg/fetch"
	"github.com/glorpus-work/enpkg/pkg/history"
	"github.com/glorpus-work/enpkg/pkg/model"
	"github.com/glorpus-work/enpkg/pkg/repository"
	"github.com/glorpus-work/enpkg/pkg/solver"
)

// Enpkg plans and executes package operations on a list of prefixes.
type Enpkg struct {
	remote    *repository.Repository
	installed *executor.Installed
	downloads *fetch.DownloadManager
	executor  *executor.Executor
	abort     *executor.AbortFlag
	history   *history.History
	selfName  string
	hooks     Hooks
}

// New assembles an Enpkg for the remote repository whose eggs transport
// opens.
func New(remote *repository.Repository, transport fetch.Transport, opts Options) (*Enpkg, error) {
	if len(opts.Prefixes) == 0 {
		return nil, errors.ErrNoPrefixes
	}
	installed, err := executor.NewInstalled(opts.Prefixes, nil, nil)
	if err != nil {
		return nil, err
	}

	var fetchOpts []fetch.Option
	if opts.ChunkSize > 0 {
		fetchOpts = append(fetchOpts, fetch.WithChunkSize(opts.ChunkSize))
	}
	downloads := fetch.NewDownloadManager(remote, opts.CacheDir, transport, fetchOpts...)

	var instOpts []egginst.Option
	if opts.HookRunner != nil {
		instOpts = append(instOpts, egginst.WithHookRunner(opts.HookRunner))
	}
	installer := egginst.NewInstaller(installed.TopPrefix(), instOpts...)

	h := history.New(installed.TopPrefix())
	if err := h.Update(); err != nil {
		return nil, err
	}

	e := &Enpkg{
		remote:    remote,
		installed: installed,
		downloads: downloads,
		abort:     &executor.AbortFlag{},
		history:   h,
		selfName:  strings.ToLower(opts.SelfPackage),
		hooks:     opts.Hooks,
	}
	if e.selfName == "" {
		e.selfName = DefaultSelfPackage
	}
	e.executor = executor.New(remote, installed, executor.NewFetcher(downloads), installer, e.abort,
		executor.WithHooks(executor.Hooks{OnProgress: e.onProgress}))
	return e, nil
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

func phase(op model.Opcode) string {
	switch op {
	case model.OpInstall:
		return "installing"
	case model.OpRemove:
		return "removing"
	default:
		return "fetching"
	}
}

func (e *Enpkg) onProgress(p executor.Progress) {
	if e.hooks.OnProgress != nil {
		e.hooks.OnProgress(p)
	}
	switch {
	case p.State == executor.StateRunning && p.Step == 0:
		emit(e.hooks, Event{Phase: phase(p.Action.Opcode), ID: p.Action.Key})
	case p.State == executor.StateCanceled:
		emit(e.hooks, Event{Phase: "canceled", ID: p.Action.Key})
	case p.State == executor.StateFailed:
		emit(e.hooks, Event{Phase: "error", ID: p.Action.Key})
	}
}

// Remote returns the remote repository.
func (e *Enpkg) Remote() *repository.Repository { return e.remote }

// Prefixes returns the prefixes, top first.
func (e *Enpkg) Prefixes() []string { return e.installed.Prefixes() }

// Installed returns a snapshot of the packages installed in every prefix.
func (e *Enpkg) Installed() *repository.Repository { return e.installed.All().Snapshot() }

// History returns the revision log of the top prefix.
func (e *Enpkg) History() *history.History { return e.history }

// Downloads returns the download manager of the egg cache.
func (e *Enpkg) Downloads() *fetch.DownloadManager { return e.downloads }

// AbortExecution asks the running Execute to stop. The current fetch is
// canceled and the remaining actions are skipped.
func (e *Enpkg) AbortExecution() { e.abort.Set() }

func (e *Enpkg) solver() *solver.Solver {
	return solver.New(e.remote, e.installed.Top(), solver.WithArchiveCache(e.downloads))
}

// InstallActions plans the installation of req into the top prefix.
func (e *Enpkg) InstallActions(req constraint.Requirement, opts solver.Options) (model.ActionList, error) {
	emit(e.hooks, Event{Phase: "planning", Msg: req.String()})
	return e.solver().InstallActions(req, opts)
}

// RemoveActions plans the removal of the top prefix packages matching req.
func (e *Enpkg) RemoveActions(req constraint.Requirement) (model.ActionList, error) {
	emit(e.hooks, Event{Phase: "planning", Msg: req.String()})
	return e.solver().RemoveActions(req)
}

// currentState is the set of packages installed in the top prefix.
func (e *Enpkg) currentState() history.State {
	s := history.NewState()
	for pkg := range e.installed.Top().IterPackages() {
		s[pkg.Key()] = struct{}{}
	}
	return s
}

func describe(actions model.ActionList) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = string(a.Opcode) + " " + a.Key
	}
	return strings.Join(parts, ", ")
}

// Execute runs actions. The history is reloaded first and seeded with the
// installed state when empty. The resulting state is recorded afterward,
// also when an action failed.
func (e *Enpkg) Execute(ctx context.Context, actions model.ActionList) (executor.Summary, error) {
	logger.Info("Executing actions", logger.Fields{"count": len(actions)})
	if err := e.history.Update(); err != nil {
		return executor.Summary{}, err
	}
	if e.history.Len() == 0 {
		if _, _, err := e.history.Record(e.currentState(), "initial"); err != nil {
			return executor.Summary{}, err
		}
	}

	sum, runErr := e.executor.Execute(ctx, actions)

	entry, added, err := e.history.Record(e.currentState(), describe(sum.Completed))
	if err != nil {
		logger.Error("Cannot record history", logger.Fields{"error": err.Error()})
		if runErr == nil {
			runErr = err
		}
	} else if added {
		logger.Debug("Recorded revision", logger.Fields{"revision": entry.Revision})
	}

	if runErr != nil {
		emit(e.hooks, Event{Phase: "error", Msg: runErr.Error()})
		return sum, runErr
	}
	msg := ""
	if sum.Canceled {
		msg = "canceled"
	}
	emit(e.hooks, Event{Phase: "done", Msg: msg})
	return sum, nil
}
