// Package solver turns a requirement into an ordered action list against a
// remote and an installed repository.
package solver

import (
	"fmt"
	"slices"

	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/constraint"
	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/model"
	"github.com/glorpus-work/enpkg/pkg/repository"
)

// ArchiveCache tells whether a valid archive is already available locally.
type ArchiveCache interface {
	IsCached(key string) bool
}

// Options tune InstallActions.
type Options struct {
	// Force reinstalls the requested package even when it is installed at
	// the resolved version.
	Force bool
	// ForceAll reinstalls every resolved package.
	ForceAll bool
	// NoDeps resolves and installs the requested package only.
	NoDeps bool
}

// Solver computes action lists.
type Solver struct {
	remote    *repository.Repository
	installed *repository.Repository
	strategy  Strategy
	cache     ArchiveCache
}

// Option configures a Solver.
type Option func(*Solver)

// WithStrategy replaces the Greedy strategy.
func WithStrategy(s Strategy) Option {
	return func(sv *Solver) { sv.strategy = s }
}

// WithArchiveCache lets the solver skip fetches of cached archives.
func WithArchiveCache(c ArchiveCache) Option {
	return func(sv *Solver) { sv.cache = c }
}

// New creates a solver. installed is the repository installs and removals
// apply to.
func New(remote, installed *repository.Repository, opts ...Option) *Solver {
	s := &Solver{remote: remote, installed: installed, strategy: Greedy{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InstallActions returns the actions installing req and its dependencies.
// Every package is fetched, then the differing installed versions are
// removed, then it is installed; dependencies come before dependents.
// Packages installed at the resolved version are left alone unless forced.
func (s *Solver) InstallActions(req constraint.Requirement, opts Options) (model.ActionList, error) {
	packages, err := s.strategy.Resolve(req, s.remote, opts.NoDeps)
	if err != nil {
		return nil, err
	}

	var actions model.ActionList
	for _, pkg := range packages {
		force := opts.ForceAll || (opts.Force && pkg.Name() == req.Name)
		actions = append(actions, s.packageActions(pkg, force)...)
	}
	logger.Debug("Resolved install actions", logger.Fields{"requirement": req.String(), "actions": len(actions)})
	return actions, nil
}

func (s *Solver) packageActions(pkg *model.RepositoryPackageMetadata, force bool) model.ActionList {
	var removals model.ActionList
	installedSame := false
	for _, installed := range s.installed.FindPackages(pkg.Name(), "") {
		if installed.SamePackage(pkg.PackageMetadata) {
			installedSame = true
			if !force {
				continue
			}
		}
		removal := model.Action{Opcode: model.OpRemove, Key: installed.Key()}
		if !slices.Contains(removals, removal) {
			removals = append(removals, removal)
		}
	}
	if installedSame && !force {
		return nil
	}

	var actions model.ActionList
	if force || s.cache == nil || !s.cache.IsCached(pkg.Key()) {
		actions = append(actions, model.Action{Opcode: model.FetchOpcode(force), Key: pkg.Key()})
	}
	actions = append(actions, removals...)
	return append(actions, model.Action{Opcode: model.OpInstall, Key: pkg.Key()})
}

// RemoveActions returns the actions removing every installed package
// matching req.
func (s *Solver) RemoveActions(req constraint.Requirement) (model.ActionList, error) {
	var actions model.ActionList
	for _, installed := range s.installed.FindPackages(req.Name, "") {
		ok, err := req.Matches(installed.Version())
		if err != nil {
			return nil, errors.Wrapf(err, "cannot match %s", installed)
		}
		if ok {
			actions = append(actions, model.Action{Opcode: model.OpRemove, Key: installed.Key()})
		}
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("%w: Package '%s' is not installed", errors.ErrMissingPackage, req)
	}
	return actions, nil
}
