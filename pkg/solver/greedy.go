package solver

import (
	"github.com/glorpus-work/enpkg/pkg/constraint"
	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/model"
	"github.com/glorpus-work/enpkg/pkg/repository"
)

// Strategy resolves a requirement to a dependency closed set of packages,
// returned in dependency order (leaves first).
type Strategy interface {
	Resolve(req constraint.Requirement, remote *repository.Repository, noDeps bool) ([]*model.RepositoryPackageMetadata, error)
}

// Greedy picks the highest version satisfying the constraints accumulated
// so far and never revisits a choice. A later constraint that the chosen
// version does not satisfy is a hard failure; non-maximal versions are not
// explored.
type Greedy struct{}

// Resolve implements Strategy.
func (Greedy) Resolve(req constraint.Requirement, remote *repository.Repository, noDeps bool) ([]*model.RepositoryPackageMetadata, error) {
	res := newResolver(remote, noDeps)
	res.addConstraints(req.Name, req.Constraints)
	if err := res.resolveNode(req.Name); err != nil {
		return nil, err
	}

	order := res.topoOrder(req.Name)
	out := make([]*model.RepositoryPackageMetadata, 0, len(order))
	for _, name := range order {
		out = append(out, res.selected[name])
	}
	return out, nil
}

type resolver struct {
	remote      *repository.Repository
	noDeps      bool
	constraints map[string]constraint.Set                  // name -> constraints (AND)
	selected    map[string]*model.RepositoryPackageMetadata // name -> chosen record
	deps        map[string][]string                         // name -> dep names
	visiting    map[string]struct{}                         // for cycle detection
}

func newResolver(remote *repository.Repository, noDeps bool) *resolver {
	return &resolver{
		remote:      remote,
		noDeps:      noDeps,
		constraints: make(map[string]constraint.Set),
		selected:    make(map[string]*model.RepositoryPackageMetadata),
		deps:        make(map[string][]string),
		visiting:    make(map[string]struct{}),
	}
}

func (r *resolver) addConstraints(name string, set constraint.Set) {
	r.constraints[name] = r.constraints[name].Merge(set)
}

func (r *resolver) requirement(name string) constraint.Requirement {
	return constraint.Requirement{Name: name, Constraints: r.constraints[name]}
}

func (r *resolver) resolveNode(name string) error {
	if _, ok := r.visiting[name]; ok {
		return errors.NewSolverError(errors.ErrCycle, "dependency cycle detected involving %s", name)
	}
	r.visiting[name] = struct{}{}
	defer delete(r.visiting, name)

	if prev, had := r.selected[name]; had {
		ok, err := r.constraints[name].Matches(prev.Version())
		if err != nil {
			return errors.NewSolverError(errors.ErrUnsatisfiable,
				"Conflicting requirements for '%s': %v", name, err)
		}
		if !ok {
			return errors.NewSolverError(errors.ErrUnsatisfiable,
				"Conflicting requirements for '%s': %s does not satisfy '%s'",
				name, prev.FullVersion(), r.requirement(name))
		}
		return nil
	}

	desc, err := r.choose(name)
	if err != nil {
		return err
	}
	r.selected[name] = desc
	if r.noDeps {
		return nil
	}

	for _, dep := range desc.Requirements() {
		r.deps[name] = append(r.deps[name], dep.Name)
		r.addConstraints(dep.Name, dep.Constraints)
		if err := r.resolveNode(dep.Name); err != nil {
			return err
		}
	}
	return nil
}

// choose returns the highest candidate satisfying the constraints of name.
// Among equal versions the last added record wins.
func (r *resolver) choose(name string) (*model.RepositoryPackageMetadata, error) {
	set := r.constraints[name]
	var matching []*model.RepositoryPackageMetadata
	for _, candidate := range r.remote.FindPackages(name, "") {
		ok, err := set.Matches(candidate.Version())
		if err != nil {
			// Irrational candidates cannot be compared to a constraint
			// over rational versions; they are never selected by one.
			continue
		}
		if ok {
			matching = append(matching, candidate)
		}
	}
	if len(matching) == 0 {
		return nil, errors.NewSolverError(errors.ErrNoPackageFound,
			"No egg found for requirement '%s'", r.requirement(name))
	}

	best, err := repository.MostRecent(matching)
	if err != nil {
		return nil, errors.NewSolverError(errors.ErrUnsatisfiable,
			"Cannot order candidates for '%s': %v", name, err)
	}
	return best, nil
}

func (r *resolver) topoOrder(root string) []string {
	order := make([]string, 0, len(r.selected))
	seen := make(map[string]bool, len(r.selected))
	var dfs func(n string)
	dfs = func(n string) {
		if seen[n] {
			return
		}
		seen[n] = true
		for _, m := range r.deps[n] {
			dfs(m)
		}
		order = append(order, n)
	}
	dfs(root)
	return order
}
