// Package repository indexes package metadata records by name and version.
package repository

import (
	"iter"
	"sync"

	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/model"
)

// InitialPackageCapacity is the initial capacity of the package list.
const InitialPackageCapacity = 100

// Repository is an append-only set of package records with an index from
// name to records in insertion order. It is safe for one writer and many
// concurrent readers.
type Repository struct {
	storeInfo string
	packages  []*model.RepositoryPackageMetadata
	byName    map[string][]*model.RepositoryPackageMetadata
	names     []string
	rwMutex   sync.RWMutex
}

// New creates an empty repository. storeInfo describes where its records
// come from and may be empty.
func New(storeInfo string) *Repository {
	return &Repository{
		storeInfo: storeInfo,
		packages:  make([]*model.RepositoryPackageMetadata, 0, InitialPackageCapacity),
		byName:    make(map[string][]*model.RepositoryPackageMetadata),
	}
}

// StoreInfo returns the store description given to New.
func (r *Repository) StoreInfo() string { return r.storeInfo }

// AddPackage appends a record and indexes it.
func (r *Repository) AddPackage(pkg *model.RepositoryPackageMetadata) {
	r.rwMutex.Lock()
	defer r.rwMutex.Unlock()
	r.addLocked(pkg)
}

func (r *Repository) addLocked(pkg *model.RepositoryPackageMetadata) {
	r.packages = append(r.packages, pkg)
	if _, ok := r.byName[pkg.Name()]; !ok {
		r.names = append(r.names, pkg.Name())
	}
	r.byName[pkg.Name()] = append(r.byName[pkg.Name()], pkg)
}

// HasPackage reports whether a record with the same name and full version
// is present.
func (r *Repository) HasPackage(pkg *model.PackageMetadata) bool {
	_, err := r.FindPackage(pkg.Name(), pkg.FullVersion())
	return err == nil
}

// HasPackageKey reports whether a record with the given key is present.
func (r *Repository) HasPackageKey(key string) bool {
	_, ok := r.FindPackageByKey(key)
	return ok
}

// FindPackage returns the first record, in insertion order, with the given
// name and full version.
func (r *Repository) FindPackage(name, fullVersion string) (*model.RepositoryPackageMetadata, error) {
	r.rwMutex.RLock()
	defer r.rwMutex.RUnlock()

	for _, candidate := range r.byName[name] {
		if candidate.FullVersion() == fullVersion {
			return candidate, nil
		}
	}
	return nil, errors.MissingPackage(name, fullVersion)
}

// FindPackages returns every record with the given name, restricted to the
// given full version unless it is empty.
func (r *Repository) FindPackages(name, fullVersion string) []*model.RepositoryPackageMetadata {
	r.rwMutex.RLock()
	defer r.rwMutex.RUnlock()

	candidates := r.byName[name]
	out := make([]*model.RepositoryPackageMetadata, 0, len(candidates))
	for _, candidate := range candidates {
		if fullVersion == "" || candidate.FullVersion() == fullVersion {
			out = append(out, candidate)
		}
	}
	return out
}

// FindPackageByKey returns the first record with the given key.
func (r *Repository) FindPackageByKey(key string) (*model.RepositoryPackageMetadata, bool) {
	r.rwMutex.RLock()
	defer r.rwMutex.RUnlock()

	for _, candidate := range r.packages {
		if candidate.Key() == key {
			return candidate, true
		}
	}
	return nil, false
}

// IterPackages iterates over every record in insertion order. The iteration
// works on a snapshot taken when it starts.
func (r *Repository) IterPackages() iter.Seq[*model.RepositoryPackageMetadata] {
	return func(yield func(*model.RepositoryPackageMetadata) bool) {
		r.rwMutex.RLock()
		packages := append([]*model.RepositoryPackageMetadata(nil), r.packages...)
		r.rwMutex.RUnlock()

		for _, pkg := range packages {
			if !yield(pkg) {
				return
			}
		}
	}
}

// IterMostRecentPackages yields the most recent record of every name, in
// the order names were first added. Records compare by (upstream, build);
// among equal versions the last added wins. An incomparable pair of
// versions is reported as an error for that name and iteration continues.
func (r *Repository) IterMostRecentPackages() iter.Seq2[*model.RepositoryPackageMetadata, error] {
	return func(yield func(*model.RepositoryPackageMetadata, error) bool) {
		r.rwMutex.RLock()
		names := append([]string(nil), r.names...)
		r.rwMutex.RUnlock()

		for _, name := range names {
			best, err := MostRecent(r.FindPackages(name, ""))
			if !yield(best, err) {
				return
			}
		}
	}
}

// MostRecent returns the maximum of candidates by (upstream, build), ties
// resolved to the later candidate.
func MostRecent(candidates []*model.RepositoryPackageMetadata) (*model.RepositoryPackageMetadata, error) {
	var best *model.RepositoryPackageMetadata
	for _, candidate := range candidates {
		if best == nil {
			best = candidate
			continue
		}
		cmp, err := candidate.Version().Compare(best.Version())
		if err != nil {
			return nil, errors.Wrapf(err, "cannot order %s and %s", candidate, best)
		}
		if cmp >= 0 {
			best = candidate
		}
	}
	return best, nil
}

// Len returns the number of records.
func (r *Repository) Len() int {
	r.rwMutex.RLock()
	defer r.rwMutex.RUnlock()
	return len(r.packages)
}

// Names returns the distinct package names in first-seen order.
func (r *Repository) Names() []string {
	r.rwMutex.RLock()
	defer r.rwMutex.RUnlock()
	return append([]string(nil), r.names...)
}

// Snapshot returns an independent copy of the repository. Readers that must
// not observe a transaction in progress work on a snapshot.
func (r *Repository) Snapshot() *Repository {
	r.rwMutex.RLock()
	defer r.rwMutex.RUnlock()

	out := New(r.storeInfo)
	for _, pkg := range r.packages {
		out.addLocked(pkg)
	}
	return out
}

// Merge adds every record of the given repositories, in order.
func Merge(storeInfo string, repos ...*Repository) *Repository {
	out := New(storeInfo)
	for _, repo := range repos {
		for pkg := range repo.IterPackages() {
			out.AddPackage(pkg)
		}
	}
	return out
}
