package store

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/repository"
)

// Multi combines several stores into one remote repository. Eggs are opened
// from the store their record came from.
type Multi struct {
	stores []Store

	mu     sync.RWMutex
	remote *repository.Repository
}

// NewMulti creates a Multi. Earlier stores win when a key is found in
// several of them.
func NewMulti(stores ...Store) *Multi {
	return &Multi{stores: stores}
}

// Load builds the merged repository of every store.
func (m *Multi) Load(ctx context.Context, concurrency int) (*repository.Repository, error) {
	repos := make([]*repository.Repository, 0, len(m.stores))
	for _, s := range m.stores {
		repo, err := repository.FromStore(ctx, s, concurrency)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	remote := repository.Merge("remote", repos...)

	m.mu.Lock()
	m.remote = remote
	m.mu.Unlock()
	return remote, nil
}

// Open implements fetch.Transport. Load must have been called. Routing is by
// key: a key found in several stores is always opened from the first one,
// whichever of its records the solver picked, and the fetch checksum comes
// from that same first record.
func (m *Multi) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	remote := m.remote
	m.mu.RUnlock()
	if remote == nil {
		return nil, fmt.Errorf("%w: stores not loaded", errors.ErrMissingPackage)
	}

	pkg, ok := remote.FindPackageByKey(key)
	if !ok {
		return nil, fmt.Errorf("%w: no egg %q in any store", errors.ErrMissingPackage, key)
	}
	for _, s := range m.stores {
		if s.Info().Root == pkg.StoreLocation() {
			return s.Open(ctx, key)
		}
	}
	return nil, fmt.Errorf("%w: no store at %s", errors.ErrMissingPackage, pkg.StoreLocation())
}
