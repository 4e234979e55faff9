package repository

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/model"
)

// DefaultConcurrency is the number of metadata requests FromStore issues at
// once when no limit is given.
const DefaultConcurrency = 4

// StoreInfo describes a package store.
type StoreInfo struct {
	Root string
}

// Store is a remote catalog of eggs.
type Store interface {
	Info() StoreInfo
	// QueryKeys lists the keys of the eggs in the store.
	QueryKeys(ctx context.Context) ([]string, error)
	// GetMetadata returns the JSON metadata record of an egg.
	GetMetadata(ctx context.Context, key string) ([]byte, error)
}

// FromStore builds a repository from every egg of a store. Records are
// fetched concurrently and added in the order the store lists them.
func FromStore(ctx context.Context, store Store, concurrency int) (*Repository, error) {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	root := store.Info().Root

	keys, err := store.QueryKeys(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot list keys of %s", root)
	}
	logger.Debug("Loading store metadata", logger.Fields{"store": root, "keys": len(keys)})

	records := make([]*model.RepositoryPackageMetadata, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, key := range keys {
		g.Go(func() error {
			data, err := store.GetMetadata(gctx, key)
			if err != nil {
				return errors.Wrapf(err, "cannot fetch metadata of %s", key)
			}
			pkg, err := model.RepositoryPackageMetadataFromJSON(key, data, root)
			if err != nil {
				return err
			}
			records[i] = pkg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	repo := New(root)
	for _, pkg := range records {
		repo.AddPackage(pkg)
	}
	return repo, nil
}
