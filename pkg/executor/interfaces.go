//go:generate mockgen -destination=./mocks/executor.go . Installer,Fetcher,Transfer

package executor

import (
	"context"
	"iter"

	"github.com/glorpus-work/enpkg/pkg/fetch"
)

// Installer installs and removes eggs in the top prefix. Both operations
// yield progress steps.
type Installer interface {
	IterInstall(ctx context.Context, archivePath string, extra map[string]any) iter.Seq2[int, error]
	IterRemove(ctx context.Context, key string) iter.Seq2[int, error]
}

// Transfer is a single cancelable download.
type Transfer interface {
	Chunks() iter.Seq2[int64, error]
	Cancel()
	Canceled() bool
	Size() int64
	Skipped() bool
}

// Fetcher downloads eggs into the local cache.
type Fetcher interface {
	IterFetch(ctx context.Context, key string, force bool) (Transfer, error)
	// Path returns where the egg key is cached.
	Path(key string) string
}

type downloadFetcher struct {
	*fetch.DownloadManager
}

// IterFetch implements Fetcher.
func (d downloadFetcher) IterFetch(ctx context.Context, key string, force bool) (Transfer, error) {
	fctx, err := d.DownloadManager.IterFetch(ctx, key, force)
	if err != nil {
		return nil, err
	}
	return fctx, nil
}

// NewFetcher adapts a download manager to Fetcher.
func NewFetcher(dm *fetch.DownloadManager) Fetcher {
	return downloadFetcher{dm}
}
