// Package fetch downloads egg archives into a local cache, verifying their
// checksum before they become visible.
package fetch

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/fsutil"
	"github.com/glorpus-work/enpkg/pkg/model"
	"github.com/glorpus-work/enpkg/pkg/repository"
)

// DefaultChunkSize is the number of bytes read per chunk.
const DefaultChunkSize = 16 * 1024

// Transport opens the byte stream of an egg.
type Transport interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// DownloadManager fetches eggs of a remote repository into a cache
// directory.
type DownloadManager struct {
	remote    *repository.Repository
	cacheDir  string
	transport Transport
	chunkSize int
}

// Option configures a DownloadManager.
type Option func(*DownloadManager)

// WithChunkSize sets the chunk size. Values below 1 are ignored.
func WithChunkSize(n int) Option {
	return func(m *DownloadManager) {
		if n > 0 {
			m.chunkSize = n
		}
	}
}

// NewDownloadManager creates a download manager. remote provides the
// declared checksums.
func NewDownloadManager(remote *repository.Repository, cacheDir string, transport Transport, opts ...Option) *DownloadManager {
	m := &DownloadManager{
		remote:    remote,
		cacheDir:  cacheDir,
		transport: transport,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CacheDir returns the cache directory.
func (m *DownloadManager) CacheDir() string { return m.cacheDir }

// Path returns the cache path of an egg.
func (m *DownloadManager) Path(key string) string {
	return filepath.Join(m.cacheDir, key)
}

// IsCached reports whether the cache holds the egg with the checksum the
// remote repository declares.
func (m *DownloadManager) IsCached(key string) bool {
	pkg, ok := m.remote.FindPackageByKey(key)
	if !ok {
		return false
	}
	return tryReuseExisting(m.Path(key), pkg.MD5())
}

// Fetch downloads an egg unless a valid copy is cached or force is set.
func (m *DownloadManager) Fetch(ctx context.Context, key string, force bool) error {
	fctx, err := m.IterFetch(ctx, key, force)
	if err != nil {
		return err
	}
	for _, err := range fctx.Chunks() {
		if err != nil {
			return err
		}
	}
	return nil
}

// IterFetch prepares the download of an egg. The transfer happens while the
// returned context's chunks are iterated. A valid cached copy yields no
// chunks unless force is set.
func (m *DownloadManager) IterFetch(ctx context.Context, key string, force bool) (*Context, error) {
	pkg, ok := m.remote.FindPackageByKey(key)
	if !ok {
		return nil, fmt.Errorf("%w: no egg %q in %s", errors.ErrMissingPackage, key, m.remote.StoreInfo())
	}
	fctx := &Context{ctx: ctx, manager: m, pkg: pkg}
	if !force && m.IsCached(key) {
		logger.Debug("Egg already cached", logger.Fields{"key": key})
		fctx.skip = true
	}
	return fctx, nil
}

// Context is a single cancelable download.
type Context struct {
	ctx      context.Context
	manager  *DownloadManager
	pkg      *model.RepositoryPackageMetadata
	skip     bool
	canceled atomic.Bool
}

// Key returns the key of the egg being fetched.
func (c *Context) Key() string { return c.pkg.Key() }

// Size returns the declared size of the egg.
func (c *Context) Size() int64 { return c.pkg.Size() }

// Skipped reports whether the valid cached copy made the download
// unnecessary.
func (c *Context) Skipped() bool { return c.skip }

// Cancel stops the transfer before the next chunk. The partial file is
// removed.
func (c *Context) Cancel() { c.canceled.Store(true) }

// Canceled reports whether Cancel was called.
func (c *Context) Canceled() bool { return c.canceled.Load() }

// Chunks transfers the egg and yields the number of bytes of every chunk.
// The target exists only once the whole egg is written and its checksum
// matches. Breaking out of the iteration cancels the transfer.
func (c *Context) Chunks() iter.Seq2[int64, error] {
	return func(yield func(int64, error) bool) {
		if c.skip {
			return
		}
		if err := c.transfer(yield); err != nil {
			yield(0, err)
		}
	}
}

func (c *Context) transfer(yield func(int64, error) bool) (err error) {
	m := c.manager
	key := c.pkg.Key()
	target := m.Path(key)

	if err := fsutil.EnsureDir(m.cacheDir); err != nil {
		return errors.Wrap(err, "could not create download dir")
	}
	tmp, err := os.CreateTemp(m.cacheDir, "."+key+"-*.part")
	if err != nil {
		return errors.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()
	finalized := false
	defer func() {
		_ = tmp.Close()
		if !finalized {
			_ = os.Remove(tmpPath)
		}
	}()

	body, err := m.transport.Open(c.ctx, key)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errors.ErrDownload, key, err)
	}
	defer func() { _ = body.Close() }()

	h := md5.New()
	w := io.MultiWriter(tmp, h)
	buf := make([]byte, m.chunkSize)
	for {
		if c.Canceled() {
			logger.Debug("Fetch canceled", logger.Fields{"key": key})
			return nil
		}
		if err := c.ctx.Err(); err != nil {
			return err
		}
		n, readErr := io.ReadFull(body, buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return errors.Wrap(err, "could not write file")
			}
			if !yield(int64(n), nil) {
				c.Cancel()
				return nil
			}
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("%w: %s: %w", errors.ErrDownload, key, readErr)
		}
	}
	if c.Canceled() {
		return nil
	}

	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, "could not sync file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "could not close file")
	}

	got := hex.EncodeToString(h.Sum(nil))
	if got != normalizeHex(c.pkg.MD5()) {
		return fmt.Errorf("%w: %s: expected %s, got %s", errors.ErrHashMismatch, key, c.pkg.MD5(), got)
	}
	if err := finalizeFile(tmpPath, target); err != nil {
		return err
	}
	finalized = true
	logger.Debug("Fetched egg", logger.Fields{"key": key, "path": target})
	return nil
}

func tryReuseExisting(absPath, checksum string) bool {
	st, err := os.Stat(absPath)
	if err != nil || !st.Mode().IsRegular() {
		return false
	}
	ok, err := verifyMD5(absPath, checksum)
	return err == nil && ok
}

func finalizeFile(tmpPath, absPath string) error {
	if err := fsutil.Move(tmpPath, absPath); err != nil {
		return errors.Wrap(err, "could not finalize file")
	}
	if err := os.Chmod(absPath, fsutil.FileModeDefault); err != nil {
		return errors.Wrap(err, "could not set permissions")
	}
	return nil
}

func verifyMD5(path string, wantHex string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, errors.Wrap(err, "open for checksum")
	}
	defer func() { _ = f.Close() }()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, errors.Wrap(err, "hashing")
	}
	return hex.EncodeToString(h.Sum(nil)) == normalizeHex(wantHex), nil
}

func normalizeHex(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
