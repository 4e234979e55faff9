package store

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/archive"
	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/model"
	"github.com/glorpus-work/enpkg/pkg/repository"
)

// EggInfoMetadata is the archive entry holding an egg's own metadata.
const EggInfoMetadata = "EGG-INFO/info.json"

// Local is a directory of eggs. When the directory holds an index.json the
// records come from it; otherwise they are read from each egg.
type Local struct {
	dir      string
	archives *archive.Manager

	once  sync.Once
	index *index
	err   error
}

// NewLocal creates a store for dir.
func NewLocal(dir string) *Local {
	return &Local{dir: dir, archives: archive.NewManager()}
}

// Info implements repository.Store.
func (l *Local) Info() repository.StoreInfo {
	return repository.StoreInfo{Root: l.dir}
}

func (l *Local) loadIndex() (*index, error) {
	l.once.Do(func() {
		data, err := os.ReadFile(filepath.Join(l.dir, IndexFile))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return
		case err != nil:
			l.err = errors.Wrapf(err, "cannot read index of %s", l.dir)
			return
		}
		l.index, l.err = decodeIndex(data)
	})
	return l.index, l.err
}

// QueryKeys implements repository.Store. Without an index every *.egg file
// of the directory is listed.
func (l *Local) QueryKeys(ctx context.Context) ([]string, error) {
	idx, err := l.loadIndex()
	if err != nil {
		return nil, err
	}
	if idx != nil {
		return idx.keys, nil
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot list %s", l.dir)
	}
	var keys []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && filepath.Ext(entry.Name()) == model.EggExtension {
			keys = append(keys, entry.Name())
		}
	}
	sort.Strings(keys)
	return keys, ctx.Err()
}

// GetMetadata implements repository.Store.
func (l *Local) GetMetadata(ctx context.Context, key string) ([]byte, error) {
	idx, err := l.loadIndex()
	if err != nil {
		return nil, err
	}
	if idx != nil {
		return idx.metadata(key)
	}
	return l.eggMetadata(ctx, key)
}

// eggMetadata builds a store record from the egg's info.json and the
// archive's size, md5 and mtime.
func (l *Local) eggMetadata(ctx context.Context, key string) ([]byte, error) {
	path := filepath.Join(l.dir, key)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", errors.ErrMissingPackage, path)
		}
		return nil, err
	}

	data, err := l.archives.ReadFile(ctx, path, EggInfoMetadata)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidRecord, err)
	}
	fields, err := model.ProjectRecord(data)
	if err != nil {
		return nil, errors.Wrapf(err, "metadata of %s", key)
	}

	sum, err := md5File(path)
	if err != nil {
		return nil, err
	}
	extra := map[string]any{
		"size":  info.Size(),
		"md5":   sum,
		"mtime": float64(info.ModTime().UnixNano()) / 1e9,
	}
	for field, value := range extra {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		fields[field] = encoded
	}
	logger.Debug("Read egg metadata", logger.Fields{"key": key, "store": l.dir})
	return json.Marshal(fields)
}

// Open implements fetch.Transport.
func (l *Local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(l.dir, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found in %s", errors.ErrMissingPackage, key, l.dir)
		}
		return nil, err
	}
	return f, nil
}

func md5File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "cannot hash %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
