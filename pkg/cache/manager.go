// Package cache inspects and cleans the egg cache: the flat directory of
// downloaded eggs next to the partial downloads of interrupted fetches.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/fsutil"
	"github.com/glorpus-work/enpkg/pkg/model"
)

// partialSuffix marks the temporary file of a download in progress.
const partialSuffix = ".part"

// DefaultManager implements the Manager interface for cache operations.
type DefaultManager struct {
	directory string
}

// NewManager creates a new cache manager.
func NewManager(directory string) *DefaultManager {
	return &DefaultManager{
		directory: directory,
	}
}

// NewDefaultManager creates a cache manager on the default egg cache.
func NewDefaultManager() (*DefaultManager, error) {
	cacheDir, err := fsutil.GetEggCacheDir()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get user cache directory")
	}
	if err := fsutil.EnsureDir(cacheDir); err != nil {
		return nil, errors.Wrapf(err, "failed to create cache directory")
	}
	return NewManager(cacheDir), nil
}

type entry struct {
	name string
	info os.FileInfo
}

func (e entry) isPartial() bool {
	return strings.HasPrefix(e.name, ".") && strings.HasSuffix(e.name, partialSuffix)
}

func (e entry) isEgg() bool {
	return !strings.HasPrefix(e.name, ".") && filepath.Ext(e.name) == model.EggExtension
}

// entries lists the regular files of the cache. A missing directory is an
// empty cache.
func (cm *DefaultManager) entries() ([]entry, error) {
	dirEntries, err := os.ReadDir(cm.directory)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error reading directory %s", cm.directory)
	}
	var out []entry
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			return nil, errors.Wrapf(err, "error reading %s", de.Name())
		}
		out = append(out, entry{name: de.Name(), info: info})
	}
	return out, nil
}

// Clean removes cached files according to the specified options. Without
// All or Keep only partial downloads are removed.
func (cm *DefaultManager) Clean(options CleanOptions) (*CleanResult, error) {
	entries, err := cm.entries()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheClean, err)
	}

	result := &CleanResult{}
	for _, e := range entries {
		switch {
		case e.isPartial():
			result.PartialFreed += e.info.Size()
		case e.isEgg() && (options.All || (options.Keep != nil && !options.Keep(e.name))):
			result.EggsRemoved = append(result.EggsRemoved, e.name)
		default:
			continue
		}
		if err := os.Remove(filepath.Join(cm.directory, e.name)); err != nil {
			return result, fmt.Errorf("%w: %w", ErrCacheClean, err)
		}
		result.TotalFreed += e.info.Size()
	}
	sort.Strings(result.EggsRemoved)

	logger.Debug("Cleaned cache", logger.Fields{
		"directory": cm.directory,
		"eggs":      len(result.EggsRemoved),
		"freed":     result.TotalFreed,
	})
	return result, nil
}

// GetInfo returns information about the cache.
func (cm *DefaultManager) GetInfo() (*Info, error) {
	entries, err := cm.entries()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheInfo, err)
	}

	info := &Info{Directory: cm.directory}
	for _, e := range entries {
		switch {
		case e.isPartial():
			info.PartialSize += e.info.Size()
			info.PartialFiles++
		case e.isEgg():
			info.EggSize += e.info.Size()
			info.EggFiles++
			if info.Oldest.IsZero() || e.info.ModTime().Before(info.Oldest) {
				info.Oldest = e.info.ModTime()
			}
		}
	}
	info.TotalSize = info.EggSize + info.PartialSize
	return info, nil
}

// GetDirectory returns the cache directory path.
func (cm *DefaultManager) GetDirectory() string {
	return cm.directory
}

// SetDirectory sets the cache directory path.
func (cm *DefaultManager) SetDirectory(dir string) error {
	if dir == "" {
		return ErrCacheDirectory
	}
	cm.directory = dir
	return nil
}
