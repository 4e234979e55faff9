package egginst

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/hooks"
	"github.com/glorpus-work/enpkg/pkg/model"
	"github.com/glorpus-work/enpkg/pkg/repository"
)

// IterRemove removes the installed package the egg key names, yielding the
// number of files removed so far. A package without metadata fails with
// ErrMissingPackage. Files that cannot be removed do not stop the removal;
// their errors are reported together at the end.
func (i *Installer) IterRemove(ctx context.Context, key string) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		name, _, err := model.EggNameToNameVersion(key)
		if err != nil {
			yield(0, err)
			return
		}
		metaDir := i.MetaDir(name)
		pkg, err := repository.ReadInstalledMetadata(metaDir, i.EggInfoRoot())
		if err != nil {
			yield(0, err)
			return
		}
		if pkg == nil {
			yield(0, fmt.Errorf("%w: Package '%s' is not installed in %s", errors.ErrMissingPackage, name, i.prefix))
			return
		}
		if pkg.Key() != key {
			logger.Warn("Removing a different version than requested", logger.Fields{"requested": key, "installed": pkg.Key()})
		}

		if err := i.hooks.Run(ctx, metaDir, hooks.PreRemove, i.hookContext(pkg)); err != nil {
			yield(0, err)
			return
		}

		files, err := i.installedFiles(metaDir)
		if err != nil {
			yield(0, err)
			return
		}

		var result *multierror.Error
		removed := 0
		dirs := make(map[string]bool)
		for _, path := range files {
			if err := removeFile(path, dirs); err != nil {
				result = multierror.Append(result, err)
				continue
			}
			removed++
			if !yield(removed, nil) {
				return
			}
		}
		i.removeEmptyDirs(dirs)

		if err := os.RemoveAll(metaDir); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to remove %s: %w", metaDir, err))
		}
		if err := result.ErrorOrNil(); err != nil {
			yield(removed, err)
			return
		}
		logger.Info("Removed", logger.Fields{"key": pkg.Key(), "prefix": i.prefix, "files": removed})
	}
}

// installedFiles reads files.json as absolute paths.
func (i *Installer) installedFiles(metaDir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(metaDir, FilesList))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read file list of %s", metaDir)
	}
	var rel []string
	if err := json.Unmarshal(data, &rel); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrInvalidFormat, FilesList, err)
	}
	out := make([]string, 0, len(rel))
	for _, p := range rel {
		out = append(out, filepath.Join(i.prefix, filepath.FromSlash(p)))
	}
	return out, nil
}

// removeFiles removes paths, returning every failure.
func (i *Installer) removeFiles(paths []string) []error {
	var errs []error
	dirs := make(map[string]bool)
	for _, path := range paths {
		if err := removeFile(path, dirs); err != nil {
			errs = append(errs, err)
		}
	}
	i.removeEmptyDirs(dirs)
	return errs
}

// removeFile deletes a file and records its parent directory for cleanup.
// A file that is already gone is not an error.
func removeFile(path string, dirs map[string]bool) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file %s: %w", path, err)
	}
	dirs[filepath.Dir(path)] = true
	return nil
}

// removeEmptyDirs removes the directories in dirs, and then their parents,
// as long as they are empty and below the prefix.
func (i *Installer) removeEmptyDirs(dirs map[string]bool) {
	pending := make([]string, 0, len(dirs))
	for dir := range dirs {
		pending = append(pending, dir)
	}
	for len(pending) > 0 {
		// Deepest first, so children go before their parents.
		sort.Slice(pending, func(a, b int) bool { return len(pending[a]) > len(pending[b]) })
		dir := pending[0]
		pending = pending[1:]
		if dir == i.prefix || !within(i.prefix, dir) {
			continue
		}
		if err := os.Remove(dir); err != nil {
			continue
		}
		logger.Debug("Removed empty directory", logger.Fields{"dir": dir})
		pending = append(pending, filepath.Dir(dir))
	}
}
