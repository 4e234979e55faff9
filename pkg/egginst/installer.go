// Package egginst installs egg archives into a prefix and removes them
// again.
//
// An installed egg owns <prefix>/EGG-INFO/<name>/, holding the egg's own
// EGG-INFO entries, the installed record info.json and files.json, the list
// of files written outside the metadata directory.
package egginst

import (
	"context"
	"encoding/json"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/archive"
	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/fsutil"
	"github.com/glorpus-work/enpkg/pkg/hooks"
	"github.com/glorpus-work/enpkg/pkg/model"
	"github.com/glorpus-work/enpkg/pkg/repository"
)

const (
	eggInfoPrefix = "EGG-INFO/"
	// FilesList is the file of a metadata directory listing installed files.
	FilesList = "files.json"
)

// Installer installs eggs into a single prefix.
type Installer struct {
	prefix   string
	archives *archive.Manager
	hooks    hooks.Runner
}

// Option configures an Installer.
type Option func(*Installer)

// WithHookRunner replaces the tengo hook runner.
func WithHookRunner(r hooks.Runner) Option {
	return func(i *Installer) { i.hooks = r }
}

// NewInstaller creates an installer for prefix.
func NewInstaller(prefix string, opts ...Option) *Installer {
	i := &Installer{
		prefix:   prefix,
		archives: archive.NewManager(),
		hooks:    hooks.NewTengoExecutor(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Prefix returns the prefix eggs are installed into.
func (i *Installer) Prefix() string { return i.prefix }

// EggInfoRoot returns <prefix>/EGG-INFO.
func (i *Installer) EggInfoRoot() string {
	return filepath.Join(i.prefix, repository.EggInfoDir)
}

// MetaDir returns the metadata directory of the package called name.
func (i *Installer) MetaDir(name string) string {
	return filepath.Join(i.EggInfoRoot(), strings.ToLower(name))
}

func (i *Installer) hookContext(pkg *model.RepositoryPackageMetadata) hooks.Context {
	return hooks.Context{
		Key:     pkg.Key(),
		Name:    pkg.Name(),
		Version: pkg.FullVersion(),
		Prefix:  i.prefix,
		MetaDir: i.MetaDir(pkg.Name()),
	}
}

// installedRecord merges the egg's own info.json with extra, the store
// record of the egg, and validates the result.
func (i *Installer) installedRecord(key string, eggInfo []byte, extra map[string]any) ([]byte, *model.RepositoryPackageMetadata, error) {
	fields, err := model.ProjectRecord(eggInfo)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "metadata of %s", key)
	}
	if len(extra) > 0 {
		data, err := json.Marshal(extra)
		if err != nil {
			return nil, nil, err
		}
		overlay, err := model.ProjectRecord(data)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "extra metadata of %s", key)
		}
		for k, v := range overlay {
			fields[k] = v
		}
	}
	delete(fields, "store_location")
	fields["key"], _ = json.Marshal(key)
	fields["ctime"], _ = json.Marshal(time.Now().UTC().Format(time.RFC3339))

	record, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	pkg, err := model.FromInstalledJSON(record, i.EggInfoRoot())
	if err != nil {
		return nil, nil, err
	}
	return record, pkg, nil
}

// target places EGG-INFO entries in metaDir and everything else in the
// prefix. The egg's info.json is replaced by the installed record.
func (i *Installer) target(metaDir string) archive.Target {
	return func(entry string) string {
		if rest, ok := strings.CutPrefix(entry, eggInfoPrefix); ok {
			if rest == repository.InstalledMetadataFile {
				return ""
			}
			return filepath.Join(metaDir, filepath.FromSlash(rest))
		}
		return filepath.Join(i.prefix, filepath.FromSlash(entry))
	}
}

// IterInstall installs the egg at archivePath, yielding the number of files
// written so far. extra is merged into the installed record. An already
// installed package of the same name is removed first. On failure the
// files written so far are removed again.
func (i *Installer) IterInstall(ctx context.Context, archivePath string, extra map[string]any) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		key := filepath.Base(archivePath)
		eggInfo, err := i.archives.ReadFile(ctx, archivePath, eggInfoPrefix+repository.InstalledMetadataFile)
		if err != nil {
			yield(0, errors.Wrapf(errors.ErrInvalidRecord, "%s has no metadata: %s", key, err))
			return
		}
		record, pkg, err := i.installedRecord(key, eggInfo, extra)
		if err != nil {
			yield(0, err)
			return
		}

		metaDir := i.MetaDir(pkg.Name())
		if _, err := os.Stat(metaDir); err == nil {
			current, err := repository.ReadInstalledMetadata(metaDir, i.EggInfoRoot())
			if err != nil {
				yield(0, errors.Wrapf(err, "cannot replace %s", pkg.Name()))
				return
			}
			if current == nil {
				// No info.json: an install of this package never completed.
				logger.Warn("Removing incomplete installation metadata", logger.Fields{"name": pkg.Name(), "dir": metaDir})
				if err := os.RemoveAll(metaDir); err != nil {
					yield(0, errors.Wrapf(err, "cannot replace %s", pkg.Name()))
					return
				}
			} else {
				logger.Warn("Package already installed, removing it first", logger.Fields{"name": pkg.Name(), "key": key})
				for _, err := range i.IterRemove(ctx, key) {
					if err != nil {
						yield(0, errors.Wrapf(err, "cannot replace %s", pkg.Name()))
						return
					}
				}
			}
		}

		written := make([]string, 0)
		fail := func(err error) {
			i.rollback(metaDir, written)
			yield(len(written), err)
		}

		for dest, err := range i.archives.Extract(ctx, archivePath, i.prefix, i.target(metaDir)) {
			if err != nil {
				fail(errors.Wrapf(err, "cannot extract %s", key))
				return
			}
			if within(metaDir, dest) {
				continue
			}
			written = append(written, dest)
			if !yield(len(written), nil) {
				i.rollback(metaDir, written)
				return
			}
		}

		if err := i.writeMetadata(metaDir, record, written); err != nil {
			fail(err)
			return
		}
		if err := i.hooks.Run(ctx, metaDir, hooks.PostInstall, i.hookContext(pkg)); err != nil {
			fail(err)
			return
		}
		logger.Info("Installed", logger.Fields{"key": key, "prefix": i.prefix, "files": len(written)})
	}
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (i *Installer) writeMetadata(metaDir string, record []byte, written []string) error {
	files := make([]string, 0, len(written))
	for _, path := range written {
		rel, err := filepath.Rel(i.prefix, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
	}
	list, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		return err
	}
	if err := fsutil.EnsureDir(metaDir); err != nil {
		return err
	}
	if err := fsutil.AtomicWriteFile(filepath.Join(metaDir, FilesList), list, fsutil.FileModeDefault); err != nil {
		return errors.Wrapf(err, "cannot write file list of %s", metaDir)
	}
	// info.json goes last: its presence marks a complete installation.
	if err := fsutil.AtomicWriteFile(filepath.Join(metaDir, repository.InstalledMetadataFile), record, fsutil.FileModeDefault); err != nil {
		return errors.Wrapf(err, "cannot write metadata of %s", metaDir)
	}
	return nil
}

func (i *Installer) rollback(metaDir string, written []string) {
	for _, err := range i.removeFiles(written) {
		logger.Warn("Rollback", logger.Fields{"error": err.Error()})
	}
	_ = os.RemoveAll(metaDir)
}
