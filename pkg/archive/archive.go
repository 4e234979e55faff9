// Package archive reads and writes egg archives.
package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"

	"github.com/glorpus-work/enpkg/pkg/fsutil"
)

// ErrInvalidFilePath is returned for archive entries that would be written
// outside the destination directory.
var ErrInvalidFilePath = fmt.Errorf("invalid file path in archive")

// Manager handles egg archive extraction and creation.
type Manager struct{}

// NewManager creates a new Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

func open(ctx context.Context, archivePath string) (fs.FS, func(), error) {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	closeFn := func() {
		if closer, ok := fsys.(io.Closer); ok {
			_ = closer.Close()
		}
	}
	return fsys, closeFn, nil
}

// ReadFile returns the content of one archive entry.
func (am *Manager) ReadFile(ctx context.Context, archivePath, name string) ([]byte, error) {
	fsys, closeFn, err := open(ctx, archivePath)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from %s: %w", name, archivePath, err)
	}
	return data, nil
}

// Entries lists the non-directory entries of an archive in walk order.
func (am *Manager) Entries(ctx context.Context, archivePath string) ([]string, error) {
	fsys, closeFn, err := open(ctx, archivePath)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var out []string
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", archivePath, err)
	}
	return out, nil
}

// Target maps an archive entry to its destination path. An empty result
// skips the entry.
type Target func(entry string) string

// Within returns a Target placing every entry below dir.
func Within(dir string) Target {
	return func(entry string) string { return filepath.Join(dir, filepath.FromSlash(entry)) }
}

// Extract writes the entries of an archive to the paths chosen by target
// and yields every written path. Each file is written atomically, so an
// interrupted extraction never leaves a partial file behind. Entries that
// resolve outside root fail with ErrInvalidFilePath.
func (am *Manager) Extract(ctx context.Context, archivePath, root string, target Target) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		fsys, closeFn, err := open(ctx, archivePath)
		if err != nil {
			yield("", err)
			return
		}
		defer closeFn()

		stopped := false
		walkErr := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if p == "." || d.IsDir() {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			dest := target(p)
			if dest == "" {
				return nil
			}
			if err := validatePath(root, dest, p); err != nil {
				return err
			}
			if err := am.extractEntry(fsys, p, dest, d); err != nil {
				return err
			}
			if !yield(dest, nil) {
				stopped = true
				return fs.SkipAll
			}
			return nil
		})
		if walkErr != nil && !stopped {
			yield("", walkErr)
		}
	}
}

// validatePath ensures dest is inside root.
func validatePath(root, dest, entry string) error {
	clean := path.Clean(entry)
	if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return fmt.Errorf("%w: %s", ErrInvalidFilePath, entry)
	}
	rel, err := filepath.Rel(root, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrInvalidFilePath, entry)
	}
	return nil
}

// extractEntry writes a single archive entry to targetPath.
func (am *Manager) extractEntry(fsys fs.FS, p, targetPath string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("failed to get file info for %s: %w", p, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return am.writeSymlink(fsys, p, targetPath)
	}
	return am.writeRegularFile(fsys, p, targetPath, info)
}

// writeSymlink creates a symlink at targetPath pointing where the archive
// entry at p points.
func (am *Manager) writeSymlink(fsys fs.FS, p, targetPath string) error {
	linkTarget, err := fsys.Open(p)
	if err != nil {
		return fmt.Errorf("failed to read symlink %s: %w", p, err)
	}
	defer func() { _ = linkTarget.Close() }()

	targetBytes, err := io.ReadAll(linkTarget)
	if err != nil {
		return fmt.Errorf("failed to read symlink target %s: %w", p, err)
	}
	if err := fsutil.EnsureFileDir(targetPath); err != nil {
		return fmt.Errorf("failed to create parent directory for symlink %s: %w", p, err)
	}

	_ = os.Remove(targetPath)
	return os.Symlink(string(targetBytes), targetPath)
}

// writeRegularFile writes an archive entry to targetPath, keeping its
// permissions and modification time.
func (am *Manager) writeRegularFile(fsys fs.FS, p, targetPath string, info fs.FileInfo) error {
	srcFile, err := fsys.Open(p)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", p, err)
	}
	defer func() { _ = srcFile.Close() }()

	if err := fsutil.EnsureFileDir(targetPath); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", p, err)
	}
	perm := info.Mode().Perm()
	if perm == 0 {
		perm = fsutil.FileModeDefault
	}
	if _, err := fsutil.AtomicWriteFrom(targetPath, srcFile, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", targetPath, err)
	}
	if err := os.Chtimes(targetPath, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set modification time for %s: %w", targetPath, err)
	}
	return nil
}

// Create writes the content of sourceDir into a zip archive at archivePath.
func (am *Manager) Create(ctx context.Context, sourceDir, archivePath string) error {
	absolutePath, err := filepath.Abs(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for source directory: %w", err)
	}

	archiveFiles, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		absolutePath + string(os.PathSeparator): "",
	})
	if err != nil {
		return fmt.Errorf("failed to read files from disk: %w", err)
	}

	file, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", archivePath, err)
	}
	defer func() {
		_ = file.Sync()
		_ = file.Close()
	}()

	if err := (archives.Zip{}).Archive(ctx, file, archiveFiles); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	return nil
}
