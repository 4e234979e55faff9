package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/glorpus-work/enpkg/internal/logger"
)

// Operation renders cache operations for the command line.
type Operation struct {
	manager Manager
}

// NewOperation creates a new cache operation instance.
func NewOperation(manager Manager) *Operation {
	return &Operation{
		manager: manager,
	}
}

// Clean cleans the cache and describes what was removed.
func (op *Operation) Clean(options CleanOptions) (string, error) {
	logger.Debug("Cleaning cache", logger.Fields{
		"all":  options.All,
		"keep": options.Keep != nil,
	})

	result, err := op.manager.Clean(options)
	if err != nil {
		return "", err
	}

	if result.TotalFreed == 0 && len(result.EggsRemoved) == 0 {
		return "No files were removed from the cache.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Cleaned cache. Freed %s of disk space.", formatBytes(result.TotalFreed))
	if len(result.EggsRemoved) > 0 {
		fmt.Fprintf(&b, "\n- Eggs: %s", strings.Join(result.EggsRemoved, ", "))
	}
	if result.PartialFreed > 0 {
		fmt.Fprintf(&b, "\n- Partial downloads: %s", formatBytes(result.PartialFreed))
	}
	return b.String(), nil
}

// GetInfo describes the cache.
func (op *Operation) GetInfo() (string, error) {
	info, err := op.manager.GetInfo()
	if err != nil {
		return "", err
	}

	oldest := "none"
	if !info.Oldest.IsZero() {
		oldest = info.Oldest.Format(time.RFC1123)
	}

	return fmt.Sprintf(`Cache Information:
  Directory:         %s
  Total Size:        %s
  Eggs:              %s (%d files)
  Partial downloads: %s (%d files)
  Oldest egg:        %s`,
		info.Directory,
		formatBytes(info.TotalSize),
		formatBytes(info.EggSize),
		info.EggFiles,
		formatBytes(info.PartialSize),
		info.PartialFiles,
		oldest,
	), nil
}

// GetDirectory returns the cache directory path.
func (op *Operation) GetDirectory() string {
	return op.manager.GetDirectory()
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"K", "M", "G", "T", "P", "E"}
	if exp < len(units) {
		return fmt.Sprintf("%.1f %sB", float64(bytes)/float64(div), units[exp])
	}
	return fmt.Sprintf("%d B", bytes)
}
