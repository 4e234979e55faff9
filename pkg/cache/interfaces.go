package cache

import "time"

// Manager defines the operations on the egg cache.
type Manager interface {
	Clean(options CleanOptions) (*CleanResult, error)
	GetInfo() (*Info, error)
	GetDirectory() string
	SetDirectory(dir string) error
}

// CleanOptions specifies what to clean from the cache. Partial downloads
// are always removed.
type CleanOptions struct {
	// All removes every egg.
	All bool
	// Keep, when set, preserves the eggs it reports true for; the others
	// are removed.
	Keep func(key string) bool
}

// CleanResult contains information about what was cleaned.
type CleanResult struct {
	TotalFreed   int64
	EggsRemoved  []string
	PartialFreed int64
}

// Info represents cache information.
type Info struct {
	Directory    string
	TotalSize    int64
	EggSize      int64
	EggFiles     int
	PartialSize  int64
	PartialFiles int
	Oldest       time.Time
}
