package executor

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/repository"
)

// Installed holds the installed repositories of a list of prefixes: the top
// prefix, where packages are installed, and the aggregate of all prefixes.
// Only the executor updates them; readers get the repository current at the
// time of the call.
type Installed struct {
	prefixes []string
	scanner  repository.PrefixScanner
	reader   repository.MetadataReader

	mu  sync.RWMutex
	top *repository.Repository
	all *repository.Repository
}

// NewInstalled scans prefixes, the first being the top prefix.
func NewInstalled(prefixes []string, scanner repository.PrefixScanner, reader repository.MetadataReader) (*Installed, error) {
	if len(prefixes) == 0 {
		return nil, errors.ErrNoPrefixes
	}
	in := &Installed{prefixes: prefixes, scanner: scanner, reader: reader}
	if err := in.Refresh(); err != nil {
		return nil, err
	}
	return in, nil
}

// Prefixes returns the prefixes, top first.
func (in *Installed) Prefixes() []string { return append([]string(nil), in.prefixes...) }

// TopPrefix returns the prefix packages are installed into.
func (in *Installed) TopPrefix() string { return in.prefixes[0] }

// Top returns the installed repository of the top prefix.
func (in *Installed) Top() *repository.Repository {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.top
}

// All returns the installed repository of every prefix.
func (in *Installed) All() *repository.Repository {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.all
}

// Refresh rescans every prefix.
func (in *Installed) Refresh() error {
	top, err := repository.FromPrefixes(in.prefixes[:1], in.scanner, in.reader)
	if err != nil {
		return err
	}
	all, err := repository.FromPrefixes(in.prefixes, in.scanner, in.reader)
	if err != nil {
		return err
	}
	in.mu.Lock()
	in.top, in.all = top, all
	in.mu.Unlock()
	return nil
}

// AddInstalled reads the installed record of the package called name from
// the top prefix and adds it to both repositories. When an older record of
// the same name is still listed the prefixes are rescanned instead.
func (in *Installed) AddInstalled(name string) error {
	root := filepath.Join(in.TopPrefix(), repository.EggInfoDir)
	pkg, err := repository.ReadInstalledMetadata(filepath.Join(root, strings.ToLower(name)), root)
	if err != nil {
		return err
	}
	if pkg == nil {
		return fmt.Errorf("%w: no installed record for %s in %s", errors.ErrMissingPackage, name, in.TopPrefix())
	}

	top, all := in.Top(), in.All()
	if len(top.FindPackages(pkg.Name(), "")) > 0 {
		return in.Refresh()
	}
	top.AddPackage(pkg)
	all.AddPackage(pkg)
	logger.Debug("Added installed record", logger.Fields{"key": pkg.Key()})
	return nil
}
