package repository

import (
	"os"
	"path/filepath"

	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/model"
)

const (
	// EggInfoDir is the directory of a prefix holding installed metadata.
	EggInfoDir = "EGG-INFO"
	// InstalledMetadataFile is the metadata file of an installed package.
	InstalledMetadataFile = "info.json"
)

// MetaDir is an installed package's metadata directory together with the
// EGG-INFO root it lives in.
type MetaDir struct {
	Root string
	Path string
}

// PrefixScanner lists the metadata directories of a prefix.
type PrefixScanner interface {
	Scan(prefix string) ([]MetaDir, error)
}

// MetadataReader reads the installed record of a metadata directory. It
// returns (nil, nil) when the directory holds no metadata.
type MetadataReader interface {
	Read(dir MetaDir) (*model.RepositoryPackageMetadata, error)
}

// EggInfoScanner lists the sub-directories of <prefix>/EGG-INFO. A prefix
// without that directory has no installed packages.
type EggInfoScanner struct{}

// Scan implements PrefixScanner.
func (EggInfoScanner) Scan(prefix string) ([]MetaDir, error) {
	root := filepath.Join(prefix, EggInfoDir)
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot list %s", root)
	}

	out := make([]MetaDir, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			out = append(out, MetaDir{Root: root, Path: filepath.Join(root, entry.Name())})
		}
	}
	return out, nil
}

// InstalledMetadataReader reads <metaDir>/info.json.
type InstalledMetadataReader struct{}

// Read implements MetadataReader.
func (InstalledMetadataReader) Read(dir MetaDir) (*model.RepositoryPackageMetadata, error) {
	return ReadInstalledMetadata(dir.Path, dir.Root)
}

// ReadInstalledMetadata reads the installed record in metaDir. storeLocation
// is recorded as the record's provenance. A missing file yields (nil, nil).
func ReadInstalledMetadata(metaDir, storeLocation string) (*model.RepositoryPackageMetadata, error) {
	path := filepath.Join(metaDir, InstalledMetadataFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", path)
	}
	pkg, err := model.FromInstalledJSON(data, storeLocation)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid installed metadata %s", path)
	}
	return pkg, nil
}

// FromPrefixes builds the repository of the packages installed in the
// given prefixes. Nil scanner and reader select the EGG-INFO layout.
func FromPrefixes(prefixes []string, scanner PrefixScanner, reader MetadataReader) (*Repository, error) {
	if scanner == nil {
		scanner = EggInfoScanner{}
	}
	if reader == nil {
		reader = InstalledMetadataReader{}
	}

	repo := New("")
	for _, prefix := range prefixes {
		dirs, err := scanner.Scan(prefix)
		if err != nil {
			return nil, err
		}
		for _, dir := range dirs {
			pkg, err := reader.Read(dir)
			if err != nil {
				return nil, err
			}
			if pkg == nil {
				logger.Debugf("no metadata in %s, skipping", dir.Path)
				continue
			}
			repo.AddPackage(pkg.WithStoreLocation(dir.Root))
		}
	}
	return repo, nil
}
