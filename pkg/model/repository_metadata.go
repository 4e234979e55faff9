package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/glorpus-work/enpkg/pkg/errors"
)

// Provenance records where a package record comes from.
type Provenance struct {
	StoreLocation string
	Mtime         float64
	// Product is the commercial product tag, "" when the egg has none.
	Product   string
	Available bool
}

// RepositoryPackageMetadata is a PackageMetadata plus its provenance. Two
// records with the same name and full version describe the same package even
// when their provenance differs.
type RepositoryPackageMetadata struct {
	*PackageMetadata
	provenance Provenance
}

// NewRepositoryPackageMetadata attaches provenance to a metadata record.
func NewRepositoryPackageMetadata(pkg *PackageMetadata, provenance Provenance) *RepositoryPackageMetadata {
	return &RepositoryPackageMetadata{PackageMetadata: pkg, provenance: provenance}
}

// StoreLocation returns the location of the store the record was read from.
func (p *RepositoryPackageMetadata) StoreLocation() string { return p.provenance.StoreLocation }

// Mtime returns the archive modification time as seconds since the epoch.
func (p *RepositoryPackageMetadata) Mtime() float64 { return p.provenance.Mtime }

// Product returns the product tag.
func (p *RepositoryPackageMetadata) Product() string { return p.provenance.Product }

// Available reports whether the archive can be downloaded.
func (p *RepositoryPackageMetadata) Available() bool { return p.provenance.Available }

// Provenance returns the record's provenance.
func (p *RepositoryPackageMetadata) Provenance() Provenance { return p.provenance }

// WithStoreLocation returns a copy of p with a different store location.
func (p *RepositoryPackageMetadata) WithStoreLocation(location string) *RepositoryPackageMetadata {
	prov := p.provenance
	prov.StoreLocation = location
	return &RepositoryPackageMetadata{PackageMetadata: p.PackageMetadata, provenance: prov}
}

func (r *jsonRecord) provenance(storeLocation string) Provenance {
	prov := Provenance{StoreLocation: storeLocation, Available: true}
	if r.Mtime != nil {
		prov.Mtime = *r.Mtime
	}
	if r.Product != nil {
		prov.Product = *r.Product
	}
	if r.Available != nil {
		prov.Available = *r.Available
	}
	if storeLocation == "" && r.StoreLocation != nil {
		prov.StoreLocation = *r.StoreLocation
	}
	return prov
}

// RepositoryPackageMetadataFromJSON decodes a store record. A non-empty
// storeLocation overrides the record's own store_location.
func RepositoryPackageMetadataFromJSON(key string, data []byte, storeLocation string) (*RepositoryPackageMetadata, error) {
	rec, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	if m := rec.missing(false); len(m) > 0 {
		return nil, fmt.Errorf("%w: %q: missing fields %s", errors.ErrInvalidRecord, key, strings.Join(m, ", "))
	}
	pkg, err := rec.build(key, *rec.Size, *rec.MD5)
	if err != nil {
		return nil, err
	}
	return NewRepositoryPackageMetadata(pkg, rec.provenance(storeLocation)), nil
}

// FromInstalledJSON decodes the metadata written into an installed
// package's metadata directory. Installed records carry no archive size or
// checksum, so placeholder values are used.
func FromInstalledJSON(data []byte, storeLocation string) (*RepositoryPackageMetadata, error) {
	rec, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	if m := rec.missing(true); len(m) > 0 {
		return nil, fmt.Errorf("%w: installed record: missing fields %s", errors.ErrInvalidRecord, strings.Join(m, ", "))
	}
	pkg, err := rec.build(*rec.Key, fakeInstalledSize, fakeInstalledMD5)
	if err != nil {
		return nil, err
	}
	return NewRepositoryPackageMetadata(pkg, rec.provenance(storeLocation)), nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// IndexData returns the record in the legacy index layout. It is handed to
// installers as extra metadata.
func (p *RepositoryPackageMetadata) IndexData() map[string]any {
	return map[string]any{
		"available": p.provenance.Available,
		"build":     p.build,
		"md5":       p.md5,
		"name":      p.name,
		"packages":  p.Dependencies(),
		"product":   nullable(p.provenance.Product),
		"python":    nullable(p.python),
		"mtime":     p.provenance.Mtime,
		"size":      p.size,
		"type":      EggType,
		"version":   p.upstream,
	}
}

// InstalledJSON renders the record written into an installed package's
// metadata directory. FromInstalledJSON reads it back.
func (p *RepositoryPackageMetadata) InstalledJSON() ([]byte, error) {
	data := p.IndexData()
	delete(data, "size")
	delete(data, "md5")
	data["key"] = p.key
	return json.MarshalIndent(data, "", "  ")
}

// String returns "name-upstream-build (store location)".
func (p *RepositoryPackageMetadata) String() string {
	if p.provenance.StoreLocation == "" {
		return p.PackageMetadata.String()
	}
	return p.PackageMetadata.String() + " (" + p.provenance.StoreLocation + ")"
}
