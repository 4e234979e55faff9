// Package model provides the package metadata records and the action lists
// exchanged between the solver and the executor.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/glorpus-work/enpkg/pkg/constraint"
	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/version"
)

const (
	// EggExtension is the file extension of egg archives.
	EggExtension = ".egg"
	// EggType is the "type" value of egg records in a legacy index.
	EggType = "egg"

	fakeInstalledSize = -1
)

var fakeInstalledMD5 = strings.Repeat("a", 32)

// PackageMetadata is the metadata needed to resolve dependencies. It is not
// attached to a repository and is immutable once constructed.
type PackageMetadata struct {
	key          string
	name         string
	upstream     string
	build        int
	version      version.EnpkgVersion
	dependencies []string
	requirements []constraint.Requirement
	python       string
	size         int64
	md5          string
}

// NewPackageMetadata validates and builds a metadata record. The name is
// lower-cased; dependencies are legacy (or pretty) requirement strings.
func NewPackageMetadata(key, name, upstream string, build int, dependencies []string, python string, size int64, md5 string) (*PackageMetadata, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", errors.ErrInvalidRecord)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty name for %q", errors.ErrInvalidRecord, key)
	}
	v, err := version.FromUpstreamAndBuild(upstream, build)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", errors.ErrInvalidRecord, key, err)
	}

	reqs := make([]constraint.Requirement, 0, len(dependencies))
	for _, dep := range dependencies {
		req, err := constraint.ParseDependency(dep)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: dependency %q: %w", errors.ErrInvalidRecord, key, dep, err)
		}
		reqs = append(reqs, req)
	}

	return &PackageMetadata{
		key:          key,
		name:         strings.ToLower(name),
		upstream:     upstream,
		build:        build,
		version:      v,
		dependencies: append([]string(nil), dependencies...),
		requirements: reqs,
		python:       python,
		size:         size,
		md5:          md5,
	}, nil
}

// Key returns the archive filename, e.g. "numpy-1.8.0-1.egg".
func (p *PackageMetadata) Key() string { return p.key }

// Name returns the lower-cased package name.
func (p *PackageMetadata) Name() string { return p.name }

// Upstream returns the upstream version as written in the metadata.
func (p *PackageMetadata) Upstream() string { return p.upstream }

// Build returns the build number.
func (p *PackageMetadata) Build() int { return p.build }

// Version returns the parsed full version.
func (p *PackageMetadata) Version() version.EnpkgVersion { return p.version }

// FullVersion returns "upstream-build" as written in the metadata.
func (p *PackageMetadata) FullVersion() string {
	return p.upstream + "-" + strconv.Itoa(p.build)
}

// Dependencies returns a copy of the raw dependency strings.
func (p *PackageMetadata) Dependencies() []string {
	out := make([]string, len(p.dependencies))
	copy(out, p.dependencies)
	return out
}

// Requirements returns the parsed dependencies.
func (p *PackageMetadata) Requirements() []constraint.Requirement {
	return append([]constraint.Requirement(nil), p.requirements...)
}

// Python returns the target interpreter tag, "" when the egg is not tied to
// one.
func (p *PackageMetadata) Python() string { return p.python }

// Size returns the archive size in bytes.
func (p *PackageMetadata) Size() int64 { return p.size }

// MD5 returns the hex encoded archive checksum.
func (p *PackageMetadata) MD5() string { return p.md5 }

// String returns "name-upstream-build".
func (p *PackageMetadata) String() string { return p.name + "-" + p.FullVersion() }

// SamePackage reports whether both records describe the same logical
// package, i.e. equal name and full version.
func (p *PackageMetadata) SamePackage(o *PackageMetadata) bool {
	return p.name == o.name && p.FullVersion() == o.FullVersion()
}

// jsonRecord is the union of the fields found in store and installed
// metadata records. Pointers tell missing fields apart from zero values.
type jsonRecord struct {
	Key           *string         `json:"key"`
	Name          *string         `json:"name"`
	Version       *string         `json:"version"`
	Build         *int            `json:"build"`
	Packages      *[]string       `json:"packages"`
	Python        json.RawMessage `json:"python"`
	Size          *int64          `json:"size"`
	MD5           *string         `json:"md5"`
	Mtime         *float64        `json:"mtime"`
	Product       *string         `json:"product"`
	Available     *bool           `json:"available"`
	StoreLocation *string         `json:"store_location"`
	Type          *string         `json:"type"`
	Ctime         json.RawMessage `json:"ctime"`
}

func decodeRecord(data []byte) (*jsonRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var rec jsonRecord
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidRecord, err)
	}
	return &rec, nil
}

var recordFields = map[string]bool{
	"key": true, "name": true, "version": true, "build": true, "packages": true,
	"python": true, "size": true, "md5": true, "mtime": true, "product": true,
	"available": true, "store_location": true, "type": true, "ctime": true,
}

// ProjectRecord drops the fields a metadata record decoder does not know,
// such as the platform fields of an egg's own info.json.
func ProjectRecord(data []byte) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidRecord, err)
	}
	for field := range all {
		if !recordFields[field] {
			delete(all, field)
		}
	}
	return all, nil
}

func (r *jsonRecord) python() (string, error) {
	if len(r.Python) == 0 || string(r.Python) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(r.Python, &s); err != nil {
		return "", fmt.Errorf("%w: python: %w", errors.ErrInvalidRecord, err)
	}
	return s, nil
}

// missing lists the required fields absent from the record.
func (r *jsonRecord) missing(installed bool) []string {
	var out []string
	check := func(name string, present bool) {
		if !present {
			out = append(out, name)
		}
	}
	if installed {
		check("key", r.Key != nil)
	}
	check("name", r.Name != nil)
	check("version", r.Version != nil)
	check("build", r.Build != nil)
	check("packages", r.Packages != nil)
	check("python", len(r.Python) != 0)
	if !installed {
		check("size", r.Size != nil)
		check("md5", r.MD5 != nil)
	}
	return out
}

func (r *jsonRecord) build(key string, size int64, md5 string) (*PackageMetadata, error) {
	python, err := r.python()
	if err != nil {
		return nil, err
	}
	return NewPackageMetadata(key, *r.Name, *r.Version, *r.Build, *r.Packages, python, size, md5)
}

// PackageMetadataFromJSON decodes a metadata record for the given key.
// Unknown fields and missing required fields are rejected.
func PackageMetadataFromJSON(key string, data []byte) (*PackageMetadata, error) {
	rec, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	if m := rec.missing(false); len(m) > 0 {
		return nil, fmt.Errorf("%w: %q: missing fields %s", errors.ErrInvalidRecord, key, strings.Join(m, ", "))
	}
	return rec.build(key, *rec.Size, *rec.MD5)
}

// EggName returns the archive filename of a package.
func EggName(name, fullVersion string) string {
	return name + "-" + fullVersion + EggExtension
}

// EggNameToNameVersion splits an egg filename into its lower-cased name and
// full version, e.g. "numpy-1.8.0-1.egg" gives ("numpy", "1.8.0-1").
func EggNameToNameVersion(eggName string) (string, string, error) {
	base := filepath.Base(eggName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name, fullVersion, ok := strings.Cut(base, "-")
	if !ok {
		return "", "", fmt.Errorf("%w: Invalid egg name: %q", errors.ErrInvalidFormat, eggName)
	}
	return strings.ToLower(name), fullVersion, nil
}
