package constraint

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/version"
)

var dependsRe = regexp.MustCompile(`depends\s*\((.*)\)`)

// PackageString is the parsed form of a pretty package string such as
//
//	numpy 1.8.1-1; depends (MKL == 10.3, nose ~= 1.3.4)
type PackageString struct {
	Name         string
	Version      version.EnpkgVersion
	Dependencies map[string]Set
}

// ParsePackageString parses a pretty package string.
func ParsePackageString(s string) (PackageString, error) {
	parts := strings.Split(s, ";")

	preamble := strings.Fields(parts[0])
	if len(preamble) != 2 {
		return PackageString{}, fmt.Errorf("%w: invalid preamble: %q", errors.ErrInvalidFormat, parts[0])
	}
	v, err := version.Parse(preamble[1])
	if err != nil {
		return PackageString{}, err
	}

	out := PackageString{Name: preamble[0], Version: v, Dependencies: map[string]Set{}}
	for _, block := range parts[1:] {
		block = strings.TrimLeft(block, " \t")
		m := dependsRe.FindStringSubmatch(block)
		if m == nil {
			return PackageString{}, fmt.Errorf("%w: invalid constraint block: '%s'", errors.ErrInvalidFormat, block)
		}
		deps, err := ParseRequirements(m[1])
		if err != nil {
			return PackageString{}, err
		}
		for name, set := range deps {
			out.Dependencies[name] = out.Dependencies[name].Merge(set)
		}
	}
	return out, nil
}

// LegacyDependencies converts the dependencies to the legacy strings stored
// in egg metadata, sorted by name.
func (p PackageString) LegacyDependencies() ([]string, error) {
	out := make([]string, 0, len(p.Dependencies))
	for _, name := range SortedNames(p.Dependencies) {
		req := Requirement{Name: name, Constraints: p.Dependencies[name]}
		legacy, err := req.ToLegacyString()
		if err != nil {
			return nil, err
		}
		out = append(out, legacy)
	}
	return out, nil
}

// PackageToPrettyString renders a package and its legacy dependency strings
// in the pretty syntax.
func PackageToPrettyString(name, fullVersion string, legacyDependencies []string) (string, error) {
	s := name + " " + fullVersion
	if len(legacyDependencies) == 0 {
		return s, nil
	}
	parts := make([]string, 0, len(legacyDependencies))
	for _, dep := range legacyDependencies {
		req, err := ParseLegacyRequirement(dep)
		if err != nil {
			return "", err
		}
		depName := strings.Fields(dep)[0]
		if c := req.Constraints.String(); c != "" {
			parts = append(parts, depName+" "+c)
		} else {
			parts = append(parts, depName)
		}
	}
	return s + "; depends (" + strings.Join(parts, ", ") + ")", nil
}
