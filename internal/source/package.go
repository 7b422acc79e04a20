package source

import (
	"sort"
	"strings"

	"nufeed/internal/version"
)

// Package is one resolved package: an (id, version) pair carrying every other
// version the owning source knows about, plus the metadata a resolver needs.
// Packages are built per query and discarded with the result; the only
// mutation after construction is absorbing versions during merge.
type Package struct {
	ID           string
	Version      string
	IsPrerelease bool
	Versions     []string // all known versions for this ID, duplicate-free
	Dependencies []version.Dependency
	Description  string
	DownloadURL  string

	// SourceName names the source that produced this package. A plain
	// string so a Package never keeps its source alive.
	SourceName string

	parsed *version.Version
}

// NewPackage constructs a package for an id and version. Fails when the
// version does not parse.
func NewPackage(id, ver string) (*Package, error) {
	parsed, err := version.Parse(ver)
	if err != nil {
		return nil, err
	}
	return &Package{
		ID:           id,
		Version:      ver,
		IsPrerelease: parsed.IsPrerelease(),
		Versions:     []string{ver},
		parsed:       parsed,
	}, nil
}

// Parsed returns the parsed form of the package's own version
func (p *Package) Parsed() *version.Version {
	if p.parsed == nil {
		p.parsed = version.MustParse(p.Version)
	}
	return p.parsed
}

// Identifier returns the package's exact identifier
func (p *Package) Identifier() version.Identifier {
	return version.NewIdentifier(p.ID, p.Version)
}

// AddVersion records another known version for this package's ID. Duplicates
// are ignored; the list is append-only.
func (p *Package) AddVersion(ver string) {
	for _, v := range p.Versions {
		if strings.EqualFold(v, ver) {
			return
		}
	}
	p.Versions = append(p.Versions, ver)
}

// Compare orders packages by ID (case-insensitive ascending), ties broken by
// version descending, so sorted results list newest first per package.
func (p *Package) Compare(other *Package) int {
	a, b := strings.ToLower(p.ID), strings.ToLower(other.ID)
	if a != b {
		if a < b {
			return -1
		}
		return 1
	}
	return other.Parsed().Compare(p.Parsed())
}

// Sort sorts packages in place by the canonical ordering
func Sort(pkgs []*Package) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		return pkgs[i].Compare(pkgs[j]) < 0
	})
}

// Consolidate merges packages sharing an ID into one package each, used in
// latest-only mode. The highest-versioned entry survives as primary and its
// Versions becomes the union of every version seen for that ID. Order of
// first appearance is preserved.
func Consolidate(pkgs []*Package) []*Package {
	byID := make(map[string]*Package)
	var out []*Package

	for _, p := range pkgs {
		key := strings.ToLower(p.ID)
		existing, ok := byID[key]
		if !ok {
			byID[key] = p
			out = append(out, p)
			continue
		}

		if p.Parsed().IsGreaterThan(existing.Parsed()) {
			// New entry becomes primary; absorb the old one's versions
			for _, v := range existing.Versions {
				p.AddVersion(v)
			}
			byID[key] = p
			for i, o := range out {
				if o == existing {
					out[i] = p
					break
				}
			}
		} else {
			existing.AddVersion(p.Version)
			for _, v := range p.Versions {
				existing.AddVersion(v)
			}
		}
	}

	return out
}

// FilterPrerelease drops pre-release packages unless they are requested
func FilterPrerelease(pkgs []*Package, includePrerelease bool) []*Package {
	if includePrerelease {
		return pkgs
	}
	out := pkgs[:0:0]
	for _, p := range pkgs {
		if !p.IsPrerelease {
			out = append(out, p)
		}
	}
	return out
}
