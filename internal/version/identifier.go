package version

import (
	"fmt"
	"strings"
)

// Identifier names a package together with either an exact version, a version
// range, or no version constraint at all (empty string). Package IDs compare
// case-insensitively throughout.
type Identifier struct {
	ID      string
	Version string // exact version, bracketed range, or ""
}

// NewIdentifier creates an identifier for an id and version expression
func NewIdentifier(id, versionExpr string) Identifier {
	return Identifier{ID: id, Version: versionExpr}
}

// HasVersionRange reports whether the version expression is an interval
// rather than an exact version.
func (i Identifier) HasVersionRange() bool {
	return IsRangeSyntax(i.Version)
}

// HasVersion reports whether any version constraint is present
func (i Identifier) HasVersion() bool {
	return i.Version != ""
}

// Range parses the version expression as an interval. Returns an error when
// the identifier does not carry range syntax.
func (i Identifier) Range() (*Range, error) {
	if !i.HasVersionRange() {
		return nil, fmt.Errorf("identifier %s has no version range", i)
	}
	return ParseRange(i.Version)
}

// Parsed parses the exact version carried by the identifier. Returns an error
// for range identifiers or when no version is set.
func (i Identifier) Parsed() (*Version, error) {
	if i.HasVersionRange() {
		return nil, fmt.Errorf("identifier %s carries a range, not an exact version", i)
	}
	return Parse(i.Version)
}

// SameID reports whether two identifiers name the same package,
// case-insensitively.
func (i Identifier) SameID(other Identifier) bool {
	return strings.EqualFold(i.ID, other.ID)
}

// InRange reports whether a candidate version satisfies this identifier's
// constraint: interval membership for ranges, equality for exact versions,
// and always true when no constraint is set. Unparseable expressions never
// match.
func (i Identifier) InRange(candidate *Version) bool {
	if candidate == nil {
		return false
	}
	if i.Version == "" {
		return true
	}
	if i.HasVersionRange() {
		r, err := ParseRange(i.Version)
		if err != nil {
			return false
		}
		return r.Contains(candidate)
	}
	v, err := Parse(i.Version)
	if err != nil {
		return false
	}
	return v.IsEqual(candidate)
}

// Compare orders identifiers by ID (case-insensitive ascending), then by
// parsed version descending, so that sorting a slice yields newest-first
// within each package.
func (i Identifier) Compare(other Identifier) int {
	a, b := strings.ToLower(i.ID), strings.ToLower(other.ID)
	if a != b {
		if a < b {
			return -1
		}
		return 1
	}

	va, errA := Parse(i.Version)
	vb, errB := Parse(other.Version)
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	// Descending by version
	return vb.Compare(va)
}

// String returns "Id" or "Id version"
func (i Identifier) String() string {
	if i.Version == "" {
		return i.ID
	}
	return i.ID + " " + i.Version
}
