package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version represents a NuGet-style semantic version. Versions on a feed may
// carry one to four numeric components ("1.0", "1.2.3", "1.0.0.0"); missing
// components compare as zero.
type Version struct {
	Major    int
	Minor    int
	Patch    int
	Revision int
	Pre      string // Pre-release identifier (e.g., "alpha", "beta.1")
	Build    string // Build metadata (e.g., "20230101.abcd123")

	parts int // number of numeric components in the original string
}

// Parse parses a version string into a Version struct
func Parse(versionStr string) (*Version, error) {
	if versionStr == "" {
		return nil, fmt.Errorf("version cannot be empty")
	}

	// Handle build metadata (+)
	var buildMeta string
	if idx := strings.Index(versionStr, "+"); idx != -1 {
		buildMeta = versionStr[idx+1:]
		versionStr = versionStr[:idx]
	}

	// Handle pre-release (-)
	var preRelease string
	if idx := strings.Index(versionStr, "-"); idx != -1 {
		preRelease = versionStr[idx+1:]
		versionStr = versionStr[:idx]
	}

	parts := strings.Split(versionStr, ".")
	if len(parts) > 4 {
		return nil, fmt.Errorf("invalid version format: expected 1-4 numeric components, got %s", versionStr)
	}

	nums := make([]int, 4)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid version component: %q", part)
		}
		nums[i] = n
	}

	return &Version{
		Major:    nums[0],
		Minor:    nums[1],
		Patch:    nums[2],
		Revision: nums[3],
		Pre:      preRelease,
		Build:    buildMeta,
		parts:    len(parts),
	}, nil
}

// MustParse parses a version string and panics on failure. For use with
// literals in tests.
func MustParse(versionStr string) *Version {
	v, err := Parse(versionStr)
	if err != nil {
		panic(err)
	}
	return v
}

// IsValid checks if a string is a parseable version
func IsValid(versionStr string) bool {
	_, err := Parse(versionStr)
	return err == nil
}

// IsPrerelease returns true if the version carries a pre-release label
func (v *Version) IsPrerelease() bool {
	return v.Pre != ""
}

// String returns the string representation of the version
func (v *Version) String() string {
	result := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)

	if v.Revision != 0 || v.parts == 4 {
		result += "." + strconv.Itoa(v.Revision)
	}

	if v.Pre != "" {
		result += "-" + v.Pre
	}

	if v.Build != "" {
		result += "+" + v.Build
	}

	return result
}

// Compare compares two versions and returns:
// -1 if v < other
//
//	0 if v == other
//	1 if v > other
func (v *Version) Compare(other *Version) int {
	pairs := [4][2]int{
		{v.Major, other.Major},
		{v.Minor, other.Minor},
		{v.Patch, other.Patch},
		{v.Revision, other.Revision},
	}
	for _, p := range pairs {
		if p[0] != p[1] {
			if p[0] > p[1] {
				return 1
			}
			return -1
		}
	}

	// Per semver: 1.0.0-alpha < 1.0.0
	if v.Pre == "" && other.Pre != "" {
		return 1
	}
	if v.Pre != "" && other.Pre == "" {
		return -1
	}
	if v.Pre != "" && other.Pre != "" {
		if v.Pre > other.Pre {
			return 1
		} else if v.Pre < other.Pre {
			return -1
		}
	}

	// Build metadata is ignored in precedence comparison
	return 0
}

// IsGreaterThan returns true if v > other
func (v *Version) IsGreaterThan(other *Version) bool {
	return v.Compare(other) > 0
}

// IsLessThan returns true if v < other
func (v *Version) IsLessThan(other *Version) bool {
	return v.Compare(other) < 0
}

// IsEqual returns true if v == other (ignoring build metadata)
func (v *Version) IsEqual(other *Version) bool {
	return v.Compare(other) == 0
}

// CompareStrings compares two version strings and returns:
// -1 if version1 < version2
//
//	0 if version1 == version2
//	1 if version1 > version2
func CompareStrings(version1, version2 string) (int, error) {
	v1, err := Parse(version1)
	if err != nil {
		return 0, fmt.Errorf("invalid version %s: %w", version1, err)
	}

	v2, err := Parse(version2)
	if err != nil {
		return 0, fmt.Errorf("invalid version %s: %w", version2, err)
	}

	return v1.Compare(v2), nil
}
