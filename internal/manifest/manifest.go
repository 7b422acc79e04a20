// Package manifest reads and writes nufeed.toml, the per-project record of
// installed packages. The updates command feeds its entries into the source
// layer as the installed set.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"nufeed/internal/version"
)

// FileName is the manifest file name looked for in the project directory
const FileName = "nufeed.toml"

var (
	ErrInvalidManifest = errors.New("invalid manifest")
	ErrInvalidID       = errors.New("invalid package id")
	ErrInvalidVersion  = errors.New("invalid version")
	ErrNotInstalled    = errors.New("package not installed")
)

// idRegex matches valid package ids: dot-separated alphanumeric segments
var idRegex = regexp.MustCompile(`^[A-Za-z0-9_\-]+(\.[A-Za-z0-9_\-]+)*$`)

// Entry records one installed package
type Entry struct {
	ID              string `toml:"id"`
	Version         string `toml:"version"`
	AllowedVersions string `toml:"allowedVersions,omitempty"`
	TargetFramework string `toml:"targetFramework,omitempty"`
}

// Manifest is the nufeed.toml document
type Manifest struct {
	Packages []Entry `toml:"package"`
}

// Load reads and validates a manifest from file
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save writes the manifest to file, ordered by package id
func (m *Manifest) Save(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}

	sort.SliceStable(m.Packages, func(i, j int) bool {
		return strings.ToLower(m.Packages[i].ID) < strings.ToLower(m.Packages[j].ID)
	})

	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks every entry. Ids must be well-formed and unique
// case-insensitively, versions must parse, and allowedVersions must be a
// version range when present.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool)
	for i, e := range m.Packages {
		if e.ID == "" {
			return fmt.Errorf("%w: package[%d]: id is required", ErrInvalidManifest, i)
		}
		if !idRegex.MatchString(e.ID) {
			return fmt.Errorf("%w: %q", ErrInvalidID, e.ID)
		}
		key := strings.ToLower(e.ID)
		if seen[key] {
			return fmt.Errorf("%w: duplicate package %q", ErrInvalidManifest, e.ID)
		}
		seen[key] = true

		if !version.IsValid(e.Version) {
			return fmt.Errorf("%w: %s %q", ErrInvalidVersion, e.ID, e.Version)
		}
		if e.AllowedVersions != "" {
			if _, err := version.ParseRange(e.AllowedVersions); err != nil {
				return fmt.Errorf("%w: %s allowedVersions: %v", ErrInvalidManifest, e.ID, err)
			}
		}
	}
	return nil
}

// Installed returns the manifest entries as exact installed identifiers
func (m *Manifest) Installed() []version.Identifier {
	ids := make([]version.Identifier, 0, len(m.Packages))
	for _, e := range m.Packages {
		ids = append(ids, version.NewIdentifier(e.ID, e.Version))
	}
	return ids
}

// Find returns the entry for id, matched case-insensitively
func (m *Manifest) Find(id string) *Entry {
	for i := range m.Packages {
		if strings.EqualFold(m.Packages[i].ID, id) {
			return &m.Packages[i]
		}
	}
	return nil
}

// Add records a package, replacing any existing entry with the same id
func (m *Manifest) Add(entry Entry) {
	if existing := m.Find(entry.ID); existing != nil {
		*existing = entry
		return
	}
	m.Packages = append(m.Packages, entry)
}

// Remove drops the entry for id
func (m *Manifest) Remove(id string) error {
	for i := range m.Packages {
		if strings.EqualFold(m.Packages[i].ID, id) {
			m.Packages = append(m.Packages[:i], m.Packages[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotInstalled, id)
}
