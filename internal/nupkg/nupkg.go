// Package nupkg reads and writes .nupkg package archives: zip files carrying
// a .nuspec XML manifest at the root.
package nupkg

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"nufeed/internal/version"
)

// Metadata is the package manifest carried inside an archive
type Metadata struct {
	ID           string
	Version      string
	Description  string
	Dependencies []version.Dependency
}

// nuspec mirrors the .nuspec document structure. Dependencies appear either
// flat or grouped by target framework; both forms occur in the wild.
type nuspec struct {
	XMLName  xml.Name `xml:"package"`
	Metadata struct {
		ID           string `xml:"id"`
		Version      string `xml:"version"`
		Description  string `xml:"description"`
		Dependencies struct {
			Dependencies []nuspecDependency `xml:"dependency"`
			Groups       []struct {
				TargetFramework string             `xml:"targetFramework,attr"`
				Dependencies    []nuspecDependency `xml:"dependency"`
			} `xml:"group"`
		} `xml:"dependencies"`
	} `xml:"metadata"`
}

type nuspecDependency struct {
	ID      string `xml:"id,attr"`
	Version string `xml:"version,attr"`
}

// ReadFile opens an archive and extracts its manifest metadata
func ReadFile(archivePath string) (*Metadata, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	return readManifest(&zr.Reader)
}

// Read extracts manifest metadata from an in-memory archive
func Read(r io.ReaderAt, size int64) (*Metadata, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return readManifest(zr)
}

func readManifest(zr *zip.Reader) (*Metadata, error) {
	var manifest *zip.File
	for _, f := range zr.File {
		// The manifest sits at the archive root
		if strings.EqualFold(path.Ext(f.Name), ".nuspec") && !strings.Contains(f.Name, "/") {
			manifest = f
			break
		}
	}
	if manifest == nil {
		return nil, fmt.Errorf("archive has no manifest")
	}

	rc, err := manifest.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var spec nuspec
	if err := xml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if spec.Metadata.ID == "" || spec.Metadata.Version == "" {
		return nil, fmt.Errorf("manifest missing id or version")
	}

	meta := &Metadata{
		ID:          spec.Metadata.ID,
		Version:     spec.Metadata.Version,
		Description: spec.Metadata.Description,
	}
	for _, d := range spec.Metadata.Dependencies.Dependencies {
		meta.Dependencies = append(meta.Dependencies, version.Dependency{
			Identifier: version.NewIdentifier(d.ID, d.Version),
		})
	}
	for _, g := range spec.Metadata.Dependencies.Groups {
		for _, d := range g.Dependencies {
			meta.Dependencies = append(meta.Dependencies, version.Dependency{
				Identifier:      version.NewIdentifier(d.ID, d.Version),
				TargetFramework: g.TargetFramework,
			})
		}
	}

	return meta, nil
}

// FileName returns the conventional archive file name for an id and version
func FileName(id, ver string) string {
	return fmt.Sprintf("%s.%s.nupkg", id, ver)
}

// Write creates a minimal archive containing only the manifest. Used by the
// push path and by tests to fabricate fixtures.
func Write(archivePath string, meta Metadata) error {
	outFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer outFile.Close()

	zw := zip.NewWriter(outFile)

	w, err := zw.Create(meta.ID + ".nuspec")
	if err != nil {
		zw.Close()
		return fmt.Errorf("failed to add manifest: %w", err)
	}

	var spec nuspec
	spec.Metadata.ID = meta.ID
	spec.Metadata.Version = meta.Version
	spec.Metadata.Description = meta.Description
	for _, d := range meta.Dependencies {
		if d.TargetFramework != "" {
			appendGroupDependency(&spec, d)
			continue
		}
		spec.Metadata.Dependencies.Dependencies = append(spec.Metadata.Dependencies.Dependencies,
			nuspecDependency{ID: d.ID, Version: d.Identifier.Version})
	}

	data, err := xml.MarshalIndent(spec, "", "  ")
	if err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		zw.Close()
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return zw.Close()
}

func appendGroupDependency(spec *nuspec, d version.Dependency) {
	groups := spec.Metadata.Dependencies.Groups
	for i := range groups {
		if groups[i].TargetFramework == d.TargetFramework {
			groups[i].Dependencies = append(groups[i].Dependencies,
				nuspecDependency{ID: d.ID, Version: d.Identifier.Version})
			spec.Metadata.Dependencies.Groups = groups
			return
		}
	}
	spec.Metadata.Dependencies.Groups = append(groups, struct {
		TargetFramework string             `xml:"targetFramework,attr"`
		Dependencies    []nuspecDependency `xml:"dependency"`
	}{TargetFramework: d.TargetFramework, Dependencies: []nuspecDependency{{ID: d.ID, Version: d.Identifier.Version}}})
}

// CalculateSHA256 calculates the SHA256 hash of a file
func CalculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
