// Package security validates uploaded package archives before the feed
// server stores them: identifier safety, archive shape, and size caps.
package security

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strings"

	"nufeed/internal/version"
)

const (
	// MaxArchiveSize caps the compressed upload
	MaxArchiveSize = 100 * 1024 * 1024
	// MaxTotalSize caps the declared uncompressed content
	MaxTotalSize = 500 * 1024 * 1024
	// MaxFilesPerArchive caps the number of entries
	MaxFilesPerArchive = 10000
	// MaxIDLength caps the package identifier
	MaxIDLength = 100
)

// idRegex matches safe package ids: dot-separated alphanumeric segments.
// Ids become file names on disk, so nothing path-like gets through.
var idRegex = regexp.MustCompile(`^[A-Za-z0-9_\-]+(\.[A-Za-z0-9_\-]+)*$`)

// ValidatePackageID rejects identifiers that are malformed or unsafe as a
// file name component.
func ValidatePackageID(id string) error {
	if id == "" {
		return fmt.Errorf("package id is required")
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("package id exceeds %d characters", MaxIDLength)
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("package id %q contains invalid characters", id)
	}
	return nil
}

// ValidateVersionString rejects versions that do not parse
func ValidateVersionString(v string) error {
	if !version.IsValid(v) {
		return fmt.Errorf("version %q is not parseable", v)
	}
	return nil
}

// ValidateArchive checks an uploaded archive's shape: it must be a zip with
// a bounded number of entries, bounded declared content, and no entry whose
// path escapes the extraction root.
func ValidateArchive(data []byte) error {
	if len(data) > MaxArchiveSize {
		return fmt.Errorf("archive exceeds %d bytes", MaxArchiveSize)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("not a zip archive: %w", err)
	}

	if len(zr.File) > MaxFilesPerArchive {
		return fmt.Errorf("archive contains too many files (max %d)", MaxFilesPerArchive)
	}

	var total uint64
	for _, f := range zr.File {
		if err := validateEntryPath(f.Name); err != nil {
			return fmt.Errorf("unsafe entry path %q: %w", f.Name, err)
		}
		total += f.UncompressedSize64
		if total > MaxTotalSize {
			return fmt.Errorf("archive content exceeds %d bytes uncompressed", MaxTotalSize)
		}
	}
	return nil
}

// validateEntryPath rejects absolute paths and path traversal
func validateEntryPath(name string) error {
	if name == "" {
		return fmt.Errorf("empty path")
	}
	if strings.HasPrefix(name, "/") || strings.Contains(name, `\`) {
		return fmt.Errorf("absolute or backslashed path")
	}
	clean := path.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("path escapes the archive root")
	}
	return nil
}
