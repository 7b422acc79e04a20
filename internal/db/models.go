package db

import (
	"time"
)

// Package represents a package identity in the catalog. Name is stored with
// its original casing; lookups compare case-insensitively.
type Package struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PackageVersion represents one published version of a package
type PackageVersion struct {
	ID            int       `db:"id" json:"id"`
	PackageID     int       `db:"package_id" json:"package_id"`
	Version       string    `db:"version" json:"version"`
	Description   *string   `db:"description" json:"description"`
	Dependencies  *string   `db:"dependencies" json:"dependencies"`
	IsPrerelease  bool      `db:"is_prerelease" json:"is_prerelease"`
	DownloadCount int64     `db:"download_count" json:"download_count"`
	SHA256        *string   `db:"sha256" json:"sha256"`
	SizeBytes     *int      `db:"size_bytes" json:"size_bytes"`
	BlobPath      *string   `db:"blob_path" json:"blob_path"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// CatalogRow is a package joined with one of its versions, the unit the feed
// handlers render as an entry.
type CatalogRow struct {
	Name          string    `db:"name" json:"name"`
	Version       string    `db:"version" json:"version"`
	Description   *string   `db:"description" json:"description"`
	Dependencies  *string   `db:"dependencies" json:"dependencies"`
	IsPrerelease  bool      `db:"is_prerelease" json:"is_prerelease"`
	DownloadCount int64     `db:"download_count" json:"download_count"`
	BlobPath      *string   `db:"blob_path" json:"blob_path"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
