package source

import "errors"

// Sentinel errors shared by all source strategies
var (
	// ErrNotFound marks expected absence: an exact-version lookup with no
	// match. Never logged as an error.
	ErrNotFound = errors.New("package not found")

	// ErrUnsupportedRange marks an exact-version-only operation invoked with
	// a range identifier. This is a programming error and surfaces to the
	// immediate caller instead of degrading.
	ErrUnsupportedRange = errors.New("operation requires an exact version, not a range")

	// ErrNoDownloadLocation marks a download request for a package the
	// source cannot locate an archive for.
	ErrNoDownloadLocation = errors.New("no download location for package")
)
