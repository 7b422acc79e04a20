// Package source defines the uniform package-source contract and its
// strategies: local directory layouts, remote OData v2 feeds, and git-hosted
// layouts. Every strategy answers the same query shapes with identical
// filtering, merging, and ordering semantics, so callers never need to know
// which backend produced a result.
//
// Transport and parse failures degrade to empty or partial results and are
// reported through the strategy's logger; they are never raised to callers.
// The one hard failure is ErrUnsupportedRange on operations that require an
// exact version.
package source

import (
	"context"

	"nufeed/internal/version"
)

// SearchOptions parameterizes Search
type SearchOptions struct {
	Term               string
	IncludeAllVersions bool
	IncludePrerelease  bool
	PageSize           int
	Skip               int
}

// UpdateOptions parameterizes GetUpdates
type UpdateOptions struct {
	IncludePrerelease  bool
	IncludeAllVersions bool
	TargetFrameworks   []string
	VersionConstraints []string
}

// Source is the capability set every package-source strategy implements
type Source interface {
	// Name returns the configured source name
	Name() string

	// Config returns the source's configuration
	Config() Config

	// FindPackagesByID resolves an identifier to the matching packages,
	// sorted by ID ascending and version descending. Exact identifiers yield
	// at most one package; range identifiers yield every version inside the
	// interval. Absence and backend failures both yield an empty result.
	FindPackagesByID(id version.Identifier) []*Package

	// GetSpecificPackage resolves an identifier to a single package: the
	// exact version, or the lowest version satisfying a range. Nil when
	// nothing matches.
	GetSpecificPackage(id version.Identifier) *Package

	// Search finds packages matching a term. The context carries
	// cancellation; a canceled search returns the context error rather than
	// a result. Backend failures degrade to an empty result.
	Search(ctx context.Context, opts SearchOptions) ([]*Package, error)

	// GetUpdates reports, for a set of installed packages, the strictly
	// newer versions the source offers, sorted by ID ascending and version
	// descending.
	GetUpdates(installed []version.Identifier, opts UpdateOptions) []*Package

	// DownloadToFile copies the package archive to outputPath, overwriting
	// it. urlHint, when set, short-circuits location discovery.
	DownloadToFile(id version.Identifier, outputPath, urlHint string) error
}
