package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"nufeed/internal/feed"
	"nufeed/internal/transport"
	"nufeed/internal/version"
)

// updateBatchSize bounds query-string length for batched GetUpdates requests
const updateBatchSize = 10

// RemoteSource resolves packages against an OData v2 HTTP feed. It builds
// feed-specific query URLs, delegates retrieval to the transport collaborator
// and parsing to the feed package, then applies the same filter, merge, and
// ordering rules as the local strategy.
type RemoteSource struct {
	cfg     Config
	fetcher transport.Fetcher
	log     *zap.Logger
}

// Ensure RemoteSource implements Source
var _ Source = (*RemoteSource)(nil)

// NewRemote creates a remote source over the given transport
func NewRemote(cfg Config, fetcher transport.Fetcher, log *zap.Logger) *RemoteSource {
	cfg.IsLocalPath = false
	if fetcher == nil {
		fetcher = transport.NewHTTPFetcher()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RemoteSource{cfg: cfg, fetcher: fetcher, log: log}
}

// Name returns the configured source name
func (s *RemoteSource) Name() string { return s.cfg.Name }

// Config returns the source configuration
func (s *RemoteSource) Config() Config { return s.cfg }

// queries returns a query builder over the expanded feed URL
func (s *RemoteSource) queries() feed.QueryBuilder {
	return feed.NewQueryBuilder(s.cfg.ExpandedPath())
}

// FindPackagesByID queries the feed by id. Exact identifiers add a
// server-side version filter; ranges fetch a capped page and filter
// client-side, since server-side range filtering is not assumed.
func (s *RemoteSource) FindPackagesByID(id version.Identifier) []*Package {
	exact := ""
	if id.HasVersion() && !id.HasVersionRange() {
		exact = id.Version
	}

	entries, err := s.fetchEntries(context.Background(), s.queries().FindPackagesByID(id.ID, exact))
	if err != nil {
		s.log.Error("find-packages query failed",
			zap.String("source", s.cfg.Name),
			zap.String("package", id.String()),
			zap.Error(err))
		return nil
	}

	var pkgs []*Package
	for _, e := range entries {
		p := s.toPackage(e)
		if p == nil || !strings.EqualFold(p.ID, id.ID) {
			continue
		}
		if id.HasVersion() && !id.InRange(p.Parsed()) {
			continue
		}
		pkgs = append(pkgs, p)
	}

	Sort(pkgs)
	return pkgs
}

// GetSpecificPackage resolves a single package: a direct (id, version) lookup
// for exact identifiers, else the lowest version satisfying the range.
// Transport errors are swallowed into "none found".
func (s *RemoteSource) GetSpecificPackage(id version.Identifier) *Package {
	if id.HasVersionRange() || !id.HasVersion() {
		pkgs := s.FindPackagesByID(id)
		if len(pkgs) == 0 {
			return nil
		}
		return pkgs[len(pkgs)-1]
	}

	entries, err := s.fetchEntries(context.Background(), s.queries().SpecificPackage(id.ID, id.Version))
	if err != nil {
		if !transport.IsNotFound(err) {
			s.log.Error("package lookup failed",
				zap.String("source", s.cfg.Name),
				zap.String("package", id.String()),
				zap.Error(err))
		}
		return nil
	}
	if len(entries) == 0 {
		return nil
	}
	return s.toPackage(entries[0])
}

// Search runs a feed search. Server-side the query applies latest-only (or
// absolute-latest-only) filtering, popularity ordering, and paging; failures
// degrade to an empty result, so search never fails its caller except on
// cancellation.
func (s *RemoteSource) Search(ctx context.Context, opts SearchOptions) ([]*Package, error) {
	rawURL := s.queries().Search(opts.Term, opts.IncludeAllVersions, opts.IncludePrerelease, opts.PageSize, opts.Skip)

	entries, err := s.fetchEntries(ctx, rawURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Error("search query failed",
			zap.String("source", s.cfg.Name),
			zap.String("term", opts.Term),
			zap.Error(err))
		return nil, nil
	}

	var pkgs []*Package
	for _, e := range entries {
		if p := s.toPackage(e); p != nil {
			pkgs = append(pkgs, p)
		}
	}
	// Server order is popularity-descending; keep it
	return pkgs, nil
}

// GetUpdates asks the feed for versions newer than each installed package.
// Installed packages go out in batches against the GetUpdates endpoint; the
// first HTTP 404 flips the whole call into the per-package fallback protocol,
// since a missing endpoint cannot have served the earlier batches either.
// Any other failed batch is skipped, keeping partial results.
func (s *RemoteSource) GetUpdates(installed []version.Identifier, opts UpdateOptions) []*Package {
	// Only exact, parseable installed versions participate
	valid := installed[:0:0]
	currents := make(map[string]*version.Version)
	for _, inst := range installed {
		v, err := inst.Parsed()
		if err != nil {
			s.log.Warn("skipping installed package with unparseable version",
				zap.String("package", inst.String()))
			continue
		}
		valid = append(valid, inst)
		currents[strings.ToLower(inst.ID)] = v
	}
	if len(valid) == 0 {
		return nil
	}

	var pkgs []*Package
	fallback := false

	for start := 0; start < len(valid) && !fallback; start += updateBatchSize {
		end := start + updateBatchSize
		if end > len(valid) {
			end = len(valid)
		}
		batch := valid[start:end]

		ids := make([]string, len(batch))
		versions := make([]string, len(batch))
		for i, inst := range batch {
			ids[i] = inst.ID
			versions[i] = inst.Version
		}

		rawURL := s.queries().Updates(ids, versions,
			opts.IncludePrerelease, opts.IncludeAllVersions,
			opts.TargetFrameworks, opts.VersionConstraints)

		entries, err := s.fetchEntries(context.Background(), rawURL)
		if err != nil {
			if transport.IsNotFound(err) {
				s.log.Info("feed has no GetUpdates endpoint, switching to per-package lookups",
					zap.String("source", s.cfg.Name))
				fallback = true
				break
			}
			s.log.Error("update batch failed, skipping",
				zap.String("source", s.cfg.Name),
				zap.Strings("packages", ids),
				zap.Error(err))
			continue
		}

		for _, e := range entries {
			if p := s.toPackage(e); p != nil {
				pkgs = append(pkgs, p)
			}
		}
	}

	if fallback {
		pkgs = s.updatesViaFindByID(valid, opts)
	}

	// The same rules apply regardless of which path answered
	pkgs = filterNewer(pkgs, currents)
	pkgs = FilterPrerelease(pkgs, opts.IncludePrerelease)
	if !opts.IncludeAllVersions {
		pkgs = keepBestPerID(pkgs)
	}

	Sort(pkgs)
	return pkgs
}

// updatesViaFindByID is the fallback protocol: one FindPackagesByID per
// installed package with a synthetic open-ended range excluding the current
// version.
func (s *RemoteSource) updatesViaFindByID(installed []version.Identifier, opts UpdateOptions) []*Package {
	var pkgs []*Package
	for _, inst := range installed {
		newerThan := version.NewIdentifier(inst.ID, fmt.Sprintf("(%s,)", inst.Version))
		pkgs = append(pkgs, s.FindPackagesByID(newerThan)...)
	}
	return pkgs
}

// DownloadToFile streams the package archive into outputPath. Without a hint
// the download location comes from a package lookup, which requires an exact
// version.
func (s *RemoteSource) DownloadToFile(id version.Identifier, outputPath, urlHint string) error {
	rawURL := urlHint
	if rawURL == "" {
		if id.HasVersionRange() {
			return fmt.Errorf("download %s: %w", id, ErrUnsupportedRange)
		}
		pkg := s.GetSpecificPackage(id)
		if pkg == nil {
			return fmt.Errorf("download %s: %w", id, ErrNotFound)
		}
		rawURL = pkg.DownloadURL
		if rawURL == "" {
			return fmt.Errorf("download %s: %w", id, ErrNoDownloadLocation)
		}
	}

	// Archive downloads run without a timeout
	body, err := s.fetcher.Fetch(context.Background(), rawURL, s.cfg.Credentials(), 0)
	if err != nil {
		return fmt.Errorf("download %s: %w", id, err)
	}
	defer body.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, body); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// fetchEntries retrieves and parses one catalog document
func (s *RemoteSource) fetchEntries(ctx context.Context, rawURL string) ([]feed.Entry, error) {
	body, err := s.fetcher.Fetch(ctx, rawURL, s.cfg.Credentials(), transport.CatalogTimeout)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed response: %w", err)
	}
	return feed.Parse(data)
}

// toPackage converts a raw catalog record into a package bound to this
// source. Records with unparseable versions are logged and dropped.
func (s *RemoteSource) toPackage(e feed.Entry) *Package {
	pkg, err := NewPackage(e.PackageID(), e.Properties.Version)
	if err != nil {
		s.log.Warn("skipping feed entry with unparseable version",
			zap.String("source", s.cfg.Name),
			zap.String("id", e.PackageID()),
			zap.String("version", e.Properties.Version))
		return nil
	}
	if e.Properties.IsPrerelease {
		pkg.IsPrerelease = true
	}
	pkg.Description = e.Description()
	pkg.Dependencies = e.Dependencies()
	pkg.DownloadURL = e.DownloadURL()
	pkg.SourceName = s.cfg.Name
	return pkg
}

// filterNewer keeps packages strictly newer than the installed version of
// the same ID; packages for IDs not in the installed set are dropped.
func filterNewer(pkgs []*Package, currents map[string]*version.Version) []*Package {
	out := pkgs[:0:0]
	for _, p := range pkgs {
		current, ok := currents[strings.ToLower(p.ID)]
		if !ok {
			continue
		}
		if p.Parsed().IsGreaterThan(current) {
			out = append(out, p)
		}
	}
	return out
}

// keepBestPerID reduces the set to the highest version per package ID
func keepBestPerID(pkgs []*Package) []*Package {
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
			byID[key] = p
			for i, o := range out {
				if o == existing {
					out[i] = p
					break
				}
			}
		}
	}
	return out
}
