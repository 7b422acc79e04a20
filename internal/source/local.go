package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"nufeed/internal/nupkg"
	"nufeed/internal/version"
)

// LocalSource resolves packages from a directory tree holding .nupkg
// archives, in either the flat layout <root>/<id>.<version>.nupkg or the
// hierarchical layout <root>/<id>/<version>/<id>.<version>.nupkg.
type LocalSource struct {
	cfg     Config
	baseDir string // resolves relative roots
	log     *zap.Logger
}

// Ensure LocalSource implements Source
var _ Source = (*LocalSource)(nil)

// NewLocal creates a local source. Relative configured paths resolve against
// baseDir.
func NewLocal(cfg Config, baseDir string, log *zap.Logger) *LocalSource {
	cfg.IsLocalPath = true
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalSource{cfg: cfg, baseDir: baseDir, log: log}
}

// Name returns the configured source name
func (s *LocalSource) Name() string { return s.cfg.Name }

// Config returns the source configuration
func (s *LocalSource) Config() Config { return s.cfg }

// root resolves the configured directory, expanding environment variables on
// every call.
func (s *LocalSource) root() string {
	p := s.cfg.ExpandedPath()
	if !filepath.IsAbs(p) && s.baseDir != "" {
		p = filepath.Join(s.baseDir, p)
	}
	return filepath.Clean(p)
}

// checkRoot verifies the root directory exists, logging one error per call
// when it does not.
func (s *LocalSource) checkRoot() (string, bool) {
	root := s.root()
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		s.log.Error("package source directory is not accessible",
			zap.String("source", s.cfg.Name),
			zap.String("path", root))
		return root, false
	}
	return root, true
}

// FindPackagesByID resolves an identifier against the directory layout
func (s *LocalSource) FindPackagesByID(id version.Identifier) []*Package {
	root, ok := s.checkRoot()
	if !ok {
		return nil
	}

	if id.HasVersion() && !id.HasVersionRange() {
		p := s.readArchive(s.archivePath(root, id.ID, id.Version))
		if p == nil {
			// Expected absence, not an error
			return nil
		}
		return []*Package{p}
	}

	pkgs := s.scan(root, foldPattern(id.ID)+"*")
	matched := pkgs[:0:0]
	for _, p := range pkgs {
		if !strings.EqualFold(p.ID, id.ID) {
			continue
		}
		if id.HasVersionRange() && !id.InRange(p.Parsed()) {
			continue
		}
		matched = append(matched, p)
	}

	Sort(matched)
	return matched
}

// GetSpecificPackage returns the exact version, or the lowest version
// satisfying a range. Nil when nothing matches.
func (s *LocalSource) GetSpecificPackage(id version.Identifier) *Package {
	pkgs := s.FindPackagesByID(id)
	if len(pkgs) == 0 {
		return nil
	}
	// Results sort newest-first; the lowest satisfying version is last
	return pkgs[len(pkgs)-1]
}

// Search scans the root for archives matching the term. This strategy does
// not paginate: any nonzero skip yields an empty result.
func (s *LocalSource) Search(ctx context.Context, opts SearchOptions) ([]*Package, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Skip > 0 {
		return nil, nil
	}

	root, ok := s.checkRoot()
	if !ok {
		return nil, nil
	}

	pattern := "*"
	if opts.Term != "" {
		pattern = "*" + foldPattern(opts.Term) + "*"
	}

	pkgs := s.scan(root, pattern)
	pkgs = FilterPrerelease(pkgs, opts.IncludePrerelease)
	if !opts.IncludeAllVersions {
		pkgs = Consolidate(pkgs)
	}

	Sort(pkgs)
	if opts.PageSize > 0 && len(pkgs) > opts.PageSize {
		pkgs = pkgs[:opts.PageSize]
	}
	return pkgs, nil
}

// GetUpdates reports strictly newer local versions for each installed package
func (s *LocalSource) GetUpdates(installed []version.Identifier, opts UpdateOptions) []*Package {
	root, ok := s.checkRoot()
	if !ok {
		return nil
	}

	var updates []*Package
	for _, inst := range installed {
		current, err := inst.Parsed()
		if err != nil {
			s.log.Warn("skipping installed package with unparseable version",
				zap.String("package", inst.String()))
			continue
		}

		var newer []*Package
		for _, p := range s.scan(root, foldPattern(inst.ID)+"*") {
			if !strings.EqualFold(p.ID, inst.ID) {
				continue
			}
			if !p.Parsed().IsGreaterThan(current) {
				continue
			}
			if p.IsPrerelease && !opts.IncludePrerelease {
				continue
			}
			newer = append(newer, p)
		}

		if len(newer) == 0 {
			continue
		}
		if opts.IncludeAllVersions {
			updates = append(updates, newer...)
		} else {
			updates = append(updates, best(newer))
		}
	}

	Sort(updates)
	return updates
}

// DownloadToFile copies the package archive to outputPath, overwriting any
// existing file. Without a hint the archive path is recomputed from the
// layout, which requires an exact version.
func (s *LocalSource) DownloadToFile(id version.Identifier, outputPath, urlHint string) error {
	src := urlHint
	if src == "" {
		if id.HasVersionRange() {
			return fmt.Errorf("download %s: %w", id, ErrUnsupportedRange)
		}
		src = s.archivePath(s.root(), id.ID, id.Version)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// archivePath locates the archive for an exact (id, version): flat layout
// first, then hierarchical. Returns the flat path when neither exists.
func (s *LocalSource) archivePath(root, id, ver string) string {
	flat := filepath.Join(root, nupkg.FileName(id, ver))
	if fileExists(flat) {
		return flat
	}
	nested := filepath.Join(root, id, ver, nupkg.FileName(id, ver))
	if fileExists(nested) {
		return nested
	}
	return flat
}

// scan globs both layouts for archives whose file name matches pattern and
// builds a package per readable archive.
func (s *LocalSource) scan(root, pattern string) []*Package {
	var paths []string
	for _, glob := range []string{
		filepath.Join(root, pattern+".nupkg"),
		filepath.Join(root, pattern, "*", "*.nupkg"),
	} {
		matches, err := doublestar.FilepathGlob(glob)
		if err != nil {
			s.log.Warn("bad archive glob", zap.String("pattern", glob), zap.Error(err))
			continue
		}
		paths = append(paths, matches...)
	}

	seen := make(map[string]bool)
	var pkgs []*Package
	for _, p := range paths {
		clean := filepath.Clean(p)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		if pkg := s.readArchive(clean); pkg != nil {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs
}

// readArchive builds a package from one archive's metadata. Unreadable or
// malformed archives are logged and skipped; a missing file is expected
// absence and stays silent.
func (s *LocalSource) readArchive(path string) *Package {
	if !fileExists(path) {
		return nil
	}

	meta, err := nupkg.ReadFile(path)
	if err != nil {
		s.log.Warn("skipping unreadable package archive",
			zap.String("path", path), zap.Error(err))
		return nil
	}

	pkg, err := NewPackage(meta.ID, meta.Version)
	if err != nil {
		s.log.Warn("skipping archive with unparseable version",
			zap.String("path", path), zap.Error(err))
		return nil
	}

	pkg.Description = meta.Description
	pkg.Dependencies = meta.Dependencies
	pkg.DownloadURL = path
	pkg.SourceName = s.cfg.Name
	return pkg
}

// foldPattern renders a literal string as a case-insensitive glob pattern,
// since package IDs compare case-insensitively but filesystem globs do not.
func foldPattern(literal string) string {
	var b strings.Builder
	for _, r := range literal {
		lo, up := unicode.ToLower(r), unicode.ToUpper(r)
		if lo != up {
			b.WriteRune('[')
			b.WriteRune(lo)
			b.WriteRune(up)
			b.WriteRune(']')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// best returns the highest-versioned package in a non-empty slice
func best(pkgs []*Package) *Package {
	top := pkgs[0]
	for _, p := range pkgs[1:] {
		if p.Parsed().IsGreaterThan(top.Parsed()) {
			top = p
		}
	}
	return top
}
