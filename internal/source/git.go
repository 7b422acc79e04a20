package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"

	"nufeed/internal/version"
)

// GitSource resolves packages from a git repository holding the local
// directory layout. The repository is cloned into a per-URL cache directory
// and refreshed before each query; all query logic then delegates to a
// LocalSource rooted at the worktree.
type GitSource struct {
	cfg      Config
	repoURL  string
	cacheDir string
	local    *LocalSource
	log      *zap.Logger

	mu sync.Mutex // protects repo operations
}

// Ensure GitSource implements Source
var _ Source = (*GitSource)(nil)

// NewGit creates a git-backed source. The repository is cached under
// cacheRoot, keyed by a hash of the repository URL.
func NewGit(cfg Config, cacheRoot string, log *zap.Logger) (*GitSource, error) {
	cfg.IsLocalPath = false
	if log == nil {
		log = zap.NewNop()
	}

	repoURL := strings.TrimRight(cfg.ExpandedPath(), "/")
	if !strings.HasSuffix(repoURL, ".git") {
		repoURL += ".git"
	}

	h := sha256.Sum256([]byte(repoURL))
	cacheDir := filepath.Join(cacheRoot, hex.EncodeToString(h[:8]))

	localCfg := cfg
	localCfg.SavedPath = cacheDir
	localCfg.UserName = ""
	localCfg.SavedPassword = ""

	return &GitSource{
		cfg:      cfg,
		repoURL:  repoURL,
		cacheDir: cacheDir,
		local:    NewLocal(localCfg, "", log.Named("git-worktree")),
		log:      log,
	}, nil
}

// Name returns the configured source name
func (s *GitSource) Name() string { return s.cfg.Name }

// Config returns the source configuration
func (s *GitSource) Config() Config { return s.cfg }

// auth returns basic-auth credentials for the repository, if configured
func (s *GitSource) auth() *githttp.BasicAuth {
	if s.cfg.UserName == "" {
		return nil
	}
	return &githttp.BasicAuth{
		Username: s.cfg.UserName,
		Password: s.cfg.ExpandedPassword(),
	}
}

// sync clones the repository on first use and pulls afterwards. An
// unreachable remote with a usable cache degrades to the cached worktree.
func (s *GitSource) sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.cacheDir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if err := os.MkdirAll(filepath.Dir(s.cacheDir), 0o755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
		_, err = git.PlainCloneContext(ctx, s.cacheDir, false, &git.CloneOptions{
			URL:   s.repoURL,
			Auth:  s.auth(),
			Depth: 1,
		})
		if err != nil {
			return fmt.Errorf("failed to clone %s: %w", s.repoURL, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open cached repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}

	err = wt.PullContext(ctx, &git.PullOptions{Auth: s.auth()})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		s.log.Warn("pull failed, serving cached worktree",
			zap.String("source", s.cfg.Name),
			zap.String("repo", s.repoURL),
			zap.Error(err))
	}
	return nil
}

// ensureSynced refreshes the cache, logging sync failures and reporting
// whether the worktree is usable at all.
func (s *GitSource) ensureSynced(ctx context.Context) bool {
	if err := s.sync(ctx); err != nil {
		s.log.Error("git source unavailable",
			zap.String("source", s.cfg.Name),
			zap.String("repo", s.repoURL),
			zap.Error(err))
		return false
	}
	return true
}

// FindPackagesByID resolves an identifier against the cached worktree
func (s *GitSource) FindPackagesByID(id version.Identifier) []*Package {
	if !s.ensureSynced(context.Background()) {
		return nil
	}
	pkgs := s.local.FindPackagesByID(id)
	rebind(pkgs, s.cfg.Name)
	return pkgs
}

// GetSpecificPackage resolves a single package from the cached worktree
func (s *GitSource) GetSpecificPackage(id version.Identifier) *Package {
	if !s.ensureSynced(context.Background()) {
		return nil
	}
	pkg := s.local.GetSpecificPackage(id)
	if pkg != nil {
		pkg.SourceName = s.cfg.Name
	}
	return pkg
}

// Search scans the cached worktree
func (s *GitSource) Search(ctx context.Context, opts SearchOptions) ([]*Package, error) {
	if !s.ensureSynced(ctx) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	pkgs, err := s.local.Search(ctx, opts)
	rebind(pkgs, s.cfg.Name)
	return pkgs, err
}

// GetUpdates reports strictly newer versions from the cached worktree
func (s *GitSource) GetUpdates(installed []version.Identifier, opts UpdateOptions) []*Package {
	if !s.ensureSynced(context.Background()) {
		return nil
	}
	pkgs := s.local.GetUpdates(installed, opts)
	rebind(pkgs, s.cfg.Name)
	return pkgs
}

// DownloadToFile copies an archive out of the cached worktree
func (s *GitSource) DownloadToFile(id version.Identifier, outputPath, urlHint string) error {
	if urlHint == "" {
		if !s.ensureSynced(context.Background()) {
			return fmt.Errorf("download %s: git source unavailable", id)
		}
	}
	return s.local.DownloadToFile(id, outputPath, urlHint)
}

// rebind stamps results with the git source's name rather than the internal
// worktree source's.
func rebind(pkgs []*Package, name string) {
	for _, p := range pkgs {
		p.SourceName = name
	}
}
