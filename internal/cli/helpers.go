package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"nufeed/internal/config"
	"nufeed/internal/source"
)

// kindOf infers the strategy for a source entry when none is configured
func kindOf(e config.SourceEntry) string {
	if e.Kind != "" {
		return e.Kind
	}
	switch {
	case strings.HasSuffix(e.Path, ".git"), strings.HasPrefix(e.Path, "git@"):
		return "git"
	case strings.HasPrefix(e.Path, "http://"), strings.HasPrefix(e.Path, "https://"):
		return "remote"
	default:
		return "local"
	}
}

// buildSource constructs one source from its config entry
func buildSource(name string, e config.SourceEntry) (source.Source, error) {
	kind := kindOf(e)
	cfg := source.Config{
		Name:          name,
		SavedPath:     e.Path,
		IsEnabled:     !e.Disabled,
		IsLocalPath:   kind == "local",
		UserName:      e.Username,
		SavedPassword: e.Password,
	}

	switch kind {
	case "local":
		return source.NewLocal(cfg, "", log), nil
	case "remote":
		return source.NewRemote(cfg, nil, log), nil
	case "git":
		dir, err := config.ConfigDir()
		if err != nil {
			return nil, err
		}
		return source.NewGit(cfg, filepath.Join(dir, "gitcache"), log)
	default:
		return nil, fmt.Errorf("source '%s' has unknown kind '%s' (want local, remote, or git)", name, kind)
	}
}

// activeSources builds every enabled source, or just the one named by the
// --source flag.
func activeSources() ([]source.Source, error) {
	cfg, err := config.LoadCLI()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if sourceName != "" {
		e, exists := cfg.Sources[sourceName]
		if !exists {
			return nil, fmt.Errorf("source '%s' not found. Use 'nufeed source list' to see available sources", sourceName)
		}
		s, err := buildSource(sourceName, e)
		if err != nil {
			return nil, err
		}
		return []source.Source{s}, nil
	}

	var out []source.Source
	for _, name := range cfg.SourceNames() {
		e := cfg.Sources[name]
		if e.Disabled {
			continue
		}
		s, err := buildSource(name, e)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no sources configured. Use 'nufeed source add' to add one")
	}
	return out, nil
}

// feedEntry resolves the source entry that push and login operate on: the
// named source, or the current one. It must be an HTTP feed.
func feedEntry(name string) (string, config.SourceEntry, error) {
	cfg, err := config.LoadCLI()
	if err != nil {
		return "", config.SourceEntry{}, fmt.Errorf("failed to load config: %w", err)
	}

	if name == "" {
		name = cfg.Current
	}
	if name == "" {
		return "", config.SourceEntry{}, fmt.Errorf("no source given and none is current. Use 'nufeed source use'")
	}

	e, exists := cfg.Sources[name]
	if !exists {
		return "", config.SourceEntry{}, fmt.Errorf("source '%s' not found", name)
	}
	if kindOf(e) != "remote" {
		return "", config.SourceEntry{}, fmt.Errorf("source '%s' is not an HTTP feed", name)
	}
	return name, e, nil
}

// printPackage renders one result line, plus versions and dependencies in
// detailed mode.
func printPackage(p *source.Package, detailed bool) {
	suffix := ""
	if p.IsPrerelease {
		suffix = " (prerelease)"
	}
	fmt.Printf("%s %s%s [%s]\n", p.ID, p.Version, suffix, p.SourceName)
	if p.Description != "" {
		fmt.Printf("   %s\n", p.Description)
	}
	if !detailed {
		return
	}
	if len(p.Versions) > 1 {
		fmt.Printf("   versions: %s\n", strings.Join(p.Versions, ", "))
	}
	for _, d := range p.Dependencies {
		if d.TargetFramework != "" {
			fmt.Printf("   depends on %s %s (%s)\n", d.ID, d.Identifier.Version, d.TargetFramework)
		} else {
			fmt.Printf("   depends on %s %s\n", d.ID, d.Identifier.Version)
		}
	}
}
