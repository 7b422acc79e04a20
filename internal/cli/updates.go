package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nufeed/internal/manifest"
	"nufeed/internal/source"
)

var (
	updatesAllVersions bool
	updatesPrerelease  bool
	updatesFrameworks  []string
)

// updatesCmd represents the updates command
var updatesCmd = &cobra.Command{
	Use:   "updates [manifest]",
	Short: "List available updates for installed packages",
	Long: `Read the installed packages from nufeed.toml and ask every enabled
source for strictly newer versions. By default only the best update of each
package is shown.

Feeds without a batched update endpoint are handled transparently: the
lookup falls back to per-package queries and returns the same answer.

Examples:
  nufeed updates
  nufeed updates --all-versions --prerelease
  nufeed updates ./service/nufeed.toml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := manifest.FileName
		if len(args) > 0 {
			path = args[0]
		}
		return runUpdates(path)
	},
}

func runUpdates(manifestPath string) error {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	installed := m.Installed()
	if len(installed) == 0 {
		fmt.Println("No packages installed")
		return nil
	}

	// Per-package range constraints ride along to remote feeds
	var constraints []string
	hasConstraints := false
	for _, e := range m.Packages {
		constraints = append(constraints, e.AllowedVersions)
		if e.AllowedVersions != "" {
			hasConstraints = true
		}
	}
	if !hasConstraints {
		constraints = nil
	}

	sources, err := activeSources()
	if err != nil {
		return err
	}

	opts := source.UpdateOptions{
		IncludePrerelease:  updatesPrerelease,
		IncludeAllVersions: updatesAllVersions,
		TargetFrameworks:   updatesFrameworks,
		VersionConstraints: constraints,
	}

	total := 0
	for _, s := range sources {
		for _, p := range s.GetUpdates(installed, opts) {
			printPackage(p, updatesAllVersions)
			total++
		}
	}

	if total == 0 {
		fmt.Println("All packages are up to date")
	}
	return nil
}

func init() {
	updatesCmd.Flags().BoolVar(&updatesAllVersions, "all-versions", false, "list every newer version, not just the best")
	updatesCmd.Flags().BoolVar(&updatesPrerelease, "prerelease", false, "include pre-release versions")
	updatesCmd.Flags().StringSliceVar(&updatesFrameworks, "framework", nil,
		"target frameworks to send to remote feeds, e.g. --framework "+strings.Join([]string{"net48", "net8.0"}, " --framework "))
}
