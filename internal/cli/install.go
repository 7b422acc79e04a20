package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"nufeed/internal/manifest"
	"nufeed/internal/nupkg"
	"nufeed/internal/version"
)

var (
	installDir      string
	installAllowed  string
	installManifest string
)

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:   "install <id> [version-or-range]",
	Short: "Download a package and record it in the manifest",
	Long: `Resolve a package, download its archive into the packages
directory, and record it in nufeed.toml. Without a version the highest
available version is installed; a range installs the lowest version inside
it.

Examples:
  nufeed install Foo
  nufeed install Foo 1.2.0
  nufeed install Foo '[1.0.0,2.0.0)' --allowed-versions '[1.0.0,2.0.0)'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ver := ""
		if len(args) > 1 {
			ver = args[1]
		}
		return runInstall(version.NewIdentifier(args[0], ver))
	},
}

func runInstall(id version.Identifier) error {
	sources, err := activeSources()
	if err != nil {
		return err
	}

	for _, s := range sources {
		pkg := s.GetSpecificPackage(id)
		if pkg == nil {
			continue
		}

		if err := os.MkdirAll(installDir, 0o755); err != nil {
			return fmt.Errorf("failed to create packages directory: %w", err)
		}
		out := filepath.Join(installDir, nupkg.FileName(pkg.ID, pkg.Version))
		exact := version.NewIdentifier(pkg.ID, pkg.Version)
		if err := s.DownloadToFile(exact, out, pkg.DownloadURL); err != nil {
			return fmt.Errorf("download failed: %w", err)
		}

		m, err := manifest.Load(installManifest)
		if errors.Is(err, os.ErrNotExist) {
			m = &manifest.Manifest{}
		} else if err != nil {
			return err
		}
		m.Add(manifest.Entry{
			ID:              pkg.ID,
			Version:         pkg.Version,
			AllowedVersions: installAllowed,
		})
		if err := m.Save(installManifest); err != nil {
			return err
		}

		fmt.Printf("Installed %s %s from %s\n", pkg.ID, pkg.Version, s.Name())
		return nil
	}

	return fmt.Errorf("package '%s' not found in any source", id.ID)
}

func init() {
	installCmd.Flags().StringVar(&installDir, "packages-dir", "packages", "directory archives are saved into")
	installCmd.Flags().StringVar(&installAllowed, "allowed-versions", "", "version range recorded as the package's update constraint")
	installCmd.Flags().StringVar(&installManifest, "manifest", manifest.FileName, "manifest file to record the package in")
}
