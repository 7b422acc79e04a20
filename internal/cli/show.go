package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"nufeed/internal/version"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <id> [version-or-range]",
	Short: "Resolve and show a single package",
	Long: `Resolve one package and show its details. Without a version the
highest version wins; an exact version must exist; a range resolves to the
lowest version inside it, the way a dependency constraint would.

Examples:
  nufeed show Foo
  nufeed show Foo 1.2.0
  nufeed show Foo '[1.0.0,)'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ver := ""
		if len(args) > 1 {
			ver = args[1]
		}
		return runShow(version.NewIdentifier(args[0], ver))
	},
}

func runShow(id version.Identifier) error {
	sources, err := activeSources()
	if err != nil {
		return err
	}

	for _, s := range sources {
		if p := s.GetSpecificPackage(id); p != nil {
			printPackage(p, true)
			if p.DownloadURL != "" {
				fmt.Printf("   download: %s\n", p.DownloadURL)
			}
			return nil
		}
	}

	return fmt.Errorf("package '%s' not found in any source", id.ID)
}
