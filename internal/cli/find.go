package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"nufeed/internal/version"
)

// findCmd represents the find command
var findCmd = &cobra.Command{
	Use:   "find <id> [version-or-range]",
	Short: "List versions of a package",
	Long: `List the versions of one package, newest first. A version pins the
listing to that version; a range keeps only versions inside it.

Examples:
  nufeed find Foo
  nufeed find Foo 1.2.0
  nufeed find Foo '[1.0.0,2.0.0)'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ver := ""
		if len(args) > 1 {
			ver = args[1]
		}
		return runFind(version.NewIdentifier(args[0], ver))
	},
}

func runFind(id version.Identifier) error {
	sources, err := activeSources()
	if err != nil {
		return err
	}

	total := 0
	for _, s := range sources {
		for _, p := range s.FindPackagesByID(id) {
			printPackage(p, false)
			total++
		}
	}

	if total == 0 {
		fmt.Printf("No versions of '%s' found\n", id.ID)
	}
	return nil
}
