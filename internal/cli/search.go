package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"nufeed/internal/source"
)

var (
	searchAllVersions bool
	searchPrerelease  bool
	searchPageSize    int
	searchSkip        int
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search for packages across sources",
	Long: `Search for packages in every enabled source, or in one source with
--source. Each package appears once per source with its versions merged,
unless --all-versions lists them separately.

Examples:
  nufeed search json
  nufeed search logging --prerelease
  nufeed search serializer --source company --all-versions`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		term := ""
		if len(args) > 0 {
			term = args[0]
		}
		return runSearch(cmd.Context(), term)
	},
}

func runSearch(ctx context.Context, term string) error {
	sources, err := activeSources()
	if err != nil {
		return err
	}

	opts := source.SearchOptions{
		Term:               term,
		IncludeAllVersions: searchAllVersions,
		IncludePrerelease:  searchPrerelease,
		PageSize:           searchPageSize,
		Skip:               searchSkip,
	}

	total := 0
	for _, s := range sources {
		pkgs, err := s.Search(ctx, opts)
		if err != nil {
			return err
		}
		for _, p := range pkgs {
			printPackage(p, searchAllVersions)
		}
		total += len(pkgs)
	}

	if total == 0 {
		fmt.Printf("No packages found matching '%s'\n", term)
	}
	return nil
}

func init() {
	searchCmd.Flags().BoolVar(&searchAllVersions, "all-versions", false, "list every version instead of one entry per package")
	searchCmd.Flags().BoolVar(&searchPrerelease, "prerelease", false, "include pre-release versions")
	searchCmd.Flags().IntVar(&searchPageSize, "take", 30, "maximum results per source")
	searchCmd.Flags().IntVar(&searchSkip, "skip", 0, "results to skip (remote sources only)")
}
