package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"nufeed/internal/nupkg"
	"nufeed/internal/version"
)

var downloadOutput string

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <id> <version>",
	Short: "Download a package archive",
	Long: `Download one exact package version from the first source that has
it. Ranges are not accepted; resolve one first with 'nufeed show'.

Examples:
  nufeed download Foo 1.2.0
  nufeed download Foo 1.2.0 --output /tmp/Foo.1.2.0.nupkg`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownload(version.NewIdentifier(args[0], args[1]))
	},
}

func runDownload(id version.Identifier) error {
	sources, err := activeSources()
	if err != nil {
		return err
	}

	out := downloadOutput
	if out == "" {
		out = nupkg.FileName(id.ID, id.Version)
	}

	var lastErr error
	for _, s := range sources {
		if err := s.DownloadToFile(id, out, ""); err != nil {
			lastErr = err
			continue
		}
		fmt.Printf("Saved %s %s from %s to %s\n", id.ID, id.Version, s.Name(), out)
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("download failed: %w", lastErr)
	}
	return fmt.Errorf("no sources configured")
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output path (defaults to <id>.<version>.nupkg)")
}
