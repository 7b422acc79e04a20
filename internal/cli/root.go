// Package cli implements the nufeed command line: package discovery and
// update resolution against configured sources, plus source management and
// publishing against a feed server.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nufeed/internal/config"
	"nufeed/internal/logging"
)

var (
	verbose    bool
	sourceName string

	log *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nufeed",
	Short: "nufeed - package discovery and update resolution",
	Long: `nufeed discovers packages and resolves updates across configured sources:
local directories, OData v2 HTTP feeds, and git-hosted package repositories.

All sources answer the same questions - find versions of a package, resolve
one exactly, search, and list updates - so commands work uniformly no matter
where the packages live.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load .env file if it exists
		config.LoadEnvFile(".env")

		log = logging.New(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	defer func() {
		if log != nil {
			log.Sync()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&sourceName, "source", "s", "", "restrict to one configured source")

	// Add subcommands
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(updatesCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(sourceCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(pushCmd)
}

// checkErr prints an error and exits
func checkErr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
