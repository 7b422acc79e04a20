package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"nufeed/internal/config"
)

var (
	sourceAddKind     string
	sourceAddUsername string
	sourceAddPassword string
)

// sourceCmd represents the source command
var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage package sources",
	Long: `Manage the sources packages are discovered in. A source is a local
directory, an OData v2 HTTP feed, or a git repository holding packages; the
kind is inferred from the path unless --kind forces it.

Credentials may reference environment variables, expanded when the source is
used:

  nufeed source add company https://feed.example.com/api/v2 \
      --username deploy --password '${FEED_PASSWORD}'`,
}

// sourceAddCmd adds a new source
var sourceAddCmd = &cobra.Command{
	Use:   "add <name> <path-or-url>",
	Short: "Add a new source",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSourceAdd(args[0], args[1])
	},
}

// sourceListCmd lists configured sources
var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSourceList()
	},
}

// sourceUseCmd sets the current source
var sourceUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the current source",
	Long:  `Set the source that login and push operate on by default.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSourceUse(args[0])
	},
}

// sourceRemoveCmd removes a source
var sourceRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSourceRemove(args[0])
	},
}

func runSourceAdd(name, path string) error {
	cfg, err := config.LoadCLI()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	entry := config.SourceEntry{
		Path:     path,
		Kind:     sourceAddKind,
		Username: sourceAddUsername,
		Password: sourceAddPassword,
	}
	cfg.Sources[name] = entry

	// First source becomes current
	if cfg.Current == "" {
		cfg.Current = name
	}

	if err := config.SaveCLI(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Added source '%s' (%s)\n", name, kindOf(entry))
	fmt.Printf("Path: %s\n", path)
	if cfg.Current == name {
		fmt.Printf("Set as current source\n")
	}
	return nil
}

func runSourceList() error {
	cfg, err := config.LoadCLI()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if len(cfg.Sources) == 0 {
		fmt.Println("No sources configured.")
		fmt.Println("Add one with: nufeed source add <name> <path-or-url>")
		return nil
	}

	for _, name := range cfg.SourceNames() {
		e := cfg.Sources[name]
		marker := "  "
		if cfg.Current == name {
			marker = "* "
		}
		status := ""
		if e.Disabled {
			status = " [disabled]"
		}
		fmt.Printf("%s%s (%s)%s\n", marker, name, kindOf(e), status)
		fmt.Printf("    %s\n", e.Path)
		if e.Username != "" {
			fmt.Printf("    username: %s\n", e.Username)
		}
		if e.Token != "" {
			fmt.Printf("    token: [configured]\n")
		}
	}

	if cfg.Current != "" {
		fmt.Println("* = current source")
	}
	return nil
}

func runSourceUse(name string) error {
	cfg, err := config.LoadCLI()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if _, exists := cfg.Sources[name]; !exists {
		return fmt.Errorf("source '%s' not found. Use 'nufeed source list' to see available sources", name)
	}

	cfg.Current = name
	if err := config.SaveCLI(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Set '%s' as current source\n", name)
	return nil
}

func runSourceRemove(name string) error {
	cfg, err := config.LoadCLI()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if _, exists := cfg.Sources[name]; !exists {
		return fmt.Errorf("source '%s' not found. Use 'nufeed source list' to see available sources", name)
	}

	delete(cfg.Sources, name)
	if cfg.Current == name {
		cfg.Current = ""
		fmt.Println("Removed the current source. Use 'nufeed source use' to set a new one.")
	}

	if err := config.SaveCLI(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Removed source '%s'\n", name)
	return nil
}

func init() {
	sourceAddCmd.Flags().StringVar(&sourceAddKind, "kind", "", "force the source kind (local, remote, or git)")
	sourceAddCmd.Flags().StringVar(&sourceAddUsername, "username", "", "username for authenticated feeds")
	sourceAddCmd.Flags().StringVar(&sourceAddPassword, "password", "", "password, or an environment reference like ${VAR}")

	sourceCmd.AddCommand(sourceAddCmd)
	sourceCmd.AddCommand(sourceListCmd)
	sourceCmd.AddCommand(sourceUseCmd)
	sourceCmd.AddCommand(sourceRemoveCmd)
}
