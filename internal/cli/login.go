package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"nufeed/internal/config"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login [source]",
	Short: "Log in to a feed and store its token",
	Long: `Authenticate against a feed's login endpoint and store the returned
token in the source configuration. Push uses the stored token.

Examples:
  nufeed login
  nufeed login company`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		return runLogin(name)
	},
}

func runLogin(name string) error {
	name, entry, err := feedEntry(name)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	username := entry.Username
	if username == "" {
		fmt.Print("Username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}

	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println() // New line after password input

	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": string(passwordBytes),
	})
	if err != nil {
		return err
	}

	client := retryablehttp.NewClient()
	client.Logger = nil
	loginURL := strings.TrimRight(os.ExpandEnv(entry.Path), "/") + "/users/login"
	resp, err := client.Post(loginURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("login failed: %s: %s", resp.Status, strings.TrimSpace(string(excerpt)))
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("unexpected login response: %w", err)
	}
	if result.Token == "" {
		return fmt.Errorf("login response carried no token")
	}

	cfg, err := config.LoadCLI()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	entry = cfg.Sources[name]
	entry.Username = username
	entry.Token = result.Token
	cfg.Sources[name] = entry
	if err := config.SaveCLI(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Logged in to '%s' as %s\n", name, username)
	return nil
}
