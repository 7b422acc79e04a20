package config

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// SourceEntry is one configured package source. Path is either a filesystem
// directory, an HTTP(S) feed URL, or a git repository URL; Kind may force the
// strategy when the path alone is ambiguous. Password may be an environment
// reference like ${FEED_PASSWORD}, expanded at use, not at load.
type SourceEntry struct {
	Path     string `toml:"path"`
	Kind     string `toml:"kind,omitempty"` // local, remote, or git; inferred when empty
	Username string `toml:"username,omitempty"`
	Password string `toml:"password,omitempty"`
	Token    string `toml:"token,omitempty"` // JWT from a previous login
	Disabled bool   `toml:"disabled,omitempty"`
}

// CLIConfig is the ~/.nufeed/config.toml document
type CLIConfig struct {
	Current string                 `toml:"current,omitempty"`
	Sources map[string]SourceEntry `toml:"sources"`
}

// ConfigDir returns the CLI config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".nufeed"), nil
}

// ConfigPath returns the full path to config.toml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LoadCLI loads CLI configuration from ~/.nufeed/config.toml. A missing file
// yields an empty configuration, not an error.
func LoadCLI() (CLIConfig, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return CLIConfig{}, err
	}
	return LoadCLIFrom(configPath)
}

// LoadCLIFrom loads CLI configuration from an explicit path
func LoadCLIFrom(configPath string) (CLIConfig, error) {
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return CLIConfig{Sources: make(map[string]SourceEntry)}, nil
	}
	if err != nil {
		return CLIConfig{}, err
	}

	var config CLIConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return CLIConfig{}, err
	}

	if config.Sources == nil {
		config.Sources = make(map[string]SourceEntry)
	}
	return config, nil
}

// SaveCLI saves CLI configuration to ~/.nufeed/config.toml
func SaveCLI(config CLIConfig) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveCLITo(configPath, config)
}

// SaveCLITo saves CLI configuration to an explicit path. Mode is 0600 since
// the file may hold feed credentials.
func SaveCLITo(configPath string, config CLIConfig) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0o600)
}

// SourceNames returns the configured source names in stable order, with the
// current source first.
func (c CLIConfig) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		if name == c.Current {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if _, ok := c.Sources[c.Current]; ok {
		names = append([]string{c.Current}, names...)
	}
	return names
}
