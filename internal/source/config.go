package source

import (
	"os"

	"nufeed/internal/transport"
)

// Config is the materialized configuration of one package source. SavedPath
// and SavedPassword are stored raw and may contain environment-variable
// placeholders; the expanded forms are recomputed on every access and never
// persisted, since the backing environment can change while the process runs.
type Config struct {
	Name          string
	SavedPath     string // directory, feed URL, or git URL, possibly with ${VAR} placeholders
	IsEnabled     bool
	IsLocalPath   bool
	UserName      string
	SavedPassword string
}

// ExpandedPath substitutes environment variables into the saved path
func (c Config) ExpandedPath() string {
	return os.ExpandEnv(c.SavedPath)
}

// ExpandedPassword substitutes environment variables into the saved password
func (c Config) ExpandedPassword() string {
	return os.ExpandEnv(c.SavedPassword)
}

// HasCredentials reports whether the source carries usable credentials.
// Local sources never do.
func (c Config) HasCredentials() bool {
	return !c.IsLocalPath && c.UserName != ""
}

// Credentials returns the transport credentials for this source, or nil when
// none apply.
func (c Config) Credentials() *transport.Credentials {
	if !c.HasCredentials() {
		return nil
	}
	return &transport.Credentials{
		Username: c.UserName,
		Password: c.ExpandedPassword(),
	}
}
