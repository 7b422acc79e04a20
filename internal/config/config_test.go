package config

import (
	"testing"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		expected     string
	}{
		{
			name:         "returns environment value when set",
			key:          "TEST_KEY",
			defaultValue: "default",
			envValue:     "env_value",
			expected:     "env_value",
		},
		{
			name:         "returns default when env not set",
			key:          "UNSET_KEY",
			defaultValue: "default",
			envValue:     "",
			expected:     "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.envValue)

			result := getEnv(tt.key, tt.defaultValue)
			if result != tt.expected {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, result, tt.expected)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("loads config with all env vars set", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://test")
		t.Setenv("JWT_SECRET", "test_secret")
		t.Setenv("STORAGE_PATH", "/tmp/storage")
		t.Setenv("PORT", "9000")
		t.Setenv("DISABLE_GET_UPDATES", "true")

		cfg := Load()

		if cfg.DBURL != "postgres://test" {
			t.Errorf("DBURL = %q, want %q", cfg.DBURL, "postgres://test")
		}
		if cfg.JWTSecret != "test_secret" {
			t.Errorf("JWTSecret = %q, want %q", cfg.JWTSecret, "test_secret")
		}
		if cfg.StoragePath != "/tmp/storage" {
			t.Errorf("StoragePath = %q, want %q", cfg.StoragePath, "/tmp/storage")
		}
		if cfg.APIPort != "9000" {
			t.Errorf("APIPort = %q, want %q", cfg.APIPort, "9000")
		}
		if !cfg.DisableGetUpdates {
			t.Error("DisableGetUpdates should be true")
		}
	})

	t.Run("uses defaults for optional vars", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://test")
		t.Setenv("JWT_SECRET", "test_secret")
		t.Setenv("STORAGE_PATH", "")
		t.Setenv("PORT", "")
		t.Setenv("DISABLE_GET_UPDATES", "")

		cfg := Load()

		if cfg.StoragePath != "./storage" {
			t.Errorf("StoragePath = %q, want %q", cfg.StoragePath, "./storage")
		}
		if cfg.APIPort != "8080" {
			t.Errorf("APIPort = %q, want %q", cfg.APIPort, "8080")
		}
		if cfg.DisableGetUpdates {
			t.Error("DisableGetUpdates should default to false")
		}
	})
}
