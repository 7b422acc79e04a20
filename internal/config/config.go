package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds the feed server configuration, read from the environment
type Config struct {
	DBURL             string
	StoragePath       string
	APIPort           string
	JWTSecret         string
	DisableGetUpdates bool // serve 404 on the batched update endpoint
}

func Load() Config {
	cfg := Config{
		DBURL:             os.Getenv("DATABASE_URL"),
		StoragePath:       getEnv("STORAGE_PATH", "./storage"),
		APIPort:           getEnv("PORT", "8080"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		DisableGetUpdates: getBool("DISABLE_GET_UPDATES"),
	}

	// Validate required fields
	if cfg.DBURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
