package config

import (
	"os"
	"strconv"

	"abx/domain/core"
)

// Config is the service configuration. Only the service adapters read it;
// the statistical core takes its parameters (confidence level, alpha) as
// explicit call arguments and never touches the environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DatabaseConfig holds the optional result-store settings. An empty URL
// disables persistence; every analysis endpoint still works.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:    envOr("PORT", "8080"),
			GinMode: envOr("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
	}

	maxConns := envOr("DATABASE_MAX_OPEN_CONNS", "8")
	n, err := strconv.Atoi(maxConns)
	if err != nil || n <= 0 {
		return nil, core.ConfigInvalid("DATABASE_MAX_OPEN_CONNS must be a positive integer, got " + maxConns)
	}
	cfg.Database.MaxOpenConns = n

	if _, err := strconv.Atoi(cfg.Server.Port); err != nil {
		return nil, core.ConfigInvalid("PORT must be numeric, got " + cfg.Server.Port)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
