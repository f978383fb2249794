// Package config resolves runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds the externally supplied settings. The history file path is
// explicit configuration handed to the store, not a hidden global.
type Config struct {
	APIKey      string `env:"GEMINI_API_KEY"`
	Model       string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	BaseURL     string `env:"GEMINI_API_BASE_URL"`
	HistoryFile string `env:"GEMCLI_HISTORY_FILE"`
}

// Load reads configuration from an optional .env file and the process
// environment. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.HistoryFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.HistoryFile = filepath.Join(home, ".gemcli", "history.json")
	}
	return cfg, nil
}

// Validate checks that the settings required for an API call are present.
// History-only commands do not need an API key, so this is separate from
// Load.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("missing required environment variable: GEMINI_API_KEY")
	}
	return nil
}
