package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Resolver ResolverConfig `json:"resolver"`
	Storage  StorageConfig  `json:"storage"`
	Logging  LoggingConfig  `json:"logging"`
}

type ResolverConfig struct {
	// Endpoint serves raw model config files by "org/model" identifier.
	Endpoint string `json:"endpoint" env:"CTXVITALS_RESOLVER_ENDPOINT"`
}

type StorageConfig struct {
	// Path to the SQLite database. Empty or Disabled means no profile
	// cache and no assessment history; the tool still works.
	Path     string `json:"path" env:"CTXVITALS_STORAGE_PATH"`
	Disabled bool   `json:"disabled" env:"CTXVITALS_STORAGE_DISABLED"`
}

type LoggingConfig struct {
	Level  string `json:"level" env:"CTXVITALS_LOG_LEVEL"`
	Format string `json:"format" env:"CTXVITALS_LOG_FORMAT"` // console or json
}

func DefaultConfig() *Config {
	return &Config{
		Resolver: ResolverConfig{
			Endpoint: "https://huggingface.co",
		},
		Storage: StorageConfig{
			Path: "~/.ctxvitals/ctxvitals.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultConfigPath is ~/.ctxvitals/config.json.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".ctxvitals", "config.json")
}

// LoadConfig reads path over the defaults, then applies CTXVITALS_* env
// overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// StoragePath returns the database path with ~ expanded, or "" when storage
// is disabled.
func (c *Config) StoragePath() string {
	if c.Storage.Disabled {
		return ""
	}
	return expandHome(c.Storage.Path)
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
