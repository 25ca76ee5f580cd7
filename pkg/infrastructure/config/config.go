// Package config loads engine configuration from a YAML file, falling back
// to defaults when the file is absent.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend names for the persistence layer.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config is the engine configuration.
type Config struct {
	// Namespace isolates this environment's keys in the store.
	Namespace string `yaml:"namespace"`
	// Backend selects the persistence backend: memory or sqlite.
	Backend string `yaml:"backend"`
	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `yaml:"sqlitePath"`
	// LogMode selects the logger: dev or prod.
	LogMode string `yaml:"logMode"`
	// JournalSize caps the in-memory mutation journal.
	JournalSize int `yaml:"journalSize"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Namespace:   "default",
		Backend:     BackendSQLite,
		SQLitePath:  "spooltrack.db",
		LogMode:     "prod",
		JournalSize: 256,
	}
}

// Load reads the configuration file at path. A missing file yields the
// defaults; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (expected %s or %s)", c.Backend, BackendMemory, BackendSQLite)
	}
	if c.Namespace == "" {
		return fmt.Errorf("namespace cannot be empty")
	}
	if c.Backend == BackendSQLite && c.SQLitePath == "" {
		return fmt.Errorf("sqlitePath is required for the sqlite backend")
	}
	return nil
}
