// Package config loads the process configuration. Config is constructed
// once at startup and passed down; nothing reads it after wiring.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/CrimsonX77/RedVerse/internal/query"
)

// Config is the full process configuration.
type Config struct {
	// DataDir holds the per-thread ledger files under <DataDir>/threads.
	DataDir string `yaml:"data_dir"`

	// RegistryPath is the SQLite member registry file.
	RegistryPath string `yaml:"registry_path"`

	// PolicyPath optionally points at a CUE tier-policy override file.
	PolicyPath string `yaml:"policy_path"`

	// Listen is the HTTP bind address.
	Listen string `yaml:"listen"`

	// SyncWrites forces an fsync after every ledger append.
	SyncWrites bool `yaml:"sync_writes"`

	// Trajectory tunes the emotion-trend heuristic.
	Trajectory query.TrajectoryOptions `yaml:"trajectory"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:      "data",
		RegistryPath: "data/registry.db",
		Listen:       "127.0.0.1:5100",
		SyncWrites:   false,
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.RegistryPath == "" {
		return fmt.Errorf("registry_path must not be empty")
	}
	if c.Listen == "" {
		return fmt.Errorf("listen must not be empty")
	}
	return nil
}
