// Package config loads editor settings from a YAML file. Every field has a
// default, so a partial file or no file at all still yields a usable config.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig reports a config that fails validation.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds tunable editor limits and paths.
type Config struct {
	// NodeCapacity and EdgeCapacity size the tree arrays up front.
	NodeCapacity int `yaml:"node_capacity"`
	EdgeCapacity int `yaml:"edge_capacity"`
	// TextCapacity pre-sizes the text buffer in bytes.
	TextCapacity int `yaml:"text_capacity"`
	// ValidateWorkers is the goroutine count for consistency checks.
	// Zero means one worker per CPU.
	ValidateWorkers int `yaml:"validate_workers"`
	// SaveDir is the project directory for the file store.
	SaveDir string `yaml:"save_dir"`
	// Database is the SQLite DSN; empty selects the file store instead.
	Database string `yaml:"database"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		NodeCapacity: 512,
		EdgeCapacity: 2048,
		TextCapacity: 1 << 16,
		SaveDir:      "projects",
	}
}

// Load reads a YAML config file and fills unset fields with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects capacities and worker counts that cannot work.
func (c *Config) Validate() error {
	if c.NodeCapacity < 0 || c.EdgeCapacity < 0 || c.TextCapacity < 0 {
		return fmt.Errorf("%w: capacities must not be negative", ErrInvalidConfig)
	}
	if c.ValidateWorkers < 0 {
		return fmt.Errorf("%w: validate_workers must not be negative", ErrInvalidConfig)
	}
	if c.SaveDir == "" && c.Database == "" {
		return fmt.Errorf("%w: either save_dir or database must be set", ErrInvalidConfig)
	}
	return nil
}
