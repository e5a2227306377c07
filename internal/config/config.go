// Package config loads tool settings from an optional YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds settings that flags may override.
type Config struct {
	// Excludes are walker patterns left out of every index.
	Excludes []string `yaml:"excludes"`
	// Workers bounds the hashing pool; 0 means the built-in default.
	Workers int `yaml:"workers"`
	// Attempts is the copy retry budget; 0 means the built-in default.
	Attempts int `yaml:"attempts"`
	// MirrorCommand overrides the copy tool binary.
	MirrorCommand string `yaml:"mirror_command"`
	// MirrorArgs are extra arguments passed to the copy tool.
	MirrorArgs []string `yaml:"mirror_args"`
	// ContinueOnError keeps processing destinations after one fails.
	ContinueOnError bool `yaml:"continue_on_error"`
}

// Default returns the settings used when no config file exists.
// The exclude list covers the metadata clutter cameras and desktop
// operating systems leave on removable media.
func Default() *Config {
	return &Config{
		Excludes: []string{
			".Trashes/",
			".Spotlight-V100/",
			".fseventsd/",
			"System Volume Information/",
			".DS_Store",
			"Thumbs.db",
		},
	}
}

// Load reads the YAML config at path. A missing file yields Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	if cfg.Excludes == nil {
		cfg.Excludes = []string{}
	}

	return &cfg, nil
}
