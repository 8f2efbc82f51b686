// Package config handles configuration loading and validation for crit.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	GitPath string    `yaml:"git_path"`
	Theme   string    `yaml:"theme"`
	IDE     IDEConfig `yaml:"ide"`
	Export  Export    `yaml:"export"`
	DataDir string    `yaml:"-"` // set by caller, not from config file
}

// IDEConfig controls the embedded IDE integration server.
type IDEConfig struct {
	// Enabled toggles the server. nil means enabled.
	Enabled *bool `yaml:"enabled"`
}

// ServerEnabled reports whether the IDE server should start.
func (c IDEConfig) ServerEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Export holds defaults for the export command.
type Export struct {
	// Output is the default export file path; empty means stdout.
	Output string `yaml:"output"`
}

// Valid theme names.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		GitPath: "git",
		Theme:   ThemeDark,
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.GitPath == "" {
		c.GitPath = defaults.GitPath
	}
	if c.Theme == "" {
		c.Theme = defaults.Theme
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.Theme != ThemeDark && c.Theme != ThemeLight {
		return fmt.Errorf("theme must be %q or %q, got %q", ThemeDark, ThemeLight, c.Theme)
	}

	return nil
}
