package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader is the interface for reading Config from disk.
// The default implementation reads ~/.config/sso-access-auditor/config.yaml.
type Loader interface {
	// Load reads, parses, and validates the configuration file. A missing
	// file is not an error: the built-in defaults are returned.
	Load() (*Config, error)

	// ConfigPath returns the absolute path to the configuration file.
	ConfigPath() string
}

// FileLoader loads configuration from a YAML file.
type FileLoader struct {
	// Path overrides the default config file location when non-empty.
	Path string
}

// ConfigPath implements Loader.
func (l *FileLoader) ConfigPath() string {
	if l.Path != "" {
		return l.Path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "sso-access-auditor", "config.yaml")
}

// Load implements Loader. Environment overrides are applied on top of the
// file (or the defaults when no file exists).
func (l *FileLoader) Load() (*Config, error) {
	cfg := Default()

	path := l.ConfigPath()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// No file: defaults + env only.
		case err != nil:
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %q: %w", path, err)
			}
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
