package config

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables honoured by ApplyEnv. Flags override these; these
// override the config file.
const (
	EnvRegion    = "AWS_REGION"
	EnvProfile   = "AWS_PROFILE"
	EnvOutputDir = "SSO_AUDITOR_OUTPUT_DIR"
	EnvQuiet     = "SSO_AUDITOR_QUIET"
	EnvDebug     = "SSO_AUDITOR_DEBUG"
)

// Config is the top-level application configuration.
// It is loaded from ~/.config/sso-access-auditor/config.yaml, overridden by
// environment variables and then by command-line flags.
type Config struct {
	AWS      AWSConfig      `yaml:"aws" json:"aws"`
	Output   OutputConfig   `yaml:"output" json:"output"`
	Behavior BehaviorConfig `yaml:"behavior" json:"behavior"`
}

// AWSConfig holds AWS-specific defaults used when flags are not provided.
type AWSConfig struct {
	// Region is the Identity Center home region. Defaults to us-east-1.
	Region string `yaml:"region" json:"region"`

	// Profile is the AWS shared-config profile. Empty means default.
	Profile string `yaml:"profile" json:"profile"`
}

// OutputConfig controls report file output.
type OutputConfig struct {
	// Formats selects report files: "json", "yaml", or "both".
	Formats []string `yaml:"formats" json:"formats"`

	// Directory is where report files are written. Defaults to ".".
	Directory string `yaml:"directory" json:"directory"`

	// IncludeTimestamp appends a timestamp to report filenames.
	IncludeTimestamp bool `yaml:"include_timestamp" json:"include_timestamp"`
}

// BehaviorConfig controls console verbosity and fan-out.
type BehaviorConfig struct {
	// Quiet suppresses console output; files are still written.
	Quiet bool `yaml:"quiet" json:"quiet"`

	// Debug enables progress chatter and debug logging.
	Debug bool `yaml:"debug" json:"debug"`

	// Concurrency bounds the engine's per-phase fan-out. Zero means the
	// engine default.
	Concurrency int `yaml:"concurrency" json:"concurrency"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AWS: AWSConfig{Region: "us-east-1"},
		Output: OutputConfig{
			Formats:          []string{"json", "yaml"},
			Directory:        ".",
			IncludeTimestamp: true,
		},
	}
}

// ApplyEnv overlays environment variables onto c.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvRegion); v != "" {
		c.AWS.Region = v
	}
	if v := os.Getenv(EnvProfile); v != "" {
		c.AWS.Profile = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.Output.Directory = v
	}
	if strings.EqualFold(os.Getenv(EnvQuiet), "true") {
		c.Behavior.Quiet = true
	}
	if strings.EqualFold(os.Getenv(EnvDebug), "true") {
		c.Behavior.Debug = true
	}
}

// Validate checks the configuration for values no run could work with.
func (c *Config) Validate() error {
	for _, f := range c.Output.Formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "json", "yaml", "both":
		default:
			return fmt.Errorf("invalid output format %q: must be json, yaml, or both", f)
		}
	}
	if c.Behavior.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}
	return nil
}
