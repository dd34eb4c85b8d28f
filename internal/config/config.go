// Package config loads and validates the replicator configuration.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/open-edge-platform/pkg-replicator/internal/config/validate"
)

// DefaultRetain is the number of newest revisions kept per package name
// when the configuration does not say otherwise.
const DefaultRetain = 2

// Config is the full replicator configuration.
type Config struct {
	// Destination is the root of the portable destination store.
	Destination string `yaml:"destination"`

	// SeedDir is the fixed location holding pre-seeded payload+bundle
	// pairs.
	SeedDir string `yaml:"seed_dir"`

	// CacheDir is where the live package service keeps payloads for
	// installed packages.
	CacheDir string `yaml:"cache_dir"`

	// Retain caps revisions kept per name in the destination; >= 1.
	Retain int `yaml:"retain"`

	// DefaultPublisher is the platform-default publisher account ID;
	// bundles for its packages omit the account fragment.
	DefaultPublisher string `yaml:"default_publisher"`

	// InstalledCommand lists installed packages, one
	// "name<TAB>revision<TAB>size" line per package.
	InstalledCommand []string `yaml:"installed_command"`

	// MetadataCommand resolves signed records; invoked with kind,
	// identifier and revision appended.
	MetadataCommand []string `yaml:"metadata_command"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Load reads path, checks it against the embedded schema, decodes it
// and applies defaults and environment overrides
// (PKG_REPLICATOR_DEST, PKG_REPLICATOR_RETAIN).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates raw YAML configuration.
func Parse(data []byte) (*Config, error) {
	if err := validate.ConfigYAML(data); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with only defaults applied, for use
// when no config file is given and everything comes from flags.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Retain == 0 {
		c.Retain = DefaultRetain
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// ApplyEnv applies the PKG_REPLICATOR_* environment overrides.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("PKG_REPLICATOR_DEST"); v != "" {
		c.Destination = v
	}
	if v := os.Getenv("PKG_REPLICATOR_RETAIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PKG_REPLICATOR_RETAIN: %q is not an integer", v)
		}
		c.Retain = n
	}
	return nil
}

// Validate checks the cross-field constraints the schema cannot.
func (c *Config) Validate() error {
	if c.Destination == "" {
		return fmt.Errorf("destination must be set")
	}
	if c.Retain < 1 {
		return fmt.Errorf("retain must be >= 1, got %d", c.Retain)
	}
	if c.SeedDir == "" && len(c.InstalledCommand) == 0 {
		return fmt.Errorf("at least one of seed_dir or installed_command must be set")
	}
	if len(c.InstalledCommand) > 0 && len(c.MetadataCommand) == 0 {
		return fmt.Errorf("metadata_command must be set when installed_command is used")
	}
	return nil
}
