package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/open-edge-platform/pkg-replicator/internal/config"
)

// loadConfig builds the effective configuration from the optional
// config file, the PKG_REPLICATOR_* environment and a --dest override,
// in that precedence order (later wins).
func loadConfig(dest string) (*config.Config, error) {
	var cfg *config.Config
	if configPath != "" {
		c, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = config.Default()
		if err := cfg.ApplyEnv(); err != nil {
			return nil, err
		}
	}

	if dest != "" {
		cfg.Destination = dest
	}
	if cfg.Destination == "" {
		return nil, fmt.Errorf("no destination configured: use --dest, PKG_REPLICATOR_DEST or a config file")
	}
	return cfg, nil
}

// applyRetainOverride copies an explicitly set --retain flag into the
// configuration, leaving the configured value alone otherwise.
func applyRetainOverride(flags *pflag.FlagSet, cfg *config.Config) error {
	if !flags.Changed("retain") {
		return nil
	}
	n, err := flags.GetInt("retain")
	if err != nil {
		return err
	}
	if n < 1 {
		return fmt.Errorf("retain must be >= 1, got %d", n)
	}
	cfg.Retain = n
	return nil
}
