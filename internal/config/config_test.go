package config

import (
	"strings"
	"testing"
)

const validYAML = `
destination: /media/stick/packages
seed_dir: /var/lib/packages/seed
cache_dir: /var/lib/packages/cache
retain: 3
default_publisher: platform
installed_command: [pkgsvc, list]
metadata_command: [pkgsvc, known]
logging:
  level: debug
`

func TestParseValidConfig(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Destination != "/media/stick/packages" {
		t.Errorf("destination = %q", cfg.Destination)
	}
	if cfg.Retain != 3 {
		t.Errorf("retain = %d, want 3", cfg.Retain)
	}
	if len(cfg.InstalledCommand) != 2 || cfg.InstalledCommand[0] != "pkgsvc" {
		t.Errorf("installed_command = %v", cfg.InstalledCommand)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("destination: /mnt/store\nseed_dir: /seed\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Retain != DefaultRetain {
		t.Errorf("retain = %d, want default %d", cfg.Retain, DefaultRetain)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("level = %q, want info", cfg.Logging.Level)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("destination: /mnt\nbogus_key: 1\n"))
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Fatalf("err = %v, want schema rejection", err)
	}
}

func TestParseRejectsZeroRetain(t *testing.T) {
	if _, err := Parse([]byte("destination: /mnt\nretain: 0\n")); err == nil {
		t.Fatal("expected schema rejection for retain < 1")
	}
}

func TestParseRejectsBadLogLevel(t *testing.T) {
	if _, err := Parse([]byte("destination: /mnt\nlogging: {level: loud}\n")); err == nil {
		t.Fatal("expected schema rejection for unknown log level")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PKG_REPLICATOR_DEST", "/env/dest")
	t.Setenv("PKG_REPLICATOR_RETAIN", "5")

	cfg, err := Parse([]byte("destination: /file/dest\nseed_dir: /seed\nretain: 2\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Destination != "/env/dest" {
		t.Errorf("destination = %q, env must win", cfg.Destination)
	}
	if cfg.Retain != 5 {
		t.Errorf("retain = %d, env must win", cfg.Retain)
	}
}

func TestEnvRetainMustBeInteger(t *testing.T) {
	t.Setenv("PKG_REPLICATOR_RETAIN", "two")
	if _, err := Parse([]byte("destination: /mnt\nseed_dir: /seed\n")); err == nil {
		t.Fatal("expected error for non-integer env retain")
	}
}

func TestValidateCrossFieldConstraints(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"missing destination", Config{Retain: 2, SeedDir: "/s"}, false},
		{"zero retain", Config{Destination: "/d", SeedDir: "/s"}, false},
		{"no sources", Config{Destination: "/d", Retain: 1}, false},
		{"installed without metadata command", Config{
			Destination: "/d", Retain: 1, InstalledCommand: []string{"svc", "list"},
		}, false},
		{"seed only", Config{Destination: "/d", Retain: 1, SeedDir: "/s"}, true},
		{"installed with metadata", Config{
			Destination: "/d", Retain: 1,
			InstalledCommand: []string{"svc", "list"},
			MetadataCommand:  []string{"svc", "known"},
		}, true},
	}
	for _, c := range cases {
		err := c.cfg.Validate()
		if (err == nil) != c.ok {
			t.Errorf("%s: err = %v, want ok=%v", c.name, err, c.ok)
		}
	}
}
