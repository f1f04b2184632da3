package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("db_path: /tmp/world.db\nlisten_addr: \":9090\"\nturn_speed: 2.5\nrate_limit:\n  max_per_window: 10\n  scopes:\n    decide: 5\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/world.db" || cfg.ListenAddr != ":9090" || cfg.TurnSpeed != 2.5 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.RateLimit.MaxPerWindow != 10 {
		t.Errorf("rate limit = %d, want 10", cfg.RateLimit.MaxPerWindow)
	}
	if cfg.RateLimit.Scopes["decide"] != 5 {
		t.Errorf("decide scope limit = %d, want 5", cfg.RateLimit.Scopes["decide"])
	}
	// Unset fields keep their defaults.
	if cfg.TurnIntervalMs != 5000 || cfg.RateLimit.WindowSeconds != 60 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("turn_interval_ms: -5\nturn_speed: 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TurnIntervalMs != 5000 || cfg.TurnSpeed != 1.0 {
		t.Errorf("invalid values not reset: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}
