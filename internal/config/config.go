// Package config loads engine tuning from YAML. Secrets (admin key, NATS
// URL) come from the environment, never the file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the engine tuning file.
type Config struct {
	DBPath         string  `yaml:"db_path"`
	ListenAddr     string  `yaml:"listen_addr"`
	Seed           int64   `yaml:"seed"`
	AutoTurn       bool    `yaml:"auto_turn"`
	TurnIntervalMs int     `yaml:"turn_interval_ms"`
	TurnSpeed      float64 `yaml:"turn_speed"`

	RateLimit RateLimit `yaml:"rate_limit"`
}

// RateLimit bounds write endpoints per client IP. Scopes override the
// default budget for individual endpoint groups ("decide", "events").
type RateLimit struct {
	MaxPerWindow  int            `yaml:"max_per_window"`
	WindowSeconds int            `yaml:"window_seconds"`
	Scopes        map[string]int `yaml:"scopes"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DBPath:         "vorticog.db",
		ListenAddr:     ":8080",
		AutoTurn:       false,
		TurnIntervalMs: 5000,
		TurnSpeed:      1.0,
		RateLimit: RateLimit{
			MaxPerWindow:  60,
			WindowSeconds: 60,
		},
	}
}

// Load reads a YAML config file, filling unset fields with defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.TurnIntervalMs <= 0 {
		cfg.TurnIntervalMs = 5000
	}
	if cfg.TurnSpeed <= 0 {
		cfg.TurnSpeed = 1.0
	}
	return cfg, nil
}
