package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[cot]
url = "tcp://takserver:8087"

[source]
url = "http://piaware:8080/data/aircraft.json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.CoT.StaleSeconds != 120 {
		t.Errorf("expected default stale 120, got %d", cfg.CoT.StaleSeconds)
	}
	if cfg.CoT.UIDKey != "ICAO" {
		t.Errorf("expected default UID key ICAO, got %q", cfg.CoT.UIDKey)
	}
	if cfg.Source.PollIntervalSecs != 3 {
		t.Errorf("expected default poll interval 3, got %d", cfg.Source.PollIntervalSecs)
	}
	if cfg.CoT.Stale() != 120*time.Second {
		t.Errorf("unexpected stale duration %v", cfg.CoT.Stale())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[cot]
url = "tls://takserver:8089"
stale_seconds = 60
uid_key = "REG"

[source]
url = "tcp+beast://piaware:30005"
poll_interval_secs = 5

[filters]
allow_icao = ["ABC123"]

[filters.radius]
lat = 51.47
lon = -0.45
radius_nm = 50.0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CoT.StaleSeconds != 60 || cfg.CoT.UIDKey != "REG" {
		t.Error("expected overridden CoT settings")
	}
	if cfg.Filters.Radius == nil || cfg.Filters.Radius.RadiusNM != 50 {
		t.Error("expected radius filter")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.CoT.URL = "tcp://takserver:8087"
		cfg.Source.URL = "http://piaware:8080/data/aircraft.json"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing cot url", mutate: func(c *Config) { c.CoT.URL = "" }},
		{name: "cot url without scheme", mutate: func(c *Config) { c.CoT.URL = "takserver:8087" }},
		{name: "missing source url", mutate: func(c *Config) { c.Source.URL = "" }},
		{name: "source url without scheme", mutate: func(c *Config) { c.Source.URL = "piaware:30005" }},
		{name: "zero stale", mutate: func(c *Config) { c.CoT.StaleSeconds = 0 }},
		{name: "negative poll interval", mutate: func(c *Config) { c.Source.PollIntervalSecs = -1 }},
		{name: "bad uid key", mutate: func(c *Config) { c.CoT.UIDKey = "TAIL" }},
		{name: "storage without path", mutate: func(c *Config) { c.Storage.Enabled = true; c.Storage.Path = "" }},
	}

	for _, tt := range tests {
		cfg := valid()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}
