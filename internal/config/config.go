package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	CoT     CoTConfig     `toml:"cot"`
	Source  SourceConfig  `toml:"source"`
	Filters FiltersConfig `toml:"filters"`
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
}

// CoTConfig contains settings for the Cursor-on-Target destination
type CoTConfig struct {
	// URL is the CoT destination, e.g. tcp://takserver:8087, tls://takserver:8089
	// or udp://239.2.3.1:6969
	URL string `toml:"url"`
	// StaleSeconds is the window after which consumers should expire an event
	StaleSeconds int `toml:"stale_seconds"`
	// UIDKey selects how event UIDs are derived: ICAO, REG or FLIGHT
	UIDKey string `toml:"uid_key"`
	// HostID is appended to event remarks to identify this gateway
	HostID string `toml:"host_id"`
	// Access is the optional CoT access attribute
	Access string `toml:"access"`
	// DialTimeoutSecs bounds destination connection establishment
	DialTimeoutSecs int `toml:"dial_timeout_secs"`
	// TLSSkipVerify disables certificate verification for tls:// destinations
	TLSSkipVerify bool `toml:"tls_skip_verify"`
	// MaxEventsPerSec rate-limits the transmitter (0 = unlimited)
	MaxEventsPerSec int `toml:"max_events_per_sec"`
}

// SourceConfig contains settings for the ADS-B feed
type SourceConfig struct {
	// URL is the feed source: http(s)://host/data/aircraft.json for polled
	// dump1090 JSON, or tcp://host:30002 / tcp+raw:// / tcp+beast:// for a
	// streamed raw feed
	URL string `toml:"url"`
	// PollIntervalSecs is the JSON polling cadence (poll sources only)
	PollIntervalSecs int `toml:"poll_interval_secs"`
	// TimeoutSecs bounds each poll request and the stream dial
	TimeoutSecs int `toml:"timeout_secs"`
	// OnlyChanges suppresses events for aircraft whose state did not change
	// since the previous poll cycle (poll sources only)
	OnlyChanges bool `toml:"only_changes"`
}

// FiltersConfig defines the observation filter set. All rules are optional;
// an empty section keeps everything.
type FiltersConfig struct {
	// AllowICAO keeps only the listed ICAO hex addresses when non-empty
	AllowICAO []string `toml:"allow_icao"`
	// DenyICAO always drops the listed ICAO hex addresses
	DenyICAO []string `toml:"deny_icao"`
	// CallsignPrefixes keeps only callsigns with one of these prefixes when non-empty
	CallsignPrefixes []string `toml:"callsign_prefixes"`
	// AltUpperFt drops aircraft above this geometric altitude (0 = disabled)
	AltUpperFt float64 `toml:"alt_upper_ft"`
	// AltLowerFt drops aircraft below this geometric altitude (0 = disabled)
	AltLowerFt float64 `toml:"alt_lower_ft"`
	// Bounds keeps only aircraft inside the box when set
	Bounds *BoundsConfig `toml:"bounds"`
	// Radius keeps only aircraft within RadiusNM of the center when set
	Radius *RadiusConfig `toml:"radius"`
}

// BoundsConfig is a geographic bounding box
type BoundsConfig struct {
	LatMin float64 `toml:"lat_min"`
	LatMax float64 `toml:"lat_max"`
	LonMin float64 `toml:"lon_min"`
	LonMax float64 `toml:"lon_max"`
}

// RadiusConfig is a geographic circle
type RadiusConfig struct {
	Lat      float64 `toml:"lat"`
	Lon      float64 `toml:"lon"`
	RadiusNM float64 `toml:"radius_nm"`
}

// ServerConfig contains the status API settings
type ServerConfig struct {
	Enabled            bool     `toml:"enabled"`
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
}

// StorageConfig contains the event log settings
type StorageConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns a configuration with sensible defaults. Destination and
// source URLs have no defaults and must be provided.
func Default() *Config {
	return &Config{
		CoT: CoTConfig{
			StaleSeconds:    120,
			UIDKey:          "ICAO",
			HostID:          "cotbridge",
			DialTimeoutSecs: 30,
		},
		Source: SourceConfig{
			PollIntervalSecs: 3,
			TimeoutSecs:      10,
		},
		Server: ServerConfig{
			Enabled: false,
			Host:    "0.0.0.0",
			Port:    8080,
		},
		Storage: StorageConfig{
			Enabled: false,
			Path:    "cotbridge.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the TOML configuration file at path on top of the defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces the startup preconditions. It is called by Load but is
// exported so programmatically built configs get the same checks.
func (c *Config) Validate() error {
	if c.CoT.URL == "" {
		return fmt.Errorf("missing CoT destination URL, for example: tcp://takserver.example.com:8087")
	}
	if !strings.Contains(c.CoT.URL, "://") {
		return fmt.Errorf("invalid CoT destination URL %q: scheme required, for example: tcp://takserver.example.com:8087", c.CoT.URL)
	}
	if _, err := url.Parse(c.CoT.URL); err != nil {
		return fmt.Errorf("invalid CoT destination URL: %w", err)
	}

	if c.Source.URL == "" {
		return fmt.Errorf("missing ADS-B source URL, for example: tcp+beast://piaware.example.com:30005")
	}
	if !strings.Contains(c.Source.URL, "://") {
		return fmt.Errorf("invalid ADS-B source URL %q: scheme required, for example: tcp+beast://piaware.example.com:30005", c.Source.URL)
	}
	if _, err := url.Parse(c.Source.URL); err != nil {
		return fmt.Errorf("invalid ADS-B source URL: %w", err)
	}

	if c.CoT.StaleSeconds <= 0 {
		return fmt.Errorf("cot.stale_seconds must be positive, got %d", c.CoT.StaleSeconds)
	}
	if c.Source.PollIntervalSecs <= 0 {
		return fmt.Errorf("source.poll_interval_secs must be positive, got %d", c.Source.PollIntervalSecs)
	}

	switch c.CoT.UIDKey {
	case "", "ICAO", "REG", "FLIGHT":
	default:
		return fmt.Errorf("cot.uid_key must be one of ICAO, REG, FLIGHT; got %q", c.CoT.UIDKey)
	}

	if c.Storage.Enabled && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required when storage is enabled")
	}

	return nil
}

// Stale returns the configured staleness window as a duration
func (c *CoTConfig) Stale() time.Duration {
	return time.Duration(c.StaleSeconds) * time.Second
}

// DialTimeout returns the destination dial timeout as a duration
func (c *CoTConfig) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutSecs) * time.Second
}

// PollInterval returns the poll cadence as a duration
func (c *SourceConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSecs) * time.Second
}

// Timeout returns the source request timeout as a duration
func (c *SourceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}
