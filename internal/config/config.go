package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Reachability sources selectable with REACHABILITY_SOURCE.
const (
	SourcePoll   = "poll"
	SourceStream = "stream"
	SourceManual = "manual"
)

const (
	defaultHTTPAddr           = ":8099"
	defaultPollInterval       = 5 * time.Second
	defaultIdentifierCooldown = 2 * time.Second
	defaultIdentifierTimeout  = 10 * time.Second
	defaultJournalRetention   = 1000
)

// Config stores runtime settings loaded from an optional YAML file and
// environment variables. Environment variables win.
type Config struct {
	HTTPAddr           string
	DBPath             string
	LogLevel           slog.Level
	Source             string
	PollInterval       time.Duration
	StreamURL          string
	StreamToken        string
	IdentifierCooldown time.Duration
	IdentifierTimeout  time.Duration
	WiFiInterfaces     []string
	EthernetInterfaces []string
	CellularInterfaces []string
	CarrierName        string
	FetchWiFiSSID      bool
	JournalRetention   int
}

// fileConfig mirrors Config for the YAML overlay. Durations are strings.
type fileConfig struct {
	HTTPAddr           string   `yaml:"http_addr"`
	DBPath             string   `yaml:"db_path"`
	LogLevel           string   `yaml:"log_level"`
	Source             string   `yaml:"reachability_source"`
	PollInterval       string   `yaml:"poll_interval"`
	StreamURL          string   `yaml:"stream_url"`
	StreamToken        string   `yaml:"stream_token"`
	IdentifierCooldown string   `yaml:"identifier_cooldown"`
	IdentifierTimeout  string   `yaml:"identifier_timeout"`
	WiFiInterfaces     []string `yaml:"wifi_interfaces"`
	EthernetInterfaces []string `yaml:"ethernet_interfaces"`
	CellularInterfaces []string `yaml:"cellular_interfaces"`
	CarrierName        string   `yaml:"carrier_name"`
	FetchWiFiSSID      *bool    `yaml:"fetch_wifi_ssid"`
	JournalRetention   int      `yaml:"journal_retention"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		HTTPAddr:           defaultHTTPAddr,
		LogLevel:           slog.LevelInfo,
		Source:             SourcePoll,
		PollInterval:       defaultPollInterval,
		IdentifierCooldown: defaultIdentifierCooldown,
		IdentifierTimeout:  defaultIdentifierTimeout,
		JournalRetention:   defaultJournalRetention,
	}
}

// Load builds Config from CONFIG_FILE (if set) overlaid by environment
// variables.
func Load() (Config, error) {
	cfg := Default()
	if path := getenv("CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DBPath = getenv("DB_PATH", cfg.DBPath)
	if raw := getenv("LOG_LEVEL", ""); raw != "" {
		cfg.LogLevel = parseLogLevel(raw)
	}
	cfg.Source = strings.ToLower(getenv("REACHABILITY_SOURCE", cfg.Source))
	cfg.PollInterval = parseDuration("POLL_INTERVAL", cfg.PollInterval)
	cfg.StreamURL = getenv("STREAM_URL", cfg.StreamURL)
	cfg.StreamToken = getenv("STREAM_TOKEN", cfg.StreamToken)
	cfg.IdentifierCooldown = parseDuration("IDENTIFIER_COOLDOWN", cfg.IdentifierCooldown)
	cfg.IdentifierTimeout = parseDuration("IDENTIFIER_TIMEOUT", cfg.IdentifierTimeout)
	cfg.WiFiInterfaces = parseList("WIFI_INTERFACES", cfg.WiFiInterfaces)
	cfg.EthernetInterfaces = parseList("ETHERNET_INTERFACES", cfg.EthernetInterfaces)
	cfg.CellularInterfaces = parseList("CELLULAR_INTERFACES", cfg.CellularInterfaces)
	cfg.CarrierName = getenv("CARRIER_NAME", cfg.CarrierName)
	cfg.FetchWiFiSSID = parseBool("FETCH_WIFI_SSID", cfg.FetchWiFiSSID)
	cfg.JournalRetention = parseInt("JOURNAL_RETENTION", cfg.JournalRetention)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot be started.
func (c Config) Validate() error {
	switch c.Source {
	case SourcePoll, SourceManual:
	case SourceStream:
		if c.StreamURL == "" {
			return errors.New("STREAM_URL is required when REACHABILITY_SOURCE=stream")
		}
	default:
		return fmt.Errorf("unsupported REACHABILITY_SOURCE %q", c.Source)
	}
	return nil
}

// DBDir returns the target directory for DBPath.
func (c Config) DBDir() string {
	return filepath.Dir(c.DBPath)
}

// JournalEnabled reports whether transitions are persisted.
func (c Config) JournalEnabled() bool {
	return c.DBPath != ""
}

func (c *Config) applyFile(path string) error {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(content, &file); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if file.HTTPAddr != "" {
		c.HTTPAddr = file.HTTPAddr
	}
	if file.DBPath != "" {
		c.DBPath = file.DBPath
	}
	if file.LogLevel != "" {
		c.LogLevel = parseLogLevel(file.LogLevel)
	}
	if file.Source != "" {
		c.Source = strings.ToLower(strings.TrimSpace(file.Source))
	}
	if c.PollInterval, err = fileDuration("poll_interval", file.PollInterval, c.PollInterval); err != nil {
		return err
	}
	if c.IdentifierCooldown, err = fileDuration("identifier_cooldown", file.IdentifierCooldown, c.IdentifierCooldown); err != nil {
		return err
	}
	if c.IdentifierTimeout, err = fileDuration("identifier_timeout", file.IdentifierTimeout, c.IdentifierTimeout); err != nil {
		return err
	}
	if file.StreamURL != "" {
		c.StreamURL = file.StreamURL
	}
	if file.StreamToken != "" {
		c.StreamToken = file.StreamToken
	}
	if len(file.WiFiInterfaces) > 0 {
		c.WiFiInterfaces = file.WiFiInterfaces
	}
	if len(file.EthernetInterfaces) > 0 {
		c.EthernetInterfaces = file.EthernetInterfaces
	}
	if len(file.CellularInterfaces) > 0 {
		c.CellularInterfaces = file.CellularInterfaces
	}
	if file.CarrierName != "" {
		c.CarrierName = file.CarrierName
	}
	if file.FetchWiFiSSID != nil {
		c.FetchWiFiSSID = *file.FetchWiFiSSID
	}
	if file.JournalRetention > 0 {
		c.JournalRetention = file.JournalRetention
	}
	return nil
}

func fileDuration(key, raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("parse config: invalid %s %q", key, raw)
	}
	return value, nil
}

func getenv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func parseBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func parseInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func parseList(key string, fallback []string) []string {
	raw := getenv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
