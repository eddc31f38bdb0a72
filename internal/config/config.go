package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. STRIDEDASH_STRAVA_CLIENT_ID -> strava.client_id.
const EnvPrefix = "STRIDEDASH_"

// ConfigPathEnvVar overrides the config file location when set.
const ConfigPathEnvVar = "STRIDEDASH_CONFIG"

// ErrNoConfig is returned when the config file doesn't exist.
var ErrNoConfig = errors.New("config file not found")

// Config represents the application configuration.
type Config struct {
	Strava StravaConfig `koanf:"strava"`
	Sync   SyncConfig   `koanf:"sync"`
	Log    LogConfig    `koanf:"log"`
}

// StravaConfig holds Strava API credentials.
type StravaConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
}

// SyncConfig holds sync tuning knobs.
type SyncConfig struct {
	// PageSize is the activities-per-page requested during sync.
	// The activity list endpoint caps this at 30, so larger values
	// are rejected at validation.
	PageSize int `koanf:"page_size"`
	// FreshnessWindow is how recent the newest stored activity must be
	// for an un-forced sync to be skipped.
	FreshnessWindow time.Duration `koanf:"freshness_window"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Sync: SyncConfig{
			PageSize:        30,
			FreshnessWindow: 5 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the configuration from ~/.stridedash/config.yaml, layered as
// defaults -> config file -> STRIDEDASH_* environment variables.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return loadFrom(path)
}

func loadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrNoConfig
	}

	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := k.Load(structs.Provider(&defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// envTransform maps STRIDEDASH_STRAVA_CLIENT_ID to strava.client_id.
// Only the first underscore separates the section from the key.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if section, key, found := strings.Cut(s, "_"); found {
		return section + "." + key
	}
	return s
}

const exampleConfig = `# stridedash configuration
# Get your Strava API credentials from https://www.strava.com/settings/api
strava:
  client_id: "YOUR_CLIENT_ID"
  client_secret: "YOUR_CLIENT_SECRET"

sync:
  # Activities per page during sync (API ceiling: 30).
  page_size: 30
  # Skip un-forced syncs when the newest stored activity is this recent.
  freshness_window: 5m

log:
  level: info
  format: console
`

// Save writes the configuration to the config file.
func Save(cfg *Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return fmt.Errorf("collecting config: %w", err)
	}
	data, err := yaml.Parser().Marshal(k.Raw())
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// CreateExample creates an example config file if none exists.
func CreateExample() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil // config exists, don't overwrite
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that required fields are present and sane.
func (c *Config) Validate() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}
	if c.Sync.PageSize < 1 || c.Sync.PageSize > 30 {
		return fmt.Errorf("sync.page_size must be between 1 and 30, got %d", c.Sync.PageSize)
	}
	if c.Sync.FreshnessWindow < 0 {
		return fmt.Errorf("sync.freshness_window must not be negative, got %v", c.Sync.FreshnessWindow)
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("log.format must be \"json\" or \"console\", got %q", c.Log.Format)
	}
	return nil
}

// configPath returns the path to the config file.
func configPath() (string, error) {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// GetConfigDir returns the path to the config directory.
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".stridedash"), nil
}
