package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Read-state storage drivers.
const (
	ReadStateSQLite = "sqlite"
	ReadStateRedis  = "redis"
	ReadStateMemory = "memory"
)

// DefaultReadStateKey is the storage key holding the JSON array of read
// notification ids.
const DefaultReadStateKey = "clubhub.notifications.read"

// BackendConfig holds connection settings for the club backend.
type BackendConfig struct {
	// BaseURL is the root URL of the backend RPC gateway.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP round trip.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// MaxRetries is how often a rate-limited call is retried.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// ReadStateConfig selects and configures the local read-state store.
type ReadStateConfig struct {
	Driver        string `mapstructure:"driver" yaml:"driver"`
	Path          string `mapstructure:"path" yaml:"path"`
	Key           string `mapstructure:"key" yaml:"key"`
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables it.
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend         BackendConfig   `mapstructure:"backend" yaml:"backend"`
	PollIntervalSec int             `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
	FetchTimeoutSec int             `mapstructure:"fetch_timeout_sec" yaml:"fetch_timeout_sec"`
	ReadState       ReadStateConfig `mapstructure:"read_state" yaml:"read_state"`
	Log             LogConfig       `mapstructure:"log" yaml:"log"`
	Metrics         MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Display         DisplayConfig   `mapstructure:"display" yaml:"display"`
}

// PollInterval returns the poll interval as a duration.
func (c *AppConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// FetchTimeout returns the per-poll timeout as a duration.
func (c *AppConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

// ConfigDir returns ~/.config/clubhub, falling back to the working
// directory when the home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "clubhub")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/clubhub/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// setDefaults registers every key so that env overrides and Unmarshal
// see them even when the file omits them.
func setDefaults(v *viper.Viper) {
	dir := ConfigDir()
	v.SetDefault("backend.base_url", "http://localhost:4943")
	v.SetDefault("backend.timeout_sec", 30)
	v.SetDefault("backend.max_retries", 3)
	v.SetDefault("poll_interval_sec", 30)
	v.SetDefault("fetch_timeout_sec", 30)
	v.SetDefault("read_state.driver", ReadStateSQLite)
	v.SetDefault("read_state.path", filepath.Join(dir, "state.db"))
	v.SetDefault("read_state.key", DefaultReadStateKey)
	v.SetDefault("read_state.redis_addr", "localhost:6379")
	v.SetDefault("read_state.redis_password", "")
	v.SetDefault("read_state.redis_db", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", filepath.Join(dir, "clubhub.log"))
	v.SetDefault("metrics.addr", "")
	v.SetDefault("display.theme", "default")
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with CLUBHUB_ override file values
// (e.g. CLUBHUB_BACKEND_BASE_URL). A missing file yields the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CLUBHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.PollIntervalSec <= 0 {
		return fmt.Errorf("poll_interval_sec must be positive, got %d", c.PollIntervalSec)
	}
	if c.FetchTimeoutSec <= 0 {
		return fmt.Errorf("fetch_timeout_sec must be positive, got %d", c.FetchTimeoutSec)
	}
	switch c.ReadState.Driver {
	case ReadStateSQLite, ReadStateRedis, ReadStateMemory:
	default:
		return fmt.Errorf("unknown read_state.driver %q", c.ReadState.Driver)
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("backend", cfg.Backend)
	v.Set("poll_interval_sec", cfg.PollIntervalSec)
	v.Set("fetch_timeout_sec", cfg.FetchTimeoutSec)
	v.Set("read_state", cfg.ReadState)
	v.Set("log", cfg.Log)
	v.Set("metrics", cfg.Metrics)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
