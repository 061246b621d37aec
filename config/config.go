// Package config loads gridlock's runtime configuration: default
// acquire timeouts, the deadlock scanner's cadence, and the metrics
// archiver's snapshot interval and compression choice. Values come from
// a YAML file, then environment variables layered on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for a gridlock deployment.
type Config struct {
	Lock     LockConfig     `yaml:"lock"`
	Deadlock DeadlockConfig `yaml:"deadlock"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LockConfig holds defaults applied by callers of lock.Acquire.
type LockConfig struct {
	DefaultTimeout time.Duration `yaml:"default_timeout" env:"GRIDLOCK_DEFAULT_TIMEOUT"`
	QueueWarnDepth int           `yaml:"queue_warn_depth" env:"GRIDLOCK_QUEUE_WARN_DEPTH"`
}

// DeadlockConfig controls the background deadlock scanner.
type DeadlockConfig struct {
	Enabled      bool          `yaml:"enabled" env:"GRIDLOCK_DEADLOCK_ENABLED"`
	ScanInterval time.Duration `yaml:"scan_interval" env:"GRIDLOCK_DEADLOCK_SCAN_INTERVAL"`
}

// MetricsConfig controls the snapshot archiver.
type MetricsConfig struct {
	SnapshotInterval time.Duration `yaml:"snapshot_interval" env:"GRIDLOCK_METRICS_SNAPSHOT_INTERVAL"`
	Compression      string        `yaml:"compression" env:"GRIDLOCK_METRICS_COMPRESSION"`
	OutputDir        string        `yaml:"output_dir" env:"GRIDLOCK_METRICS_OUTPUT_DIR"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"GRIDLOCK_LOG_LEVEL"`
	Format string `yaml:"format" env:"GRIDLOCK_LOG_FORMAT"`
}

// DefaultConfig returns a Config with production-reasonable defaults.
func DefaultConfig() *Config {
	return &Config{
		Lock: LockConfig{
			DefaultTimeout: 10 * time.Second,
			QueueWarnDepth: 64,
		},
		Deadlock: DeadlockConfig{
			Enabled:      true,
			ScanInterval: 5 * time.Second,
		},
		Metrics: MetricsConfig{
			SnapshotInterval: 30 * time.Second,
			Compression:      "zstd",
			OutputDir:        "./gridlock-metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a YAML config file (if path is non-empty), applies
// environment overrides, validates the result, and returns it. An
// empty path yields DefaultConfig plus environment overrides.
func Load(path string) (*Config, error) {
	c := DefaultConfig()
	if err := c.LoadFromFile(path); err != nil {
		return nil, err
	}
	if err := c.LoadFromEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFromFile merges a YAML config file into c. A blank path is a
// no-op.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// LoadFromEnv applies environment-variable overrides, matching the
// `env` struct tags above.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("GRIDLOCK_DEFAULT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GRIDLOCK_DEFAULT_TIMEOUT: %w", err)
		}
		c.Lock.DefaultTimeout = d
	}
	if v := os.Getenv("GRIDLOCK_QUEUE_WARN_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GRIDLOCK_QUEUE_WARN_DEPTH: %w", err)
		}
		c.Lock.QueueWarnDepth = n
	}
	if v := os.Getenv("GRIDLOCK_DEADLOCK_ENABLED"); v != "" {
		c.Deadlock.Enabled = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("GRIDLOCK_DEADLOCK_SCAN_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GRIDLOCK_DEADLOCK_SCAN_INTERVAL: %w", err)
		}
		c.Deadlock.ScanInterval = d
	}
	if v := os.Getenv("GRIDLOCK_METRICS_SNAPSHOT_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GRIDLOCK_METRICS_SNAPSHOT_INTERVAL: %w", err)
		}
		c.Metrics.SnapshotInterval = d
	}
	if v := os.Getenv("GRIDLOCK_METRICS_COMPRESSION"); v != "" {
		c.Metrics.Compression = v
	}
	if v := os.Getenv("GRIDLOCK_METRICS_OUTPUT_DIR"); v != "" {
		c.Metrics.OutputDir = v
	}
	if v := os.Getenv("GRIDLOCK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GRIDLOCK_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	return nil
}

// Validate checks the configuration for internally-consistent values.
func (c *Config) Validate() error {
	if c.Lock.DefaultTimeout <= 0 {
		return fmt.Errorf("lock.default_timeout must be positive")
	}
	if c.Lock.QueueWarnDepth <= 0 {
		return fmt.Errorf("lock.queue_warn_depth must be positive")
	}
	if c.Deadlock.ScanInterval <= 0 {
		return fmt.Errorf("deadlock.scan_interval must be positive")
	}
	if c.Metrics.SnapshotInterval <= 0 {
		return fmt.Errorf("metrics.snapshot_interval must be positive")
	}
	switch c.Metrics.Compression {
	case "snappy", "zstd", "lz4", "none":
	default:
		return fmt.Errorf("metrics.compression must be one of snappy, zstd, lz4, none, got %q", c.Metrics.Compression)
	}
	return nil
}
