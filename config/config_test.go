package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig should validate cleanly: %v", err)
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gridlock.yaml")
	yaml := []byte(`
lock:
  default_timeout: 2s
  queue_warn_depth: 10
deadlock:
  enabled: false
  scan_interval: 1s
metrics:
  snapshot_interval: 15s
  compression: lz4
  output_dir: /tmp/gridlock
logging:
  level: debug
  format: text
`)
	if err := os.WriteFile(path, yaml, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := DefaultConfig()
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.Lock.DefaultTimeout != 2*time.Second {
		t.Fatalf("Lock.DefaultTimeout = %v, want 2s", c.Lock.DefaultTimeout)
	}
	if c.Deadlock.Enabled {
		t.Fatal("Deadlock.Enabled = true, want false")
	}
	if c.Metrics.Compression != "lz4" {
		t.Fatalf("Metrics.Compression = %q, want lz4", c.Metrics.Compression)
	}
	if c.Logging.Format != "text" {
		t.Fatalf("Logging.Format = %q, want text", c.Logging.Format)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadFromFileMissingPathErrors(t *testing.T) {
	c := DefaultConfig()
	if err := c.LoadFromFile("/no/such/file.yaml"); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestLoadFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("GRIDLOCK_DEFAULT_TIMEOUT", "3s")
	t.Setenv("GRIDLOCK_QUEUE_WARN_DEPTH", "5")
	t.Setenv("GRIDLOCK_METRICS_COMPRESSION", "snappy")
	t.Setenv("GRIDLOCK_LOG_LEVEL", "warn")

	c := DefaultConfig()
	if err := c.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if c.Lock.DefaultTimeout != 3*time.Second {
		t.Fatalf("Lock.DefaultTimeout = %v, want 3s", c.Lock.DefaultTimeout)
	}
	if c.Lock.QueueWarnDepth != 5 {
		t.Fatalf("Lock.QueueWarnDepth = %d, want 5", c.Lock.QueueWarnDepth)
	}
	if c.Metrics.Compression != "snappy" {
		t.Fatalf("Metrics.Compression = %q, want snappy", c.Metrics.Compression)
	}
	if c.Logging.Level != "warn" {
		t.Fatalf("Logging.Level = %q, want warn", c.Logging.Level)
	}
}

func TestValidateRejectsUnknownCompression(t *testing.T) {
	c := DefaultConfig()
	c.Metrics.Compression = "bogus"
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for an unknown compression algorithm")
	}
}

func TestValidateRejectsNonPositiveDurations(t *testing.T) {
	c := DefaultConfig()
	c.Lock.DefaultTimeout = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for a zero default timeout")
	}
}
