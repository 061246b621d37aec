// Command gridlock-demo wires config, registry, deadlockgraph, and
// metrics together and exercises them against a handful of simulated
// owners, the way example_usage.go's ExampleUsage sequentially
// demonstrates each subsystem in turn.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"gridlock/config"
	"gridlock/deadlockgraph"
	"gridlock/internal/telemetry"
	"gridlock/metrics"
	"gridlock/registry"
)

var (
	// Version is set during build time.
	Version = "dev"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("gridlock-demo %s\n", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := telemetry.NewFromConfig(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("demo", "startup", "gridlock-demo starting", map[string]interface{}{
		"default_timeout": cfg.Lock.DefaultTimeout.String(),
	})

	stats := &metrics.GlobalStats{}
	reg := registry.New(nil, logger)

	archiver := metrics.NewSnapshotArchiver(stats, metrics.AlgorithmByName(cfg.Metrics.Compression),
		cfg.Metrics.OutputDir, cfg.Metrics.SnapshotInterval, logger)
	if err := archiver.Start(); err != nil {
		log.Fatalf("failed to start snapshot archiver: %v", err)
	}
	defer archiver.Stop()

	var scanner *deadlockgraph.Scanner
	if cfg.Deadlock.Enabled {
		scanner = deadlockgraph.New(reg, cfg.Deadlock.ScanInterval, logger)
		if err := scanner.Start(); err != nil {
			log.Fatalf("failed to start deadlock scanner: %v", err)
		}
		defer scanner.Stop()
	}

	runDemo(reg, stats, cfg.Lock.DefaultTimeout, logger)

	if err := archiver.ArchiveOnce(); err != nil {
		logger.Error("demo", "shutdown", "final snapshot failed", map[string]interface{}{"error": err.Error()})
	}
	logger.Info("demo", "shutdown", "gridlock-demo finished", nil)
}

// runDemo acquires and releases a small set of resources across a few
// simulated owners, recording outcomes into stats as it goes.
func runDemo(reg *registry.Registry, stats *metrics.GlobalStats, timeout time.Duration, logger *telemetry.Logger) {
	type job struct {
		key   string
		owner string
	}
	jobs := []job{
		{"orders:42", "worker-1"},
		{"orders:42", "worker-2"},
		{"inventory:7", "worker-1"},
	}

	for _, j := range jobs {
		stats.RecordAcquireCall()
		start := time.Now()

		req, err := reg.Acquire(j.key, j.owner, timeout)
		if err != nil {
			logger.Error("demo", "acquire", "acquire failed", map[string]interface{}{"key": j.key, "error": err.Error()})
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout+time.Second)
		err = req.Wait(ctx)
		cancel()

		waited := time.Since(start)
		switch err {
		case nil:
			stats.RecordOutcome(waited, true, false, false)
			logger.Info("demo", "acquire", "lock acquired", map[string]interface{}{"key": j.key, "owner": j.owner})
		default:
			stats.RecordOutcome(waited, false, true, false)
			logger.Warn("demo", "acquire", "acquire did not succeed", map[string]interface{}{"key": j.key, "owner": j.owner, "error": err.Error()})
			continue
		}

		if err := reg.Release(j.key, j.owner); err != nil {
			logger.Error("demo", "release", "release failed", map[string]interface{}{"key": j.key, "error": err.Error()})
			continue
		}
		stats.RecordRelease()
	}
}
