// Command warm runs a single assembly cycle and reports the outcome. Useful
// for priming the cache after a deploy and for checking source health from
// the shell.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/north-cloud/pulse/internal/bootstrap"
	"github.com/north-cloud/pulse/internal/config"
	"github.com/north-cloud/pulse/internal/feed"
	"github.com/north-cloud/pulse/internal/logger"
	"github.com/north-cloud/pulse/internal/models"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", os.Getenv("PULSE_CONFIG"), "Path to configuration file")
	region := flag.String("region", models.RegionAll, "Region selector to warm")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall cycle timeout")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	pipeline, err := bootstrap.BuildPipeline(cfg, log)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	started := time.Now()
	resp, err := pipeline.Service.Serve(ctx, feed.Request{
		Region:  *region,
		Tiers:   []int{models.TierMin, 2, models.TierMax},
		Window:  time.Duration(cfg.Feed.WindowHours) * time.Hour,
		Limit:   cfg.Feed.Limit,
		Refresh: true,
	})
	if err != nil {
		return fmt.Errorf("assembly cycle: %w", err)
	}

	fmt.Printf("warmed %s: %d posts (%d total) in %s\n",
		*region, len(resp.Posts), resp.TotalItems, time.Since(started).Round(time.Millisecond))
	for region, snap := range resp.Activity {
		if snap.Level != models.ActivityNormal {
			fmt.Printf("  %s activity %s (x%.1f)\n", region, snap.Level, snap.Multiplier)
		}
	}
	return nil
}
