// Package bootstrap handles application initialization and lifecycle
// management for the pulse service.
package bootstrap

import (
	"fmt"

	"github.com/north-cloud/pulse/internal/logger"
)

const version = "dev"

// Start initializes and runs the service.
func Start() error {
	// Phase 1: Load config and create logger
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Phase 2: Build the pipeline (catalog, classifier, fetchers, cache)
	pipeline, err := BuildPipeline(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	// Phase 3: Run the HTTP server until shutdown
	log.Info("Starting HTTP server",
		logger.String("address", cfg.Server.Address),
		logger.Int("sources", pipeline.Catalog.Len()),
	)

	if runErr := RunServer(cfg, pipeline, log); runErr != nil {
		log.Error("Server error", logger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	log.Info("Server exited")
	return nil
}
