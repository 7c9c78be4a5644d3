package bootstrap

import (
	"flag"
	"fmt"
	"os"

	"github.com/north-cloud/pulse/internal/config"
	"github.com/north-cloud/pulse/internal/logger"
)

// LoadConfig loads configuration. Uses the -config flag, falling back to the
// PULSE_CONFIG environment variable, then the default search paths.
func LoadConfig() (*config.Config, error) {
	configPath := flag.String("config", os.Getenv("PULSE_CONFIG"), "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// CreateLogger creates a logger instance from configuration.
func CreateLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		logger.String("service", "pulse"),
		logger.String("version", version),
	), nil
}
