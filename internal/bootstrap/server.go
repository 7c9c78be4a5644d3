package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/north-cloud/pulse/internal/api"
	"github.com/north-cloud/pulse/internal/config"
	"github.com/north-cloud/pulse/internal/handlers"
	"github.com/north-cloud/pulse/internal/logger"
)

const shutdownGrace = 10 * time.Second

// RunServer serves the API until SIGINT/SIGTERM, then drains in-flight
// requests.
func RunServer(cfg *config.Config, pipeline *Pipeline, log logger.Logger) error {
	var quota *api.Quota
	if cfg.Quota.Enabled {
		quota = api.NewQuota(cfg.Quota.PerMinute, cfg.Quota.Burst, pipeline.Metrics)
	}

	routerCfg := api.RouterConfig{
		Feed:    pipeline.Service,
		Regions: pipeline.Catalog.Regions(),
		Defaults: handlers.Defaults{
			WindowHours: cfg.Feed.WindowHours,
			Limit:       cfg.Feed.Limit,
		},
		Quota:    quota,
		CORS:     cfg.Server.CORSOrigins,
		Gatherer: pipeline.Registry,
		Logger:   log,
	}
	if pipeline.Briefing != nil {
		routerCfg.Briefing = pipeline.Briefing
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewRouter(routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutdown signal received, draining")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
