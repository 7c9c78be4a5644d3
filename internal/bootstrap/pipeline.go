package bootstrap

import (
	"fmt"

	"github.com/north-cloud/pulse/internal/activity"
	"github.com/north-cloud/pulse/internal/briefing"
	"github.com/north-cloud/pulse/internal/catalog"
	"github.com/north-cloud/pulse/internal/classify"
	"github.com/north-cloud/pulse/internal/config"
	"github.com/north-cloud/pulse/internal/feed"
	"github.com/north-cloud/pulse/internal/feedcache"
	"github.com/north-cloud/pulse/internal/fetch"
	"github.com/north-cloud/pulse/internal/logger"
	"github.com/north-cloud/pulse/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline bundles the assembled components the server needs.
type Pipeline struct {
	Catalog  *catalog.Catalog
	Service  *feed.Service
	Briefing *briefing.Client
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
}

// BuildPipeline constructs every pipeline stage from configuration.
func BuildPipeline(cfg *config.Config, log logger.Logger) (*Pipeline, error) {
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	classifier, err := buildClassifier(cfg)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	orchestrator := fetch.NewDefaultOrchestrator(cfg.Social.BearerToken, log, m)
	detector := activity.NewDetector(cfg.Feed.Baselines, log)
	cache := feedcache.New(cfg.Cache.TTL, cfg.Cache.RefreshBudget, log, feedcache.WithMetrics(m))

	svc := feed.NewService(cat, orchestrator, classifier, detector, cache, log, m,
		feed.WithBudget(cfg.Feed.FetchBudget),
		feed.WithActivityWindow(cfg.Feed.ActivityWindow),
	)

	var briefClient *briefing.Client
	if cfg.Briefing.Endpoint != "" {
		briefClient = briefing.NewClient(
			cfg.Briefing.Endpoint, cfg.Briefing.Token,
			cfg.Briefing.Timeout, cfg.Briefing.MaxPosts, log,
		)
	}

	return &Pipeline{
		Catalog:  cat,
		Service:  svc,
		Briefing: briefClient,
		Metrics:  m,
		Registry: registry,
	}, nil
}

func buildClassifier(cfg *config.Config) (*classify.Classifier, error) {
	if cfg.Catalog.PatternsPath == "" {
		return classify.NewDefault(), nil
	}
	order, patterns, urgency, err := classify.LoadPatterns(cfg.Catalog.PatternsPath)
	if err != nil {
		return nil, fmt.Errorf("load patterns: %w", err)
	}
	classifier, err := classify.New(order, patterns, urgency)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}
	return classifier, nil
}
