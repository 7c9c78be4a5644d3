package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/north-cloud/pulse/internal/logger"
	"github.com/north-cloud/pulse/internal/metrics"
	"github.com/north-cloud/pulse/internal/models"
)

// Result is the union of normalized posts reachable within the budget plus
// partial-failure information. Failures are observability data only; they
// are not retried within the cycle.
type Result struct {
	Posts         []models.Post
	FailedSources int
}

// Orchestrator partitions a source set by platform family and runs each
// family's batches under its scheduling profile. Families run concurrently
// with each other; batches within a family run sequentially with the
// configured delay between them.
type Orchestrator struct {
	adapters map[models.Platform]Adapter
	profiles map[models.Platform]Profile
	logger   logger.Logger
	metrics  *metrics.Metrics
}

// NewOrchestrator wires the given adapters under the default profiles.
func NewOrchestrator(adapters []Adapter, log logger.Logger, m *metrics.Metrics) *Orchestrator {
	byPlatform := make(map[models.Platform]Adapter, len(adapters))
	for _, a := range adapters {
		byPlatform[a.Platform()] = a
	}
	return &Orchestrator{
		adapters: byPlatform,
		profiles: DefaultProfiles(),
		logger:   log,
		metrics:  m,
	}
}

// NewDefaultOrchestrator builds an orchestrator with every production
// adapter registered. Token may be empty when no social-graph sources are
// configured.
func NewDefaultOrchestrator(socialToken string, log logger.Logger, m *metrics.Metrics) *Orchestrator {
	return NewOrchestrator([]Adapter{
		NewRSSAdapter(),
		NewYouTubeAdapter(),
		NewTelegramAdapter(),
		NewForumAdapter(),
		NewTwitterAdapter(socialToken),
		NewMastodonAdapter(),
	}, log, m)
}

// FetchAll collects normalized posts from every reachable source, tolerating
// individual failures. A source with no registered adapter counts as failed.
func (o *Orchestrator) FetchAll(ctx context.Context, sources []*models.Source) Result {
	partitions := make(map[models.Platform][]*models.Source)
	for _, src := range sources {
		partitions[src.Platform] = append(partitions[src.Platform], src)
	}

	var (
		mu     sync.Mutex
		result Result
	)

	g, ctx := errgroup.WithContext(ctx)
	for platform, batch := range partitions {
		g.Go(func() error {
			posts, failed := o.fetchPlatform(ctx, platform, batch)
			mu.Lock()
			result.Posts = append(result.Posts, posts...)
			result.FailedSources += failed
			mu.Unlock()
			// Partition-level degradation is recovered locally; never
			// abort sibling platforms.
			return nil
		})
	}
	_ = g.Wait()

	if o.logger != nil {
		o.logger.Info("Fetch cycle complete",
			logger.Int("sources", len(sources)),
			logger.Int("posts", len(result.Posts)),
			logger.Int("failed_sources", result.FailedSources),
		)
	}
	return result
}

// fetchPlatform runs one platform family's sources in sequential batches.
func (o *Orchestrator) fetchPlatform(ctx context.Context, platform models.Platform, sources []*models.Source) ([]models.Post, int) {
	adapter, ok := o.adapters[platform]
	if !ok {
		if o.logger != nil {
			o.logger.Warn("No adapter registered for platform",
				logger.String("platform", string(platform)),
				logger.Int("sources", len(sources)),
			)
		}
		return nil, len(sources)
	}

	profile, ok := o.profiles[platform]
	if !ok {
		profile = Profile{BatchSize: 5, BatchDelay: time.Second, Timeout: 10 * time.Second}
	}

	var (
		mu     sync.Mutex
		posts  []models.Post
		failed int
	)

	for start := 0; start < len(sources); start += profile.BatchSize {
		if ctx.Err() != nil {
			failed += len(sources) - start
			break
		}

		end := start + profile.BatchSize
		if end > len(sources) {
			end = len(sources)
		}

		var wg sync.WaitGroup
		for _, src := range sources[start:end] {
			wg.Add(1)
			go func() {
				defer wg.Done()

				fetchCtx, cancel := context.WithTimeout(ctx, profile.Timeout)
				defer cancel()

				began := time.Now()
				fetched, err := adapter.Fetch(fetchCtx, src)
				if o.metrics != nil {
					o.metrics.FetchDuration.WithLabelValues(string(platform)).Observe(time.Since(began).Seconds())
				}
				if err != nil {
					if o.logger != nil {
						o.logger.Warn("Source fetch failed",
							logger.String("source_id", src.ID),
							logger.String("platform", string(platform)),
							logger.Error(err),
						)
					}
					if o.metrics != nil {
						o.metrics.FetchFailures.WithLabelValues(string(platform)).Inc()
					}
					mu.Lock()
					failed++
					mu.Unlock()
					return
				}

				if o.metrics != nil {
					o.metrics.PostsFetched.WithLabelValues(string(platform)).Add(float64(len(fetched)))
				}
				mu.Lock()
				posts = append(posts, fetched...)
				mu.Unlock()
			}()
		}
		wg.Wait()

		// Throttle between batches to respect aggregate platform limits.
		if end < len(sources) {
			select {
			case <-ctx.Done():
			case <-time.After(profile.BatchDelay):
			}
		}
	}

	return posts, failed
}
