// Package feed assembles the live feed: it drives the fetch orchestrator,
// classifies and deduplicates the result, snapshots per-region activity and
// publishes the outcome through the freshness cache.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/north-cloud/pulse/internal/activity"
	"github.com/north-cloud/pulse/internal/balance"
	"github.com/north-cloud/pulse/internal/catalog"
	"github.com/north-cloud/pulse/internal/classify"
	"github.com/north-cloud/pulse/internal/dedup"
	"github.com/north-cloud/pulse/internal/feedcache"
	"github.com/north-cloud/pulse/internal/fetch"
	"github.com/north-cloud/pulse/internal/logger"
	"github.com/north-cloud/pulse/internal/metrics"
	"github.com/north-cloud/pulse/internal/models"
)

const (
	// assemblyWindow is the widest window a request may ask for; entries are
	// assembled at this ceiling and narrowed per request, so every window
	// size shares one cache entry per region/tier key.
	assemblyWindow = 72 * time.Hour

	defaultBudget         = 45 * time.Second
	defaultActivityWindow = 6 * time.Hour
)

// Fetcher collects posts for a set of sources. Satisfied by
// fetch.Orchestrator.
type Fetcher interface {
	FetchAll(ctx context.Context, sources []*models.Source) fetch.Result
}

// Request selects a slice of the feed.
type Request struct {
	Region  string
	Tiers   []int
	Window  time.Duration
	Limit   int
	Since   time.Time
	Refresh bool
}

// Response is one served feed.
type Response struct {
	Posts       []models.Post                            `json:"posts"`
	Activity    map[string]models.RegionActivitySnapshot `json:"activity"`
	GeneratedAt time.Time                                `json:"generated_at"`
	TotalItems  int                                      `json:"total_items"`
	Region      string                                   `json:"region"`
	Tiers       []int                                    `json:"tiers"`
	WindowHours int                                      `json:"window_hours"`
	Cached      bool                                     `json:"cached"`
	Partial     bool                                     `json:"partial"`
}

// RegionSummary pairs a region with its last computed activity snapshot, if
// one exists.
type RegionSummary struct {
	Region   string                         `json:"region"`
	Activity *models.RegionActivitySnapshot `json:"activity,omitempty"`
}

// Service runs the assembly pipeline behind the cache.
type Service struct {
	catalog        *catalog.Catalog
	fetcher        Fetcher
	classifier     *classify.Classifier
	detector       *activity.Detector
	cache          *feedcache.Cache
	logger         logger.Logger
	metrics        *metrics.Metrics
	budget         time.Duration
	activityWindow time.Duration
	now            func() time.Time
}

// Option tweaks service construction.
type Option func(*Service)

// WithBudget bounds the wall clock of one assembly cycle.
func WithBudget(d time.Duration) Option {
	return func(s *Service) { s.budget = d }
}

// WithActivityWindow sets the window activity snapshots are computed over.
func WithActivityWindow(d time.Duration) Option {
	return func(s *Service) { s.activityWindow = d }
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the pipeline stages together.
func NewService(
	cat *catalog.Catalog,
	fetcher Fetcher,
	classifier *classify.Classifier,
	detector *activity.Detector,
	cache *feedcache.Cache,
	log logger.Logger,
	m *metrics.Metrics,
	opts ...Option,
) *Service {
	s := &Service{
		catalog:        cat,
		fetcher:        fetcher,
		classifier:     classifier,
		detector:       detector,
		cache:          cache,
		logger:         log,
		metrics:        m,
		budget:         defaultBudget,
		activityWindow: defaultActivityWindow,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve answers a feed request, consulting the cache first. A region-scoped
// request is synthesized from a fresh all-regions entry when one exists, so
// region drills never trigger their own fetch cycle while the broad entry is
// current.
func (s *Service) Serve(ctx context.Context, req Request) (*Response, error) {
	key := feedcache.NewKey(req.Region, req.Tiers)

	if req.Region != models.RegionAll && !req.Refresh {
		broad := feedcache.NewKey(models.RegionAll, req.Tiers)
		if entry, fresh := s.cache.Lookup(broad); fresh {
			if s.metrics != nil {
				s.metrics.CacheHits.Inc()
			}
			return s.render(narrowToRegion(entry, req.Region), req, feedcache.Status{FromCache: true}), nil
		}
	}

	entry, status, err := s.cache.Serve(ctx, key, req.Refresh, func(fctx context.Context) (*feedcache.Entry, error) {
		return s.assemble(fctx, key)
	})
	if err != nil {
		return nil, err
	}
	return s.render(entry, req, status), nil
}

// assemble runs one full fetch cycle for a key.
func (s *Service) assemble(ctx context.Context, key feedcache.Key) (*feedcache.Entry, error) {
	started := s.now()
	ctx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	sources := s.catalog.Select(key.Region, key.Tiers())
	s.logger.Info("Starting assembly cycle",
		logger.String("cache_key", key.String()),
		logger.Int("sources", len(sources)),
	)

	result := s.fetcher.FetchAll(ctx, sources)

	now := s.now()
	posts := result.Posts
	err := runPure("classify", func() {
		for i := range posts {
			s.classifier.Classify(&posts[i])
		}
		posts = filterWindow(posts, now.Add(-assemblyWindow))
		posts = dedup.Process(posts)
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.CycleFailures.Inc()
		}
		return nil, err
	}

	snapshots := s.detector.Snapshot(s.catalog.Regions(), posts, s.activityWindow, now)

	if s.metrics != nil {
		s.metrics.CycleDuration.Observe(s.now().Sub(started).Seconds())
	}
	s.logger.Info("Assembly cycle complete",
		logger.String("cache_key", key.String()),
		logger.Int("posts", len(posts)),
		logger.Int("failed_sources", result.FailedSources),
		logger.Duration("elapsed", s.now().Sub(started)),
	)

	return &feedcache.Entry{
		Key:       key,
		Posts:     posts,
		Activity:  snapshots,
		Total:     len(posts),
		CreatedAt: now,
	}, nil
}

// render narrows a cache entry to the request's window, since-cursor and
// limit. TotalItems counts the filtered set before the limit is applied.
func (s *Service) render(entry *feedcache.Entry, req Request, status feedcache.Status) *Response {
	now := s.now()
	cutoff := now.Add(-req.Window)
	if !req.Since.IsZero() && req.Since.After(cutoff) {
		cutoff = req.Since
	}

	visible := filterWindow(entry.Posts, cutoff)
	posts := balance.Assemble(visible, req.Limit)

	return &Response{
		Posts:       posts,
		Activity:    entry.Activity,
		GeneratedAt: entry.CreatedAt,
		TotalItems:  len(visible),
		Region:      req.Region,
		Tiers:       feedcache.NewKey(req.Region, req.Tiers).Tiers(),
		WindowHours: int(req.Window.Hours()),
		Cached:      status.FromCache,
		Partial:     status.Stale,
	}
}

// Regions lists the catalog's regions with the latest activity snapshot
// known for each: the broadest cache entry when one exists, otherwise the
// most recent entry of any key. The fallback covers deployments whose
// callers only ever request a tier subset, so the all-tiers key never fills.
func (s *Service) Regions() []RegionSummary {
	var snapshots map[string]models.RegionActivitySnapshot
	broad := feedcache.NewKey(models.RegionAll, []int{models.TierMin, 2, models.TierMax})
	if entry, _ := s.cache.Lookup(broad); entry != nil {
		snapshots = entry.Activity
	} else if entry := s.cache.Latest(); entry != nil {
		snapshots = entry.Activity
	}

	regions := s.catalog.Regions()
	out := make([]RegionSummary, 0, len(regions))
	for _, region := range regions {
		summary := RegionSummary{Region: region}
		if snap, ok := snapshots[region]; ok {
			summary.Activity = &snap
		}
		out = append(out, summary)
	}
	return out
}

// WaitRefresh blocks until no background refresh is running for the given
// selection. Exposed for tests and the warm tool.
func (s *Service) WaitRefresh(region string, tiers []int) {
	s.cache.WaitRefresh(feedcache.NewKey(region, tiers))
}

// narrowToRegion derives a region-scoped entry from a broader one by
// in-memory filtering. The derived entry is never written back.
func narrowToRegion(entry *feedcache.Entry, region string) *feedcache.Entry {
	posts := make([]models.Post, 0, len(entry.Posts))
	for _, post := range entry.Posts {
		if post.Region == region {
			posts = append(posts, post)
		}
	}
	return &feedcache.Entry{
		Key:       feedcache.NewKey(region, entry.Key.Tiers()),
		Posts:     posts,
		Activity:  entry.Activity,
		Total:     len(posts),
		CreatedAt: entry.CreatedAt,
	}
}

func filterWindow(posts []models.Post, cutoff time.Time) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for _, post := range posts {
		if post.Published.After(cutoff) {
			out = append(out, post)
		}
	}
	return out
}

// runPure converts a panic in a synchronous pipeline stage into a cycle
// error instead of taking the process down.
func runPure(stage string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s stage failed: %v", stage, r)
		}
	}()
	fn()
	return nil
}
