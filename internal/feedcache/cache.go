// Package feedcache holds the last successfully assembled feed per cache key
// under an age-based freshness contract. Entries move Empty -> Fresh ->
// Stale; a stale entry keeps serving while exactly one background refresh
// replaces it.
package feedcache

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/north-cloud/pulse/internal/logger"
	"github.com/north-cloud/pulse/internal/metrics"
	"github.com/north-cloud/pulse/internal/models"
)

// Key identifies one cached feed: a region selector plus the sorted set of
// fetch tiers it covers.
type Key struct {
	Region string
	tiers  string
}

// NewKey canonicalizes the tier set so equivalent requests share an entry.
func NewKey(region string, tiers []int) Key {
	uniq := make(map[int]bool, len(tiers))
	for _, t := range tiers {
		uniq[t] = true
	}
	sorted := make([]int, 0, len(uniq))
	for t := range uniq {
		sorted = append(sorted, t)
	}
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, t := range sorted {
		parts[i] = strconv.Itoa(t)
	}
	return Key{Region: region, tiers: strings.Join(parts, ",")}
}

// Tiers returns the canonical tier set.
func (k Key) Tiers() []int {
	if k.tiers == "" {
		return nil
	}
	parts := strings.Split(k.tiers, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		if v, err := strconv.Atoi(p); err == nil {
			out = append(out, v)
		}
	}
	return out
}

func (k Key) String() string {
	return k.Region + "|" + k.tiers
}

// Entry is one assembled feed snapshot. Entries are replaced whole, never
// mutated, so a reader can never observe a partial write.
type Entry struct {
	Key       Key
	Posts     []models.Post
	Activity  map[string]models.RegionActivitySnapshot
	Total     int
	CreatedAt time.Time
}

// Age reports how old the entry is.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// FetchFunc assembles a fresh entry from origin sources.
type FetchFunc func(ctx context.Context) (*Entry, error)

// Status describes how a Serve call was satisfied.
type Status struct {
	FromCache  bool
	Stale      bool
	Refreshing bool
}

type flight struct {
	done  chan struct{}
	entry *Entry
	err   error
}

// Cache is the process-wide feed store. The entry map and the in-flight
// registry are the only mutable shared state in the pipeline; both are
// mutated by whole-value replacement under one mutex.
type Cache struct {
	mu            sync.Mutex
	entries       map[string]*Entry
	inflight      map[string]*flight
	ttl           time.Duration
	refreshBudget time.Duration
	now           func() time.Time
	logger        logger.Logger
	metrics       *metrics.Metrics
}

// Option tweaks cache construction.
type Option func(*Cache)

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMetrics attaches cache counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates a cache. ttl is the freshness window; refreshBudget bounds a
// background refresh detached from any caller's deadline.
func New(ttl, refreshBudget time.Duration, log logger.Logger, opts ...Option) *Cache {
	c := &Cache{
		entries:       make(map[string]*Entry),
		inflight:      make(map[string]*flight),
		ttl:           ttl,
		refreshBudget: refreshBudget,
		now:           time.Now,
		logger:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns the current entry for a key and whether it is fresh.
func (c *Cache) Lookup(key Key) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key.String()]
	if !ok {
		return nil, false
	}
	return entry, entry.Age(c.now()) < c.ttl
}

// Serve satisfies a read against the key's state machine:
//
//   - Fresh entry: returned immediately.
//   - Stale entry: returned immediately; at most one background refresh is
//     started and tracked in the in-flight registry.
//   - No entry: the caller waits on a synchronous fetch; concurrent callers
//     for the same key share the single pending result.
//
// force skips the fresh-serve shortcut but still shares in-flight work. On
// fetch failure any existing entry is served stale rather than erroring.
func (c *Cache) Serve(ctx context.Context, key Key, force bool, fn FetchFunc) (*Entry, Status, error) {
	ks := key.String()

	c.mu.Lock()
	entry := c.entries[ks]
	now := c.now()

	if entry != nil && !force {
		if entry.Age(now) < c.ttl {
			c.mu.Unlock()
			if c.metrics != nil {
				c.metrics.CacheHits.Inc()
			}
			return entry, Status{FromCache: true}, nil
		}

		// Stale: hand back what we have and refresh behind the caller.
		refreshing := false
		if _, running := c.inflight[ks]; !running {
			f := &flight{done: make(chan struct{})}
			c.inflight[ks] = f
			refreshing = true
			go c.refresh(ks, f, fn)
		}
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.CacheStale.Inc()
		}
		return entry, Status{FromCache: true, Stale: true, Refreshing: refreshing}, nil
	}

	// Empty (or forced): share any pending fetch, otherwise run one.
	if f, running := c.inflight[ks]; running {
		c.mu.Unlock()
		select {
		case <-f.done:
			if f.err != nil {
				return c.fallback(ks, f.err)
			}
			return f.entry, Status{}, nil
		case <-ctx.Done():
			return c.fallback(ks, ctx.Err())
		}
	}

	f := &flight{done: make(chan struct{})}
	c.inflight[ks] = f
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}

	f.entry, f.err = fn(ctx)

	c.mu.Lock()
	if f.err == nil {
		c.entries[ks] = f.entry
	}
	delete(c.inflight, ks)
	c.mu.Unlock()
	close(f.done)

	if f.err != nil {
		return c.fallback(ks, f.err)
	}
	return f.entry, Status{}, nil
}

// refresh replaces a stale entry in the background. The refresh runs under
// its own budget, detached from any caller deadline; a failure is logged
// and the stale entry keeps serving.
func (c *Cache) refresh(ks string, f *flight, fn FetchFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), c.refreshBudget)
	defer cancel()

	f.entry, f.err = fn(ctx)

	c.mu.Lock()
	if f.err == nil {
		c.entries[ks] = f.entry
	}
	delete(c.inflight, ks)
	c.mu.Unlock()
	close(f.done)

	if f.err != nil && c.logger != nil {
		c.logger.Warn("Background refresh failed, stale entry retained",
			logger.String("cache_key", ks),
			logger.Error(f.err),
		)
	}
}

// fallback serves whatever entry exists for the key after a failed fetch.
func (c *Cache) fallback(ks string, cause error) (*Entry, Status, error) {
	c.mu.Lock()
	entry := c.entries[ks]
	c.mu.Unlock()
	if entry != nil {
		return entry, Status{FromCache: true, Stale: true}, nil
	}
	return nil, Status{}, cause
}

// WaitRefresh blocks until no refresh is in flight for the key. Tests use
// it to await background work deterministically.
func (c *Cache) WaitRefresh(key Key) {
	for {
		c.mu.Lock()
		f := c.inflight[key.String()]
		c.mu.Unlock()
		if f == nil {
			return
		}
		<-f.done
	}
}

// Latest returns the most recently assembled entry across all keys, or nil
// when the cache is empty.
func (c *Cache) Latest() *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	var latest *Entry
	for _, entry := range c.entries {
		if latest == nil || entry.CreatedAt.After(latest.CreatedAt) {
			latest = entry
		}
	}
	return latest
}

// Len reports how many entries the cache holds.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
