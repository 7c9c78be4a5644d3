package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/north-cloud/pulse/internal/logger"
	"github.com/north-cloud/pulse/internal/metrics"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-ID"

// requestID tags every request with an id for log correlation, honoring an
// id the caller already set.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		log.Info("HTTP request",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status_code", c.Writer.Status()),
			logger.String("client_ip", c.ClientIP()),
			logger.String("request_id", c.GetString("request_id")),
			logger.Duration("duration", time.Since(start)),
		)
	}
}

// Quota enforces a per-caller token bucket over a rolling minute. Limiters
// are keyed by client IP; idle entries are swept so the map stays bounded.
type Quota struct {
	mu        sync.Mutex
	callers   map[string]*quotaEntry
	perMinute int
	burst     int
	now       func() time.Time
	metrics   *metrics.Metrics
}

type quotaEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const quotaIdleTTL = 10 * time.Minute

// NewQuota builds the inbound quota. perMinute requests refill per caller
// over a rolling minute, with the given burst headroom.
func NewQuota(perMinute, burst int, m *metrics.Metrics) *Quota {
	if burst < 1 {
		burst = 1
	}
	return &Quota{
		callers:   make(map[string]*quotaEntry),
		perMinute: perMinute,
		burst:     burst,
		now:       time.Now,
		metrics:   m,
	}
}

// Middleware rejects over-quota callers with 429 before any pipeline work
// happens. The response body is distinct from feed errors so clients can
// tell throttling from upstream failure.
func (q *Quota) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !q.allow(c.ClientIP()) {
			if q.metrics != nil {
				q.metrics.RateLimited.Inc()
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": "60s",
			})
			return
		}
		c.Next()
	}
}

func (q *Quota) allow(caller string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	entry, ok := q.callers[caller]
	if !ok {
		entry = &quotaEntry{
			limiter: rate.NewLimiter(rate.Limit(float64(q.perMinute)/60.0), q.burst),
		}
		q.callers[caller] = entry
		q.sweep(now)
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

// sweep drops limiters that have been idle past the TTL. Called with the
// lock held, amortized over new-caller arrivals.
func (q *Quota) sweep(now time.Time) {
	for caller, entry := range q.callers {
		if now.Sub(entry.lastSeen) > quotaIdleTTL {
			delete(q.callers, caller)
		}
	}
}
