// Package fetch turns the source catalog into normalized posts. One adapter
// per platform family; the orchestrator schedules them under per-platform
// rate-limit profiles.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/north-cloud/pulse/internal/models"
)

// Adapter fetches one source and returns normalized posts. Adapters never
// surface ordinary provider errors as panics; a failed fetch is an error
// return the orchestrator converts to zero posts.
type Adapter interface {
	Platform() models.Platform
	Fetch(ctx context.Context, src *models.Source) ([]models.Post, error)
}

// Profile tunes a platform family's scheduling to its rate-limit tolerance.
type Profile struct {
	// BatchSize is how many sources are fetched concurrently per batch.
	BatchSize int
	// BatchDelay separates consecutive batches of the same platform.
	BatchDelay time.Duration
	// Timeout bounds each individual source fetch.
	Timeout time.Duration
}

// DefaultProfiles maps each platform family to its scheduling profile.
// Platforms with strict per-minute quotas get narrow batches and long
// delays; generous APIs get wide batches and short delays.
func DefaultProfiles() map[models.Platform]Profile {
	return map[models.Platform]Profile{
		models.PlatformRSS:      {BatchSize: 10, BatchDelay: 200 * time.Millisecond, Timeout: 10 * time.Second},
		models.PlatformYouTube:  {BatchSize: 5, BatchDelay: 500 * time.Millisecond, Timeout: 10 * time.Second},
		models.PlatformForum:    {BatchSize: 5, BatchDelay: time.Second, Timeout: 10 * time.Second},
		models.PlatformMastodon: {BatchSize: 5, BatchDelay: 500 * time.Millisecond, Timeout: 10 * time.Second},
		models.PlatformTelegram: {BatchSize: 3, BatchDelay: time.Second, Timeout: 15 * time.Second},
		models.PlatformTwitter:  {BatchSize: 2, BatchDelay: 2 * time.Second, Timeout: 10 * time.Second},
	}
}

// userAgent identifies the pipeline to providers.
const userAgent = "Mozilla/5.0 (compatible; Pulse/1.0; +https://github.com/north-cloud/pulse)"

// maxResponseBytes caps how much of a provider response is read.
const maxResponseBytes = 4 << 20

// defaultClient is shared by adapters that don't need special transport
// settings. Per-fetch deadlines come from the orchestrator's context.
func defaultClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// get issues a GET with the pipeline user agent and returns the body,
// converting non-2xx statuses to errors.
func get(ctx context.Context, client *http.Client, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	for key, values := range header {
		for _, v := range values {
			req.Header.Set(key, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
