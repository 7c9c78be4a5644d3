// Package briefing talks to an external analysis endpoint that condenses a
// slice of the feed into a short situation summary. It is a read-only
// collaborator: it consumes assembled posts and never touches feed state.
package briefing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/north-cloud/pulse/internal/logger"
	"github.com/north-cloud/pulse/internal/models"
)

// ErrDisabled is returned when no analysis endpoint is configured.
var ErrDisabled = errors.New("briefing: no analysis endpoint configured")

const (
	defaultMaxPosts = 40
	defaultTimeout  = 20 * time.Second

	maxResponseBytes = 1 << 20
)

// Client posts feed excerpts to the analysis endpoint.
type Client struct {
	endpoint string
	token    string
	maxPosts int
	http     *http.Client
	logger   logger.Logger
}

// NewClient builds a briefing client. endpoint may be empty, in which case
// Generate reports ErrDisabled. timeout and maxPosts fall back to defaults
// when zero.
func NewClient(endpoint, token string, timeout time.Duration, maxPosts int, log logger.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxPosts <= 0 {
		maxPosts = defaultMaxPosts
	}
	return &Client{
		endpoint: endpoint,
		token:    token,
		maxPosts: maxPosts,
		http:     &http.Client{Timeout: timeout},
		logger:   log,
	}
}

type briefingItem struct {
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Source    string    `json:"source"`
	Region    string    `json:"region"`
	Urgency   string    `json:"urgency"`
	Published time.Time `json:"published"`
}

type briefingRequest struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Items       []briefingItem `json:"items"`
}

type briefingResponse struct {
	Briefing string `json:"briefing"`
}

// Generate sends the most recent posts to the analysis endpoint and returns
// its free-text summary. Input order does not matter; at most the configured
// number of newest posts is sent.
func (c *Client) Generate(ctx context.Context, posts []models.Post, generatedAt time.Time) (string, error) {
	if c.endpoint == "" {
		return "", ErrDisabled
	}

	payload := briefingRequest{
		GeneratedAt: generatedAt,
		Items:       c.selectItems(posts),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("briefing: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("briefing: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("briefing: calling analysis endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("briefing: analysis endpoint returned %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("briefing: reading response: %w", err)
	}

	var out briefingResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("briefing: decoding response: %w", err)
	}
	if out.Briefing == "" {
		return "", errors.New("briefing: analysis endpoint returned an empty summary")
	}

	c.logger.Debug("Briefing generated",
		logger.Int("items_sent", len(payload.Items)),
		logger.Int("summary_bytes", len(out.Briefing)),
	)
	return out.Briefing, nil
}

// selectItems picks the newest posts up to the configured bound and strips
// them down to plain text fields.
func (c *Client) selectItems(posts []models.Post) []briefingItem {
	sorted := make([]models.Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Published.After(sorted[j].Published)
	})
	if len(sorted) > c.maxPosts {
		sorted = sorted[:c.maxPosts]
	}

	items := make([]briefingItem, 0, len(sorted))
	for _, post := range sorted {
		item := briefingItem{
			Title:     post.Title,
			Body:      post.Body,
			Region:    post.Region,
			Urgency:   post.Urgency.String(),
			Published: post.Published,
		}
		if post.Source != nil {
			item.Source = post.Source.Name
		}
		items = append(items, item)
	}
	return items
}
