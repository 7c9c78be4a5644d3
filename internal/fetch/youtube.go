package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/mmcdole/gofeed"

	"github.com/north-cloud/pulse/internal/models"
)

// youtubeFeedURL is the public Atom feed for a channel's uploads.
const youtubeFeedURL = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

// YouTubeAdapter reads a video channel's Atom feed. Channels are addressed
// by handle (the channel id) unless the source carries a full endpoint.
type YouTubeAdapter struct {
	client *http.Client
}

func NewYouTubeAdapter() *YouTubeAdapter {
	return &YouTubeAdapter{client: defaultClient()}
}

func (a *YouTubeAdapter) Platform() models.Platform {
	return models.PlatformYouTube
}

func (a *YouTubeAdapter) Fetch(ctx context.Context, src *models.Source) ([]models.Post, error) {
	endpoint := src.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf(youtubeFeedURL, src.Handle)
	}

	body, err := get(ctx, a.client, endpoint, nil)
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse channel feed %s: %w", endpoint, err)
	}
	return mapFeedItems(feed, src), nil
}
