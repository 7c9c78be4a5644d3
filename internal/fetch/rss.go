package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/north-cloud/pulse/internal/models"
)

// rssMaxItems bounds how many items one feed contributes per cycle.
const rssMaxItems = 25

// RSSAdapter normalizes syndication feeds (RSS and Atom).
type RSSAdapter struct {
	client *http.Client
}

func NewRSSAdapter() *RSSAdapter {
	return &RSSAdapter{client: defaultClient()}
}

func (a *RSSAdapter) Platform() models.Platform {
	return models.PlatformRSS
}

func (a *RSSAdapter) Fetch(ctx context.Context, src *models.Source) ([]models.Post, error) {
	body, err := get(ctx, a.client, src.Endpoint, nil)
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.Endpoint, err)
	}
	return mapFeedItems(feed, src), nil
}

// mapFeedItems converts gofeed items into posts. Shared with the video
// adapter, which also speaks Atom.
func mapFeedItems(feed *gofeed.Feed, src *models.Source) []models.Post {
	posts := make([]models.Post, 0, len(feed.Items))
	for i, item := range feed.Items {
		if i >= rssMaxItems {
			break
		}
		if item.Title == "" {
			continue
		}

		ref := item.Link
		if ref == "" {
			ref = item.Title
		}

		published := time.Now().UTC()
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			published = item.UpdatedParsed.UTC()
		}

		var media []string
		if item.Image != nil && item.Image.URL != "" {
			media = append(media, item.Image.URL)
		}
		for _, enc := range item.Enclosures {
			if enc != nil && enc.URL != "" {
				media = append(media, enc.URL)
			}
		}

		posts = append(posts, models.Post{
			ID:        models.PostID(src.ID, ref),
			Title:     item.Title,
			Body:      stripHTML(item.Description),
			Source:    src,
			Published: published,
			URL:       item.Link,
			Media:     media,
		})
	}
	return posts
}
