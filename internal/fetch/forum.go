package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/north-cloud/pulse/internal/models"
)

// forumMaxItems bounds how many listing entries one forum contributes.
const forumMaxItems = 25

// ForumAdapter reads a Reddit-style JSON listing endpoint.
type ForumAdapter struct {
	client *http.Client
}

func NewForumAdapter() *ForumAdapter {
	return &ForumAdapter{client: defaultClient()}
}

func (a *ForumAdapter) Platform() models.Platform {
	return models.PlatformForum
}

type forumListing struct {
	Data struct {
		Children []struct {
			Data forumPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type forumPost struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	SelfText   string  `json:"selftext"`
	Permalink  string  `json:"permalink"`
	URL        string  `json:"url"`
	Thumbnail  string  `json:"thumbnail"`
	CreatedUTC float64 `json:"created_utc"`
}

func (a *ForumAdapter) Fetch(ctx context.Context, src *models.Source) ([]models.Post, error) {
	body, err := get(ctx, a.client, src.Endpoint, nil)
	if err != nil {
		return nil, err
	}

	var listing forumListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("parse forum listing %s: %w", src.Endpoint, err)
	}

	posts := make([]models.Post, 0, len(listing.Data.Children))
	for i, child := range listing.Data.Children {
		if i >= forumMaxItems {
			break
		}
		item := child.Data
		if item.Title == "" {
			continue
		}

		link := item.Permalink
		if link != "" {
			link = "https://www.reddit.com" + link
		} else {
			link = item.URL
		}
		ref := link
		if ref == "" {
			ref = item.Title
		}

		published := time.Now().UTC()
		if item.CreatedUTC > 0 {
			published = time.Unix(int64(item.CreatedUTC), 0).UTC()
		}

		var media []string
		if item.Thumbnail != "" && item.Thumbnail != "self" && item.Thumbnail != "default" {
			media = append(media, item.Thumbnail)
		}

		posts = append(posts, models.Post{
			ID:        models.PostID(src.ID, ref),
			Title:     item.Title,
			Body:      item.SelfText,
			Source:    src,
			Published: published,
			URL:       link,
			Media:     media,
		})
	}
	return posts, nil
}
