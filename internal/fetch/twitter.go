package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/north-cloud/pulse/internal/models"
)

// twitterTitleLen is how much of a status becomes the post title.
const twitterTitleLen = 120

// TwitterAdapter reads a social-graph search endpoint (v2-style JSON) with
// bearer-token auth. The endpoint including its query lives on the source.
type TwitterAdapter struct {
	client *http.Client
	token  string
}

func NewTwitterAdapter(token string) *TwitterAdapter {
	return &TwitterAdapter{client: defaultClient(), token: token}
}

func (a *TwitterAdapter) Platform() models.Platform {
	return models.PlatformTwitter
}

type twitterResponse struct {
	Data []struct {
		ID               string    `json:"id"`
		Text             string    `json:"text"`
		CreatedAt        time.Time `json:"created_at"`
		InReplyToUserID  string    `json:"in_reply_to_user_id"`
		ReferencedTweets []struct {
			Type string `json:"type"`
			ID   string `json:"id"`
		} `json:"referenced_tweets"`
	} `json:"data"`
}

func (a *TwitterAdapter) Fetch(ctx context.Context, src *models.Source) ([]models.Post, error) {
	if a.token == "" {
		return nil, fmt.Errorf("social-graph token not configured")
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+a.token)

	body, err := get(ctx, a.client, src.Endpoint, header)
	if err != nil {
		return nil, err
	}

	var resp twitterResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse search response %s: %w", src.Endpoint, err)
	}

	posts := make([]models.Post, 0, len(resp.Data))
	for _, status := range resp.Data {
		if status.Text == "" {
			continue
		}

		published := status.CreatedAt.UTC()
		if published.IsZero() {
			published = time.Now().UTC()
		}

		replyTo := ""
		for _, ref := range status.ReferencedTweets {
			if ref.Type == "replied_to" || ref.Type == "retweeted" {
				replyTo = models.PostID(src.ID, "status-"+ref.ID)
				break
			}
		}

		posts = append(posts, models.Post{
			ID:        models.PostID(src.ID, "status-"+status.ID),
			Title:     truncate(status.Text, twitterTitleLen),
			Body:      status.Text,
			Source:    src,
			Published: published,
			URL:       "https://x.com/i/status/" + status.ID,
			ReplyTo:   replyTo,
		})
	}
	return posts, nil
}
