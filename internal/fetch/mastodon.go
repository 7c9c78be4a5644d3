package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/north-cloud/pulse/internal/models"
)

// mastodonTitleLen is how much of a status becomes the post title.
const mastodonTitleLen = 120

// MastodonAdapter reads a federated-social statuses endpoint
// (/api/v1/accounts/:id/statuses style JSON).
type MastodonAdapter struct {
	client *http.Client
}

func NewMastodonAdapter() *MastodonAdapter {
	return &MastodonAdapter{client: defaultClient()}
}

func (a *MastodonAdapter) Platform() models.Platform {
	return models.PlatformMastodon
}

type mastodonStatus struct {
	ID               string    `json:"id"`
	Content          string    `json:"content"`
	CreatedAt        time.Time `json:"created_at"`
	URL              string    `json:"url"`
	InReplyToID      string    `json:"in_reply_to_id"`
	MediaAttachments []struct {
		URL string `json:"url"`
	} `json:"media_attachments"`
}

func (a *MastodonAdapter) Fetch(ctx context.Context, src *models.Source) ([]models.Post, error) {
	body, err := get(ctx, a.client, src.Endpoint, nil)
	if err != nil {
		return nil, err
	}

	var statuses []mastodonStatus
	if err := json.Unmarshal(body, &statuses); err != nil {
		return nil, fmt.Errorf("parse statuses %s: %w", src.Endpoint, err)
	}

	posts := make([]models.Post, 0, len(statuses))
	for _, status := range statuses {
		text := stripHTML(status.Content)
		if text == "" {
			continue
		}

		published := status.CreatedAt.UTC()
		if published.IsZero() {
			published = time.Now().UTC()
		}

		var media []string
		for _, att := range status.MediaAttachments {
			if att.URL != "" {
				media = append(media, att.URL)
			}
		}

		replyTo := ""
		if status.InReplyToID != "" {
			replyTo = models.PostID(src.ID, "status-"+status.InReplyToID)
		}

		posts = append(posts, models.Post{
			ID:        models.PostID(src.ID, "status-"+status.ID),
			Title:     truncate(text, mastodonTitleLen),
			Body:      text,
			Source:    src,
			Published: published,
			URL:       status.URL,
			Media:     media,
			ReplyTo:   replyTo,
		})
	}
	return posts, nil
}

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// stripHTML flattens markup into plain text for classification.
func stripHTML(s string) string {
	s = strings.ReplaceAll(s, "<br>", " ")
	s = strings.ReplaceAll(s, "<br/>", " ")
	s = strings.ReplaceAll(s, "</p>", " ")
	s = htmlTagRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
