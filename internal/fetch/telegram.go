package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/north-cloud/pulse/internal/models"
)

// telegramPreviewURL is the public web preview for a channel; it serves the
// newest ~20 messages without authentication.
const telegramPreviewURL = "https://t.me/s/%s"

// telegramTitleLen is how much of a message becomes the post title.
const telegramTitleLen = 120

// TelegramAdapter scrapes chat-channel web previews into posts.
type TelegramAdapter struct {
	client *http.Client
}

func NewTelegramAdapter() *TelegramAdapter {
	return &TelegramAdapter{client: defaultClient()}
}

func (a *TelegramAdapter) Platform() models.Platform {
	return models.PlatformTelegram
}

func (a *TelegramAdapter) Fetch(ctx context.Context, src *models.Source) ([]models.Post, error) {
	endpoint := src.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf(telegramPreviewURL, src.Handle)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse channel page: %w", err)
	}

	var posts []models.Post
	doc.Find(".tgme_widget_message").Each(func(_ int, sel *goquery.Selection) {
		ref, ok := sel.Attr("data-post") // "<handle>/<msgid>"
		if !ok || ref == "" {
			return
		}

		text := strings.TrimSpace(sel.Find(".tgme_widget_message_text").Text())
		if text == "" {
			// Media-only messages carry no classifiable text.
			return
		}

		published := time.Now().UTC()
		if stamp, found := sel.Find(".tgme_widget_message_date time").Attr("datetime"); found {
			if parsed, perr := time.Parse(time.RFC3339, stamp); perr == nil {
				published = parsed.UTC()
			}
		}

		var media []string
		sel.Find(".tgme_widget_message_photo_wrap").Each(func(_ int, photo *goquery.Selection) {
			if style, found := photo.Attr("style"); found {
				if url := extractBackgroundURL(style); url != "" {
					media = append(media, url)
				}
			}
		})

		replyTo := ""
		if replyRef, found := sel.Find(".tgme_widget_message_reply").Attr("href"); found {
			replyTo = models.PostID(src.ID, "telegram-"+pathToRef(replyRef))
		}

		posts = append(posts, models.Post{
			ID:        models.PostID(src.ID, "telegram-"+ref),
			Title:     truncate(text, telegramTitleLen),
			Body:      text,
			Source:    src,
			Published: published,
			URL:       "https://t.me/" + ref,
			Media:     media,
			ReplyTo:   replyTo,
		})
	})

	return posts, nil
}

// extractBackgroundURL pulls the url out of an inline background-image style.
func extractBackgroundURL(style string) string {
	start := strings.Index(style, "url('")
	if start < 0 {
		return ""
	}
	rest := style[start+len("url('"):]
	end := strings.Index(rest, "'")
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// pathToRef turns "https://t.me/<handle>/<msgid>" into "<handle>/<msgid>".
func pathToRef(href string) string {
	href = strings.TrimPrefix(href, "https://t.me/")
	return strings.TrimPrefix(href, "/")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
