package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/north-cloud/pulse/internal/briefing"
	"github.com/north-cloud/pulse/internal/feed"
	"github.com/north-cloud/pulse/internal/logger"
	"github.com/north-cloud/pulse/internal/models"
)

// Summarizer condenses a feed excerpt into free text. Satisfied by
// briefing.Client.
type Summarizer interface {
	Generate(ctx context.Context, posts []models.Post, generatedAt time.Time) (string, error)
}

type BriefingHandler struct {
	svc      FeedService
	client   Summarizer
	defaults Defaults
	logger   logger.Logger
}

func NewBriefingHandler(svc FeedService, client Summarizer, defaults Defaults, log logger.Logger) *BriefingHandler {
	return &BriefingHandler{
		svc:      svc,
		client:   client,
		defaults: defaults,
		logger:   log,
	}
}

// Get produces a situation briefing from the current feed. It reads through
// the same cache as feed requests and never forces a refresh, so a failing
// analysis endpoint cannot disturb feed state.
func (h *BriefingHandler) Get(c *gin.Context) {
	resp, err := h.svc.Serve(c.Request.Context(), feed.Request{
		Region: c.DefaultQuery("region", models.RegionAll),
		Tiers:  allTiers(),
		Window: time.Duration(h.defaults.WindowHours) * time.Hour,
		Limit:  h.defaults.Limit,
	})
	if err != nil {
		h.logger.Error("Briefing feed read failed", logger.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Briefing unavailable"})
		return
	}

	summary, err := h.client.Generate(c.Request.Context(), resp.Posts, resp.GeneratedAt)
	if err != nil {
		if errors.Is(err, briefing.ErrDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Briefing not configured"})
			return
		}
		h.logger.Error("Briefing generation failed", logger.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Briefing unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"briefing":     summary,
		"generated_at": resp.GeneratedAt,
		"items":        len(resp.Posts),
	})
}
