package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/north-cloud/pulse/internal/feed"
	"github.com/north-cloud/pulse/internal/logger"
	"github.com/north-cloud/pulse/internal/models"
)

const (
	minWindowHours = 1
	maxWindowHours = 72
	minLimit       = 1
	maxLimit       = 1000
)

// FeedService is the slice of the assembly service the handlers consume.
type FeedService interface {
	Serve(ctx context.Context, req feed.Request) (*feed.Response, error)
	Regions() []feed.RegionSummary
}

// Defaults are the per-request fallbacks applied when a query parameter is
// absent.
type Defaults struct {
	WindowHours int
	Limit       int
}

type FeedHandler struct {
	svc      FeedService
	regions  map[string]bool
	defaults Defaults
	logger   logger.Logger
}

// NewFeedHandler builds the feed handler. regions is the set of valid
// region selectors; "all" is always accepted.
func NewFeedHandler(svc FeedService, regions []string, defaults Defaults, log logger.Logger) *FeedHandler {
	known := make(map[string]bool, len(regions)+1)
	known[models.RegionAll] = true
	for _, r := range regions {
		known[r] = true
	}
	return &FeedHandler{
		svc:      svc,
		regions:  known,
		defaults: defaults,
		logger:   log,
	}
}

func (h *FeedHandler) Get(c *gin.Context) {
	req, err := h.parseRequest(c)
	if err != nil {
		h.logger.Debug("Invalid feed request",
			logger.String("query", c.Request.URL.RawQuery),
			logger.String("error", err.Error()),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	resp, err := h.svc.Serve(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Feed assembly failed",
			logger.String("region", req.Region),
			logger.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Feed unavailable", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *FeedHandler) parseRequest(c *gin.Context) (feed.Request, error) {
	var req feed.Request

	req.Region = c.DefaultQuery("region", models.RegionAll)
	if !h.regions[req.Region] {
		return req, &paramError{"region", req.Region, "unknown region"}
	}

	tiers, err := parseTiers(c.Query("tiers"))
	if err != nil {
		return req, err
	}
	req.Tiers = tiers

	hours, err := parseBoundedInt(c, "hours", h.defaults.WindowHours, minWindowHours, maxWindowHours)
	if err != nil {
		return req, err
	}
	req.Window = time.Duration(hours) * time.Hour

	limit, err := parseBoundedInt(c, "limit", h.defaults.Limit, minLimit, maxLimit)
	if err != nil {
		return req, err
	}
	req.Limit = limit

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return req, &paramError{"since", raw, "must be RFC3339"}
		}
		req.Since = since
	}

	req.Refresh = c.Query("refresh") == "true" || c.Query("refresh") == "1"
	return req, nil
}

func allTiers() []int {
	tiers := make([]int, 0, models.TierMax)
	for t := models.TierMin; t <= models.TierMax; t++ {
		tiers = append(tiers, t)
	}
	return tiers
}

// parseTiers reads a csv of tier numbers; empty means all tiers.
func parseTiers(raw string) ([]int, error) {
	if raw == "" {
		return allTiers(), nil
	}

	parts := strings.Split(raw, ",")
	tiers := make([]int, 0, len(parts))
	for _, part := range parts {
		t, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || t < models.TierMin || t > models.TierMax {
			return nil, &paramError{"tiers", raw, "must be a csv of tiers 1-3"}
		}
		tiers = append(tiers, t)
	}
	return tiers, nil
}

func parseBoundedInt(c *gin.Context, name string, fallback, min, max int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return 0, &paramError{name, raw, "must be an integer between " +
			strconv.Itoa(min) + " and " + strconv.Itoa(max)}
	}
	return v, nil
}

type paramError struct {
	name   string
	value  string
	reason string
}

func (e *paramError) Error() string {
	return "parameter " + e.name + "=" + e.value + ": " + e.reason
}
