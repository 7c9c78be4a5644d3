package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/north-cloud/pulse/internal/feed"
	"github.com/north-cloud/pulse/internal/handlers"
	"github.com/north-cloud/pulse/internal/logger"
	"github.com/north-cloud/pulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFeedService struct {
	lastReq feed.Request
	resp    *feed.Response
	err     error
	regions []feed.RegionSummary
}

func (s *stubFeedService) Serve(_ context.Context, req feed.Request) (*feed.Response, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func (s *stubFeedService) Regions() []feed.RegionSummary {
	return s.regions
}

var testDefaults = handlers.Defaults{WindowHours: 24, Limit: 100}

func setupFeedRouter(svc *stubFeedService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := handlers.NewFeedHandler(svc, []string{"europe-russia", "middle-east"}, testDefaults, logger.NewNopLogger())
	router.GET("/feed", handler.Get)
	return router
}

func doGet(router *gin.Engine, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestFeedGetDefaults(t *testing.T) {
	svc := &stubFeedService{resp: &feed.Response{Region: models.RegionAll}}
	router := setupFeedRouter(svc)

	w := doGet(router, "/feed")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, models.RegionAll, svc.lastReq.Region)
	assert.Equal(t, []int{1, 2, 3}, svc.lastReq.Tiers)
	assert.Equal(t, 24*time.Hour, svc.lastReq.Window)
	assert.Equal(t, 100, svc.lastReq.Limit)
	assert.False(t, svc.lastReq.Refresh)
	assert.True(t, svc.lastReq.Since.IsZero())
}

func TestFeedGetParsesParams(t *testing.T) {
	svc := &stubFeedService{resp: &feed.Response{}}
	router := setupFeedRouter(svc)

	since := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	w := doGet(router, "/feed?region=middle-east&tiers=1,2&hours=6&limit=25&refresh=true&since="+since)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "middle-east", svc.lastReq.Region)
	assert.Equal(t, []int{1, 2}, svc.lastReq.Tiers)
	assert.Equal(t, 6*time.Hour, svc.lastReq.Window)
	assert.Equal(t, 25, svc.lastReq.Limit)
	assert.True(t, svc.lastReq.Refresh)
	assert.False(t, svc.lastReq.Since.IsZero())
}

func TestFeedGetRejectsBadParams(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"unknown region", "/feed?region=atlantis"},
		{"bad tier value", "/feed?tiers=1,9"},
		{"tier not a number", "/feed?tiers=one"},
		{"hours too large", "/feed?hours=100"},
		{"hours zero", "/feed?hours=0"},
		{"limit too large", "/feed?limit=5000"},
		{"limit zero", "/feed?limit=0"},
		{"bad since", "/feed?since=yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubFeedService{resp: &feed.Response{}}
			router := setupFeedRouter(svc)

			w := doGet(router, tt.url)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "Invalid request", body["error"])
		})
	}
}

func TestFeedGetAssemblyFailureReturns502(t *testing.T) {
	svc := &stubFeedService{err: errors.New("every platform failed")}
	router := setupFeedRouter(svc)

	w := doGet(router, "/feed")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Feed unavailable", body["error"])
}

func TestFeedGetPassesResponseThrough(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	svc := &stubFeedService{resp: &feed.Response{
		Posts:       []models.Post{{ID: "abc123", Title: "A headline", Region: "middle-east"}},
		GeneratedAt: now,
		TotalItems:  1,
		Region:      "middle-east",
		Cached:      true,
		Partial:     true,
	}}
	router := setupFeedRouter(svc)

	w := doGet(router, "/feed?region=middle-east")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Posts      []models.Post `json:"posts"`
		TotalItems int           `json:"total_items"`
		Cached     bool          `json:"cached"`
		Partial    bool          `json:"partial"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Posts, 1)
	assert.Equal(t, "abc123", body.Posts[0].ID)
	assert.Equal(t, 1, body.TotalItems)
	assert.True(t, body.Cached)
	assert.True(t, body.Partial)
}

func TestRegionsList(t *testing.T) {
	svc := &stubFeedService{regions: []feed.RegionSummary{
		{Region: "europe-russia"},
		{Region: "middle-east"},
	}}
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/regions", handlers.NewRegionsHandler(svc, logger.NewNopLogger()).List)

	w := doGet(router, "/regions")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Regions []feed.RegionSummary `json:"regions"`
		Count   int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "europe-russia", body.Regions[0].Region)
}
