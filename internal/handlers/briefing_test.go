package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/north-cloud/pulse/internal/briefing"
	"github.com/north-cloud/pulse/internal/feed"
	"github.com/north-cloud/pulse/internal/handlers"
	"github.com/north-cloud/pulse/internal/logger"
	"github.com/north-cloud/pulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSummarizer struct {
	summary string
	err     error
	got     []models.Post
}

func (s *stubSummarizer) Generate(_ context.Context, posts []models.Post, _ time.Time) (string, error) {
	s.got = posts
	return s.summary, s.err
}

func setupBriefingRouter(svc *stubFeedService, sum *stubSummarizer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/briefing", handlers.NewBriefingHandler(svc, sum, testDefaults, logger.NewNopLogger()).Get)
	return router
}

func TestBriefingGet(t *testing.T) {
	svc := &stubFeedService{resp: &feed.Response{
		Posts:       []models.Post{{ID: "p1", Title: "Headline one"}},
		GeneratedAt: time.Now(),
	}}
	sum := &stubSummarizer{summary: "Situation stable across regions."}
	router := setupBriefingRouter(svc, sum)

	w := doGet(router, "/briefing")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Situation stable across regions.", body["briefing"])
	assert.Equal(t, float64(1), body["items"])

	require.Len(t, sum.got, 1)
	assert.Equal(t, "p1", sum.got[0].ID)
	assert.False(t, svc.lastReq.Refresh, "briefing must never force a refresh")
	assert.Equal(t, []int{1, 2, 3}, svc.lastReq.Tiers)
}

func TestBriefingGetNotConfigured(t *testing.T) {
	svc := &stubFeedService{resp: &feed.Response{}}
	sum := &stubSummarizer{err: briefing.ErrDisabled}
	router := setupBriefingRouter(svc, sum)

	w := doGet(router, "/briefing")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not configured")
}

func TestBriefingGetDegradesOnAnalysisFailure(t *testing.T) {
	svc := &stubFeedService{resp: &feed.Response{}}
	sum := &stubSummarizer{err: errors.New("analysis endpoint timeout")}
	router := setupBriefingRouter(svc, sum)

	w := doGet(router, "/briefing")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBriefingGetDegradesOnFeedFailure(t *testing.T) {
	svc := &stubFeedService{err: errors.New("cold miss")}
	sum := &stubSummarizer{summary: "never used"}
	router := setupBriefingRouter(svc, sum)

	w := doGet(router, "/briefing")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Nil(t, sum.got)
}
