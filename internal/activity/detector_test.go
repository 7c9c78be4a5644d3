package activity_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/north-cloud/pulse/internal/activity"
	"github.com/north-cloud/pulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func regionPosts(region string, n int, published time.Time) []models.Post {
	posts := make([]models.Post, 0, n)
	for i := range n {
		posts = append(posts, models.Post{
			ID:        fmt.Sprintf("%s-%d", region, i),
			Region:    region,
			Published: published,
		})
	}
	return posts
}

func TestSnapshotAnomalyTrip(t *testing.T) {
	// Baseline 10/hour, 45 posts inside the hour window: multiplier 4.5,
	// level critical.
	now := time.Now()
	d := activity.NewDetector(map[string]float64{"middle-east": 10}, nil)

	posts := regionPosts("middle-east", 45, now.Add(-10*time.Minute))
	got := d.Snapshot([]string{"middle-east"}, posts, time.Hour, now)

	snap, ok := got["middle-east"]
	require.True(t, ok)
	assert.Equal(t, 45, snap.Count)
	assert.InDelta(t, 4.5, snap.Multiplier, 0.001)
	assert.Equal(t, models.ActivityCritical, snap.Level)
}

func TestSnapshotLevels(t *testing.T) {
	now := time.Now()
	d := activity.NewDetector(map[string]float64{"r": 10}, nil)

	tests := []struct {
		name  string
		count int
		want  models.ActivityLevel
	}{
		{"well under baseline", 5, models.ActivityNormal},
		{"just under elevated", 19, models.ActivityNormal},
		{"elevated boundary", 20, models.ActivityElevated},
		{"critical boundary", 40, models.ActivityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts := regionPosts("r", tt.count, now.Add(-time.Minute))
			got := d.Snapshot([]string{"r"}, posts, time.Hour, now)
			assert.Equal(t, tt.want, got["r"].Level)
		})
	}
}

func TestSnapshotIgnoresPostsOutsideWindow(t *testing.T) {
	now := time.Now()
	d := activity.NewDetector(map[string]float64{"r": 10}, nil)

	posts := append(
		regionPosts("r", 50, now.Add(-2*time.Hour)),
		regionPosts("r", 3, now.Add(-time.Minute))...,
	)
	got := d.Snapshot([]string{"r"}, posts, time.Hour, now)
	assert.Equal(t, 3, got["r"].Count)
	assert.Equal(t, models.ActivityNormal, got["r"].Level)
}

func TestSnapshotUnknownRegionDegradesToDefaultBaseline(t *testing.T) {
	now := time.Now()
	d := activity.NewDetector(nil, nil)

	got := d.Snapshot([]string{"uncharted"}, nil, time.Hour, now)
	snap := got["uncharted"]
	assert.Equal(t, models.ActivityNormal, snap.Level)
	assert.Equal(t, 0, snap.Count)
	assert.Positive(t, snap.Baseline)
}

func TestSnapshotScalesBaselineWithWindow(t *testing.T) {
	now := time.Now()
	d := activity.NewDetector(map[string]float64{"r": 10}, nil)

	// 45 posts over a 6 hour window against 10/hour is under 1x.
	posts := regionPosts("r", 45, now.Add(-time.Hour))
	got := d.Snapshot([]string{"r"}, posts, 6*time.Hour, now)
	assert.Equal(t, models.ActivityNormal, got["r"].Level)
	assert.InDelta(t, 0.75, got["r"].Multiplier, 0.001)
}
