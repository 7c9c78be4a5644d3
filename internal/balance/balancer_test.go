package balance_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/north-cloud/pulse/internal/balance"
	"github.com/north-cloud/pulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func groundSource(id string) *models.Source {
	return &models.Source{
		ID: id, Platform: models.PlatformTelegram, Handle: id,
		Region: "all", Tier: 1, Confidence: 60, Category: models.CategoryGround,
	}
}

func newsSource(id string) *models.Source {
	return &models.Source{
		ID: id, Platform: models.PlatformRSS, Endpoint: "https://example.com/" + id,
		Region: "all", Tier: 1, Confidence: 85, Category: models.CategoryNewsOrg,
	}
}

func post(id string, src *models.Source, minutesAgo int, urgency models.Urgency) models.Post {
	return models.Post{
		ID:        id,
		Title:     "headline " + id,
		Source:    src,
		Published: baseTime.Add(-time.Duration(minutesAgo) * time.Minute),
		Urgency:   urgency,
	}
}

func TestAssembleDeterminism(t *testing.T) {
	var posts []models.Post
	for i := range 40 {
		src := newsSource(fmt.Sprintf("news-%d", i%5))
		if i%4 == 0 {
			src = groundSource(fmt.Sprintf("ground-%d", i%3))
		}
		posts = append(posts, post(fmt.Sprintf("p-%d", i), src, i, models.Urgency(i%4)))
	}

	first := balance.Assemble(posts, 20)
	for range 10 {
		again := balance.Assemble(posts, 20)
		assert.Equal(t, first, again)
	}
}

func TestAssembleReservedQuota(t *testing.T) {
	// limit 20 reserves floor(20*0.20)=4 slots for ground sources.
	var posts []models.Post
	for i := range 10 {
		posts = append(posts, post(fmt.Sprintf("g-%d", i), groundSource(fmt.Sprintf("ground-%d", i)), 100+i, models.UrgencyNone))
	}
	for i := range 30 {
		posts = append(posts, post(fmt.Sprintf("n-%d", i), newsSource("wire"), i, models.UrgencyNone))
	}

	got := balance.Assemble(posts, 20)
	require.Len(t, got, 20)

	groundCount := 0
	for _, p := range got {
		if p.Source.Category == models.CategoryGround {
			groundCount++
		}
	}
	assert.GreaterOrEqual(t, groundCount, 4, "reserved category must hold its quota")
}

func TestAssembleReservedDiversityPass(t *testing.T) {
	// One chatty ground source and three quiet ones; the diversity pass
	// must admit each quiet source before the chatty one repeats.
	chatty := groundSource("chatty")
	var posts []models.Post
	for i := range 6 {
		posts = append(posts, post(fmt.Sprintf("c-%d", i), chatty, i, models.UrgencyNone))
	}
	for i := range 3 {
		posts = append(posts, post(fmt.Sprintf("q-%d", i), groundSource(fmt.Sprintf("quiet-%d", i)), 200+i, models.UrgencyNone))
	}
	for i := range 50 {
		posts = append(posts, post(fmt.Sprintf("n-%d", i), newsSource("wire"), 10+i, models.UrgencyNone))
	}

	got := balance.Assemble(posts, 20)
	require.Len(t, got, 20)

	perSource := make(map[string]int)
	for _, p := range got {
		if p.Source.Category == models.CategoryGround {
			perSource[p.Source.ID]++
		}
	}
	assert.Equal(t, 1, perSource["quiet-0"])
	assert.Equal(t, 1, perSource["quiet-1"])
	assert.Equal(t, 1, perSource["quiet-2"])
	assert.Equal(t, 1, perSource["chatty"], "quota of 4 leaves one slot for the chatty source")
}

func TestAssembleOrdering(t *testing.T) {
	wire := newsSource("wire")
	posts := []models.Post{
		post("old-critical", wire, 60, models.UrgencyCritical),
		post("new-none", wire, 1, models.UrgencyNone),
		post("new-high", wire, 2, models.UrgencyHigh),
		post("old-high", wire, 50, models.UrgencyHigh),
		post("mid-elevated", wire, 30, models.UrgencyElevated),
	}

	got := balance.Assemble(posts, 10)
	ids := make([]string, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"old-critical", "new-high", "old-high", "mid-elevated", "new-none"}, ids)
}

func TestAssembleLimitBounds(t *testing.T) {
	wire := newsSource("wire")
	posts := []models.Post{post("a", wire, 1, models.UrgencyNone)}

	assert.Empty(t, balance.Assemble(posts, 0))
	assert.Empty(t, balance.Assemble(nil, 10))
	assert.Len(t, balance.Assemble(posts, 10), 1)
}

func TestAssembleSpareCapacityGoesToReserved(t *testing.T) {
	// Few general posts: reserved posts beyond the quota fill the gap.
	var posts []models.Post
	for i := range 8 {
		posts = append(posts, post(fmt.Sprintf("g-%d", i), groundSource("ground-1"), i, models.UrgencyNone))
	}
	posts = append(posts, post("n-0", newsSource("wire"), 4, models.UrgencyNone))

	got := balance.Assemble(posts, 10)
	assert.Len(t, got, 9, "all posts fit, none withheld by the quota")
}
