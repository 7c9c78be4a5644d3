package dedup_test

import (
	"fmt"
	"testing"
	"unicode/utf8"

	"github.com/north-cloud/pulse/internal/dedup"
	"github.com/north-cloud/pulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSource(id string, confidence int) *models.Source {
	return &models.Source{
		ID: id, Platform: models.PlatformRSS, Endpoint: "https://example.com/" + id,
		Region: "all", Tier: 1, Confidence: confidence, Category: models.CategoryOSINT,
	}
}

func newPost(id, title string, src *models.Source) models.Post {
	return models.Post{ID: id, Title: title, Source: src}
}

func TestFingerprint(t *testing.T) {
	t.Run("normalizes case and punctuation", func(t *testing.T) {
		a := dedup.Fingerprint("Ceasefire Talks Resume in the Capital!")
		b := dedup.Fingerprint("ceasefire talks   resume, in the capital")
		assert.Equal(t, a, b)
	})

	t.Run("too short is skipped", func(t *testing.T) {
		assert.Empty(t, dedup.Fingerprint("Short headline"))
	})

	t.Run("truncates to eighty characters", func(t *testing.T) {
		long := ""
		for range 30 {
			long += "abcdefghij"
		}
		assert.Len(t, dedup.Fingerprint(long), 80)
	})

	t.Run("short cyrillic title is skipped", func(t *testing.T) {
		// 12 runes but 24 bytes: the floor is counted in characters.
		assert.Empty(t, dedup.Fingerprint("Новимзаголов"))
	})

	t.Run("cyrillic truncation counts runes", func(t *testing.T) {
		long := ""
		for range 10 {
			long += "абвгдежзик"
		}
		got := dedup.Fingerprint(long)
		assert.Equal(t, 80, utf8.RuneCountInString(got))
	})

	t.Run("mid length cyrillic title survives intact", func(t *testing.T) {
		// 29 alphanumeric runes, above the floor and below the cap.
		title := "Ситуація на фронті станом на ранок"
		got := dedup.Fingerprint(title)
		assert.Equal(t, "ситуаціянафронтістаномнаранок", got)
	})
}

func TestDeduplicateExactIDs(t *testing.T) {
	src := newSource("a", 50)
	posts := []models.Post{
		newPost("1", "first distinct headline about something", src),
		newPost("1", "first distinct headline about something", src),
		newPost("2", "second distinct headline about another thing", src),
	}
	got := dedup.Deduplicate(posts)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
}

func TestDeduplicateCleanMerge(t *testing.T) {
	// Same headline reported by two platforms under different identifiers
	// and confidences 60 vs 90: exactly one post survives, the 90 one.
	low := newSource("wire-a", 60)
	high := newSource("wire-b", 90)
	headline := "Major incident reported near the border crossing"

	got := dedup.Deduplicate([]models.Post{
		newPost("a1", headline, low),
		newPost("b1", headline, high),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "b1", got[0].ID)
	assert.Equal(t, 90, got[0].Source.Confidence)
}

func TestDeduplicateEqualConfidenceKeepsFirst(t *testing.T) {
	a := newSource("wire-a", 70)
	b := newSource("wire-b", 70)
	headline := "Major incident reported near the border crossing"

	got := dedup.Deduplicate([]models.Post{
		newPost("a1", headline, a),
		newPost("b1", headline, b),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ID, "replacement requires strictly higher confidence")
}

func TestDeduplicateShortTitlesNeverMerge(t *testing.T) {
	a := newSource("wire-a", 60)
	b := newSource("wire-b", 90)

	got := dedup.Deduplicate([]models.Post{
		newPost("a1", "Strikes hit", a),
		newPost("b1", "Strikes hit", b),
	})
	assert.Len(t, got, 2, "fingerprints under the floor must not merge")
}

func TestCapPerSource(t *testing.T) {
	src := newSource("busy", 50)
	other := newSource("quiet", 50)

	var posts []models.Post
	for i := range 6 {
		posts = append(posts, newPost(fmt.Sprintf("busy-%d", i), fmt.Sprintf("busy source headline number %d today", i), src))
	}
	posts = append(posts, newPost("quiet-1", "quiet source only headline of the day", other))

	got := dedup.CapPerSource(posts, dedup.MaxPerSource)
	require.Len(t, got, 4)
	assert.Equal(t, "busy-0", got[0].ID)
	assert.Equal(t, "busy-1", got[1].ID)
	assert.Equal(t, "busy-2", got[2].ID)
	assert.Equal(t, "quiet-1", got[3].ID)
}

func TestProcessIdempotent(t *testing.T) {
	sources := []*models.Source{newSource("a", 40), newSource("b", 80), newSource("c", 60)}
	var posts []models.Post
	for i, src := range sources {
		for j := range 5 {
			posts = append(posts, newPost(
				fmt.Sprintf("%s-%d", src.ID, j),
				fmt.Sprintf("headline from source %d item number %d with filler text", i, j),
				src,
			))
		}
	}
	// A shared story across all three sources.
	for _, src := range sources {
		posts = append(posts, newPost(src.ID+"-shared", "the one story everyone is covering right now", src))
	}

	once := dedup.Process(posts)
	twice := dedup.Process(once)
	assert.Equal(t, once, twice, "running dedup on its own output must remove nothing")
}
