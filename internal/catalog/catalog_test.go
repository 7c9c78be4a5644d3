package catalog_test

import (
	"testing"

	"github.com/north-cloud/pulse/internal/catalog"
	"github.com/north-cloud/pulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
sources:
  - id: reuters-world
    name: Reuters World
    platform: rss
    endpoint: https://example.com/world.rss
    region: all
    tier: 1
    confidence: 90
    category: news-org
  - id: deepstate-ua
    name: DeepState UA
    platform: telegram
    handle: DeepStateUA
    region: europe-russia
    tier: 1
    confidence: 92
    category: official
    region_locked: true
  - id: local-stringer
    name: Local Stringer
    platform: twitter
    endpoint: https://example.com/search
    region: middle-east
    tier: 2
    confidence: 55
    category: ground
`

func TestParse(t *testing.T) {
	c, err := catalog.Parse([]byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	src, ok := c.ByID("deepstate-ua")
	require.True(t, ok)
	assert.Equal(t, models.PlatformTelegram, src.Platform)
	assert.True(t, src.RegionLocked)
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := catalog.Parse([]byte(`
sources:
  - id: bad
    platform: rss
    endpoint: https://example.com/a.rss
    region: all
    tier: 9
    confidence: 50
    category: osint
`))
	require.Error(t, err)
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	src := &models.Source{
		ID: "dup", Platform: models.PlatformRSS, Endpoint: "https://example.com/a.rss",
		Region: "all", Tier: 1, Confidence: 50, Category: models.CategoryOSINT,
	}
	_, err := catalog.New([]*models.Source{src, src})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate source id")
}

func TestSelect(t *testing.T) {
	c, err := catalog.Parse([]byte(sampleYAML))
	require.NoError(t, err)

	t.Run("all regions single tier", func(t *testing.T) {
		got := c.Select(models.RegionAll, []int{1})
		require.Len(t, got, 2)
	})

	t.Run("region selector keeps global sources", func(t *testing.T) {
		got := c.Select("middle-east", []int{1, 2})
		ids := make([]string, 0, len(got))
		for _, s := range got {
			ids = append(ids, s.ID)
		}
		assert.ElementsMatch(t, []string{"reuters-world", "local-stringer"}, ids)
	})

	t.Run("no matching tier", func(t *testing.T) {
		got := c.Select(models.RegionAll, []int{3})
		assert.Empty(t, got)
	})
}

func TestRegions(t *testing.T) {
	c, err := catalog.Parse([]byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"europe-russia", "middle-east"}, c.Regions())
}
