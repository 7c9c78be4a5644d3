package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
debug: true
server:
  address: ":9090"
  cors_origins:
    - "https://dash.example.com"
catalog:
  path: "testdata/sources.yml"
cache:
  ttl: 10m
feed:
  window_hours: 12
  baselines:
    europe-russia: 12.5
briefing:
  endpoint: "https://analysis.example.com/brief"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, []string{"https://dash.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "testdata/sources.yml", cfg.Catalog.Path)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 12, cfg.Feed.WindowHours)
	assert.Equal(t, 12.5, cfg.Feed.Baselines["europe-russia"])
	assert.Equal(t, "https://analysis.example.com/brief", cfg.Briefing.Endpoint)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
catalog:
  path: "sources.yml"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, defaultServerAddress, cfg.Server.Address)
	assert.Equal(t, defaultServerTimeout, cfg.Server.ReadTimeout)
	assert.Equal(t, defaultCacheTTL, cfg.Cache.TTL)
	assert.Equal(t, defaultRefreshBudget, cfg.Cache.RefreshBudget)
	assert.Equal(t, defaultFetchBudget, cfg.Feed.FetchBudget)
	assert.Equal(t, defaultWindowHours, cfg.Feed.WindowHours)
	assert.Equal(t, defaultFeedLimit, cfg.Feed.Limit)
	assert.True(t, cfg.Quota.Enabled)
	assert.Equal(t, defaultQuotaPerMinute, cfg.Quota.PerMinute)
	assert.Equal(t, defaultBriefMaxPosts, cfg.Briefing.MaxPosts)
	assert.Empty(t, cfg.Briefing.Endpoint)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PULSE_SOCIAL_BEARER_TOKEN", "token-from-env")
	t.Setenv("SERVER_ADDRESS", ":7070")

	path := writeConfig(t, `
catalog:
  path: "sources.yml"
server:
  address: ":9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "token-from-env", cfg.Social.BearerToken)
	assert.Equal(t, ":7070", cfg.Server.Address, "environment overrides the file")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "empty catalog path",
			content: "catalog:\n  path: \"\"\n",
			wantErr: "catalog.path",
		},
		{
			name:    "window hours out of range",
			content: "catalog:\n  path: sources.yml\nfeed:\n  window_hours: 100\n",
			wantErr: "feed.window_hours",
		},
		{
			name:    "limit out of range",
			content: "catalog:\n  path: sources.yml\nfeed:\n  limit: 5000\n",
			wantErr: "feed.limit",
		},
		{
			name:    "zero cache ttl",
			content: "catalog:\n  path: sources.yml\ncache:\n  ttl: 0s\n",
			wantErr: "cache.ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}
