// Package config loads service configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerAddress  = ":8080"
	defaultServerTimeout  = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
	defaultCatalogPath    = "sources.yml"
	defaultCacheTTL       = 5 * time.Minute
	defaultRefreshBudget  = time.Minute
	defaultFetchBudget    = 45 * time.Second
	defaultActivityWindow = 6 * time.Hour
	defaultWindowHours    = 24
	defaultFeedLimit      = 100
	defaultQuotaPerMinute = 60
	defaultQuotaBurst     = 10
	defaultBriefTimeout   = 20 * time.Second
	defaultBriefMaxPosts  = 40
)

type Config struct {
	Debug    bool           `mapstructure:"debug"`
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Quota    QuotaConfig    `mapstructure:"quota"`
	Briefing BriefingConfig `mapstructure:"briefing"`
	Social   SocialConfig   `mapstructure:"social"`
}

type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// CatalogConfig points at the source catalog and the optional region
// pattern override file.
type CatalogConfig struct {
	Path         string `mapstructure:"path"`
	PatternsPath string `mapstructure:"patterns_path"`
}

type CacheConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	RefreshBudget time.Duration `mapstructure:"refresh_budget"`
}

// FeedConfig bounds one assembly cycle and sets request defaults.
type FeedConfig struct {
	FetchBudget    time.Duration      `mapstructure:"fetch_budget"`
	ActivityWindow time.Duration      `mapstructure:"activity_window"`
	WindowHours    int                `mapstructure:"window_hours"`
	Limit          int                `mapstructure:"limit"`
	Baselines      map[string]float64 `mapstructure:"baselines"`
}

// QuotaConfig is the per-caller inbound request quota.
type QuotaConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	PerMinute int  `mapstructure:"per_minute"`
	Burst     int  `mapstructure:"burst"`
}

type BriefingConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Token    string        `mapstructure:"token"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxPosts int           `mapstructure:"max_posts"`
}

// SocialConfig holds credentials for platforms that require them.
type SocialConfig struct {
	BearerToken string `mapstructure:"bearer_token"`
}

// Load reads the YAML config at path, layers environment variables on top
// and validates the result. A missing config file is fine: defaults plus
// environment are enough to run.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := bindEnvironmentVariables(v); err != nil {
		return nil, fmt.Errorf("bind env vars: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("server", map[string]any{
		"address":       defaultServerAddress,
		"read_timeout":  defaultServerTimeout.String(),
		"write_timeout": defaultServerTimeout.String(),
		"idle_timeout":  defaultIdleTimeout.String(),
		"cors_origins":  []string{"http://localhost:3000"},
	})

	v.SetDefault("catalog", map[string]any{
		"path": defaultCatalogPath,
	})

	v.SetDefault("cache", map[string]any{
		"ttl":            defaultCacheTTL.String(),
		"refresh_budget": defaultRefreshBudget.String(),
	})

	v.SetDefault("feed", map[string]any{
		"fetch_budget":    defaultFetchBudget.String(),
		"activity_window": defaultActivityWindow.String(),
		"window_hours":    defaultWindowHours,
		"limit":           defaultFeedLimit,
	})

	v.SetDefault("quota", map[string]any{
		"enabled":    true,
		"per_minute": defaultQuotaPerMinute,
		"burst":      defaultQuotaBurst,
	})

	v.SetDefault("briefing", map[string]any{
		"timeout":   defaultBriefTimeout.String(),
		"max_posts": defaultBriefMaxPosts,
	})
}

func bindEnvironmentVariables(v *viper.Viper) error {
	if err := v.BindEnv("debug", "APP_DEBUG"); err != nil {
		return fmt.Errorf("failed to bind APP_DEBUG: %w", err)
	}
	if err := v.BindEnv("server.address", "SERVER_ADDRESS"); err != nil {
		return fmt.Errorf("failed to bind SERVER_ADDRESS: %w", err)
	}
	if err := v.BindEnv("catalog.path", "PULSE_CATALOG_PATH"); err != nil {
		return fmt.Errorf("failed to bind PULSE_CATALOG_PATH: %w", err)
	}
	if err := v.BindEnv("briefing.endpoint", "PULSE_BRIEFING_ENDPOINT"); err != nil {
		return fmt.Errorf("failed to bind PULSE_BRIEFING_ENDPOINT: %w", err)
	}
	if err := v.BindEnv("briefing.token", "PULSE_BRIEFING_TOKEN"); err != nil {
		return fmt.Errorf("failed to bind PULSE_BRIEFING_TOKEN: %w", err)
	}
	if err := v.BindEnv("social.bearer_token", "PULSE_SOCIAL_BEARER_TOKEN"); err != nil {
		return fmt.Errorf("failed to bind PULSE_SOCIAL_BEARER_TOKEN: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server.address is required")
	}
	if c.Catalog.Path == "" {
		return errors.New("catalog.path is required")
	}
	if c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive")
	}
	if c.Cache.RefreshBudget <= 0 {
		return errors.New("cache.refresh_budget must be positive")
	}
	if c.Feed.FetchBudget <= 0 {
		return errors.New("feed.fetch_budget must be positive")
	}
	if c.Feed.WindowHours < 1 || c.Feed.WindowHours > 72 {
		return errors.New("feed.window_hours must be between 1 and 72")
	}
	if c.Feed.Limit < 1 || c.Feed.Limit > 1000 {
		return errors.New("feed.limit must be between 1 and 1000")
	}
	if c.Quota.Enabled && c.Quota.PerMinute <= 0 {
		return errors.New("quota.per_minute must be positive when quota is enabled")
	}
	return nil
}
