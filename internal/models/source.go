package models

import (
	"fmt"
)

// Platform identifies the family of fetch adapter a source requires.
type Platform string

const (
	PlatformRSS      Platform = "rss"
	PlatformTelegram Platform = "telegram"
	PlatformTwitter  Platform = "twitter"
	PlatformForum    Platform = "forum"
	PlatformMastodon Platform = "mastodon"
	PlatformYouTube  Platform = "youtube"
)

// Platforms lists every supported platform family.
var Platforms = []Platform{
	PlatformRSS,
	PlatformTelegram,
	PlatformTwitter,
	PlatformForum,
	PlatformMastodon,
	PlatformYouTube,
}

// Category describes what kind of publisher sits behind a source.
type Category string

const (
	CategoryOfficial   Category = "official"
	CategoryNewsOrg    Category = "news-org"
	CategoryReporter   Category = "reporter"
	CategoryOSINT      Category = "osint"
	CategoryAnalyst    Category = "analyst"
	CategoryAggregator Category = "aggregator"
	CategoryGround     Category = "ground"
	CategoryBot        Category = "bot"
)

// RegionAll is the catch-all region tag for unclassified or global content.
const RegionAll = "all"

// Fetch tier bounds.
const (
	TierMin = 1
	TierMax = 3
)

// Source is one externally configured feed endpoint plus its trust metadata.
// Sources are loaded once at startup and never mutated.
type Source struct {
	ID            string   `json:"id"              yaml:"id"`
	Name          string   `json:"name"            yaml:"name"`
	Platform      Platform `json:"platform"        yaml:"platform"`
	Endpoint      string   `json:"endpoint"        yaml:"endpoint"`
	Handle        string   `json:"handle"          yaml:"handle"`
	Region        string   `json:"region"          yaml:"region"`
	Tier          int      `json:"tier"            yaml:"tier"`
	Confidence    int      `json:"confidence"      yaml:"confidence"`
	AvgDailyPosts int      `json:"avg_daily_posts" yaml:"avg_daily_posts"`
	Category      Category `json:"category"        yaml:"category"`
	RegionLocked  bool     `json:"region_locked"   yaml:"region_locked"`
}

// Validate checks a source descriptor for catalog admission.
func (s *Source) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("source missing id")
	}
	if !validPlatform(s.Platform) {
		return fmt.Errorf("source %s: unknown platform %q", s.ID, s.Platform)
	}
	if s.Endpoint == "" && s.Handle == "" {
		return fmt.Errorf("source %s: needs an endpoint or a handle", s.ID)
	}
	if s.Tier < TierMin || s.Tier > TierMax {
		return fmt.Errorf("source %s: tier %d out of range", s.ID, s.Tier)
	}
	if s.Confidence < 0 || s.Confidence > 100 {
		return fmt.Errorf("source %s: confidence %d out of range", s.ID, s.Confidence)
	}
	if s.Region == "" {
		return fmt.Errorf("source %s: region required (use %q for global)", s.ID, RegionAll)
	}
	return nil
}

func validPlatform(p Platform) bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// Verification maps a source's category and confidence onto the fixed
// verification tier carried by every post it produces.
func (s *Source) Verification() VerificationTier {
	switch {
	case s.Category == CategoryBot:
		return VerificationMachine
	case s.Category == CategoryOfficial:
		return VerificationVerified
	case s.Category == CategoryNewsOrg || s.Confidence >= 85:
		return VerificationReliable
	case s.Confidence >= 65:
		return VerificationStandard
	default:
		return VerificationUnverified
	}
}
