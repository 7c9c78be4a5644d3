package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/north-cloud/pulse/internal/models"
)

// Tier weights a keyword's specificity. The numeric value is the score a
// hit contributes.
type Tier int

const (
	TierLow    Tier = 1
	TierMedium Tier = 2
	TierHigh   Tier = 3
)

// Pattern is one (region, tier, keyword) scoring entry.
type Pattern struct {
	Region  string `yaml:"region"`
	Tier    Tier   `yaml:"tier"`
	Keyword string `yaml:"keyword"`
}

// UrgencyPattern maps a keyword to the urgency tier it triggers.
type UrgencyPattern struct {
	Level   models.Urgency `yaml:"level"`
	Keyword string         `yaml:"keyword"`
}

// RegionOrder is the fixed evaluation order for candidate regions. When two
// regions tie on score the one listed first wins; the order is part of the
// classifier's contract and must not change between runs.
var RegionOrder = []string{
	"europe-russia",
	"middle-east",
	"east-asia",
	"south-asia",
	"americas",
	"africa",
}

// DefaultPatterns is the built-in region keyword table. Deployments can
// override it with a YAML table via LoadPatterns.
func DefaultPatterns() []Pattern {
	return []Pattern{
		// europe-russia
		{"europe-russia", TierHigh, "ukraine"},
		{"europe-russia", TierHigh, "ukrainian"},
		{"europe-russia", TierHigh, "kyiv"},
		{"europe-russia", TierHigh, "kharkiv"},
		{"europe-russia", TierHigh, "donetsk"},
		{"europe-russia", TierHigh, "luhansk"},
		{"europe-russia", TierHigh, "zaporizhzhia"},
		{"europe-russia", TierHigh, "crimea"},
		{"europe-russia", TierHigh, "zelensky"},
		{"europe-russia", TierMedium, "russia"},
		{"europe-russia", TierMedium, "russian"},
		{"europe-russia", TierMedium, "moscow"},
		{"europe-russia", TierMedium, "kremlin"},
		{"europe-russia", TierMedium, "belarus"},
		{"europe-russia", TierMedium, "putin"},
		{"europe-russia", TierLow, "nato"},
		{"europe-russia", TierLow, "donbas"},
		{"europe-russia", TierLow, "black sea"},
		// middle-east
		{"middle-east", TierHigh, "gaza"},
		{"middle-east", TierHigh, "israel"},
		{"middle-east", TierHigh, "israeli"},
		{"middle-east", TierHigh, "hezbollah"},
		{"middle-east", TierHigh, "hamas"},
		{"middle-east", TierHigh, "tehran"},
		{"middle-east", TierHigh, "houthi"},
		{"middle-east", TierHigh, "idf"},
		{"middle-east", TierMedium, "iran"},
		{"middle-east", TierMedium, "iranian"},
		{"middle-east", TierMedium, "lebanon"},
		{"middle-east", TierMedium, "beirut"},
		{"middle-east", TierMedium, "syria"},
		{"middle-east", TierMedium, "yemen"},
		{"middle-east", TierMedium, "west bank"},
		{"middle-east", TierLow, "red sea"},
		{"middle-east", TierLow, "strait of hormuz"},
		{"middle-east", TierLow, "jerusalem"},
		// east-asia
		{"east-asia", TierHigh, "taiwan"},
		{"east-asia", TierHigh, "taipei"},
		{"east-asia", TierHigh, "pyongyang"},
		{"east-asia", TierHigh, "north korea"},
		{"east-asia", TierMedium, "china"},
		{"east-asia", TierMedium, "chinese"},
		{"east-asia", TierMedium, "beijing"},
		{"east-asia", TierMedium, "pla"},
		{"east-asia", TierMedium, "south korea"},
		{"east-asia", TierLow, "south china sea"},
		{"east-asia", TierLow, "japan"},
		{"east-asia", TierLow, "philippines"},
		// south-asia
		{"south-asia", TierHigh, "kashmir"},
		{"south-asia", TierHigh, "islamabad"},
		{"south-asia", TierHigh, "new delhi"},
		{"south-asia", TierMedium, "pakistan"},
		{"south-asia", TierMedium, "pakistani"},
		{"south-asia", TierMedium, "india"},
		{"south-asia", TierMedium, "indian army"},
		{"south-asia", TierMedium, "taliban"},
		{"south-asia", TierLow, "afghanistan"},
		{"south-asia", TierLow, "kabul"},
		{"south-asia", TierLow, "line of control"},
		// americas
		{"americas", TierHigh, "pentagon"},
		{"americas", TierHigh, "white house"},
		{"americas", TierHigh, "washington"},
		{"americas", TierMedium, "venezuela"},
		{"americas", TierMedium, "caracas"},
		{"americas", TierMedium, "mexico"},
		{"americas", TierMedium, "haiti"},
		{"americas", TierLow, "border"},
		{"americas", TierLow, "cartel"},
		// africa
		{"africa", TierHigh, "khartoum"},
		{"africa", TierHigh, "sahel"},
		{"africa", TierHigh, "mogadishu"},
		{"africa", TierMedium, "sudan"},
		{"africa", TierMedium, "ethiopia"},
		{"africa", TierMedium, "mali"},
		{"africa", TierMedium, "niger"},
		{"africa", TierMedium, "somalia"},
		{"africa", TierMedium, "libya"},
		{"africa", TierLow, "wagner"},
		{"africa", TierLow, "al-shabaab"},
	}
}

// DefaultUrgencyPatterns is the built-in urgency keyword table. The highest
// tier whose keyword appears wins; posts with no hit carry urgency "none".
func DefaultUrgencyPatterns() []UrgencyPattern {
	return []UrgencyPattern{
		{models.UrgencyCritical, "breaking"},
		{models.UrgencyCritical, "air raid"},
		{models.UrgencyCritical, "explosion"},
		{models.UrgencyCritical, "missile strike"},
		{models.UrgencyCritical, "mass casualty"},
		{models.UrgencyHigh, "strike"},
		{models.UrgencyHigh, "attack"},
		{models.UrgencyHigh, "shelling"},
		{models.UrgencyHigh, "casualties"},
		{models.UrgencyHigh, "evacuation"},
		{models.UrgencyElevated, "alert"},
		{models.UrgencyElevated, "warning"},
		{models.UrgencyElevated, "mobilization"},
		{models.UrgencyElevated, "troop movement"},
		{models.UrgencyElevated, "escalation"},
	}
}

type patternFile struct {
	Regions []string         `yaml:"regions"`
	Region  []Pattern        `yaml:"region_patterns"`
	Urgency []UrgencyPattern `yaml:"urgency_patterns"`
}

// LoadPatterns reads a pattern table override from a YAML file. The file
// supplies the region evaluation order and both keyword tables.
func LoadPatterns(path string) (order []string, region []Pattern, urgency []UrgencyPattern, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read patterns: %w", err)
	}
	var file patternFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, nil, nil, fmt.Errorf("parse patterns: %w", err)
	}
	if len(file.Regions) == 0 || len(file.Region) == 0 {
		return nil, nil, nil, fmt.Errorf("patterns file %s: regions and region_patterns are required", path)
	}
	return file.Regions, file.Region, file.Urgency, nil
}
