// Package activity compares per-region posting volume against configured
// baselines to produce advisory anomaly levels.
package activity

import (
	"time"

	"github.com/north-cloud/pulse/internal/logger"
	"github.com/north-cloud/pulse/internal/models"
)

// Level thresholds on the observed/expected multiplier.
const (
	criticalMultiplier = 4.0
	elevatedMultiplier = 2.0
)

// baselineFloor keeps the expected count positive so the multiplier is
// always defined.
const baselineFloor = 0.1

// DefaultBaseline is the expected posts-per-hour for regions with no
// configured value.
const DefaultBaseline = 5.0

// Detector computes per-region activity snapshots. Baselines are fixed
// expected-posts-per-hour values supplied at construction, not learned.
type Detector struct {
	baselines map[string]float64
	logger    logger.Logger
}

// NewDetector creates a detector. The baselines map is keyed by region tag;
// missing regions use DefaultBaseline.
func NewDetector(baselines map[string]float64, log logger.Logger) *Detector {
	copied := make(map[string]float64, len(baselines))
	for region, perHour := range baselines {
		copied[region] = perHour
	}
	return &Detector{baselines: copied, logger: log}
}

// Snapshot counts posts per region over the trailing window and grades each
// known region against its baseline. Posts are expected to be the same
// classified, time-windowed set the feed response is built from.
//
// Output is advisory display data: it never blocks or filters assembly, and
// a region with no usable baseline degrades to "normal" rather than erroring.
func (d *Detector) Snapshot(regions []string, posts []models.Post, window time.Duration, now time.Time) map[string]models.RegionActivitySnapshot {
	cutoff := now.Add(-window)
	counts := make(map[string]int, len(regions))
	for _, post := range posts {
		if post.Published.Before(cutoff) {
			continue
		}
		counts[post.Region]++
	}

	hours := window.Hours()
	if hours <= 0 {
		hours = 1
	}

	out := make(map[string]models.RegionActivitySnapshot, len(regions))
	for _, region := range regions {
		perHour, ok := d.baselines[region]
		if !ok {
			perHour = DefaultBaseline
		}
		expected := perHour * hours
		if expected < baselineFloor {
			expected = baselineFloor
		}

		observed := counts[region]
		multiplier := float64(observed) / expected

		level := models.ActivityNormal
		switch {
		case multiplier >= criticalMultiplier:
			level = models.ActivityCritical
		case multiplier >= elevatedMultiplier:
			level = models.ActivityElevated
		}

		if level != models.ActivityNormal && d.logger != nil {
			d.logger.Info("Region activity anomaly",
				logger.String("region", region),
				logger.Int("observed", observed),
				logger.Float64("expected", expected),
				logger.Float64("multiplier", multiplier),
				logger.String("level", string(level)),
			)
		}

		out[region] = models.RegionActivitySnapshot{
			Region:     region,
			Count:      observed,
			Baseline:   expected,
			Multiplier: multiplier,
			Level:      level,
			ComputedAt: now,
		}
	}
	return out
}
