package models

import "time"

// ActivityLevel tags a region's posting volume relative to its baseline.
type ActivityLevel string

const (
	ActivityNormal   ActivityLevel = "normal"
	ActivityElevated ActivityLevel = "elevated"
	ActivityCritical ActivityLevel = "critical"
)

// RegionActivitySnapshot compares a region's trailing-window post count to
// its rolling baseline. Advisory display data only; recomputed every fetch
// cycle and never persisted beyond the cache entry holding it.
type RegionActivitySnapshot struct {
	Region     string        `json:"region"`
	Count      int           `json:"count"`
	Baseline   float64       `json:"baseline"`
	Multiplier float64       `json:"multiplier"`
	Level      ActivityLevel `json:"level"`
	ComputedAt time.Time     `json:"computed_at"`
}
