// Package catalog loads the static source catalog supplied to the pipeline.
// The catalog is read once at startup; the pipeline never mutates it.
package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/north-cloud/pulse/internal/models"
)

// Catalog holds every configured source descriptor.
type Catalog struct {
	sources []*models.Source
	byID    map[string]*models.Source
}

type catalogFile struct {
	Sources []*models.Source `yaml:"sources"`
}

// Load reads and validates a YAML catalog file.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse builds a catalog from raw YAML.
func Parse(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(file.Sources)
}

// New validates the descriptors and builds the catalog index.
func New(sources []*models.Source) (*Catalog, error) {
	c := &Catalog{
		sources: make([]*models.Source, 0, len(sources)),
		byID:    make(map[string]*models.Source, len(sources)),
	}
	for _, src := range sources {
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("invalid catalog: %w", err)
		}
		if _, dup := c.byID[src.ID]; dup {
			return nil, fmt.Errorf("invalid catalog: duplicate source id %q", src.ID)
		}
		c.byID[src.ID] = src
		c.sources = append(c.sources, src)
	}
	return c, nil
}

// Len returns the number of configured sources.
func (c *Catalog) Len() int {
	return len(c.sources)
}

// All returns every source in catalog order.
func (c *Catalog) All() []*models.Source {
	out := make([]*models.Source, len(c.sources))
	copy(out, c.sources)
	return out
}

// ByID looks up a single source.
func (c *Catalog) ByID(id string) (*models.Source, bool) {
	src, ok := c.byID[id]
	return src, ok
}

// Select returns the sources relevant to a feed request: those in one of the
// requested fetch tiers whose declared region matches the selector. Sources
// declared "all" are always candidates since their content may classify into
// any region.
func (c *Catalog) Select(region string, tiers []int) []*models.Source {
	want := make(map[int]bool, len(tiers))
	for _, t := range tiers {
		want[t] = true
	}

	out := make([]*models.Source, 0, len(c.sources))
	for _, src := range c.sources {
		if !want[src.Tier] {
			continue
		}
		if region != models.RegionAll && src.Region != region && src.Region != models.RegionAll {
			continue
		}
		out = append(out, src)
	}
	return out
}

// Regions returns the sorted set of regions declared across the catalog,
// excluding the catch-all tag.
func (c *Catalog) Regions() []string {
	seen := make(map[string]bool)
	for _, src := range c.sources {
		if src.Region != models.RegionAll {
			seen[src.Region] = true
		}
	}
	out := make([]string, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
