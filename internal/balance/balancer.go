// Package balance produces the final ordered, length-limited feed list.
// Assemble is pure: the same input list and limit always yield the same
// output, byte for byte.
package balance

import (
	"sort"

	"github.com/north-cloud/pulse/internal/models"
)

// ReservedCategory is the high-value, typically low-volume source category
// guaranteed a minimum share of the feed.
const ReservedCategory = models.CategoryGround

// reservedShare is the fraction of the limit reserved for that category.
const reservedShare = 0.20

// Assemble partitions posts into reserved-category and general pools,
// guarantees the reserved pool floor(limit*0.20) slots, fills the remainder
// with the most recent general posts, and orders the merged list by urgency
// tier (critical > high > elevated > none) then recency.
func Assemble(posts []models.Post, limit int) []models.Post {
	if limit <= 0 || len(posts) == 0 {
		return []models.Post{}
	}

	var reserved, general []models.Post
	for _, post := range posts {
		if post.Source != nil && post.Source.Category == ReservedCategory {
			reserved = append(reserved, post)
		} else {
			general = append(general, post)
		}
	}
	sortByRecency(reserved)
	sortByRecency(general)

	quota := int(float64(limit) * reservedShare)
	if quota > len(reserved) {
		quota = len(reserved)
	}
	picked := pickReserved(reserved, quota)

	out := make([]models.Post, 0, limit)
	out = append(out, picked...)
	for _, post := range general {
		if len(out) >= limit {
			break
		}
		out = append(out, post)
	}
	// Spare capacity goes back to reserved posts that missed the quota.
	if len(out) < limit {
		inOut := idSet(out)
		for _, post := range reserved {
			if len(out) >= limit {
				break
			}
			if !inOut[post.ID] {
				out = append(out, post)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

// pickReserved fills the reserved quota: first at most one post per distinct
// reserved source (diversity pass), then the next most recent reserved posts
// regardless of source repetition.
func pickReserved(reserved []models.Post, quota int) []models.Post {
	picked := make([]models.Post, 0, quota)
	seenSource := make(map[string]bool)
	taken := make(map[string]bool)

	for _, post := range reserved {
		if len(picked) >= quota {
			break
		}
		sid := sourceID(post)
		if seenSource[sid] {
			continue
		}
		seenSource[sid] = true
		taken[post.ID] = true
		picked = append(picked, post)
	}
	for _, post := range reserved {
		if len(picked) >= quota {
			break
		}
		if taken[post.ID] {
			continue
		}
		taken[post.ID] = true
		picked = append(picked, post)
	}
	return picked
}

// less orders posts by urgency tier descending, then newest first, with the
// identifier as a final tie-break so the output is fully deterministic.
func less(a, b models.Post) bool {
	if a.Urgency != b.Urgency {
		return a.Urgency > b.Urgency
	}
	if !a.Published.Equal(b.Published) {
		return a.Published.After(b.Published)
	}
	return a.ID < b.ID
}

func sortByRecency(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].Published.Equal(posts[j].Published) {
			return posts[i].Published.After(posts[j].Published)
		}
		return posts[i].ID < posts[j].ID
	})
}

func sourceID(post models.Post) string {
	if post.Source == nil {
		return ""
	}
	return post.Source.ID
}

func idSet(posts []models.Post) map[string]bool {
	set := make(map[string]bool, len(posts))
	for _, post := range posts {
		set[post.ID] = true
	}
	return set
}
