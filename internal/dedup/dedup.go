// Package dedup removes duplicate posts from a fetch cycle while keeping
// the highest-confidence instance of each distinct story.
package dedup

import (
	"strings"
	"unicode"

	"github.com/north-cloud/pulse/internal/models"
)

const (
	// fingerprintLen is how many normalized characters of the title form
	// the cross-platform duplicate key.
	fingerprintLen = 80
	// minFingerprintLen guards against merging on headlines too short to
	// be a reliable signal.
	minFingerprintLen = 20
	// MaxPerSource caps how many posts a single source may contribute to
	// one cycle after deduplication.
	MaxPerSource = 3
)

// Fingerprint computes the normalized duplicate key for a title: the first
// 80 characters of its lower-cased, alphanumeric-only form. Returns "" when
// the result is shorter than the reliability floor.
//
// This is a deliberate heuristic: unrelated short headlines can collide and
// similar leading text can merge distinct stories. Callers accept that
// trade-off in exchange for catching the same story syndicated across
// platforms under different identifiers.
func Fingerprint(title string) string {
	var b strings.Builder
	b.Grow(fingerprintLen)
	runes := 0
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			runes++
			if runes >= fingerprintLen {
				break
			}
		}
	}
	// Lengths are in runes, not bytes: a Cyrillic or Arabic headline must not
	// clear the floor or hit the truncation point at half its character count.
	if runes < minFingerprintLen {
		return ""
	}
	return b.String()
}

// Deduplicate removes exact-identifier duplicates, then cross-platform
// near-duplicates by title fingerprint. For each fingerprint the first post
// seen is kept unless a later one has strictly higher source confidence, in
// which case it replaces the kept instance at its position. Input order is
// otherwise preserved.
func Deduplicate(posts []models.Post) []models.Post {
	seenID := make(map[string]bool, len(posts))
	byFingerprint := make(map[string]int)
	out := make([]models.Post, 0, len(posts))

	for _, post := range posts {
		if seenID[post.ID] {
			continue
		}
		seenID[post.ID] = true

		fp := Fingerprint(post.Title)
		if fp == "" {
			out = append(out, post)
			continue
		}

		keptIdx, dup := byFingerprint[fp]
		if !dup {
			byFingerprint[fp] = len(out)
			out = append(out, post)
			continue
		}
		if confidence(post) > confidence(out[keptIdx]) {
			out[keptIdx] = post
		}
	}
	return out
}

// CapPerSource drops posts beyond max per source, preserving the relative
// order of each source's surviving posts.
func CapPerSource(posts []models.Post, max int) []models.Post {
	counts := make(map[string]int)
	out := make([]models.Post, 0, len(posts))
	for _, post := range posts {
		id := ""
		if post.Source != nil {
			id = post.Source.ID
		}
		if counts[id] >= max {
			continue
		}
		counts[id]++
		out = append(out, post)
	}
	return out
}

// Process runs the full pipeline: exact pass, fingerprint pass, volume cap.
func Process(posts []models.Post) []models.Post {
	return CapPerSource(Deduplicate(posts), MaxPerSource)
}

func confidence(post models.Post) int {
	if post.Source == nil {
		return 0
	}
	return post.Source.Confidence
}
