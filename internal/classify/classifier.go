// Package classify assigns region and urgency tags to free text using
// data-driven keyword tables over an Aho-Corasick automaton.
package classify

import (
	"fmt"
	"strings"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/north-cloud/pulse/internal/models"
)

// scoreThreshold is the minimum region score required to trust a keyword
// classification over the source's declared default.
const scoreThreshold = 3

type regionRef struct {
	region string
	tier   Tier
}

// Classifier maps free text to exactly one region tag and one urgency tier.
// Construction builds a single automaton over every keyword; matching is one
// pass through the text regardless of table size.
type Classifier struct {
	order       []string
	matcher     *ahocorasick.Matcher
	keywords    []string
	refs        [][]regionRef
	urgMatcher  *ahocorasick.Matcher
	urgKeywords []string
	urgLevels   []models.Urgency
	regionRank  map[string]int
}

// New builds a classifier from a region evaluation order and keyword tables.
// Every pattern's region must appear in the order slice.
func New(order []string, patterns []Pattern, urgency []UrgencyPattern) (*Classifier, error) {
	c := &Classifier{
		order:      order,
		regionRank: make(map[string]int, len(order)),
	}
	for i, region := range order {
		if _, dup := c.regionRank[region]; dup {
			return nil, fmt.Errorf("classifier: duplicate region %q in order", region)
		}
		c.regionRank[region] = i
	}

	byKeyword := make(map[string][]regionRef)
	for _, p := range patterns {
		if _, ok := c.regionRank[p.Region]; !ok {
			return nil, fmt.Errorf("classifier: pattern region %q not in region order", p.Region)
		}
		if p.Tier < TierLow || p.Tier > TierHigh {
			return nil, fmt.Errorf("classifier: pattern %q has invalid tier %d", p.Keyword, p.Tier)
		}
		kw := padKeyword(p.Keyword)
		if kw == "" {
			continue
		}
		byKeyword[kw] = append(byKeyword[kw], regionRef{region: p.Region, tier: p.Tier})
	}
	c.keywords = make([]string, 0, len(byKeyword))
	c.refs = make([][]regionRef, 0, len(byKeyword))
	for kw, refs := range byKeyword {
		c.keywords = append(c.keywords, kw)
		c.refs = append(c.refs, refs)
	}
	if len(c.keywords) > 0 {
		c.matcher = ahocorasick.NewStringMatcher(c.keywords)
	}

	urgByKeyword := make(map[string]models.Urgency)
	for _, p := range urgency {
		kw := padKeyword(p.Keyword)
		if kw == "" {
			continue
		}
		// Highest tier wins when the same keyword is listed twice.
		if p.Level > urgByKeyword[kw] {
			urgByKeyword[kw] = p.Level
		}
	}
	c.urgKeywords = make([]string, 0, len(urgByKeyword))
	c.urgLevels = make([]models.Urgency, 0, len(urgByKeyword))
	for kw, level := range urgByKeyword {
		c.urgKeywords = append(c.urgKeywords, kw)
		c.urgLevels = append(c.urgLevels, level)
	}
	if len(c.urgKeywords) > 0 {
		c.urgMatcher = ahocorasick.NewStringMatcher(c.urgKeywords)
	}

	return c, nil
}

// NewDefault builds a classifier over the built-in tables.
func NewDefault() *Classifier {
	c, err := New(RegionOrder, DefaultPatterns(), DefaultUrgencyPatterns())
	if err != nil {
		// Built-in tables are static; a failure here is a programming error.
		panic(err)
	}
	return c
}

// Regions returns the classifier's region evaluation order.
func (c *Classifier) Regions() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Region assigns exactly one region tag to a post's text.
//
// Region-locked sources always keep their declared region; the text is never
// inspected. Otherwise keyword scores are summed per region (high=3, med=2,
// low=1, each distinct keyword counted once) and the best region wins if its
// score reaches the threshold or it matched a high-specificity keyword.
// Ties go to the region evaluated first in the fixed order. With no winner
// the source's declared region is used, then "all".
func (c *Classifier) Region(src *models.Source, title, body string) string {
	if src != nil && src.RegionLocked {
		return src.Region
	}

	scores, highHit := c.score(title, body)

	best := ""
	bestScore := 0
	for _, region := range c.order {
		if s := scores[region]; s > bestScore {
			best = region
			bestScore = s
		}
	}
	if best != "" && (bestScore >= scoreThreshold || highHit[best]) {
		return best
	}
	if src != nil && src.Region != "" {
		return src.Region
	}
	return models.RegionAll
}

func (c *Classifier) score(title, body string) (map[string]int, map[string]bool) {
	scores := make(map[string]int)
	highHit := make(map[string]bool)
	if c.matcher == nil {
		return scores, highHit
	}

	text := normalizeText(title + " " + body)
	for _, hit := range c.matcher.Match([]byte(text)) {
		if hit >= len(c.refs) {
			continue
		}
		for _, ref := range c.refs[hit] {
			scores[ref.region] += int(ref.tier)
			if ref.tier == TierHigh {
				highHit[ref.region] = true
			}
		}
	}
	return scores, highHit
}

// Urgency returns the highest urgency tier whose keyword appears in the text.
func (c *Classifier) Urgency(title, body string) models.Urgency {
	if c.urgMatcher == nil {
		return models.UrgencyNone
	}

	text := normalizeText(title + " " + body)
	level := models.UrgencyNone
	for _, hit := range c.urgMatcher.Match([]byte(text)) {
		if hit >= len(c.urgLevels) {
			continue
		}
		if c.urgLevels[hit] > level {
			level = c.urgLevels[hit]
		}
	}
	return level
}

// Classify stamps region, urgency and verification onto a post in place.
func (c *Classifier) Classify(post *models.Post) {
	post.Region = c.Region(post.Source, post.Title, post.Body)
	post.Urgency = c.Urgency(post.Title, post.Body)
	if post.Source != nil {
		post.Verification = post.Source.Verification()
	}
}

// padKeyword normalizes a keyword and wraps it in spaces so automaton hits
// land on word boundaries of the space-normalized text.
func padKeyword(kw string) string {
	kw = strings.TrimSpace(normalizeText(kw))
	if kw == "" {
		return ""
	}
	return " " + kw + " "
}

// normalizeText lowercases and replaces every run of non-alphanumeric runes
// with a single space, padding the ends so padded keywords can match at the
// boundaries. Collapsing runs keeps multi-word keywords matching text like
// "Black, Sea" where punctuation sits between the words.
func normalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteByte(' ')
	pending := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending {
				b.WriteByte(' ')
				pending = false
			}
			b.WriteRune(r)
		} else {
			pending = true
		}
	}
	b.WriteByte(' ')
	return b.String()
}
