package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// VerificationTier is derived once from source metadata when a post is
// created and never mutated afterwards.
type VerificationTier string

const (
	VerificationVerified   VerificationTier = "verified"
	VerificationReliable   VerificationTier = "reliable"
	VerificationStandard   VerificationTier = "standard"
	VerificationUnverified VerificationTier = "unverified"
	VerificationMachine    VerificationTier = "machine"
)

// Urgency orders posts inside the assembled feed. Higher values sort first.
// The tiers are fixed: critical > high > elevated > none.
type Urgency int

const (
	UrgencyNone     Urgency = 0
	UrgencyElevated Urgency = 1
	UrgencyHigh     Urgency = 2
	UrgencyCritical Urgency = 3
)

// String returns the wire name for an urgency tier.
func (u Urgency) String() string {
	switch u {
	case UrgencyCritical:
		return "critical"
	case UrgencyHigh:
		return "high"
	case UrgencyElevated:
		return "elevated"
	default:
		return "none"
	}
}

// MarshalJSON emits the tier name rather than its numeric rank.
func (u Urgency) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.String() + `"`), nil
}

// Post is the canonical unit flowing through the pipeline. Created once per
// fetch cycle by a platform adapter and immutable after classification;
// whole batches age out of the cache, posts are never deleted individually.
type Post struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Body         string           `json:"body,omitempty"`
	Source       *Source          `json:"source"`
	Published    time.Time        `json:"published"`
	Region       string           `json:"region"`
	Verification VerificationTier `json:"verification"`
	Urgency      Urgency          `json:"urgency"`
	URL          string           `json:"url,omitempty"`
	Media        []string         `json:"media,omitempty"`
	ReplyTo      string           `json:"reply_to,omitempty"`
}

// postIDLen is the number of hex characters kept from the digest.
const postIDLen = 16

// PostID derives the stable post identifier from the source id and the
// item's link (or title when no link exists). Re-fetching the same item
// always yields the same identifier.
func PostID(sourceID, ref string) string {
	sum := sha256.Sum256([]byte(sourceID + "|" + ref))
	return hex.EncodeToString(sum[:])[:postIDLen]
}
