// Package models defines the data types shared by the check-in cache,
// pending-write queue and reconciliation engine.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Windows and limits applied across the engine.
const (
	// LiveWindow is how long a check-in counts as "live" for feed and
	// grouping purposes after it was created.
	LiveWindow = 12 * time.Hour

	// HistoryWindow is the rolling local retention window. Records older
	// than this are pruned from the on-device history.
	HistoryWindow = 30 * 24 * time.Hour

	// SignatureBucket is the time-bucket size used by the fuzzy dedup
	// signature. The 5-minute size and the ±1 bucket tolerance applied by
	// the reconciler are heuristics tuned for clock skew between devices.
	SignatureBucket = 5 * time.Minute

	// MaxFeedItems bounds the merged feed kept in memory and on disk.
	MaxFeedItems = 600

	// PhotoGraceWindow is how long a photo-less record may displace a
	// record with a photo at the same place (see reconcile grouping).
	PhotoGraceWindow = 2 * time.Hour
)

// Visibility controls who may see a check-in. Unknown values are passed
// through untouched so newer app versions can add audiences.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityFriends Visibility = "friends"
	VisibilityClose   Visibility = "close"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CheckinRecord is a user's claim of presence at a place. A record is
// created locally at check-in time without an ID, and gains the
// backend-assigned ID once the push succeeds; ClientID is stable across
// that promotion and is the primary dedup key.
type CheckinRecord struct {
	ID       string `json:"id,omitempty"`
	ClientID string `json:"clientId,omitempty"`

	// Denormalized author snapshot; may lag the authoritative profile.
	UserID       string `json:"userId,omitempty"`
	UserName     string `json:"userName,omitempty"`
	UserHandle   string `json:"userHandle,omitempty"`
	UserPhotoURL string `json:"userPhotoUrl,omitempty"`

	// Place identity. SpotPlaceID is preferred; the free-text names are
	// the fallback (Spot is a legacy alias of SpotName).
	SpotName    string  `json:"spotName,omitempty"`
	Spot        string  `json:"spot,omitempty"`
	SpotPlaceID string  `json:"spotPlaceId,omitempty"`
	SpotLatLng  *LatLng `json:"spotLatLng,omitempty"`

	// Photo reference. A record may exist before its photo upload
	// completes; PhotoPending marks that state.
	PhotoURL     string `json:"photoUrl,omitempty"`
	Image        string `json:"image,omitempty"`
	PhotoPending bool   `json:"photoPending,omitempty"`

	Caption    string     `json:"caption,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Visibility Visibility `json:"visibility,omitempty"`

	CreatedAt Time `json:"createdAt,omitzero"`
	ExpiresAt Time `json:"expiresAt,omitzero"`
}

// EffectiveSpotName returns the best available free-text place name.
func (r *CheckinRecord) EffectiveSpotName() string {
	if r.SpotName != "" {
		return r.SpotName
	}
	return r.Spot
}

// HasPhoto reports whether the record carries any photo reference.
func (r *CheckinRecord) HasPhoto() bool {
	return r.PhotoURL != "" || r.Image != ""
}

// Live reports whether the record is still inside its live window.
// Records without a usable ExpiresAt fall back to CreatedAt+LiveWindow;
// records with no usable timestamp at all are treated as live (fail open).
func (r *CheckinRecord) Live(now time.Time) bool {
	if r.ExpiresAt.Valid() {
		return now.Before(r.ExpiresAt.Time)
	}
	if r.CreatedAt.Valid() {
		return now.Before(r.CreatedAt.Time.Add(LiveWindow))
	}
	return true
}

// PlaceKey identifies the place for grouping: the place ID when present,
// otherwise the normalized free-text name.
func (r *CheckinRecord) PlaceKey() string {
	if r.SpotPlaceID != "" {
		return "p:" + r.SpotPlaceID
	}
	return "n:" + NormalizeSpotName(r.EffectiveSpotName())
}

// SignatureKey is the fuzzy dedup key used when two copies of the same
// event share no identifier: author, normalized place name, and the
// record's 5-minute time bucket.
func (r *CheckinRecord) SignatureKey() string {
	return SignatureAt(r.UserID, r.EffectiveSpotName(), TimeBucket(r.CreatedAt))
}

// DedupKey is the strict dedup key: ID wins over ClientID, which wins
// over an exact-millisecond signature.
func (r *CheckinRecord) DedupKey() string {
	if r.ID != "" {
		return "id:" + r.ID
	}
	if r.ClientID != "" {
		return "cid:" + r.ClientID
	}
	place := r.SpotPlaceID
	if place == "" {
		place = r.EffectiveSpotName()
	}
	return fmt.Sprintf("sig:%s|%s|%d", orAnon(r.UserID), place, r.CreatedAt.UnixMilli())
}

// TimeBucket maps a timestamp onto its SignatureBucket-sized bucket.
// Invalid timestamps map to bucket zero.
func TimeBucket(t Time) int64 {
	if !t.Valid() {
		return 0
	}
	return t.UnixMilli() / SignatureBucket.Milliseconds()
}

// SignatureAt builds a signature key for an explicit bucket, letting the
// reconciler probe adjacent buckets.
func SignatureAt(userID, spotName string, bucket int64) string {
	return fmt.Sprintf("%s|%s|%d", orAnon(userID), NormalizeSpotName(spotName), bucket)
}

// NormalizeSpotName lower-cases the name, strips everything that is not
// a letter, digit or space, and collapses runs of whitespace.
func NormalizeSpotName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastSpace := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func orAnon(userID string) string {
	if userID == "" {
		return "anon"
	}
	return userID
}
