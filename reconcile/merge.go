// Package reconcile merges local and remote views of the check-in
// stream into one deduplicated, time-ordered feed. Two copies of the
// same logical event can carry different identifiers (a check-in made
// offline has only a provisional identity until the backend assigns one),
// so matching falls back from clientId to a fuzzy time-bucketed
// signature.
package reconcile

import (
	"sort"

	"github.com/roostapp/roost-sync/models"
)

// MergeRemoteWithLocal combines a page of remote check-ins with the
// local cache. Remote items are authoritative: when a local match is
// found the remote copy wins as the base record but inherits any
// locally-known field the remote copy is still missing (photo and author
// snapshot), since photo upload and backend propagation are asynchronous
// and briefly inconsistent. Local records left unconsumed are appended
// as-is. The result is sorted by createdAt descending.
func MergeRemoteWithLocal(remote, local []models.CheckinRecord) []models.CheckinRecord {
	byClientID := make(map[string]int, len(local))
	bySignature := make(map[string][]int, len(local))
	for i := range local {
		if cid := local[i].ClientID; cid != "" {
			if _, dup := byClientID[cid]; !dup {
				byClientID[cid] = i
			}
		}
		sig := local[i].SignatureKey()
		bySignature[sig] = append(bySignature[sig], i)
	}

	consumed := make([]bool, len(local))
	out := make([]models.CheckinRecord, 0, len(remote)+len(local))

	for _, rem := range remote {
		idx := -1
		if rem.ClientID != "" {
			if i, ok := byClientID[rem.ClientID]; ok && !consumed[i] {
				idx = i
			}
		}
		if idx < 0 {
			idx = probeSignature(&rem, bySignature, consumed)
		}

		if idx >= 0 {
			consumed[idx] = true
			out = append(out, inherit(rem, &local[idx]))
		} else {
			out = append(out, rem)
		}
	}

	// Anything left is local-only: it has not reached the backend yet.
	for i := range local {
		if !consumed[i] {
			out = append(out, local[i])
		}
	}

	sortByCreatedDesc(out)
	return out
}

// probeSignature looks for a local record in the remote item's own time
// bucket and the two adjacent buckets, absorbing clock skew and bucket
// boundary effects.
func probeSignature(rem *models.CheckinRecord, bySignature map[string][]int, consumed []bool) int {
	bucket := models.TimeBucket(rem.CreatedAt)
	for _, delta := range []int64{0, -1, 1} {
		sig := models.SignatureAt(rem.UserID, rem.EffectiveSpotName(), bucket+delta)
		for _, i := range bySignature[sig] {
			if !consumed[i] {
				return i
			}
		}
	}
	return -1
}

// inherit copies locally-known fields the remote copy is missing.
func inherit(rem models.CheckinRecord, loc *models.CheckinRecord) models.CheckinRecord {
	if rem.PhotoURL == "" {
		rem.PhotoURL = loc.PhotoURL
	}
	if rem.Image == "" {
		// Resolver fallback: the local image field, else whatever photo
		// URI the local copy knows.
		if loc.Image != "" {
			rem.Image = loc.Image
		} else {
			rem.Image = loc.PhotoURL
		}
	}
	if rem.UserName == "" {
		rem.UserName = loc.UserName
	}
	if rem.UserHandle == "" {
		rem.UserHandle = loc.UserHandle
	}
	return rem
}

// MergeUnique is the idempotent merge used whenever two partial views of
// the feed (a realtime push and a paged fetch, say) must combine without
// duplicates or lost updates. Per dedup key the record with the
// greater-or-equal createdAt wins; ties favor the later-seen (incoming)
// item. The result is sorted by createdAt descending and truncated to
// maxItems (models.MaxFeedItems when maxItems <= 0).
func MergeUnique(existing, incoming []models.CheckinRecord, maxItems int) []models.CheckinRecord {
	if maxItems <= 0 {
		maxItems = models.MaxFeedItems
	}

	byKey := make(map[string]int, len(existing)+len(incoming))
	out := make([]models.CheckinRecord, 0, len(existing)+len(incoming))

	apply := func(rec models.CheckinRecord) {
		key := rec.DedupKey()
		if i, ok := byKey[key]; ok {
			if createdMilli(&rec) >= createdMilli(&out[i]) {
				out[i] = rec
			}
			return
		}
		byKey[key] = len(out)
		out = append(out, rec)
	}

	for _, rec := range existing {
		apply(rec)
	}
	for _, rec := range incoming {
		apply(rec)
	}

	sortByCreatedDesc(out)
	if len(out) > maxItems {
		out = out[:maxItems]
	}
	return out
}

func createdMilli(r *models.CheckinRecord) int64 {
	if !r.CreatedAt.Valid() {
		return 0
	}
	return r.CreatedAt.UnixMilli()
}

func sortByCreatedDesc(list []models.CheckinRecord) {
	sort.SliceStable(list, func(i, j int) bool {
		return createdMilli(&list[i]) > createdMilli(&list[j])
	})
}
