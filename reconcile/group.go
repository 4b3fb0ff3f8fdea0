package reconcile

import (
	"sort"
	"time"

	"github.com/roostapp/roost-sync/models"
)

// PlaceGroup summarizes the check-ins at one place for display: "how
// many distinct things happened here" plus the record shown for the
// group.
type PlaceGroup struct {
	// PlaceKey is the identity the group was keyed on: the place ID when
	// available, otherwise the normalized free-text name.
	PlaceKey string

	Representative models.CheckinRecord

	// GroupCount counts records still inside their live window.
	GroupCount int

	// TotalCount counts every record ever grouped here.
	TotalCount int
}

// GroupByPlace buckets records by place identity and picks a
// representative per group. Groups are ordered by their representative's
// createdAt, newest first.
func GroupByPlace(records []models.CheckinRecord, now time.Time) []PlaceGroup {
	order := make([]string, 0)
	groups := make(map[string]*PlaceGroup)

	for i := range records {
		rec := records[i]
		key := rec.PlaceKey()

		g, ok := groups[key]
		if !ok {
			g = &PlaceGroup{PlaceKey: key, Representative: rec}
			groups[key] = g
			order = append(order, key)
		} else if displaces(&rec, &g.Representative) {
			g.Representative = rec
		}

		g.TotalCount++
		if rec.Live(now) {
			g.GroupCount++
		}
	}

	out := make([]PlaceGroup, 0, len(groups))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return createdMilli(&out[i].Representative) > createdMilli(&out[j].Representative)
	})
	return out
}

// displaces decides whether cand replaces inc as a group's
// representative. Plain recency would flicker the feed between a photo
// and a blank placeholder while a newer check-in's photo is still
// uploading, so a record without a photo never displaces one that has
// one, and a photo'd record may displace a photo-less incumbent even
// when it is up to PhotoGraceWindow older.
func displaces(cand, inc *models.CheckinRecord) bool {
	switch {
	case cand.HasPhoto() && !inc.HasPhoto():
		if createdMilli(cand) > createdMilli(inc) {
			return true
		}
		return createdMilli(inc)-createdMilli(cand) <= models.PhotoGraceWindow.Milliseconds()
	case !cand.HasPhoto() && inc.HasPhoto():
		return false
	default:
		return createdMilli(cand) > createdMilli(inc)
	}
}
