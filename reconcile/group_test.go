package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roostapp/roost-sync/models"
)

func placed(clientID, placeID string, at time.Time, photo string) models.CheckinRecord {
	return models.CheckinRecord{
		ClientID:    clientID,
		UserID:      "u1",
		SpotPlaceID: placeID,
		SpotName:    "Roast House",
		PhotoURL:    photo,
		CreatedAt:   models.NewTime(at),
		ExpiresAt:   models.NewTime(at.Add(models.LiveWindow)),
	}
}

func TestGroupByPlace_CountsLiveAndTotal(t *testing.T) {
	now := t0.Add(13 * time.Hour)

	expired := placed("c1", "p1", t0, "")           // past its live window at `now`
	live := placed("c2", "p1", t0.Add(2*time.Hour), "") // still live

	groups := GroupByPlace([]models.CheckinRecord{expired, live}, now)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].GroupCount, "expired record leaves the live count")
	assert.Equal(t, 2, groups[0].TotalCount, "but stays in the total")
}

func TestGroupByPlace_KeysOnPlaceIDThenName(t *testing.T) {
	byID := placed("c1", "p1", t0, "")
	byName := placed("c2", "", t0.Add(time.Minute), "")
	byLegacyName := models.CheckinRecord{
		ClientID:  "c3",
		Spot:      "roast  house",
		CreatedAt: models.NewTime(t0.Add(2 * time.Minute)),
	}

	groups := GroupByPlace([]models.CheckinRecord{byID, byName, byLegacyName}, t0.Add(time.Hour))
	require.Len(t, groups, 2)

	var nameGroup *PlaceGroup
	for i := range groups {
		if groups[i].PlaceKey == "n:roast house" {
			nameGroup = &groups[i]
		}
	}
	require.NotNil(t, nameGroup)
	assert.Equal(t, 2, nameGroup.TotalCount, "spotName and legacy spot normalize together")
}

func TestGroupByPlace_RepresentativePhotoRules(t *testing.T) {
	now := t0.Add(3 * time.Hour)

	t.Run("photo-less never displaces a photo", func(t *testing.T) {
		withPhoto := placed("c1", "p1", t0, "https://cdn.example.com/p.jpg")
		newerNoPhoto := placed("c2", "p1", t0.Add(time.Minute), "")

		groups := GroupByPlace([]models.CheckinRecord{withPhoto, newerNoPhoto}, now)
		require.Len(t, groups, 1)
		assert.Equal(t, "c1", groups[0].Representative.ClientID)
	})

	t.Run("photo displaces photo-less incumbent within the grace window", func(t *testing.T) {
		noPhoto := placed("c1", "p1", t0, "")
		olderWithPhoto := placed("c2", "p1", t0.Add(-time.Hour), "https://cdn.example.com/p.jpg")

		groups := GroupByPlace([]models.CheckinRecord{noPhoto, olderWithPhoto}, now)
		require.Len(t, groups, 1)
		assert.Equal(t, "c2", groups[0].Representative.ClientID)
	})

	t.Run("photo too old does not displace", func(t *testing.T) {
		noPhoto := placed("c1", "p1", t0, "")
		staleWithPhoto := placed("c2", "p1", t0.Add(-3*time.Hour), "https://cdn.example.com/p.jpg")

		groups := GroupByPlace([]models.CheckinRecord{noPhoto, staleWithPhoto}, now)
		require.Len(t, groups, 1)
		assert.Equal(t, "c1", groups[0].Representative.ClientID)
	})

	t.Run("both have photos, newer wins", func(t *testing.T) {
		older := placed("c1", "p1", t0, "https://cdn.example.com/a.jpg")
		newer := placed("c2", "p1", t0.Add(time.Minute), "https://cdn.example.com/b.jpg")

		groups := GroupByPlace([]models.CheckinRecord{older, newer}, now)
		require.Len(t, groups, 1)
		assert.Equal(t, "c2", groups[0].Representative.ClientID)
	})
}

func TestGroupByPlace_OrderedByRepresentativeRecency(t *testing.T) {
	a := placed("c1", "p1", t0, "")
	b := placed("c2", "p2", t0.Add(time.Hour), "")

	groups := GroupByPlace([]models.CheckinRecord{a, b}, t0.Add(2*time.Hour))
	require.Len(t, groups, 2)
	assert.Equal(t, "p:p2", groups[0].PlaceKey)
}
