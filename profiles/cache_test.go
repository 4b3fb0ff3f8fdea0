package profiles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roostapp/roost-sync/kvstore"
	"github.com/roostapp/roost-sync/models"
)

func TestProfileRoundTrip(t *testing.T) {
	c := NewCache(kvstore.NewMemoryStore(), nil)
	ctx := context.Background()

	c.SaveProfile(ctx, Profile{UserID: "u1", UserName: "Dana", UserHandle: "@dana"})

	got, ok := c.GetProfile(ctx, "u1")
	require.True(t, ok)
	assert.Equal(t, "Dana", got.UserName)
	assert.True(t, got.UpdatedAt.Valid())

	_, ok = c.GetProfile(ctx, "u2")
	assert.False(t, ok)
}

func TestSavedSpots_DedupAndRemove(t *testing.T) {
	c := NewCache(kvstore.NewMemoryStore(), nil)
	ctx := context.Background()

	c.SaveSpot(ctx, SavedSpot{PlaceID: "p1", Name: "Roast House"})
	c.SaveSpot(ctx, SavedSpot{Name: "The Stacks"})
	// Re-saving the same place replaces rather than duplicates.
	c.SaveSpot(ctx, SavedSpot{PlaceID: "p1", Name: "Roast House (renamed)"})

	spots := c.SavedSpots(ctx)
	require.Len(t, spots, 2)
	assert.Equal(t, "Roast House (renamed)", spots[0].Name, "newest first")

	c.RemoveSpot(ctx, "p1")
	spots = c.SavedSpots(ctx)
	require.Len(t, spots, 1)
	assert.Equal(t, models.NormalizeSpotName("The Stacks"), spots[0].Key())
}
