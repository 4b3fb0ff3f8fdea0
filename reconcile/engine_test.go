package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roostapp/roost-sync/checkins"
	"github.com/roostapp/roost-sync/kvstore"
	"github.com/roostapp/roost-sync/models"
)

func TestEngine_MergeFeedPersistsResult(t *testing.T) {
	ctx := context.Background()
	repo := checkins.NewRepository(kvstore.NewMemoryStore(), nil)
	engine := NewEngine(repo, nil)

	local, err := repo.Save(ctx, &models.CheckinRecord{UserID: "u1", SpotName: "Roast House", PhotoURL: "file://local.jpg"})
	require.NoError(t, err)

	remote := models.CheckinRecord{
		ID:        "srv1",
		ClientID:  local.ClientID,
		UserID:    "u1",
		SpotName:  "Roast House",
		CreatedAt: local.CreatedAt,
	}

	merged := engine.MergeFeed(ctx, []models.CheckinRecord{remote})
	require.Len(t, merged, 1)
	assert.Equal(t, "srv1", merged[0].ID)
	assert.Equal(t, "file://local.jpg", merged[0].PhotoURL)

	// The repository now serves the merged view: merging again is a no-op.
	again := engine.MergeFeed(ctx, []models.CheckinRecord{remote})
	assert.Equal(t, merged, again)
}

func TestEngine_MergeIncremental(t *testing.T) {
	ctx := context.Background()
	repo := checkins.NewRepository(kvstore.NewMemoryStore(), nil)
	engine := NewEngine(repo, nil)

	_, err := repo.Save(ctx, &models.CheckinRecord{UserID: "u1", SpotName: "Roast House"})
	require.NoError(t, err)

	incoming := []models.CheckinRecord{{
		ID:        "srv9",
		ClientID:  "c9",
		UserID:    "u2",
		SpotName:  "The Stacks",
		CreatedAt: models.NewTime(time.Now()),
	}}

	merged := engine.MergeIncremental(ctx, incoming)
	assert.Len(t, merged, 2)

	// Idempotent: the same emission applied twice changes nothing.
	assert.Equal(t, merged, engine.MergeIncremental(ctx, incoming))
}

func TestEngine_NilRepoReturnsRemoteUnmodified(t *testing.T) {
	engine := NewEngine(nil, nil)
	remote := []models.CheckinRecord{{ID: "srv1"}}
	assert.Equal(t, remote, engine.MergeFeed(context.Background(), remote))
}
