package checkins

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roostapp/roost-sync/kvstore"
	"github.com/roostapp/roost-sync/models"
)

func newTestRepo(t *testing.T) (*Repository, *kvstore.MemoryStore) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	return NewRepository(store, nil), store
}

func storedList(t *testing.T, store kvstore.Store) []models.CheckinRecord {
	t.Helper()
	raw, found, err := store.Get(context.Background(), "roost.checkins")
	require.NoError(t, err)
	require.True(t, found)
	var list []models.CheckinRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &list))
	return list
}

func TestSave_StampsAndPrepends(t *testing.T) {
	repo, store := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.Save(ctx, &models.CheckinRecord{UserID: "u1", SpotName: "Roast House"})
	require.NoError(t, err)
	second, err := repo.Save(ctx, &models.CheckinRecord{UserID: "u1", SpotName: "The Stacks"})
	require.NoError(t, err)

	assert.NotEmpty(t, first.ClientID)
	assert.NotEmpty(t, first.ID)
	require.True(t, first.CreatedAt.Valid())
	require.True(t, first.ExpiresAt.Valid())
	assert.Equal(t, models.LiveWindow, first.ExpiresAt.Time.Sub(first.CreatedAt.Time))

	list := storedList(t, store)
	require.Len(t, list, 2)
	assert.Equal(t, second.ClientID, list[0].ClientID, "newest first")

	at, ok := repo.LastCheckinAt(ctx)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), at, time.Minute)
}

func TestSave_StripsInlinePhoto(t *testing.T) {
	repo, store := newTestRepo(t)

	rec, err := repo.Save(context.Background(), &models.CheckinRecord{
		UserID:   "u1",
		SpotName: "Roast House",
		PhotoURL: "data:image/jpeg;base64,AAAA",
	})
	require.NoError(t, err)

	assert.Empty(t, rec.PhotoURL)
	assert.True(t, rec.PhotoPending)
	assert.NotContains(t, storedList(t, store)[0].PhotoURL, "data:")
}

func TestUpdate_StrictNoUpsert(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, &models.CheckinRecord{UserID: "u1", SpotName: "Roast House"})
	require.NoError(t, err)

	caption := "long black"
	updated, err := repo.UpdateByClientID(ctx, saved.ClientID, models.CheckinPatch{Caption: &caption})
	require.NoError(t, err)
	assert.Equal(t, "long black", updated.Caption)

	_, err = repo.UpdateByClientID(ctx, "nope", models.CheckinPatch{Caption: &caption})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.UpdateByID(ctx, "nope", models.CheckinPatch{Caption: &caption})
	assert.ErrorIs(t, err, ErrNotFound)

	// No record was created by the failed updates.
	assert.Len(t, repo.List(ctx), 1)
}

func TestRemoveByID(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, &models.CheckinRecord{UserID: "u1", SpotName: "Roast House"})
	require.NoError(t, err)

	require.NoError(t, repo.RemoveByID(ctx, saved.ID))
	assert.Empty(t, repo.List(ctx))
}

func TestList_PrunesHistoryFailOpen(t *testing.T) {
	repo, store := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	raw, err := json.Marshal([]map[string]any{
		{"clientId": "old", "createdAt": now.Add(-31 * 24 * time.Hour).Format(time.RFC3339)},
		{"clientId": "recent", "createdAt": now.Add(-29 * 24 * time.Hour).Format(time.RFC3339)},
		{"clientId": "mangled", "createdAt": "not-a-date"},
	})
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "roost.checkins", string(raw)))

	list := repo.List(ctx)
	ids := make([]string, 0, len(list))
	for _, rec := range list {
		ids = append(ids, rec.ClientID)
	}
	assert.ElementsMatch(t, []string{"recent", "mangled"}, ids)

	// The pruned form was persisted back.
	assert.Len(t, storedList(t, store), 2)
}

func TestList_NormalizesRemotePhotoIntoImage(t *testing.T) {
	repo, store := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Save(ctx, &models.CheckinRecord{
		UserID:   "u1",
		SpotName: "Roast House",
		PhotoURL: "https://cdn.example.com/p.jpg",
	})
	require.NoError(t, err)

	list := repo.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, "https://cdn.example.com/p.jpg", list[0].Image)
	assert.Equal(t, list[0].Image, storedList(t, store)[0].Image)
}

// failingStore rejects every operation, forcing the mirror path.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("boom")
}
func (failingStore) Set(context.Context, string, string) error { return errors.New("boom") }
func (failingStore) Remove(context.Context, string) error      { return errors.New("boom") }
func (failingStore) Close() error                              { return nil }

func TestRepository_DegradesToMirror(t *testing.T) {
	repo := NewRepository(failingStore{}, nil)
	ctx := context.Background()

	saved, err := repo.Save(ctx, &models.CheckinRecord{UserID: "u1", SpotName: "Roast House"})
	require.NoError(t, err, "storage failure must not surface")

	list := repo.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, saved.ClientID, list[0].ClientID)
}
