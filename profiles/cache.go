// Package profiles keeps the per-user profile cache and the saved-spots
// list in the durable store. Like the check-in repository it is
// best-effort: storage failures degrade to the in-memory view.
package profiles

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/roostapp/roost-sync/kvstore"
	"github.com/roostapp/roost-sync/logging"
	"github.com/roostapp/roost-sync/models"
)

const (
	savedSpotsKey    = "roost.savedSpots"
	profileKeyPrefix = "roost.profile."
)

// Profile is the cached author snapshot for one user.
type Profile struct {
	UserID       string      `json:"userId"`
	UserName     string      `json:"userName,omitempty"`
	UserHandle   string      `json:"userHandle,omitempty"`
	UserPhotoURL string      `json:"userPhotoUrl,omitempty"`
	Bio          string      `json:"bio,omitempty"`
	UpdatedAt    models.Time `json:"updatedAt,omitzero"`
}

// SavedSpot is a place the user bookmarked.
type SavedSpot struct {
	PlaceID string         `json:"placeId,omitempty"`
	Name    string         `json:"name"`
	LatLng  *models.LatLng `json:"latLng,omitempty"`
	SavedAt models.Time    `json:"savedAt,omitzero"`
}

// Key identifies the spot: place ID when known, else normalized name.
func (s *SavedSpot) Key() string {
	if s.PlaceID != "" {
		return s.PlaceID
	}
	return models.NormalizeSpotName(s.Name)
}

type Cache struct {
	store kvstore.Store
	log   logging.Logger
	now   func() time.Time

	mu          sync.Mutex
	spotsMirror []SavedSpot
	profiles    map[string]Profile
}

func NewCache(store kvstore.Store, log logging.Logger) *Cache {
	if log == nil {
		log = logging.NewNop()
	}
	return &Cache{store: store, log: log, now: time.Now, profiles: make(map[string]Profile)}
}

// SaveProfile caches the snapshot under the user's own key.
func (c *Cache) SaveProfile(ctx context.Context, p Profile) {
	if p.UserID == "" {
		return
	}
	p.UpdatedAt = models.NewTime(c.now())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[p.UserID] = p

	data, err := json.Marshal(p)
	if err != nil {
		c.log.Error(ctx, "failed to encode profile", "userId", p.UserID, "error", err)
		return
	}
	if err := c.store.Set(ctx, profileKeyPrefix+p.UserID, string(data)); err != nil {
		c.log.Warn(ctx, "failed to persist profile, mirror only", "userId", p.UserID, "error", err)
	}
}

// GetProfile returns the cached snapshot, if any.
func (c *Cache) GetProfile(ctx context.Context, userID string) (*Profile, bool) {
	raw, found, err := c.store.Get(ctx, profileKeyPrefix+userID)
	if err == nil && found {
		var p Profile
		if json.Unmarshal([]byte(raw), &p) == nil {
			return &p, true
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.profiles[userID]; ok {
		return &p, true
	}
	return nil, false
}

// SaveSpot adds or refreshes a bookmark; at most one entry per place.
func (c *Cache) SaveSpot(ctx context.Context, spot SavedSpot) {
	spot.SavedAt = models.NewTime(c.now())

	c.mu.Lock()
	defer c.mu.Unlock()

	spots := c.loadSpots(ctx)
	kept := make([]SavedSpot, 0, len(spots)+1)
	kept = append(kept, spot)
	for _, s := range spots {
		if s.Key() != spot.Key() {
			kept = append(kept, s)
		}
	}
	c.persistSpots(ctx, kept)
}

// RemoveSpot drops the bookmark for the given key (place ID or
// normalized name).
func (c *Cache) RemoveSpot(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	spots := c.loadSpots(ctx)
	kept := spots[:0:0]
	for _, s := range spots {
		if s.Key() != key {
			kept = append(kept, s)
		}
	}
	c.persistSpots(ctx, kept)
}

// SavedSpots returns the current bookmarks, newest first.
func (c *Cache) SavedSpots(ctx context.Context) []SavedSpot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SavedSpot(nil), c.loadSpots(ctx)...)
}

func (c *Cache) loadSpots(ctx context.Context) []SavedSpot {
	raw, found, err := c.store.Get(ctx, savedSpotsKey)
	if err != nil {
		c.log.Warn(ctx, "failed to read saved spots, using mirror", "error", err)
		return append([]SavedSpot(nil), c.spotsMirror...)
	}
	if !found {
		return append([]SavedSpot(nil), c.spotsMirror...)
	}

	var spots []SavedSpot
	if err := json.Unmarshal([]byte(raw), &spots); err != nil {
		c.log.Warn(ctx, "corrupt saved spots, using mirror", "error", err)
		return append([]SavedSpot(nil), c.spotsMirror...)
	}
	return spots
}

func (c *Cache) persistSpots(ctx context.Context, spots []SavedSpot) {
	c.spotsMirror = spots

	data, err := json.Marshal(spots)
	if err != nil {
		c.log.Error(ctx, "failed to encode saved spots", "error", err)
		return
	}
	if err := c.store.Set(ctx, savedSpotsKey, string(data)); err != nil {
		c.log.Warn(ctx, "failed to persist saved spots, mirror only", "error", err)
	}
}
