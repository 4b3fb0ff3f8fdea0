// Package demo populates the local cache with a synthetic social
// network for trial/demo installs: a fixed roster of users, recent
// check-ins at plausible places, and a friend graph connecting the real
// user to the roster. Everything it writes carries recognizable ID
// prefixes so it can be purged selectively.
package demo

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roostapp/roost-sync/checkins"
	"github.com/roostapp/roost-sync/kvstore"
	"github.com/roostapp/roost-sync/logging"
	"github.com/roostapp/roost-sync/models"
)

const (
	// UserIDPrefix and CheckinIDPrefix mark synthetic records.
	UserIDPrefix    = "demo-user-"
	CheckinIDPrefix = "demo-checkin-"

	// SeedTTL makes re-seeding idempotent: a fresh seed within this
	// window is a no-op.
	SeedTTL = 6 * time.Hour

	seededAtKey = "roost.demoSeededAt"
	friendsKey  = "roost.demoFriends"
)

// FriendEdge connects the real user to a synthetic one.
type FriendEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// rosterUser is one synthetic member of the demo network.
type rosterUser struct {
	slug   string
	name   string
	handle string
	spot   string
	place  string
}

var roster = []rosterUser{
	{"maya", "Maya Chen", "@mayabrews", "Roast House", "demo-place-roast"},
	{"jordan", "Jordan Velez", "@jvelez", "The Stacks Library", "demo-place-stacks"},
	{"priya", "Priya Nair", "@priyawrites", "Hatch Coworking", "demo-place-hatch"},
	{"sam", "Sam Okafor", "@samo", "Driftwood Espresso", "demo-place-drift"},
	{"lena", "Lena Fischer", "@lenareads", "Northside Reading Room", "demo-place-north"},
}

type Seeder struct {
	repo  *checkins.Repository
	store kvstore.Store
	log   logging.Logger
	now   func() time.Time
}

func NewSeeder(repo *checkins.Repository, store kvstore.Store, log logging.Logger) *Seeder {
	if log == nil {
		log = logging.NewNop()
	}
	return &Seeder{repo: repo, store: store, log: log, now: time.Now}
}

// Seed writes the synthetic network through the regular repository and
// returns how many check-ins it created. Within SeedTTL of a previous
// seed it does nothing.
func (s *Seeder) Seed(ctx context.Context, currentUserID string) (int, error) {
	now := s.now()

	if at, ok := s.seededAt(ctx); ok && now.Sub(at) < SeedTTL {
		s.log.Debug(ctx, "demo network still fresh, skipping seed", "seededAt", at)
		return 0, nil
	}

	created := 0
	for i, u := range roster {
		// Stagger the check-ins over the last few hours so the feed has
		// texture and the grouping code sees varied recency.
		createdAt := now.Add(-time.Duration(20+35*i) * time.Minute)

		rec := &models.CheckinRecord{
			ID:          CheckinIDPrefix + uuid.NewString(),
			ClientID:    CheckinIDPrefix + uuid.NewString(),
			UserID:      UserIDPrefix + u.slug,
			UserName:    u.name,
			UserHandle:  u.handle,
			SpotName:    u.spot,
			SpotPlaceID: u.place,
			Caption:     "checked in at " + u.spot,
			Visibility:  models.VisibilityFriends,
			CreatedAt:   models.NewTime(createdAt),
		}
		if _, err := s.repo.Save(ctx, rec); err != nil {
			return created, err
		}
		created++
	}

	edges := make([]FriendEdge, 0, len(roster))
	for _, u := range roster {
		edges = append(edges, FriendEdge{From: currentUserID, To: UserIDPrefix + u.slug})
	}
	if data, err := json.Marshal(edges); err == nil {
		if err := s.store.Set(ctx, friendsKey, string(data)); err != nil {
			s.log.Warn(ctx, "failed to persist demo friend graph", "error", err)
		}
	}

	stamp, _ := json.Marshal(models.NewTime(now))
	if err := s.store.Set(ctx, seededAtKey, string(stamp)); err != nil {
		s.log.Warn(ctx, "failed to persist demo seed stamp", "error", err)
	}

	s.log.Info(ctx, "demo network seeded", "checkins", created, "friends", len(edges))
	return created, nil
}

// Friends returns the synthetic friend graph, if seeded.
func (s *Seeder) Friends(ctx context.Context) []FriendEdge {
	raw, found, err := s.store.Get(ctx, friendsKey)
	if err != nil || !found {
		return nil
	}
	var edges []FriendEdge
	if json.Unmarshal([]byte(raw), &edges) != nil {
		return nil
	}
	return edges
}

// Reset purges everything the seeder wrote: demo check-ins, the friend
// graph, and the seed stamp. Real records are untouched.
func (s *Seeder) Reset(ctx context.Context) int {
	removed := 0
	for _, rec := range s.repo.List(ctx) {
		if strings.HasPrefix(rec.ID, CheckinIDPrefix) || strings.HasPrefix(rec.UserID, UserIDPrefix) {
			if err := s.repo.RemoveByID(ctx, rec.ID); err == nil {
				removed++
			}
		}
	}

	if err := s.store.Remove(ctx, friendsKey); err != nil {
		s.log.Warn(ctx, "failed to remove demo friend graph", "error", err)
	}
	if err := s.store.Remove(ctx, seededAtKey); err != nil {
		s.log.Warn(ctx, "failed to remove demo seed stamp", "error", err)
	}

	s.log.Info(ctx, "demo network reset", "removed", removed)
	return removed
}

func (s *Seeder) seededAt(ctx context.Context) (time.Time, bool) {
	raw, found, err := s.store.Get(ctx, seededAtKey)
	if err != nil || !found {
		return time.Time{}, false
	}
	var ts models.Time
	if json.Unmarshal([]byte(raw), &ts) != nil || !ts.Valid() {
		return time.Time{}, false
	}
	return ts.Time, true
}
