// Package checkins implements the locally cached check-in history: CRUD
// over the durable store plus age-based pruning and photo-reference
// normalization. All operations are best-effort: storage failures are
// absorbed into an in-memory mirror so the UI layer never sees them.
package checkins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roostapp/roost-sync/kvstore"
	"github.com/roostapp/roost-sync/logging"
	"github.com/roostapp/roost-sync/models"
)

// Durable store keys owned by the repository. No other component writes
// them.
const (
	checkinsKey    = "roost.checkins"
	lastCheckinKey = "roost.lastCheckinAt"
)

// ErrNotFound is returned by the update operations when no record
// matches the given key. Updates never create records.
var ErrNotFound = errors.New("checkin not found")

// Repository owns the local check-in list. The mutex serializes every
// read-modify-write cycle against the store key, which restores the
// single-writer guarantee the original single-threaded host provided
// implicitly.
type Repository struct {
	store kvstore.Store
	log   logging.Logger
	now   func() time.Time

	mu           sync.Mutex
	mirror       []models.CheckinRecord
	mirrorLoaded bool
}

func NewRepository(store kvstore.Store, log logging.Logger) *Repository {
	if log == nil {
		log = logging.NewNop()
	}
	return &Repository{store: store, log: log, now: time.Now}
}

// Save stamps missing identity and lifetime fields on the record,
// prepends it to the stored list, and records the last-checkin
// timestamp used for cooldown logic. Inline data-URI photos are never
// persisted: they are stripped and the record flagged PhotoPending.
func (r *Repository) Save(ctx context.Context, rec *models.CheckinRecord) (*models.CheckinRecord, error) {
	if rec == nil {
		return nil, errors.New("nil checkin")
	}

	now := r.now()
	if rec.ClientID == "" {
		rec.ClientID = uuid.NewString()
	}
	if rec.ID == "" {
		// Provisional, time-based id; replaced by the backend id once the
		// push succeeds.
		rec.ID = fmt.Sprintf("%d", now.UnixMilli())
	}
	if !rec.CreatedAt.Valid() {
		rec.CreatedAt = models.NewTime(now)
	}
	if !rec.ExpiresAt.Valid() {
		rec.ExpiresAt = models.NewTime(rec.CreatedAt.Time.Add(models.LiveWindow))
	}
	stripInlinePhoto(rec)

	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.load(ctx)
	list = append([]models.CheckinRecord{*rec}, list...)
	r.persist(ctx, list)

	stamp, _ := json.Marshal(models.NewTime(now))
	if err := r.store.Set(ctx, lastCheckinKey, string(stamp)); err != nil {
		r.log.Warn(ctx, "failed to persist last-checkin stamp", "error", err)
	}

	return rec, nil
}

// UpdateByClientID shallow-merges patch into the record with the given
// clientId. It is an update, never an upsert.
func (r *Repository) UpdateByClientID(ctx context.Context, clientID string, patch models.CheckinPatch) (*models.CheckinRecord, error) {
	return r.update(ctx, func(rec *models.CheckinRecord) bool { return rec.ClientID == clientID }, patch)
}

// UpdateByID shallow-merges patch into the record with the given id.
func (r *Repository) UpdateByID(ctx context.Context, id string, patch models.CheckinPatch) (*models.CheckinRecord, error) {
	return r.update(ctx, func(rec *models.CheckinRecord) bool { return rec.ID == id }, patch)
}

func (r *Repository) update(ctx context.Context, match func(*models.CheckinRecord) bool, patch models.CheckinPatch) (*models.CheckinRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.load(ctx)
	for i := range list {
		if !match(&list[i]) {
			continue
		}
		patch.Apply(&list[i])
		updated := list[i]
		r.persist(ctx, list)
		return &updated, nil
	}
	return nil, ErrNotFound
}

// RemoveByID filters the record out of the stored list.
func (r *Repository) RemoveByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.load(ctx)
	kept := list[:0:0]
	for _, rec := range list {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	r.persist(ctx, kept)
	return nil
}

// List returns the local history after pruning anything older than the
// 30-day window and syncing photoUrl into image for renderers that
// expect either field. The pruned, normalized form is persisted back.
// Records whose createdAt cannot be parsed are kept (fail open).
func (r *Repository) List(ctx context.Context) []models.CheckinRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.load(ctx)
	list = pruneHistory(list, r.now())
	for i := range list {
		normalizePhoto(&list[i])
	}
	r.persist(ctx, list)

	out := make([]models.CheckinRecord, len(list))
	copy(out, list)
	return out
}

// Replace overwrites the stored list (and the mirror) with the given
// records, truncated to models.MaxFeedItems. The reconciliation engine
// calls it after a merge so subsequent merges are incremental.
func (r *Repository) Replace(ctx context.Context, records []models.CheckinRecord) {
	if len(records) > models.MaxFeedItems {
		records = records[:models.MaxFeedItems]
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.persist(ctx, append([]models.CheckinRecord(nil), records...))
}

// LastCheckinAt returns the stamp recorded by Save, for cooldown UI.
func (r *Repository) LastCheckinAt(ctx context.Context) (time.Time, bool) {
	raw, found, err := r.store.Get(ctx, lastCheckinKey)
	if err != nil || !found {
		return time.Time{}, false
	}
	var ts models.Time
	if json.Unmarshal([]byte(raw), &ts) != nil || !ts.Valid() {
		return time.Time{}, false
	}
	return ts.Time, true
}

// load reads the stored list, falling back to the in-memory mirror when
// the store fails. Callers must hold r.mu.
func (r *Repository) load(ctx context.Context) []models.CheckinRecord {
	raw, found, err := r.store.Get(ctx, checkinsKey)
	if err != nil {
		r.log.Warn(ctx, "failed to read checkin list, using mirror", "error", err)
		return append([]models.CheckinRecord(nil), r.mirror...)
	}
	if !found {
		if r.mirrorLoaded {
			return append([]models.CheckinRecord(nil), r.mirror...)
		}
		return nil
	}

	var list []models.CheckinRecord
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		r.log.Warn(ctx, "corrupt checkin list, using mirror", "error", err)
		return append([]models.CheckinRecord(nil), r.mirror...)
	}
	return list
}

// persist writes the list and overwrites the mirror with the exact value
// just persisted. On storage failure the mirror still advances so the
// process view stays coherent; durability resumes on the next write.
// Callers must hold r.mu.
func (r *Repository) persist(ctx context.Context, list []models.CheckinRecord) {
	r.mirror = list
	r.mirrorLoaded = true

	data, err := json.Marshal(list)
	if err != nil {
		r.log.Error(ctx, "failed to encode checkin list", "error", err)
		return
	}
	if err := r.store.Set(ctx, checkinsKey, string(data)); err != nil {
		r.log.Warn(ctx, "failed to persist checkin list, mirror only", "error", err)
	}
}

func pruneHistory(list []models.CheckinRecord, now time.Time) []models.CheckinRecord {
	cutoff := now.Add(-models.HistoryWindow)
	kept := list[:0:0]
	for _, rec := range list {
		if rec.CreatedAt.Valid() && rec.CreatedAt.Time.Before(cutoff) {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

func stripInlinePhoto(rec *models.CheckinRecord) {
	if strings.HasPrefix(rec.PhotoURL, "data:") {
		rec.PhotoURL = ""
		rec.PhotoPending = true
	}
	if strings.HasPrefix(rec.Image, "data:") {
		rec.Image = ""
		rec.PhotoPending = true
	}
}

func normalizePhoto(rec *models.CheckinRecord) {
	if rec.Image == "" && isRemoteURL(rec.PhotoURL) {
		rec.Image = rec.PhotoURL
	}
}

func isRemoteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
