// Package pending implements the ordered, deduplicated queue of writes
// that failed to reach the remote backend. The queue is self-healing: a
// prune pass runs before every sync drain so broken or long-dead entries
// never accumulate and never block new check-ins.
package pending

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/roostapp/roost-sync/kvstore"
	"github.com/roostapp/roost-sync/logging"
	"github.com/roostapp/roost-sync/models"
)

// pendingKey is the durable store key owned by the queue.
const pendingKey = "roost.pendingWrites"

// ErrNotFound is returned by Update when no entry matches the clientId.
var ErrNotFound = errors.New("pending entry not found")

// PruneResult reports what a prune pass did, for observability.
type PruneResult struct {
	Removed   int
	Remaining int
}

// Queue owns the pending-writes key. The mutex serializes each
// read-modify-write cycle, mirroring the repository's policy.
type Queue struct {
	store kvstore.Store
	log   logging.Logger
	now   func() time.Time

	mu           sync.Mutex
	mirror       []models.PendingWriteEntry
	mirrorLoaded bool
}

func NewQueue(store kvstore.Store, log logging.Logger) *Queue {
	if log == nil {
		log = logging.NewNop()
	}
	return &Queue{store: store, log: log, now: time.Now}
}

// Enqueue stamps the entry and prepends it. At most one entry exists per
// clientId: re-enqueueing replaces the older occurrence.
func (q *Queue) Enqueue(ctx context.Context, entry models.PendingWriteEntry) error {
	if entry.ClientID == "" {
		return errors.New("pending entry requires a clientId")
	}
	entry.QueuedAt = models.NewTime(q.now())
	if entry.Kind == "" {
		entry.Kind = models.PendingCheckin
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	list := append([]models.PendingWriteEntry{entry}, q.load(ctx)...)

	seen := make(map[string]struct{}, len(list))
	deduped := list[:0:0]
	for _, e := range list {
		if _, dup := seen[e.ClientID]; dup {
			continue
		}
		seen[e.ClientID] = struct{}{}
		deduped = append(deduped, e)
	}

	q.persist(ctx, deduped)
	return nil
}

// Update merges patch into the entry with the given clientId, typically
// to bump attempts and lastError after a failed push.
func (q *Queue) Update(ctx context.Context, clientID string, patch models.PendingPatch) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	list := q.load(ctx)
	for i := range list {
		if list[i].ClientID != clientID {
			continue
		}
		patch.Apply(&list[i])
		q.persist(ctx, list)
		return nil
	}
	return ErrNotFound
}

// Remove drops the entry, called after a successful push.
func (q *Queue) Remove(ctx context.Context, clientID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	list := q.load(ctx)
	kept := list[:0:0]
	for _, e := range list {
		if e.ClientID != clientID {
			kept = append(kept, e)
		}
	}
	q.persist(ctx, kept)
}

// Prune evicts entries that are structurally invalid (missing clientId
// or userId), were never stamped with queuedAt, are older than 24 hours,
// or have exhausted their retry budget. It must run before every sync
// pass.
func (q *Queue) Prune(ctx context.Context) PruneResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	list := q.load(ctx)
	kept := list[:0:0]
	removed := 0
	for _, e := range list {
		if e.Invalid() || e.Stale(now) {
			removed++
			q.log.Debug(ctx, "pruned pending write",
				"clientId", e.ClientID, "attempts", e.Attempts, "lastError", e.LastError)
			continue
		}
		kept = append(kept, e)
	}

	if removed > 0 {
		q.persist(ctx, kept)
	}
	return PruneResult{Removed: removed, Remaining: len(kept)}
}

// List returns the current queue, scoped to userID when non-empty.
func (q *Queue) List(ctx context.Context, userID string) []models.PendingWriteEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	list := q.load(ctx)
	if userID == "" {
		return append([]models.PendingWriteEntry(nil), list...)
	}
	scoped := make([]models.PendingWriteEntry, 0, len(list))
	for _, e := range list {
		if e.UserID == userID {
			scoped = append(scoped, e)
		}
	}
	return scoped
}

func (q *Queue) load(ctx context.Context) []models.PendingWriteEntry {
	raw, found, err := q.store.Get(ctx, pendingKey)
	if err != nil {
		q.log.Warn(ctx, "failed to read pending queue, using mirror", "error", err)
		return append([]models.PendingWriteEntry(nil), q.mirror...)
	}
	if !found {
		if q.mirrorLoaded {
			return append([]models.PendingWriteEntry(nil), q.mirror...)
		}
		return nil
	}

	var list []models.PendingWriteEntry
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		q.log.Warn(ctx, "corrupt pending queue, using mirror", "error", err)
		return append([]models.PendingWriteEntry(nil), q.mirror...)
	}
	return list
}

func (q *Queue) persist(ctx context.Context, list []models.PendingWriteEntry) {
	q.mirror = list
	q.mirrorLoaded = true

	data, err := json.Marshal(list)
	if err != nil {
		q.log.Error(ctx, "failed to encode pending queue", "error", err)
		return
	}
	if err := q.store.Set(ctx, pendingKey, string(data)); err != nil {
		q.log.Warn(ctx, "failed to persist pending queue, mirror only", "error", err)
	}
}
