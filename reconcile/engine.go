package reconcile

import (
	"context"
	"time"

	"github.com/roostapp/roost-sync/checkins"
	"github.com/roostapp/roost-sync/logging"
	"github.com/roostapp/roost-sync/models"
)

// Engine ties the merge functions to the local repository: it reads the
// cached list, merges, and writes the result back so subsequent merges
// are incremental. It never fails: on any internal problem the caller
// gets the remote page unmodified, which beats an empty feed.
type Engine struct {
	repo *checkins.Repository
	log  logging.Logger
}

func NewEngine(repo *checkins.Repository, log logging.Logger) *Engine {
	if log == nil {
		log = logging.NewNop()
	}
	return &Engine{repo: repo, log: log}
}

// MergeFeed reconciles a freshly fetched remote page with the local
// cache and persists the merged feed.
func (e *Engine) MergeFeed(ctx context.Context, remote []models.CheckinRecord) []models.CheckinRecord {
	if e.repo == nil {
		return remote
	}
	local := e.repo.List(ctx)
	merged := MergeRemoteWithLocal(remote, local)
	e.repo.Replace(ctx, merged)
	return merged
}

// MergeIncremental folds a partial update (typically a realtime
// emission) into the cached feed with the idempotent unique merge.
func (e *Engine) MergeIncremental(ctx context.Context, incoming []models.CheckinRecord) []models.CheckinRecord {
	if e.repo == nil {
		return incoming
	}
	merged := MergeUnique(e.repo.List(ctx), incoming, models.MaxFeedItems)
	e.repo.Replace(ctx, merged)
	return merged
}

// GroupFeed is a convenience wrapper for display callers.
func (e *Engine) GroupFeed(ctx context.Context, now time.Time) []PlaceGroup {
	if e.repo == nil {
		return nil
	}
	return GroupByPlace(e.repo.List(ctx), now)
}
