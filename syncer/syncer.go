// Package syncer drains the pending-write queue against the remote
// backend. A pass prunes first, so dead entries never hold the queue
// hostage, then pushes what remains; retry accounting lives on the
// entries themselves, which makes the pass safe to fire and forget.
package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/roostapp/roost-sync/checkins"
	"github.com/roostapp/roost-sync/logging"
	"github.com/roostapp/roost-sync/models"
	"github.com/roostapp/roost-sync/pending"
	"github.com/roostapp/roost-sync/remote"
)

// transportAttempts bounds in-pass retries of one push; cross-pass
// retries are bounded by models.MaxPushAttempts on the entry.
const transportAttempts = 3

// Report summarizes one sync pass.
type Report struct {
	Pruned pending.PruneResult
	Pushed int
	Failed int
}

type Syncer struct {
	queue  *pending.Queue
	repo   *checkins.Repository
	client remote.Client
	log    logging.Logger

	backoff func() retry.Backoff
}

func New(queue *pending.Queue, repo *checkins.Repository, client remote.Client, log logging.Logger) *Syncer {
	if log == nil {
		log = logging.NewNop()
	}
	return &Syncer{
		queue:  queue,
		repo:   repo,
		client: client,
		log:    log,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(transportAttempts-1, retry.NewFibonacci(200*time.Millisecond))
		},
	}
}

// RunOnce performs one prune-and-drain pass. It never returns an error:
// individual push failures are recorded on their entries and the pass
// moves on.
func (s *Syncer) RunOnce(ctx context.Context) Report {
	report := Report{Pruned: s.queue.Prune(ctx)}

	for _, entry := range s.queue.List(ctx, "") {
		entry := entry
		if err := s.push(ctx, &entry); err != nil {
			report.Failed++
			attempts := entry.Attempts + 1
			reason := err.Error()
			if uerr := s.queue.Update(ctx, entry.ClientID, models.PendingPatch{
				Attempts:  &attempts,
				LastError: &reason,
			}); uerr != nil {
				s.log.Warn(ctx, "failed to record push failure", "clientId", entry.ClientID, "error", uerr)
			}
			s.log.Debug(ctx, "push failed", "clientId", entry.ClientID, "attempts", attempts, "error", err)
			continue
		}

		report.Pushed++
		s.queue.Remove(ctx, entry.ClientID)
	}

	s.log.Info(ctx, "sync pass finished",
		"pruned", report.Pruned.Removed, "pushed", report.Pushed, "failed", report.Failed)
	return report
}

// push sends one entry, retrying transport-level unavailability with a
// short Fibonacci backoff inside the pass. Auth and validation failures
// are not retried here; they surface immediately and count against the
// entry's attempt budget.
func (s *Syncer) push(ctx context.Context, entry *models.PendingWriteEntry) error {
	return retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		var err error
		switch entry.Kind {
		case models.PendingProfile:
			err = s.client.PushProfile(ctx, entry)
		default:
			var res *remote.PushResult
			res, err = s.client.PushCheckin(ctx, entry)
			if err == nil && res != nil && res.ID != "" {
				s.promote(ctx, entry.ClientID, res.ID)
			}
		}
		if errors.Is(err, remote.ErrUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// promote stamps the backend-assigned id onto the cached record, moving
// it from "local, unsynced" to canonical.
func (s *Syncer) promote(ctx context.Context, clientID, id string) {
	if s.repo == nil {
		return
	}
	if _, err := s.repo.UpdateByClientID(ctx, clientID, models.CheckinPatch{ID: &id}); err != nil {
		if !errors.Is(err, checkins.ErrNotFound) {
			s.log.Warn(ctx, "failed to promote checkin", "clientId", clientID, "error", err)
		}
	}
}

// Start launches the background sync loop and returns a stop function.
// Callers never block on the loop; it stops on ctx cancellation or when
// the stop function runs.
func (s *Syncer) Start(ctx context.Context, interval time.Duration) func() {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()

	return cancel
}
