// Package remote defines the engine's view of the backend: a paged read
// of the authoritative check-in stream, a push for queued writes, and a
// realtime subscription. The backend itself is out of scope; these are
// collaborator contracts, with HTTP and WebSocket implementations for
// production use and fakes in tests.
package remote

import (
	"context"
	"errors"

	"github.com/roostapp/roost-sync/models"
)

var (
	// ErrUnavailable covers transport failures and backend 5xx: the push
	// should be retried later.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrUnauthorized covers auth failures: retrying without a new token
	// is pointless, but the queue's staleness eviction still bounds the
	// entry's lifetime.
	ErrUnauthorized = errors.New("unauthorized")
)

// Page is one page of the remote check-in stream.
type Page struct {
	Items      []models.CheckinRecord `json:"items"`
	LastCursor string                 `json:"lastCursor,omitempty"`
}

// PushResult carries what the backend assigned to a pushed write.
type PushResult struct {
	// ID is the backend identifier for the check-in; the repository
	// record is promoted with it.
	ID string `json:"id,omitempty"`
}

// Client is the transport-agnostic backend contract.
type Client interface {
	// FetchCheckins reads one page; an empty cursor starts from the top.
	FetchCheckins(ctx context.Context, pageSize int, cursor string) (*Page, error)

	// PushCheckin attempts to persist one queued check-in remotely. On
	// failure the returned error's message is the human-readable reason
	// surfaced as the entry's lastError.
	PushCheckin(ctx context.Context, entry *models.PendingWriteEntry) (*PushResult, error)

	// PushProfile attempts to persist a queued profile edit.
	PushProfile(ctx context.Context, entry *models.PendingWriteEntry) error

	Close() error
}

// Subscriber is the realtime half of the contract. Each emission is
// expected to be run back through the reconciliation engine before it is
// shown.
type Subscriber interface {
	// Subscribe streams check-in batches for the given users (all users
	// when empty) until ctx is cancelled. It returns a stop function.
	Subscribe(ctx context.Context, userIDs []string, fn func([]models.CheckinRecord)) (func(), error)
}
