package models

import "time"

const (
	// PendingStaleAfter is how long a queued write may wait before it is
	// considered stuck and evicted.
	PendingStaleAfter = 24 * time.Hour

	// MaxPushAttempts caps how often a queued write is retried across
	// sync passes before it is discarded.
	MaxPushAttempts = 10
)

// PendingKind distinguishes payloads carried by a queue entry.
type PendingKind string

const (
	PendingCheckin PendingKind = "checkin"
	PendingProfile PendingKind = "profile"
)

// ProfilePatch is the payload of a queued profile edit.
type ProfilePatch struct {
	UserName     string `json:"userName,omitempty"`
	UserHandle   string `json:"userHandle,omitempty"`
	UserPhotoURL string `json:"userPhotoUrl,omitempty"`
	Bio          string `json:"bio,omitempty"`
}

// PendingWriteEntry wraps a check-in (or profile edit) that failed to
// reach the remote backend and is awaiting retransmission.
type PendingWriteEntry struct {
	ClientID string      `json:"clientId"`
	UserID   string      `json:"userId"`
	Kind     PendingKind `json:"kind,omitempty"`

	Checkin *CheckinRecord `json:"checkin,omitempty"`
	Profile *ProfilePatch  `json:"profile,omitempty"`

	// QueuedAt is required; legacy entries without it are treated as
	// stale and discarded so nothing is retried forever.
	QueuedAt Time `json:"queuedAt,omitzero"`

	Attempts  int    `json:"attempts,omitempty"`
	LastError string `json:"lastError,omitempty"`
}

// Invalid reports whether the entry is structurally unusable and must be
// discarded on the next prune pass.
func (e *PendingWriteEntry) Invalid() bool {
	return e.ClientID == "" || e.UserID == ""
}

// Stale reports whether the entry has aged out or exhausted its retry
// budget. A missing QueuedAt counts as stale.
func (e *PendingWriteEntry) Stale(now time.Time) bool {
	if !e.QueuedAt.Valid() {
		return true
	}
	if now.Sub(e.QueuedAt.Time) > PendingStaleAfter {
		return true
	}
	return e.Attempts >= MaxPushAttempts
}
