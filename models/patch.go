package models

// CheckinPatch is a shallow partial update for a stored check-in. Nil
// fields leave the record untouched, so callers state exactly what they
// change instead of round-tripping whole records.
type CheckinPatch struct {
	ID           *string
	PhotoURL     *string
	Image        *string
	PhotoPending *bool
	Caption      *string
	Tags         *[]string
	Visibility   *Visibility
	UserName     *string
	UserHandle   *string
	UserPhotoURL *string
	ExpiresAt    *Time
}

// Apply merges the patch into r.
func (p CheckinPatch) Apply(r *CheckinRecord) {
	if p.ID != nil {
		r.ID = *p.ID
	}
	if p.PhotoURL != nil {
		r.PhotoURL = *p.PhotoURL
	}
	if p.Image != nil {
		r.Image = *p.Image
	}
	if p.PhotoPending != nil {
		r.PhotoPending = *p.PhotoPending
	}
	if p.Caption != nil {
		r.Caption = *p.Caption
	}
	if p.Tags != nil {
		r.Tags = *p.Tags
	}
	if p.Visibility != nil {
		r.Visibility = *p.Visibility
	}
	if p.UserName != nil {
		r.UserName = *p.UserName
	}
	if p.UserHandle != nil {
		r.UserHandle = *p.UserHandle
	}
	if p.UserPhotoURL != nil {
		r.UserPhotoURL = *p.UserPhotoURL
	}
	if p.ExpiresAt != nil {
		r.ExpiresAt = *p.ExpiresAt
	}
}

// PendingPatch is a shallow partial update for a queued write, used to
// bump retry accounting after a failed push attempt.
type PendingPatch struct {
	Attempts  *int
	LastError *string
	Checkin   *CheckinRecord
}

// Apply merges the patch into e.
func (p PendingPatch) Apply(e *PendingWriteEntry) {
	if p.Attempts != nil {
		e.Attempts = *p.Attempts
	}
	if p.LastError != nil {
		e.LastError = *p.LastError
	}
	if p.Checkin != nil {
		e.Checkin = p.Checkin
	}
}
