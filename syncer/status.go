package syncer

import "context"

// SyncStatus is the aggregate indicator shown to the user instead of raw
// errors: how much is waiting, how many photos are still uploading, and
// the most recent failure reason.
type SyncStatus struct {
	Pending         int    `json:"pending"`
	UploadingPhotos int    `json:"uploadingPhotos"`
	LastError       string `json:"lastError,omitempty"`
}

// Status computes the indicator from queue and repository state.
func (s *Syncer) Status(ctx context.Context) SyncStatus {
	var status SyncStatus

	for _, entry := range s.queue.List(ctx, "") {
		status.Pending++
		if status.LastError == "" && entry.LastError != "" {
			status.LastError = entry.LastError
		}
	}

	if s.repo != nil {
		for _, rec := range s.repo.List(ctx) {
			if rec.PhotoPending {
				status.UploadingPhotos++
			}
		}
	}

	return status
}
