package domain

import (
	"time"
)

// Target is a recognition target belonging to one database.
//
// A target never observes its own state change: the transition out of the
// processing status is a lazy function of the clock, so StatusAt must be
// used instead of storing a status field.
type Target struct {
	ID         string
	Name       string
	Width      float64
	Image      []byte
	ActiveFlag bool

	// ApplicationMetadata is the base64 blob given at creation, nil when
	// none was supplied.
	ApplicationMetadata *string

	// Rating is drawn uniformly from 0..5 when processing starts and again
	// on every image update. A rating of zero means processing fails.
	Rating int

	UploadDate      time.Time
	LastModified    time.Time
	ProcessDeadline time.Time
	DeleteDate      *time.Time
}

func (t *Target) Deleted() bool {
	return t.DeleteDate != nil
}

// StatusAt returns the processing status visible at the given instant.
// The status becomes terminal once the deadline passes and only an image
// update (which moves the deadline) can bring it back to processing.
func (t *Target) StatusAt(now time.Time) string {
	if now.Before(t.ProcessDeadline) {
		return StatusProcessing
	}
	if t.Rating == 0 {
		return StatusFailed
	}
	return StatusSuccess
}

// TrackingRatingAt returns the 0..5 quality rating, or -1 while the target
// is still processing and no rating has been published yet.
func (t *Target) TrackingRatingAt(now time.Time) int {
	if t.StatusAt(now) == StatusProcessing {
		return -1
	}
	return t.Rating
}

// DeletedWithin reports whether the target was deleted less than the given
// window before the instant. Recently deleted targets still trip the query
// endpoint's simulated server error.
func (t *Target) DeletedWithin(now time.Time, window time.Duration) bool {
	return t.DeleteDate != nil && now.Sub(*t.DeleteDate) < window
}
