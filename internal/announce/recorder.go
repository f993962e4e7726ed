package announce

import (
	"context"
	"fmt"

	"github.com/ayusman/silexa/internal/store"
)

// AnnouncementWriter persists announcements.
type AnnouncementWriter interface {
	Create(a *store.Announcement) error
}

// Recorder writes announcements to the history store.
type Recorder struct {
	w AnnouncementWriter
}

// NewRecorder returns a Recorder backed by w.
func NewRecorder(w AnnouncementWriter) *Recorder {
	return &Recorder{w: w}
}

// Announce stores e.
func (r *Recorder) Announce(_ context.Context, e Event) error {
	a := &store.Announcement{
		SessionID:  e.Session,
		Label:      e.Label,
		Confidence: e.Confidence,
		CreatedAt:  e.At.UTC(),
	}
	if err := r.w.Create(a); err != nil {
		return fmt.Errorf("recording announcement: %w", err)
	}
	return nil
}
