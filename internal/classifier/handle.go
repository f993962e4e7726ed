package classifier

import (
	"slices"
	"sync/atomic"
	"time"

	"github.com/ayusman/silexa/internal/features"
)

// Snapshot pairs a model with the label set it was trained on. It is never
// mutated after being installed in a Handle.
type Snapshot struct {
	Model    Model
	Labels   []string
	Source   string // artifact path or run ID
	LoadedAt time.Time
}

// Handle publishes the active Snapshot. Readers take one Current() per
// request and use it throughout, so a concurrent Swap never mixes a model
// with another model's labels.
type Handle struct {
	snap atomic.Pointer[Snapshot]
}

// NewHandle returns an empty handle. Predict fails with ErrModelUnavailable until Swap.
func NewHandle() *Handle {
	return &Handle{}
}

// Open loads the artifact at path into a new handle. When the artifact is
// missing or unreadable the returned handle is empty and the error explains why.
func Open(path string) (*Handle, error) {
	h := NewHandle()
	m, err := Load(path)
	if err != nil {
		return h, err
	}
	h.Swap(m, m.Classes(), path)
	return h, nil
}

// Current returns the active snapshot, or nil when no model is installed.
func (h *Handle) Current() *Snapshot {
	return h.snap.Load()
}

// Swap installs m and labels as one unit and returns the previous snapshot.
func (h *Handle) Swap(m Model, labels []string, source string) *Snapshot {
	if m == nil {
		panic("classifier: Swap with nil model")
	}
	return h.snap.Swap(&Snapshot{
		Model:    m,
		Labels:   slices.Clone(labels),
		Source:   source,
		LoadedAt: time.Now(),
	})
}

// Ready reports whether a model is installed.
func (h *Handle) Ready() bool {
	return h.snap.Load() != nil
}

// Labels returns the active label set, or nil.
func (h *Handle) Labels() []string {
	if s := h.snap.Load(); s != nil {
		return slices.Clone(s.Labels)
	}
	return nil
}

// Predict validates v and classifies it against the current snapshot.
func (h *Handle) Predict(v features.Vector) (Prediction, error) {
	if err := features.Validate(v); err != nil {
		return Prediction{}, err
	}
	s := h.snap.Load()
	if s == nil {
		return Prediction{}, ErrModelUnavailable
	}
	return s.Model.Predict(v)
}
