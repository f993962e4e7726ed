package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/silexa/internal/announce"
	"github.com/ayusman/silexa/internal/classifier"
	"github.com/ayusman/silexa/internal/features"
	"github.com/ayusman/silexa/internal/metrics"
	"github.com/ayusman/silexa/internal/stabilizer"
)

// Error codes reported to clients and metrics.
const (
	CodeShape            = "shape"
	CodeModelUnavailable = "model_unavailable"
	CodeInternal         = "internal"
)

// ErrorCode classifies a Recognize error.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, features.ErrShape), errors.Is(err, features.ErrNonFinite):
		return CodeShape
	case errors.Is(err, classifier.ErrModelUnavailable):
		return CodeModelUnavailable
	default:
		return CodeInternal
	}
}

// Outcome is the result of recognizing one feature vector within a session.
type Outcome struct {
	classifier.Prediction
	Session  string `json:"session"`
	Announce bool   `json:"announce"`
}

// Recognizer runs the vector → classifier → stabilizer → announcer chain shared
// by the camera loop and the prediction API.
type Recognizer struct {
	handle    *classifier.Handle
	sessions  *stabilizer.Registry
	announcer announce.Announcer
	metrics   *metrics.Metrics

	mu   sync.RWMutex
	last *announce.Event
}

// NewRecognizer wires a recognizer. announcer and m may be nil.
func NewRecognizer(h *classifier.Handle, sessions *stabilizer.Registry, announcer announce.Announcer, m *metrics.Metrics) *Recognizer {
	return &Recognizer{handle: h, sessions: sessions, announcer: announcer, metrics: m}
}

// Recognize classifies v against the current model and feeds the label to
// the session's stabilizer. When the stabilizer fires, the announcement is
// delivered before returning; delivery failures are logged, not returned.
func (r *Recognizer) Recognize(ctx context.Context, session string, v features.Vector, now time.Time) (*Outcome, error) {
	start := time.Now()
	pred, err := r.handle.Predict(v)
	if err != nil {
		r.metrics.PredictionFailed(ErrorCode(err))
		return nil, err
	}
	r.metrics.ObservePrediction(time.Since(start), pred.Confidence)

	out := &Outcome{Prediction: pred, Session: session}
	out.Announce = r.sessions.Observe(session, pred.Label, now)
	r.metrics.SetActiveSessions(r.sessions.Len())
	if !out.Announce {
		return out, nil
	}

	e := announce.Event{
		Session:       session,
		Label:         pred.Label,
		Confidence:    pred.Confidence,
		Probabilistic: pred.Probabilistic,
		At:            now,
	}
	r.mu.Lock()
	r.last = &e
	r.mu.Unlock()
	r.metrics.Announced()

	if r.announcer != nil {
		if err := r.announcer.Announce(ctx, e); err != nil {
			log.Warn().Err(err).Str("session", session).Str("label", e.Label).Msg("announcement delivery failed")
		}
	}
	return out, nil
}

// Last returns the most recent announcement of any session.
func (r *Recognizer) Last() (announce.Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return announce.Event{}, false
	}
	return *r.last, true
}

// Sessions returns the stabilizer registry.
func (r *Recognizer) Sessions() *stabilizer.Registry {
	return r.sessions
}

// Handle returns the model handle.
func (r *Recognizer) Handle() *classifier.Handle {
	return r.handle
}

// Sweep drops stabilizers idle for longer than maxIdle.
func (r *Recognizer) Sweep(now time.Time, maxIdle time.Duration) int {
	n := r.sessions.Sweep(now, maxIdle)
	r.metrics.SetActiveSessions(r.sessions.Len())
	return n
}
