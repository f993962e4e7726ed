// Package announce delivers stabilized gesture announcements to their consumers.
package announce

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// Event is one announcement emitted by a session's stabilizer.
type Event struct {
	Session       string    `json:"session"`
	Label         string    `json:"label"`
	Confidence    float64   `json:"confidence"`
	Probabilistic bool      `json:"probabilistic"`
	At            time.Time `json:"at"`
}

// Announcer receives announcements.
type Announcer interface {
	Announce(ctx context.Context, e Event) error
}

// Func adapts a function to the Announcer interface.
type Func func(ctx context.Context, e Event) error

// Announce calls f.
func (f Func) Announce(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Log writes every announcement to the global logger.
type Log struct{}

// Announce logs e at info level.
func (Log) Announce(_ context.Context, e Event) error {
	log.Info().
		Str("session", e.Session).
		Str("label", e.Label).
		Float64("confidence", e.Confidence).
		Bool("probabilistic", e.Probabilistic).
		Msg("gesture announced")
	return nil
}

// Multi fans an announcement out to several announcers.
// Every announcer is called even if an earlier one fails.
type Multi []Announcer

// Announce delivers e to each announcer and joins their errors.
func (m Multi) Announce(ctx context.Context, e Event) error {
	var errs []error
	for _, a := range m {
		if a == nil {
			continue
		}
		if err := a.Announce(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
