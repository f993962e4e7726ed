// Package app runs the live detection session: frames in, stabilized announcements out.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/silexa/internal/capture"
	"github.com/ayusman/silexa/internal/classifier"
	"github.com/ayusman/silexa/internal/detector"
	"github.com/ayusman/silexa/internal/features"
)

// DefaultSession is the session ID of the local camera.
const DefaultSession = "camera"

// Config holds configuration options for the detection session.
type Config struct {
	Source     HandSource
	Recognizer *Recognizer
	// Session names the stabilizer this feed uses. Empty means DefaultSession.
	Session string
	// Interval between frames. Zero uses the capture default frame rate.
	Interval time.Duration
}

// App is a detection session bound to one hand source.
type App struct {
	config  Config
	enabled atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// unavailable tracks the model state so the loop logs transitions only.
	unavailable atomic.Bool
}

// New creates a session. Detection starts enabled.
func New(config Config) *App {
	if config.Session == "" {
		config.Session = DefaultSession
	}
	if config.Interval <= 0 {
		config.Interval = time.Second / capture.DefaultFPS
	}
	a := &App{config: config}
	a.enabled.Store(true)
	return a
}

// SetEnabled enables or disables gesture detection without closing the source.
func (a *App) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
	log.Info().Bool("enabled", enabled).Msg("detection toggled")
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// Session returns the session ID of this feed.
func (a *App) Session() string {
	return a.config.Session
}

// Recognizer returns the recognizer the session feeds.
func (a *App) Recognizer() *Recognizer {
	return a.config.Recognizer
}

// Start opens the source and begins the detection loop. Starting a running session is a no-op.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}
	if err := a.config.Source.Open(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	go a.run(ctx, a.done)

	log.Info().Str("session", a.config.Session).Dur("interval", a.config.Interval).Msg("detection session started")
	return nil
}

// Stop halts the loop and releases the source.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel == nil {
		return
	}
	a.cancel()
	<-a.done
	a.cancel = nil
	a.done = nil

	if err := a.config.Source.Close(); err != nil {
		log.Warn().Err(err).Msg("closing hand source")
	}
	log.Info().Str("session", a.config.Session).Msg("detection session stopped")
}

// Running reports whether the loop is active.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil
}

func (a *App) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}
			_, err := a.Step(ctx)
			if err == nil || ctx.Err() != nil {
				continue
			}
			if errors.Is(err, capture.ErrDeviceLost) {
				a.reopen()
				continue
			}
			a.logStepError(err)
		}
	}
}

// Step processes one frame. It returns nil without error when no hand was seen.
func (a *App) Step(ctx context.Context) (*Outcome, error) {
	hands, err := a.config.Source.Next(ctx)
	if err != nil {
		return nil, err
	}
	hand, ok := detector.Primary(hands)
	if !ok {
		return nil, nil
	}

	out, err := a.config.Recognizer.Recognize(ctx, a.config.Session, features.FromHand(&hand), time.Now())
	if err != nil {
		return nil, err
	}
	a.unavailable.Store(false)
	if out.Announce {
		log.Debug().Str("label", out.Label).Float64("confidence", out.Confidence).Msg("camera announcement")
	}
	return out, nil
}

// reopen cycles the source after the device stopped delivering frames.
func (a *App) reopen() {
	log.Warn().Str("session", a.config.Session).Msg("hand source lost, reopening")
	if err := a.config.Source.Close(); err != nil {
		log.Warn().Err(err).Msg("closing hand source")
	}
	if err := a.config.Source.Open(); err != nil {
		log.Error().Err(err).Msg("reopening hand source failed")
	}
}

func (a *App) logStepError(err error) {
	switch {
	case errors.Is(err, capture.ErrNoFrame):
		log.Debug().Err(err).Msg("frame skipped")
	case errors.Is(err, classifier.ErrModelUnavailable):
		if a.unavailable.CompareAndSwap(false, true) {
			log.Warn().Msg("no model loaded, camera predictions paused until training succeeds")
		}
	default:
		log.Error().Err(err).Msg("detection step failed")
	}
}
