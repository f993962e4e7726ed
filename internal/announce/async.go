package announce

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Async runs a slow announcer on a background goroutine so the detection loop never waits on it.
// Events beyond the queue size are dropped with a warning.
type Async struct {
	next  Announcer
	queue chan Event
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewAsync starts a worker delivering to next with a queue of size events.
func NewAsync(next Announcer, size int) *Async {
	if size < 1 {
		size = 1
	}
	a := &Async{
		next:  next,
		queue: make(chan Event, size),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for e := range a.queue {
		if err := a.next.Announce(context.Background(), e); err != nil {
			log.Warn().Err(err).Str("label", e.Label).Msg("announcement delivery failed")
		}
	}
}

// Announce enqueues e. It never blocks.
func (a *Async) Announce(_ context.Context, e Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil
	}
	select {
	case a.queue <- e:
	default:
		log.Warn().Str("label", e.Label).Msg("announcement queue full, dropping")
	}
	return nil
}

// Close stops accepting events and waits for queued ones to be delivered.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}
