package stabilizer

import (
	"sync"
	"time"
)

type entry struct {
	mu       sync.Mutex
	s        *Stabilizer
	lastSeen time.Time
}

// Registry holds one stabilizer per session so concurrent clients never
// share a cooldown. Stabilizers are created on first use.
type Registry struct {
	cooldown time.Duration
	policy   Policy

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry returns an empty registry whose stabilizers use cooldown and policy.
func NewRegistry(cooldown time.Duration, policy Policy) *Registry {
	return &Registry{
		cooldown: cooldown,
		policy:   policy,
		sessions: make(map[string]*entry),
	}
}

// get returns the entry of session, creating it if needed. lastSeen is
// touched under r.mu so a concurrent Sweep cannot drop the entry before
// the caller observes on it.
func (r *Registry) get(session string, now time.Time) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[session]
	if !ok {
		e = &entry{s: New(r.cooldown, r.policy)}
		r.sessions[session] = e
	}
	e.mu.Lock()
	if now.After(e.lastSeen) {
		e.lastSeen = now
	}
	e.mu.Unlock()
	return e
}

// Observe feeds label to the stabilizer of session.
func (r *Registry) Observe(session, label string, now time.Time) bool {
	e := r.get(session, now)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.Observe(label, now)
}

// State returns the state of session and whether the session exists.
func (r *Registry) State(session string) (State, bool) {
	r.mu.Lock()
	e, ok := r.sessions[session]
	r.mu.Unlock()
	if !ok {
		return State{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.State(), true
}

// Reset forgets session.
func (r *Registry) Reset(session string) {
	r.mu.Lock()
	delete(r.sessions, session)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions not observed for longer than maxIdle and returns how many were removed.
func (r *Registry) Sweep(now time.Time, maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.sessions {
		e.mu.Lock()
		idle := now.Sub(e.lastSeen) > maxIdle
		e.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
