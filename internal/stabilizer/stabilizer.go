// Package stabilizer turns a noisy per-frame label stream into discrete
// announcements by suppressing repeats within a cooldown window.
package stabilizer

import (
	"fmt"
	"time"
)

// DefaultCooldown is the minimum spacing between announcements.
const DefaultCooldown = 2 * time.Second

// Policy decides how label change and cooldown expiry combine.
type Policy int

const (
	// PolicyBoth announces only when the label changed AND the cooldown elapsed.
	PolicyBoth Policy = iota
	// PolicyEither announces when the label changed OR the cooldown elapsed.
	PolicyEither
)

func (p Policy) String() string {
	switch p {
	case PolicyBoth:
		return "both"
	case PolicyEither:
		return "either"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps a configuration value to a Policy. The empty string selects PolicyBoth.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "both", "and":
		return PolicyBoth, nil
	case "either", "or":
		return PolicyEither, nil
	}
	return 0, fmt.Errorf("unknown stabilizer policy %q", s)
}

// State is a snapshot of a stabilizer. Holding is false until the first announcement.
type State struct {
	Holding bool      `json:"holding"`
	Label   string    `json:"label,omitempty"`
	Since   time.Time `json:"since,omitempty"`
}

// Stabilizer is owned by one detection session and is not safe for
// concurrent use; see Registry for shared access.
type Stabilizer struct {
	cooldown time.Duration
	policy   Policy
	state    State
}

// New returns an idle stabilizer. A non-positive cooldown selects DefaultCooldown.
func New(cooldown time.Duration, policy Policy) *Stabilizer {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Stabilizer{cooldown: cooldown, policy: policy}
}

// Observe evaluates one classified frame and reports whether label should be
// announced. The first label after New or Reset is always announced.
func (s *Stabilizer) Observe(label string, now time.Time) bool {
	if !s.state.Holding {
		s.state = State{Holding: true, Label: label, Since: now}
		return true
	}

	changed := label != s.state.Label
	elapsed := now.Sub(s.state.Since) > s.cooldown

	var announce bool
	switch s.policy {
	case PolicyEither:
		announce = changed || elapsed
	default:
		announce = changed && elapsed
	}
	if announce {
		s.state = State{Holding: true, Label: label, Since: now}
	}
	return announce
}

// Reset returns the stabilizer to idle.
func (s *Stabilizer) Reset() {
	s.state = State{}
}

// State returns the current state.
func (s *Stabilizer) State() State {
	return s.state
}

// Cooldown returns the configured cooldown.
func (s *Stabilizer) Cooldown() time.Duration {
	return s.cooldown
}

// Policy returns the configured policy.
func (s *Stabilizer) Policy() Policy {
	return s.policy
}
