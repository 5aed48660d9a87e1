// Package debounce implements a two-stage debounce filter for a single
// binary barrier sensor. This package has NO external dependencies (no
// GPIO, OS, or time.Sleep). Time is always injectable via time.Time
// parameters.
//
// A transition is committed only when the raw reading first disagrees
// with the stable level, stays in disagreement for the full debounce
// delay, and a later sample taken after the delay confirms it. A single
// sample back at the stable level cancels the pending transition; it is
// treated as noise, not an error.
package debounce

import "time"

// Transition is the outcome of one Sample call.
type Transition int

const (
	// None means the stable level did not change.
	None Transition = iota
	// BecameBlocked means the beam went from clear to interrupted.
	BecameBlocked
	// BecameClear means the beam went from interrupted to clear.
	BecameClear
)

// String returns the event name used in diagnostics.
func (t Transition) String() string {
	switch t {
	case BecameBlocked:
		return "BLOCKED"
	case BecameClear:
		return "CLEAR"
	default:
		return "NONE"
	}
}

// Filter tracks the debounced level of one sensor. Level true means the
// beam is clear, false means interrupted.
type Filter struct {
	delay  time.Duration
	stable bool
	// open debounce window
	windowOpen  bool
	windowStart time.Time
}

// NewFilter creates a filter seeded with the first boundary reading.
// The filter lives for the whole process; it is only ever mutated by
// the periodic sampling tick.
func NewFilter(delay time.Duration, initial bool) *Filter {
	return &Filter{delay: delay, stable: initial}
}

// Stable returns the last confirmed level (true = clear).
func (f *Filter) Stable() bool {
	return f.stable
}

// Sample processes one raw reading taken at now and returns the
// committed transition, if any. At most one transition is reported per
// call.
func (f *Filter) Sample(raw bool, now time.Time) Transition {
	if raw == f.stable {
		// Agreement cancels any pending transition.
		f.windowOpen = false
		return None
	}

	if !f.windowOpen {
		f.windowOpen = true
		f.windowStart = now
		return None
	}

	if now.Sub(f.windowStart) < f.delay {
		return None
	}

	// The window has expired and this call's reading is the
	// confirmatory read: it still differs from stable, so commit.
	f.windowOpen = false
	f.stable = raw
	if raw {
		return BecameClear
	}
	return BecameBlocked
}
