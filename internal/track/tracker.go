package track

import (
	"time"

	"github.com/ethoslab/shuttlebox/internal/debounce"
)

// Tracker turns barrier transitions into position reports. A Left or
// Right report is emitted only after both sides have been continuously
// all-clear for the dwell delay following the most recent restoration;
// a Passage report is emitted immediately on any interruption and is
// deduplicated until the apparatus is all-clear again. A report is
// forwarded only when it differs from the last one forwarded.
type Tracker struct {
	dwell time.Duration

	lastInterruption Side
	lastRestoration  Side
	delayStart       time.Time
	delayArmed       bool
	passageReported  bool
	positionReported bool
	lastReported     Position
}

// NewTracker creates a tracker with the given dwell delay.
func NewTracker(dwell time.Duration) *Tracker {
	return &Tracker{dwell: dwell}
}

// Update consumes one tick's transitions plus the per-side all-clear
// state and returns the position to forward, or PositionNone.
func (t *Tracker) Update(trs []Transition, leftClear, rightClear bool, now time.Time) Position {
	for _, tr := range trs {
		switch tr.Kind {
		case debounce.BecameBlocked:
			t.lastInterruption = tr.Side
			t.delayArmed = false
			t.positionReported = false
		case debounce.BecameClear:
			t.lastRestoration = tr.Side
		}
	}

	bothClear := leftClear && rightClear

	if bothClear && t.lastInterruption != SideNone && !t.delayArmed {
		t.delayArmed = true
		t.delayStart = now
	}

	report := PositionNone
	if !t.positionReported && bothClear && t.delayArmed && now.Sub(t.delayStart) >= t.dwell {
		switch t.lastRestoration {
		case SideLeft:
			report = PositionLeft
		case SideRight:
			report = PositionRight
		}
		if report != PositionNone {
			t.positionReported = true
		}
	}

	if !bothClear {
		if !t.passageReported {
			report = PositionPassage
			t.passageReported = true
			t.positionReported = false
		}
	} else {
		t.passageReported = false
	}

	return t.forward(report)
}

// Force declares the fish's side without waiting for the debounce or
// dwell machinery. Used by the operator's left/right commands during
// calibration.
func (t *Tracker) Force(side Side, now time.Time) Position {
	if side != SideLeft && side != SideRight {
		return PositionNone
	}
	t.lastRestoration = side
	t.delayArmed = true
	t.delayStart = now
	t.positionReported = true

	if side == SideLeft {
		return t.forward(PositionLeft)
	}
	return t.forward(PositionRight)
}

// LastReported returns the current reported position.
func (t *Tracker) LastReported() Position {
	return t.lastReported
}

// Reset clears all tracking state, abandoning any open dwell window.
func (t *Tracker) Reset() {
	*t = Tracker{dwell: t.dwell}
}

func (t *Tracker) forward(p Position) Position {
	if p == PositionNone || p == t.lastReported {
		return PositionNone
	}
	t.lastReported = p
	return p
}
