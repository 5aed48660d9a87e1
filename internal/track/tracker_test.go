package track

import (
	"testing"
	"time"

	"github.com/ethoslab/shuttlebox/internal/debounce"
)

const dwell = 2000 * time.Millisecond

func blocked(s Side) []Transition {
	return []Transition{{Side: s, Index: 0, Kind: debounce.BecameBlocked}}
}

func cleared(s Side) []Transition {
	return []Transition{{Side: s, Index: 0, Kind: debounce.BecameClear}}
}

func TestPassageReportedImmediately(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTracker(dwell)

	pos := tr.Update(blocked(SideLeft), false, true, now)
	if pos != PositionPassage {
		t.Fatalf("expected Passage on interruption, got %v", pos)
	}
	// Still blocked: no duplicate passage.
	pos = tr.Update(nil, false, true, now.Add(100*time.Millisecond))
	if pos != PositionNone {
		t.Fatalf("expected no duplicate Passage, got %v", pos)
	}
}

func TestPositionAfterDwell(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTracker(dwell)

	tr.Update(blocked(SideLeft), false, true, now)
	// Fish emerges on the right; both sides go clear at t=500ms.
	tr.Update(cleared(SideLeft), true, true, now.Add(500*time.Millisecond))

	// Before the dwell delay: no side report.
	pos := tr.Update(nil, true, true, now.Add(2*time.Second))
	if pos != PositionNone {
		t.Fatalf("expected no report before dwell, got %v", pos)
	}
	// 2000ms after both sides went clear.
	pos = tr.Update(nil, true, true, now.Add(2500*time.Millisecond))
	if pos != PositionLeft {
		t.Fatalf("expected Left after dwell, got %v", pos)
	}
}

// The side reported is the side of the most recent restoration, not the
// most recent interruption.
func TestRestorationSideWins(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTracker(dwell)

	tr.Update(blocked(SideLeft), false, true, now)
	tr.Update(cleared(SideRight), true, true, now)

	pos := tr.Update(nil, true, true, now.Add(dwell))
	if pos != PositionRight {
		t.Fatalf("expected Right (last restoration side), got %v", pos)
	}
}

func TestShortClearIntervalSuppressesReport(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTracker(dwell)

	tr.Update(blocked(SideLeft), false, true, now)
	tr.Update(cleared(SideLeft), true, true, now.Add(200*time.Millisecond))
	// Blocked again 1s later, before the dwell elapses.
	pos := tr.Update(blocked(SideLeft), false, true, now.Add(1200*time.Millisecond))
	if pos != PositionNone {
		t.Fatalf("passage already reported, expected None, got %v", pos)
	}
	// Even two dwell periods later, no Left report happened in between.
	pos = tr.Update(nil, false, true, now.Add(2*dwell))
	if pos != PositionNone {
		t.Fatalf("expected no side report while blocked, got %v", pos)
	}
}

func TestNoDuplicateEmission(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTracker(dwell)

	tr.Update(blocked(SideLeft), false, true, now)
	tr.Update(cleared(SideLeft), true, true, now.Add(100*time.Millisecond))
	pos := tr.Update(nil, true, true, now.Add(100*time.Millisecond+dwell))
	if pos != PositionLeft {
		t.Fatalf("expected Left, got %v", pos)
	}

	// Subsequent all-clear ticks must not repeat the report.
	for i := 1; i <= 5; i++ {
		at := now.Add(100*time.Millisecond + dwell + time.Duration(i)*100*time.Millisecond)
		if pos := tr.Update(nil, true, true, at); pos != PositionNone {
			t.Fatalf("tick %d: expected no repeat emission, got %v", i, pos)
		}
	}

	// After an intervening Passage, the same side is reported again:
	// only consecutive identical emissions are suppressed.
	if pos := tr.Update(blocked(SideLeft), false, true, now.Add(4*time.Second)); pos != PositionPassage {
		t.Fatalf("expected Passage, got %v", pos)
	}
	tr.Update(cleared(SideLeft), true, true, now.Add(4500*time.Millisecond))
	pos = tr.Update(nil, true, true, now.Add(4500*time.Millisecond+dwell))
	if pos != PositionLeft {
		t.Fatalf("expected Left re-emitted after Passage, got %v", pos)
	}
}

func TestPassageBetweenSideReports(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTracker(dwell)

	// Left visit.
	tr.Update(blocked(SideLeft), false, true, now)
	tr.Update(cleared(SideLeft), true, true, now.Add(100*time.Millisecond))
	if pos := tr.Update(nil, true, true, now.Add(100*time.Millisecond+dwell)); pos != PositionLeft {
		t.Fatalf("expected Left, got %v", pos)
	}

	// Crossing to the right.
	if pos := tr.Update(blocked(SideLeft), false, true, now.Add(5*time.Second)); pos != PositionPassage {
		t.Fatalf("expected Passage, got %v", pos)
	}
	tr.Update(cleared(SideRight), true, true, now.Add(6*time.Second))
	if pos := tr.Update(nil, true, true, now.Add(6*time.Second+dwell)); pos != PositionRight {
		t.Fatalf("expected Right, got %v", pos)
	}
}

// Repeated interruption and restoration on one side within a dwell
// window: the side recorded when the dwell condition is satisfied
// determines the report.
func TestRestorationSupersededWithinWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTracker(dwell)

	tr.Update(blocked(SideRight), false, false, now)
	tr.Update(cleared(SideLeft), true, true, now.Add(100*time.Millisecond))
	// The right side restores later in the same window; the dwell timer
	// restarts because a new interruption intervened.
	tr.Update(blocked(SideRight), true, false, now.Add(300*time.Millisecond))
	tr.Update(cleared(SideRight), true, true, now.Add(500*time.Millisecond))

	pos := tr.Update(nil, true, true, now.Add(500*time.Millisecond+dwell))
	if pos != PositionRight {
		t.Fatalf("expected Right (latest restoration), got %v", pos)
	}
}

func TestForceBypassesDwell(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTracker(dwell)

	if pos := tr.Force(SideLeft, now); pos != PositionLeft {
		t.Fatalf("expected immediate Left, got %v", pos)
	}
	// Forcing the same side again is deduplicated.
	if pos := tr.Force(SideLeft, now.Add(time.Second)); pos != PositionNone {
		t.Fatalf("expected dedup on repeated force, got %v", pos)
	}
	if pos := tr.Force(SideRight, now.Add(2*time.Second)); pos != PositionRight {
		t.Fatalf("expected Right, got %v", pos)
	}
}

func TestReset(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTracker(dwell)

	tr.Update(blocked(SideLeft), false, true, now)
	tr.Reset()

	if tr.LastReported() != PositionNone {
		t.Error("expected cleared report after reset")
	}
	// No leftover interruption: clear samples never produce a report.
	pos := tr.Update(nil, true, true, now.Add(10*time.Second))
	if pos != PositionNone {
		t.Fatalf("expected None after reset, got %v", pos)
	}
}
