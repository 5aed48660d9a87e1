// Package status provides a thread-safe status tracker for the
// shuttlebox daemon. It is read by the HTTP handlers, the serial
// STATUS command, and the MQTT heartbeat payload.
package status

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethoslab/shuttlebox/internal/pconf"
	"github.com/ethoslab/shuttlebox/internal/relay"
	"github.com/ethoslab/shuttlebox/internal/track"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs     int64
	DebounceMs int64
	DwellMs    int64
	SampleMs   int64
	Broker     string
	HTTPPort   string
	SerialPort string
}

// Counts tracks position reports since startup.
type Counts struct {
	Passages    int
	LeftVisits  int
	RightVisits int
}

// Snapshot is a point-in-time view of daemon state. It is a value
// type — safe to use after the lock is released.
type Snapshot struct {
	Position       track.Position
	Sensors        track.Frame
	Mode           pconf.Mode
	TargetRight    float64
	TargetSet      bool
	TempLeft       float64
	TempRight      float64
	HaveTemps      bool
	Relays         [relay.NumRelays]bool
	SafetyOverride bool
	Counts         Counts
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Line formats the snapshot as the single-line STATUS reply on the
// serial boundary.
func (s Snapshot) Line() string {
	var relays []string
	for r := relay.Relay(0); r < relay.NumRelays; r++ {
		if s.Relays[r] {
			relays = append(relays, r.String())
		}
	}
	relayField := "NONE"
	if len(relays) > 0 {
		relayField = strings.Join(relays, "+")
	}

	tempField := "NONE"
	if s.HaveTemps {
		tempField = fmt.Sprintf("%.2f/%.2f", s.TempLeft, s.TempRight)
	}

	targetField := "NONE"
	if s.TargetSet {
		targetField = fmt.Sprintf("%.2f", s.TargetRight)
	}

	safety := "NORMAL"
	if s.SafetyOverride {
		safety = "OVERRIDE"
	}

	return fmt.Sprintf("STATUS mode=%s pos=%s target=%s temp=%s relays=%s safety=%s",
		s.Mode, s.Position, targetField, tempField, relayField, safety)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the control state. Called from the run loop every tick.
func (t *Tracker) Update(pos track.Position, sensors track.Frame, mode pconf.Mode,
	targetRight float64, targetSet bool,
	tempLeft, tempRight float64, haveTemps bool,
	relays [relay.NumRelays]bool, safetyOverride bool) {

	t.mu.Lock()
	t.snap.Position = pos
	t.snap.Sensors = sensors
	t.snap.Mode = mode
	t.snap.TargetRight = targetRight
	t.snap.TargetSet = targetSet
	t.snap.TempLeft = tempLeft
	t.snap.TempRight = tempRight
	t.snap.HaveTemps = haveTemps
	t.snap.Relays = relays
	t.snap.SafetyOverride = safetyOverride
	t.mu.Unlock()
}

// CountPosition bumps the counter for a forwarded position report.
func (t *Tracker) CountPosition(pos track.Position) {
	t.mu.Lock()
	switch pos {
	case track.PositionPassage:
		t.snap.Counts.Passages++
	case track.PositionLeft:
		t.snap.Counts.LeftVisits++
	case track.PositionRight:
		t.snap.Counts.RightVisits++
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state. The Now
// field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
