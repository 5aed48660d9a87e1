// Package thermo implements the bimodal thermal controller: free-running
// acclimation toward fixed per-side targets, and position-triggered
// trial actuation with buffer-pump synchronization. All timing is
// wall-clock-gated from the single control tick; nothing here blocks
// beyond the bounded sensor read.
package thermo

import (
	"fmt"
	"log"
	"time"

	"github.com/ethoslab/shuttlebox/internal/onewire"
	"github.com/ethoslab/shuttlebox/internal/pconf"
	"github.com/ethoslab/shuttlebox/internal/relay"
	"github.com/ethoslab/shuttlebox/internal/track"
)

// Config holds the controller timing and threshold parameters.
type Config struct {
	// SampleInterval is the temperature sampling period.
	SampleInterval time.Duration
	// ConversionLatency is the fixed delay between requesting a
	// conversion and polling for its result.
	ConversionLatency time.Duration
	// ReadWait bounds the completion poll on the sensor read.
	ReadWait time.Duration
	// RelaySettle holds off sampling after a trial relay switch to
	// avoid measuring during relay-induced transients.
	RelaySettle time.Duration
	// Differential is the chamber temperature divergence, in degrees,
	// above which the buffer pumps run. It is also the offset that
	// derives the left target from the right one.
	Differential float64
}

// DefaultConfig returns the parameters the apparatus was tuned with.
func DefaultConfig() Config {
	return Config{
		SampleInterval:    5000 * time.Millisecond,
		ConversionLatency: 800 * time.Millisecond,
		ReadWait:          500 * time.Millisecond,
		RelaySettle:       2000 * time.Millisecond,
		Differential:      2.0,
	}
}

// Sample is one completed temperature reading, corrected.
type Sample struct {
	Left  float64
	Right float64
}

// Controller owns all thermal actuation state. It is mutated only from
// the single control tick; no locking is needed.
type Controller struct {
	cfg     Config
	relays  relay.Driver
	sensors onewire.Sensors
	store   pconf.Store

	mode        pconf.Mode
	targetSet   bool
	targetRight float64

	states         [relay.NumRelays]bool
	safetyOverride bool

	tempLeft  float64
	tempRight float64
	haveTemps bool

	converting   bool
	convertStart time.Time
	lastSample   time.Time
	haveSample   bool

	lastSwitch time.Time
	haveSwitch bool

	// activeSide is the chamber whose relay set is engaged in trial
	// mode.
	activeSide track.Side

	notes []string
}

// New creates a controller and restores any persisted mode and target.
// A corrupt or absent saved record is not an error; the controller
// starts Idle.
func New(cfg Config, relays relay.Driver, sensors onewire.Sensors, store pconf.Store) (*Controller, error) {
	c := &Controller{
		cfg:     cfg,
		relays:  relays,
		sensors: sensors,
		store:   store,
	}

	saved, valid, err := pconf.Load(store)
	if err != nil {
		return nil, fmt.Errorf("load saved config: %w", err)
	}
	if valid {
		c.mode = saved.Mode
		c.targetSet = saved.TargetSet
		c.targetRight = saved.TargetRight
		log.Printf("thermo: restored mode=%s target=%.2f set=%v", c.mode, c.targetRight, c.targetSet)
		c.note("EEPROM:RESTORED mode=%s target=%.2f", c.mode, c.targetRight)
	} else {
		c.note("EEPROM:EMPTY")
	}
	return c, nil
}

// SetTarget sets the right-chamber target, enters acclimation mode and
// persists. The left target is always derived.
func (c *Controller) SetTarget(target float64) []string {
	c.targetRight = target
	c.targetSet = true
	c.mode = pconf.ModeAcclimation
	// Sample promptly at the new setpoint.
	c.haveSample = false
	c.save()
	c.note("TARGET:%.2f", target)
	return c.drain()
}

// StartTrial enters trial mode and persists. A target must be set
// first.
func (c *Controller) StartTrial() []string {
	if !c.targetSet {
		c.note("ERR no target set")
		return c.drain()
	}
	c.mode = pconf.ModeTrial
	c.save()
	c.note("TRIAL:STARTED")
	return c.drain()
}

// Reset returns unconditionally to Idle: all relays OFF, targets
// cleared, pending conversion abandoned, persisted record invalidated.
func (c *Controller) Reset() []string {
	c.allOff()
	c.mode = pconf.ModeIdle
	c.targetSet = false
	c.targetRight = 0
	c.safetyOverride = false
	c.converting = false
	c.haveSample = false
	c.haveSwitch = false
	c.haveTemps = false
	c.activeSide = track.SideNone
	if err := pconf.Invalidate(c.store); err != nil {
		log.Printf("thermo: invalidate saved config: %v", err)
		c.note("ERR eeprom clear: %v", err)
	} else {
		c.note("EEPROM:CLEARED")
	}
	return c.drain()
}

// OnPosition reacts to a forwarded position report. In trial mode a
// Left report engages cooling (heating off), a Right report engages
// heating (cooling off), but only while both sides are all-clear and
// the side is not already active. Every switch restarts the settle
// window that gates sampling.
func (c *Controller) OnPosition(pos track.Position, leftClear, rightClear bool, now time.Time) []string {
	if c.mode != pconf.ModeTrial || !leftClear || !rightClear {
		return nil
	}

	switch pos {
	case track.PositionLeft:
		if c.activeSide == track.SideLeft {
			return nil
		}
		c.set(relay.Heat, false)
		// The pump from the previous side must not run opposite the
		// sole active main relay for the settle window; its partner
		// waits for the next reading.
		c.set(relay.BufferHeat, false)
		c.set(relay.Cool, true)
		c.activeSide = track.SideLeft
	case track.PositionRight:
		if c.activeSide == track.SideRight {
			return nil
		}
		c.set(relay.Cool, false)
		c.set(relay.BufferCool, false)
		c.set(relay.Heat, true)
		c.activeSide = track.SideRight
	default:
		return nil
	}

	c.lastSwitch = now
	c.haveSwitch = true
	return c.drain()
}

// Tick advances the two-phase sampling pipeline and, when a reading
// completes, applies the control law for the current mode. Returns the
// completed sample (nil if none this tick) and any diagnostic lines.
func (c *Controller) Tick(now time.Time) (*Sample, []string) {
	if c.mode == pconf.ModeIdle || !c.targetSet {
		return nil, nil
	}

	if !c.converting {
		if c.haveSample && now.Sub(c.lastSample) < c.cfg.SampleInterval {
			return nil, nil
		}
		if c.mode == pconf.ModeTrial && c.haveSwitch && now.Sub(c.lastSwitch) < c.cfg.RelaySettle {
			return nil, nil
		}
		if err := c.sensors.StartConversion(); err != nil {
			// Count this as the cycle's sample so the retry lands on
			// the next interval, not the next tick.
			c.lastSample = now
			c.haveSample = true
			c.note("ERR temp conversion: %v", err)
			return nil, c.drain()
		}
		c.converting = true
		c.convertStart = now
		return nil, c.drain()
	}

	if now.Sub(c.convertStart) < c.cfg.ConversionLatency {
		return nil, nil
	}

	c.converting = false
	c.lastSample = now
	c.haveSample = true

	left, right, err := c.sensors.Read(c.cfg.ReadWait)
	if err != nil {
		// Skip the cycle, relays untouched.
		c.note("ERR temp read: %v", err)
		return nil, c.drain()
	}
	if left <= onewire.DisconnectedC || right <= onewire.DisconnectedC {
		c.note("ERR sensor disconnected left=%.1f right=%.1f", left, right)
		return nil, c.drain()
	}

	c.tempLeft = left
	c.tempRight = right
	c.haveTemps = true
	c.apply()
	return &Sample{Left: left, Right: right}, c.drain()
}

// Command drives one relay manually. Activation is interlock-checked
// against the complement relay unless the safety override is engaged.
func (c *Controller) Command(r relay.Relay, on bool) []string {
	if on && !c.safetyOverride {
		if comp, ok := complement(r); ok && c.states[comp] {
			c.note("ERR interlock: %s active", comp)
			return c.drain()
		}
	}
	c.setRaw(r, on)
	return c.drain()
}

// SetSafetyOverride toggles the heat/cool interlock escape hatch.
// Disabling the interlock is logged loudly; it exists only for bench
// testing the relay wiring.
func (c *Controller) SetSafetyOverride(on bool) []string {
	c.safetyOverride = on
	if on {
		log.Printf("thermo: SAFETY INTERLOCK DISABLED by operator")
		c.note("SAFETY:OVERRIDE")
	} else {
		log.Printf("thermo: safety interlock restored")
		c.note("SAFETY:NORMAL")
	}
	return c.drain()
}

// AllOff is the emergency stop: every relay OFF, mode unchanged.
func (c *Controller) AllOff() []string {
	c.allOff()
	return c.drain()
}

// Mode returns the current operating mode.
func (c *Controller) Mode() pconf.Mode {
	return c.mode
}

// Target returns the right-chamber target and whether one is set.
func (c *Controller) Target() (float64, bool) {
	return c.targetRight, c.targetSet
}

// Temps returns the last measured temperatures and whether a reading
// has completed since startup or reset.
func (c *Controller) Temps() (left, right float64, ok bool) {
	return c.tempLeft, c.tempRight, c.haveTemps
}

// RelayStates returns the current relay states, indexed by relay.Relay.
func (c *Controller) RelayStates() [relay.NumRelays]bool {
	return c.states
}

// SafetyOverride reports whether the interlock is disabled.
func (c *Controller) SafetyOverride() bool {
	return c.safetyOverride
}

// ActiveSide returns the trial-mode engaged side.
func (c *Controller) ActiveSide() track.Side {
	return c.activeSide
}

func (c *Controller) targetLeft() float64 {
	return c.targetRight - c.cfg.Differential
}

// apply runs the control law for the current mode against the last
// reading.
func (c *Controller) apply() {
	diff := c.tempLeft - c.tempRight
	if diff < 0 {
		diff = -diff
	}
	diverged := diff > c.cfg.Differential

	switch c.mode {
	case pconf.ModeAcclimation:
		// Two-point control, no hysteresis band: heat the right
		// chamber below its target, cool the left above its.
		wantHeat := c.tempRight < c.targetRight
		wantCool := c.tempLeft > c.targetLeft()
		if wantHeat && wantCool {
			// The interlock forbids simultaneous heat and cool;
			// cooling wins, overheating is the worse failure.
			wantHeat = false
		}
		c.set(relay.Cool, wantCool)
		c.set(relay.Heat, wantHeat)
		c.set(relay.BufferHeat, diverged)
		c.set(relay.BufferCool, diverged)

	case pconf.ModeTrial:
		// Main relays switch only on position reports; the pumps
		// follow whichever main relay is active, never opposing it.
		c.set(relay.BufferHeat, c.states[relay.Heat] && diverged)
		c.set(relay.BufferCool, c.states[relay.Cool] && diverged)
	}
}

// set switches a relay, clearing its complement first when activating.
// Mutual exclusion of heat and cool is established here, within one
// tick, not by convention at the call sites.
func (c *Controller) set(r relay.Relay, on bool) {
	if on {
		if comp, ok := complement(r); ok && c.states[comp] {
			c.setRaw(comp, false)
		}
	}
	c.setRaw(r, on)
}

func (c *Controller) setRaw(r relay.Relay, on bool) {
	if c.states[r] == on {
		return
	}
	if err := c.relays.Set(r, on); err != nil {
		log.Printf("thermo: set %s: %v", r, err)
		c.note("ERR relay %s: %v", r, err)
		return
	}
	c.states[r] = on
	v := "0"
	if on {
		v = "1"
	}
	c.note("RELAY_%s:%s", r, v)
}

func (c *Controller) allOff() {
	for r := relay.Relay(0); r < relay.NumRelays; r++ {
		c.setRaw(r, false)
	}
	c.activeSide = track.SideNone
}

// complement returns the mutually exclusive partner of the main
// relays. Buffer pumps are not interlocked: acclimation runs both.
func complement(r relay.Relay) (relay.Relay, bool) {
	switch r {
	case relay.Heat:
		return relay.Cool, true
	case relay.Cool:
		return relay.Heat, true
	default:
		return 0, false
	}
}

func (c *Controller) save() {
	cfg := pconf.Config{Mode: c.mode, TargetSet: c.targetSet, TargetRight: c.targetRight}
	if err := pconf.Save(c.store, cfg); err != nil {
		log.Printf("thermo: save config: %v", err)
		c.note("ERR eeprom save: %v", err)
	} else {
		c.note("EEPROM:SAVED")
	}
}

func (c *Controller) note(format string, args ...any) {
	c.notes = append(c.notes, fmt.Sprintf(format, args...))
}

// Drain returns and clears the pending diagnostic lines. Mutating
// methods drain internally; this exists for the startup notes queued by
// New.
func (c *Controller) Drain() []string {
	n := c.notes
	c.notes = nil
	return n
}

func (c *Controller) drain() []string {
	return c.Drain()
}
