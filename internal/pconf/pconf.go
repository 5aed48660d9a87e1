// Package pconf persists operating mode and thermal setpoints across
// power loss. The record lives at fixed byte offsets behind a
// byte-addressable Store, mirroring the EEPROM layout of the control
// board: validity marker, mode, target-set flag, 4-byte little-endian
// float32 target temperature.
package pconf

import (
	"fmt"
	"math"
)

// Magic is the sentinel validating a saved record. Any other value,
// including uninitialized storage, means "no saved state".
const Magic byte = 0xA7

// Record layout offsets.
const (
	offMagic     = 0
	offMode      = 1
	offTargetSet = 2
	offTarget    = 3

	// RecordLen is the total record size in bytes.
	RecordLen = 7
)

// Mode is the controller operating mode.
type Mode byte

const (
	ModeIdle Mode = iota
	ModeAcclimation
	ModeTrial
)

func (m Mode) String() string {
	switch m {
	case ModeAcclimation:
		return "ACCLIMATION"
	case ModeTrial:
		return "TRIAL"
	default:
		return "IDLE"
	}
}

// Config is the persisted controller configuration. TargetLeft is
// never stored; it is always derived from TargetRight.
type Config struct {
	Mode        Mode
	TargetSet   bool
	TargetRight float64
}

// TargetLeft derives the left-chamber setpoint from the right one.
func (c Config) TargetLeft(differential float64) float64 {
	return c.TargetRight - differential
}

// Store is byte-addressable persistent storage, the EEPROM collaborator
// of the control board.
type Store interface {
	Get(off int) (byte, error)
	Put(off int, b byte) error
}

// Load reads the record. A magic mismatch is not an error: it returns
// the zero Config and valid=false. Errors are I/O failures only.
func Load(s Store) (cfg Config, valid bool, err error) {
	m, err := s.Get(offMagic)
	if err != nil {
		return Config{}, false, fmt.Errorf("read magic: %w", err)
	}
	if m != Magic {
		return Config{}, false, nil
	}

	mode, err := s.Get(offMode)
	if err != nil {
		return Config{}, false, fmt.Errorf("read mode: %w", err)
	}
	if Mode(mode) > ModeTrial {
		// Marker valid but mode byte garbage: treat as no saved state.
		return Config{}, false, nil
	}

	set, err := s.Get(offTargetSet)
	if err != nil {
		return Config{}, false, fmt.Errorf("read target flag: %w", err)
	}

	var bits uint32
	for i := 0; i < 4; i++ {
		b, err := s.Get(offTarget + i)
		if err != nil {
			return Config{}, false, fmt.Errorf("read target byte %d: %w", i, err)
		}
		bits |= uint32(b) << (8 * i)
	}

	return Config{
		Mode:        Mode(mode),
		TargetSet:   set != 0,
		TargetRight: float64(math.Float32frombits(bits)),
	}, true, nil
}

// Save writes the record, marker first then fields. No partial-write
// detection is attempted.
func Save(s Store, cfg Config) error {
	if err := s.Put(offMagic, Magic); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := s.Put(offMode, byte(cfg.Mode)); err != nil {
		return fmt.Errorf("write mode: %w", err)
	}
	var set byte
	if cfg.TargetSet {
		set = 1
	}
	if err := s.Put(offTargetSet, set); err != nil {
		return fmt.Errorf("write target flag: %w", err)
	}
	bits := math.Float32bits(float32(cfg.TargetRight))
	for i := 0; i < 4; i++ {
		if err := s.Put(offTarget+i, byte(bits>>(8*i))); err != nil {
			return fmt.Errorf("write target byte %d: %w", i, err)
		}
	}
	return nil
}

// Invalidate clears only the magic marker. The remaining bytes are left
// untouched.
func Invalidate(s Store) error {
	if err := s.Put(offMagic, 0); err != nil {
		return fmt.Errorf("clear magic: %w", err)
	}
	return nil
}
