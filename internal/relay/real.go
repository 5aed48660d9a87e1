//go:build linux

package relay

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealDriver drives relays through GPIO output lines. The relay boards
// are active-high: line HIGH energizes the relay.
type RealDriver struct {
	chip  *gpiocdev.Chip
	lines [NumRelays]*gpiocdev.Line
}

// NewRealDriver requests the relay lines as outputs, all OFF.
func NewRealDriver(pins [NumRelays]int) (*RealDriver, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	d := &RealDriver{chip: chip}
	for i, pin := range pins {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", Relay(i), pin, err)
		}
		d.lines[i] = line
	}
	return d, nil
}

// Set drives one relay line.
func (d *RealDriver) Set(r Relay, on bool) error {
	if r < 0 || r >= NumRelays || d.lines[r] == nil {
		return fmt.Errorf("no line for relay %v", r)
	}
	v := 0
	if on {
		v = 1
	}
	if err := d.lines[r].SetValue(v); err != nil {
		return fmt.Errorf("set %s: %w", r, err)
	}
	return nil
}

// Close drives every relay OFF before releasing the lines, so a daemon
// restart never leaves a heater energized.
func (d *RealDriver) Close() error {
	var errs []error
	for i, line := range d.lines {
		if line == nil {
			continue
		}
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", Relay(i), err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", Relay(i), err))
		}
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
