//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the barrier sensors from actual hardware using the
// Linux GPIO character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
}

// NewRealReader requests all ten sensor lines as inputs. The IR
// receiver modules idle HIGH (beam clear) and pull LOW when the beam
// is interrupted; pull-ups keep an unplugged sensor reading clear.
func NewRealReader(pins [NumSensors]int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	lines, err := chip.RequestLines(pins[:], gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request sensor lines %v: %w", pins, err)
	}

	return &RealReader{chip: chip, lines: lines}, nil
}

// Read returns the raw level of every sensor, true = HIGH = clear.
func (r *RealReader) Read() (Frame, error) {
	var frame Frame
	vals := make([]int, NumSensors)
	if err := r.lines.Values(vals); err != nil {
		return frame, fmt.Errorf("read sensor lines: %w", err)
	}
	for i, v := range vals {
		frame[i] = v != 0
	}
	return frame, nil
}

// Close releases GPIO resources.
func (r *RealReader) Close() error {
	var errs []error
	if r.lines != nil {
		if err := r.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sensor lines: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
