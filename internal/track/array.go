package track

import (
	"time"

	"github.com/ethoslab/shuttlebox/internal/debounce"
)

// SensorsPerSide is the number of barrier sensors on each chamber side.
const SensorsPerSide = 5

// NumSensors is the total sensor count across both sides.
const NumSensors = 2 * SensorsPerSide

// Frame is one tick's raw readings, indices 0..4 left, 5..9 right.
// true = beam clear.
type Frame [NumSensors]bool

// Array aggregates the ten debounce filters into per-side all-clear
// signals. It is owned by the Tracker's caller and sampled once per
// control tick.
type Array struct {
	left  [SensorsPerSide]*debounce.Filter
	right [SensorsPerSide]*debounce.Filter
}

// NewArray builds the filters, seeding each from the initial boundary
// reading so no spurious transitions fire at startup.
func NewArray(delay time.Duration, initial Frame) *Array {
	a := &Array{}
	for i := 0; i < SensorsPerSide; i++ {
		a.left[i] = debounce.NewFilter(delay, initial[i])
		a.right[i] = debounce.NewFilter(delay, initial[SensorsPerSide+i])
	}
	return a
}

// Sample runs every filter against the frame and returns the committed
// transitions, left sensors first.
func (a *Array) Sample(frame Frame, now time.Time) []Transition {
	var trs []Transition
	for i := 0; i < SensorsPerSide; i++ {
		if k := a.left[i].Sample(frame[i], now); k != debounce.None {
			trs = append(trs, Transition{Side: SideLeft, Index: i, Kind: k})
		}
	}
	for i := 0; i < SensorsPerSide; i++ {
		if k := a.right[i].Sample(frame[SensorsPerSide+i], now); k != debounce.None {
			trs = append(trs, Transition{Side: SideRight, Index: i, Kind: k})
		}
	}
	return trs
}

// LeftClear reports whether every left-side beam is clear.
func (a *Array) LeftClear() bool {
	for _, f := range a.left {
		if !f.Stable() {
			return false
		}
	}
	return true
}

// RightClear reports whether every right-side beam is clear.
func (a *Array) RightClear() bool {
	for _, f := range a.right {
		if !f.Stable() {
			return false
		}
	}
	return true
}

// Levels returns the stable level of every sensor in frame order.
func (a *Array) Levels() Frame {
	var f Frame
	for i := 0; i < SensorsPerSide; i++ {
		f[i] = a.left[i].Stable()
		f[SensorsPerSide+i] = a.right[i].Stable()
	}
	return f
}

// SensorLine formats the stable levels as the SENSORS: line consumed by
// the host GUI, one digit per sensor, 1 = interrupted.
func (a *Array) SensorLine() string {
	levels := a.Levels()
	buf := make([]byte, 0, len("SENSORS:")+NumSensors)
	buf = append(buf, "SENSORS:"...)
	for _, clear := range levels {
		if clear {
			buf = append(buf, '0')
		} else {
			buf = append(buf, '1')
		}
	}
	return string(buf)
}
