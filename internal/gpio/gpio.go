// Package gpio provides barrier sensor input reading with hardware
// abstraction. The real implementation uses the Linux GPIO character
// device. The fake implementation allows testing without hardware.
package gpio

// NumSensors is the number of infrared barrier sensors, five per
// chamber side. Frame indices 0-4 are the left side, 5-9 the right.
const NumSensors = 10

// Frame is one reading of all sensors, true = beam clear (raw HIGH).
type Frame [NumSensors]bool

// Reader reads the barrier sensor levels.
type Reader interface {
	// Read returns the raw level of every sensor.
	Read() (Frame, error)

	// Close releases GPIO resources.
	Close() error
}

// DefaultPins maps logical sensor index to BCM pin number, resolved
// once at initialization. Left side first.
var DefaultPins = [NumSensors]int{5, 6, 13, 19, 26, 12, 16, 20, 21, 25}
