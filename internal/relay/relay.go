// Package relay drives the four actuation relays: main heat, main
// cool, and the two buffer-transfer pumps. The real implementation uses
// the Linux GPIO character device; the fake records switch history for
// tests.
package relay

// Relay identifies one of the four relays.
type Relay int

const (
	Heat Relay = iota
	Cool
	BufferHeat
	BufferCool

	// NumRelays is the relay count.
	NumRelays
)

// String returns the wire name used in RELAY_ status echoes, matching
// what the host GUI expects.
func (r Relay) String() string {
	switch r {
	case Heat:
		return "HEAT"
	case Cool:
		return "COOL"
	case BufferHeat:
		return "BHEAT"
	case BufferCool:
		return "BCOOL"
	default:
		return "UNKNOWN"
	}
}

// Driver switches relays on and off.
type Driver interface {
	// Set drives one relay. Implementations must be safe to call with
	// the relay already in the requested state.
	Set(r Relay, on bool) error

	// Close releases resources, leaving all relays OFF.
	Close() error
}

// DefaultPins maps each relay to its BCM pin number.
var DefaultPins = [NumRelays]int{17, 27, 22, 23}
