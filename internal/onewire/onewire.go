// Package onewire provides the two-probe temperature collaborator with
// a two-phase conversion protocol: request a conversion, then read the
// results on a later tick once the conversion latency has passed. The
// real implementation uses the Linux w1 sysfs interface; the fake
// allows testing without hardware.
package onewire

import "time"

// DisconnectedC is the sentinel reported for a disconnected probe.
const DisconnectedC = -127.0

// Sensors is the two-probe temperature collaborator.
type Sensors interface {
	// StartConversion triggers a temperature conversion on both
	// probes. It returns immediately; results become available after
	// the probe's conversion latency.
	StartConversion() error

	// Read returns the corrected (left, right) temperatures, waiting
	// at most maxWait for a conversion still in flight. A probe that
	// cannot be read reports DisconnectedC rather than an error; an
	// error means the bus itself failed.
	Read(maxWait time.Duration) (left, right float64, err error)

	// Close releases sensor resources.
	Close() error
}
