// Package mqtt mirrors position and system events to an MQTT broker
// for lab-side monitoring. The serial console remains the
// authoritative boundary; this mirror is optional and the daemon runs
// fine without a broker.
package mqtt

import (
	"encoding/json"
	"time"
)

// Topic is the MQTT topic for position events.
const Topic = "shuttlebox/position/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "shuttlebox/system"

// PositionEvent is a fish position change.
type PositionEvent struct {
	Timestamp time.Time
	Position  string // PASSAGE, LEFT, RIGHT
	Code      string // wire code 0/1/2
}

// SystemEvent is a system lifecycle event (startup, shutdown,
// heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g. "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g. "SIGTERM" (shutdown only)
	RawPayload []byte // pre-formatted JSON; if set, used directly
	Retained   bool
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishPosition sends a position event. Failure must not crash
	// the control loop.
	PublishPosition(event PositionEvent) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Payload is the position event JSON envelope.
type Payload struct {
	Shuttlebox PositionPayload `json:"shuttlebox"`
}

// PositionPayload contains the position event details.
type PositionPayload struct {
	Timestamp string `json:"timestamp"`
	Position  string `json:"position"`
	Code      string `json:"code"`
}

// FormatPayload creates the JSON payload for a position event.
func FormatPayload(event PositionEvent) ([]byte, error) {
	payload := Payload{
		Shuttlebox: PositionPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Position:  event.Position,
			Code:      event.Code,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the system event JSON envelope, used for events that
// do not carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event. If
// event.RawPayload is set, it is returned directly (full snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
