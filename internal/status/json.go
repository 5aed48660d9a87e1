package status

import (
	"encoding/json"
	"time"

	"github.com/ethoslab/shuttlebox/internal/relay"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event          string     `json:"event,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	Position       string     `json:"position"`
	PositionCode   string     `json:"position_code"`
	Sensors        string     `json:"sensors"`
	Mode           string     `json:"mode"`
	TargetRight    *float64   `json:"target_right,omitempty"`
	TargetLeft     *float64   `json:"target_left,omitempty"`
	TempLeft       *float64   `json:"temp_left,omitempty"`
	TempRight      *float64   `json:"temp_right,omitempty"`
	Relays         RelaysJSON `json:"relays"`
	SafetyOverride bool       `json:"safety_override"`
	UptimeSeconds  int64      `json:"uptime_seconds"`
	StartTime      string     `json:"start_time"`
	Timestamp      string     `json:"timestamp"`
	MQTT           MQTTStatus `json:"mqtt"`
	Counts         CountsJSON `json:"position_counts"`
	Config         ConfigJSON `json:"config"`
}

// RelaysJSON is the JSON representation of relay states.
type RelaysJSON struct {
	Heat       bool `json:"heat"`
	Cool       bool `json:"cool"`
	BufferHeat bool `json:"buffer_heat"`
	BufferCool bool `json:"buffer_cool"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of position counts.
type CountsJSON struct {
	Passages    int `json:"passages"`
	LeftVisits  int `json:"left_visits"`
	RightVisits int `json:"right_visits"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs     int64  `json:"poll_ms"`
	DebounceMs int64  `json:"debounce_ms"`
	DwellMs    int64  `json:"dwell_ms"`
	SampleMs   int64  `json:"sample_ms"`
	Broker     string `json:"broker,omitempty"`
	HTTPPort   string `json:"http_port"`
	SerialPort string `json:"serial_port,omitempty"`
}

func buildInner(snap Snapshot, differential float64) StatusInner {
	sensors := make([]byte, len(snap.Sensors))
	for i, clear := range snap.Sensors {
		if clear {
			sensors[i] = '0'
		} else {
			sensors[i] = '1'
		}
	}

	inner := StatusInner{
		Position:       snap.Position.String(),
		PositionCode:   snap.Position.Code(),
		Sensors:        string(sensors),
		Mode:           snap.Mode.String(),
		SafetyOverride: snap.SafetyOverride,
		UptimeSeconds:  int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:      snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:      snap.Now.UTC().Format(time.RFC3339),
		Relays: RelaysJSON{
			Heat:       snap.Relays[relay.Heat],
			Cool:       snap.Relays[relay.Cool],
			BufferHeat: snap.Relays[relay.BufferHeat],
			BufferCool: snap.Relays[relay.BufferCool],
		},
		MQTT: MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Passages:    snap.Counts.Passages,
			LeftVisits:  snap.Counts.LeftVisits,
			RightVisits: snap.Counts.RightVisits,
		},
		Config: ConfigJSON{
			PollMs:     snap.Config.PollMs,
			DebounceMs: snap.Config.DebounceMs,
			DwellMs:    snap.Config.DwellMs,
			SampleMs:   snap.Config.SampleMs,
			Broker:     snap.Config.Broker,
			HTTPPort:   snap.Config.HTTPPort,
			SerialPort: snap.Config.SerialPort,
		},
	}

	if snap.TargetSet {
		tr := snap.TargetRight
		tl := snap.TargetRight - differential
		inner.TargetRight = &tr
		inner.TargetLeft = &tl
	}
	if snap.HaveTemps {
		l, r := snap.TempLeft, snap.TempRight
		inner.TempLeft = &l
		inner.TempRight = &r
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot, differential float64) []byte {
	inner := buildInner(snap, differential)
	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, differential float64, event, reason string) []byte {
	inner := buildInner(snap, differential)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
