package onewire

import (
	"errors"
	"time"
)

// Reading is one scripted (left, right) sample.
type Reading struct {
	Left  float64
	Right float64
}

// FakeSensors is a test double returning scripted readings.
type FakeSensors struct {
	// Readings are consumed one per Read call; the last repeats.
	Readings []Reading

	// StartError / ReadError, if set, are returned by the respective call.
	StartError error
	ReadError  error

	// Conversions counts StartConversion calls.
	Conversions int

	// Reads counts Read calls.
	Reads int

	// Closed tracks if Close was called.
	Closed bool

	index int
}

// NewFakeSensors creates a FakeSensors with the given scripted readings.
func NewFakeSensors(readings ...Reading) *FakeSensors {
	return &FakeSensors{Readings: readings}
}

// StartConversion counts the request.
func (f *FakeSensors) StartConversion() error {
	if f.StartError != nil {
		return f.StartError
	}
	f.Conversions++
	return nil
}

// Read returns the next scripted reading.
func (f *FakeSensors) Read(maxWait time.Duration) (float64, float64, error) {
	f.Reads++
	if f.ReadError != nil {
		return 0, 0, f.ReadError
	}
	if len(f.Readings) == 0 {
		return 0, 0, errors.New("no readings configured")
	}
	r := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	return r.Left, r.Right, nil
}

// Close marks the sensors as closed.
func (f *FakeSensors) Close() error {
	f.Closed = true
	return nil
}
