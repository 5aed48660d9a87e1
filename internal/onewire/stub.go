//go:build !linux

package onewire

import (
	"errors"
	"time"
)

// RealSensors is not available on non-Linux platforms.
type RealSensors struct{}

// NewRealSensors returns an error on non-Linux platforms.
func NewRealSensors(leftID, rightID string, offset float64) (*RealSensors, error) {
	return nil, errors.New("onewire: not supported on this platform (requires Linux)")
}

// StartConversion is not implemented on non-Linux platforms.
func (s *RealSensors) StartConversion() error {
	return errors.New("onewire: not supported")
}

// Read is not implemented on non-Linux platforms.
func (s *RealSensors) Read(maxWait time.Duration) (float64, float64, error) {
	return 0, 0, errors.New("onewire: not supported")
}

// Close is not implemented on non-Linux platforms.
func (s *RealSensors) Close() error {
	return nil
}
