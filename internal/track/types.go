// Package track derives the fish's position from the ten debounced
// barrier sensors. Like debounce, it is pure logic: no GPIO, no OS, no
// sleeping. Time is injected on every call.
package track

import "github.com/ethoslab/shuttlebox/internal/debounce"

// Side identifies a chamber side of the shuttlebox.
type Side int

const (
	SideNone Side = iota
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "LEFT"
	case SideRight:
		return "RIGHT"
	default:
		return "NONE"
	}
}

// Position is a reported fish position.
type Position int

const (
	PositionNone Position = iota
	// PositionPassage means at least one beam on either side is
	// interrupted: the fish is crossing.
	PositionPassage
	PositionLeft
	PositionRight
)

// Code returns the single-character wire code emitted on the serial
// boundary: 0=passage, 1=left, 2=right.
func (p Position) Code() string {
	switch p {
	case PositionPassage:
		return "0"
	case PositionLeft:
		return "1"
	case PositionRight:
		return "2"
	default:
		return ""
	}
}

func (p Position) String() string {
	switch p {
	case PositionPassage:
		return "PASSAGE"
	case PositionLeft:
		return "LEFT"
	case PositionRight:
		return "RIGHT"
	default:
		return "NONE"
	}
}

// Transition is one debounced sensor transition tagged with its owner.
type Transition struct {
	Side  Side
	Index int // 0..SensorsPerSide-1 within the side
	Kind  debounce.Transition
}
