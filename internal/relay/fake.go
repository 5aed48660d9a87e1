package relay

// Switch records one Set call.
type Switch struct {
	Relay Relay
	On    bool
}

// FakeDriver records relay switching for test assertions.
type FakeDriver struct {
	// States holds the current state of every relay.
	States [NumRelays]bool

	// History records every Set call in order, including no-ops.
	History []Switch

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeDriver creates a FakeDriver with all relays OFF.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{}
}

// Set records the switch.
func (f *FakeDriver) Set(r Relay, on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.States[r] = on
	f.History = append(f.History, Switch{Relay: r, On: on})
	return nil
}

// Close marks the driver closed and all relays OFF.
func (f *FakeDriver) Close() error {
	f.States = [NumRelays]bool{}
	f.Closed = true
	return nil
}

// On reports whether the given relay is currently energized.
func (f *FakeDriver) On(r Relay) bool {
	return f.States[r]
}

// Reset clears recorded history and state.
func (f *FakeDriver) Reset() {
	*f = FakeDriver{}
}
