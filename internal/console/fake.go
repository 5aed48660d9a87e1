package console

import "sync"

// FakePort is a scriptable Port for tests. Push inbound lines with
// Inject; read outbound lines with Sent.
type FakePort struct {
	incoming chan string

	mu     sync.Mutex
	out    []string
	closed bool

	// WriteError, if set, will be returned by WriteLine.
	WriteError error
}

// NewFakePort creates a FakePort with a buffered inbound channel.
func NewFakePort() *FakePort {
	return &FakePort{incoming: make(chan string, 16)}
}

// Inject queues an inbound command line.
func (f *FakePort) Inject(line string) {
	f.incoming <- line
}

// Lines returns the inbound channel.
func (f *FakePort) Lines() <-chan string {
	return f.incoming
}

// WriteLine records the outbound line.
func (f *FakePort) WriteLine(line string) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.mu.Lock()
	f.out = append(f.out, line)
	f.mu.Unlock()
	return nil
}

// Sent returns a copy of all outbound lines so far.
func (f *FakePort) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.out...)
}

// Close marks the port closed.
func (f *FakePort) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakePort) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
