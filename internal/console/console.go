// Package console provides the line-oriented serial command boundary:
// inbound operator commands and outbound position codes and diagnostic
// lines. The real implementation wraps a serial port; the fake allows
// testing without hardware.
package console

// MaxLineLen is the longest accepted command line in bytes. Anything
// longer is discarded whole rather than truncated, so a flooded port
// never produces a mangled command.
const MaxLineLen = 64

// Port is a line-oriented command channel.
type Port interface {
	// Lines returns the channel of complete inbound command lines,
	// newline-terminated on the wire, stripped here.
	Lines() <-chan string

	// WriteLine sends one outbound line.
	WriteLine(s string) error

	// Close releases the port.
	Close() error
}
