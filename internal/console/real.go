package console

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/tarm/serial"
)

// SerialPort is a Port over a real serial device.
type SerialPort struct {
	port  *serial.Port
	lines chan string
	done  chan struct{}
}

// OpenSerial opens the serial device and starts the line reader.
func OpenSerial(device string, baud int) (*SerialPort, error) {
	cfg := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: 500 * time.Millisecond,
	}
	p, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}

	s := &SerialPort{
		port:  p,
		lines: make(chan string, 16),
		done:  make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Lines returns the inbound command line channel.
func (s *SerialPort) Lines() <-chan string {
	return s.lines
}

// WriteLine sends one line, newline-terminated.
func (s *SerialPort) WriteLine(line string) error {
	if _, err := s.port.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

// Close stops the reader and closes the device.
func (s *SerialPort) Close() error {
	close(s.done)
	return s.port.Close()
}

// readLoop assembles newline-terminated lines. Lines longer than
// MaxLineLen are discarded whole; carriage returns are stripped.
func (s *SerialPort) readLoop() {
	buf := make([]byte, 64)
	line := make([]byte, 0, MaxLineLen)
	overflow := false

	for {
		select {
		case <-s.done:
			return
		default:
		}

		n, err := s.port.Read(buf)
		if err != nil {
			if err == io.EOF {
				// Read timeout; poll again.
				continue
			}
			log.Printf("console: serial read: %v", err)
			return
		}

		for _, b := range buf[:n] {
			switch b {
			case '\n':
				if !overflow && len(line) > 0 {
					s.deliver(string(line))
				}
				line = line[:0]
				overflow = false
			case '\r':
				// strip
			default:
				if len(line) >= MaxLineLen {
					if !overflow {
						log.Printf("console: line exceeds %d bytes, discarding", MaxLineLen)
					}
					overflow = true
					continue
				}
				line = append(line, b)
			}
		}
	}
}

// deliver hands a line to the control loop, dropping it if the loop is
// not keeping up. The boundary buffers a single logical line; a flood
// must never stall the reader.
func (s *SerialPort) deliver(line string) {
	select {
	case s.lines <- line:
	default:
		log.Printf("console: dropping command %q, loop busy", line)
	}
}
