package gpio

import (
	"errors"
	"testing"
)

func TestFakeReaderSequence(t *testing.T) {
	blocked := AllClear
	blocked[0] = false

	f := NewFakeReader([]Frame{AllClear, blocked})

	frame, err := f.Read()
	if err != nil {
		t.Fatalf("read 1: %v", err)
	}
	if frame != AllClear {
		t.Errorf("read 1: expected all clear, got %v", frame)
	}

	frame, err = f.Read()
	if err != nil {
		t.Fatalf("read 2: %v", err)
	}
	if frame[0] {
		t.Error("read 2: expected sensor 0 blocked")
	}

	// Exhausted: last frame repeats.
	frame, err = f.Read()
	if err != nil {
		t.Fatalf("read 3: %v", err)
	}
	if frame != blocked {
		t.Errorf("read 3: expected last frame repeated, got %v", frame)
	}
}

func TestFakeReaderNoFrames(t *testing.T) {
	f := NewFakeReader(nil)
	if _, err := f.Read(); err == nil {
		t.Error("expected error with no frames configured")
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]Frame{AllClear})
	f.ReadError = errors.New("wiring fault")
	if _, err := f.Read(); err == nil {
		t.Error("expected configured read error")
	}
}

func TestFakeReaderReset(t *testing.T) {
	blocked := AllClear
	blocked[5] = false
	f := NewFakeReader([]Frame{AllClear, blocked})

	f.Read()
	f.Read()
	f.Close()
	f.Reset()

	if f.Closed {
		t.Error("reset should clear Closed")
	}
	frame, err := f.Read()
	if err != nil {
		t.Fatalf("read after reset: %v", err)
	}
	if frame != AllClear {
		t.Error("reset should rewind to the first frame")
	}
}
