package pconf

import "fmt"

// MemStore is an in-memory Store for tests. Bytes is exported so tests
// can simulate power-loss corruption directly.
type MemStore struct {
	Bytes [RecordLen]byte

	// GetError / PutError, if set, are returned by the respective call.
	GetError error
	PutError error
}

// NewMemStore creates an empty MemStore (all zero bytes, i.e. no valid
// record).
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Get returns the byte at off.
func (m *MemStore) Get(off int) (byte, error) {
	if m.GetError != nil {
		return 0, m.GetError
	}
	if off < 0 || off >= RecordLen {
		return 0, fmt.Errorf("offset %d out of range", off)
	}
	return m.Bytes[off], nil
}

// Put stores b at off.
func (m *MemStore) Put(off int, b byte) error {
	if m.PutError != nil {
		return m.PutError
	}
	if off < 0 || off >= RecordLen {
		return fmt.Errorf("offset %d out of range", off)
	}
	m.Bytes[off] = b
	return nil
}
