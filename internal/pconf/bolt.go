package pconf

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketName = []byte("config")
	recordKey  = []byte("record")
)

// BoltStore keeps the record as a single value in a bbolt database.
// The record is cached in memory; every Put rewrites the full value so
// a committed transaction always holds a complete record.
type BoltStore struct {
	db  *bolt.DB
	buf [RecordLen]byte
}

// OpenBolt opens (or creates) the database at path and loads the
// current record bytes.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open config db: %w", err)
	}

	s := &BoltStore{db: db}
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		if v := b.Get(recordKey); v != nil {
			copy(s.buf[:], v)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load config record: %w", err)
	}
	return s, nil
}

// Get returns the cached byte at off.
func (s *BoltStore) Get(off int) (byte, error) {
	if off < 0 || off >= RecordLen {
		return 0, fmt.Errorf("offset %d out of range", off)
	}
	return s.buf[off], nil
}

// Put updates the byte at off and persists the full record.
func (s *BoltStore) Put(off int, b byte) error {
	if off < 0 || off >= RecordLen {
		return fmt.Errorf("offset %d out of range", off)
	}
	s.buf[off] = b
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(recordKey, s.buf[:])
	})
	if err != nil {
		return fmt.Errorf("persist config record: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
