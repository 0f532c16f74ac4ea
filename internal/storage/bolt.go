// Package storage provides the durable key-value store behind persisted
// game flags and inventory counts.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var flagsBucket = []byte("flags")

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("store closed")

// BoltStore keeps integer flags in a single bbolt bucket. Reads are
// served from an in-memory copy loaded on Open, so the tick never waits
// on disk for a Get.
type BoltStore struct {
	db *bolt.DB

	mu     sync.RWMutex
	cache  map[string]int
	closed bool
}

// Open opens or creates the database at path.
func Open(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	s := &BoltStore{db: db, cache: make(map[string]int)}
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(flagsBucket)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			if len(v) == 8 {
				s.cache[string(k)] = int(int64(binary.BigEndian.Uint64(v)))
			}
			return nil
		})
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load store %s: %w", path, err)
	}
	return s, nil
}

// Get returns a stored value.
func (s *BoltStore) Get(key string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.cache[key]
	return v, ok
}

// Set writes a value through to disk.
func (s *BoltStore) Set(key string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if old, ok := s.cache[key]; ok && old == value {
		return nil
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(int64(value)))
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(flagsBucket).Put([]byte(key), buf[:])
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	s.cache[key] = value
	return nil
}

// Keys lists stored keys starting with prefix, in byte order.
func (s *BoltStore) Keys(prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(flagsBucket).Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	return keys, err
}

// Sync flushes the database file.
func (s *BoltStore) Sync() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return s.db.Sync()
}

// Close releases the database. Later writes fail with ErrClosed.
func (s *BoltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Path returns the database file location.
func (s *BoltStore) Path() string {
	return s.db.Path()
}
