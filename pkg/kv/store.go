package kv

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("kv: key not found")

// ErrClosed is returned by every operation once the store has failed or
// been closed, until Open succeeds again.
var ErrClosed = errors.New("kv: store closed")

var bucketOrdinal = []byte("ordinal")

// DefaultMapSize is used when a caller does not specify one, matching the
// configuration default documented for the node.
const DefaultMapSize int64 = 1 << 30 // 1 GiB

// Store is a single-writer, ordered, memory-mapped key-value backend built
// on bbolt. All ordinal state lives in one flat bucket so that prefix
// iteration is a single cursor seek regardless of which entity the key
// belongs to.
type Store struct {
	mu  sync.RWMutex
	db  *bolt.DB
	dir string

	mapSize int64
	open    bool

	onFailure func(error)
}

// New creates a Store rooted at dir (the directory that will contain the
// bbolt file). It does not open the database; call Open.
func New(dir string) *Store {
	return &Store{
		dir:     dir,
		mapSize: DefaultMapSize,
	}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, "index.db")
}

// SetMapSize records a new mmap size hint. It takes effect on the next
// Open; bbolt grows its mmap automatically as the file grows, so this is
// mainly useful to pre-size a fresh database.
func (s *Store) SetMapSize(bytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mapSize = bytes
}

// OnFailure registers a callback invoked whenever an operation fails with
// an I/O error. The store marks itself closed before calling it.
func (s *Store) OnFailure(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFailure = fn
}

// Open opens (creating if absent) the backing bbolt file and the single
// ordinal bucket.
func (s *Store) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("kv: create data dir: %w", err)
	}

	db, err := bolt.Open(s.path(), 0o600, &bolt.Options{
		Timeout:         time.Second,
		InitialMmapSize: int(s.mapSize),
	})
	if err != nil {
		return fmt.Errorf("kv: open: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketOrdinal)
		return err
	}); err != nil {
		db.Close()
		return fmt.Errorf("kv: create bucket: %w", err)
	}

	s.db = db
	s.open = true
	return nil
}

// Close closes the backing file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.open = false
	return err
}

// IsOpen reports whether the store currently has the database open.
func (s *Store) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open
}

// Recreate wipes the on-disk database file and reopens an empty one. Used
// when the index enters recreate mode: the ordinal index is a secondary
// structure, so a full wipe is acceptable.
func (s *Store) Recreate() error {
	s.mu.Lock()
	if s.open {
		s.db.Close()
		s.db = nil
		s.open = false
	}
	path := s.path()
	s.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("kv: remove for recreate: %w", err)
	}
	return s.Open()
}

func (s *Store) fail(err error) error {
	s.mu.Lock()
	if s.db != nil {
		// Release the file lock so a later Open can succeed.
		_ = s.db.Close()
		s.db = nil
	}
	s.open = false
	cb := s.onFailure
	s.mu.Unlock()
	if cb != nil {
		cb(err)
	}
	return err
}

func (s *Store) db_() (*bolt.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return nil, ErrClosed
	}
	return s.db, nil
}

// Put writes key -> value. Durable by the time the call returns.
func (s *Store) Put(key, value []byte) error {
	db, err := s.db_()
	if err != nil {
		return err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOrdinal).Put(key, value)
	}); err != nil {
		return s.fail(fmt.Errorf("kv: put: %w", err))
	}
	return nil
}

// Get reads the value for key, or ErrNotFound.
func (s *Store) Get(key []byte) ([]byte, error) {
	db, err := s.db_()
	if err != nil {
		return nil, err
	}
	var out []byte
	txErr := db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketOrdinal).Get(key)
		if v == nil {
			return ErrNotFound
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.fail(fmt.Errorf("kv: get: %w", txErr))
	}
	return out, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key []byte) error {
	db, err := s.db_()
	if err != nil {
		return err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOrdinal).Delete(key)
	}); err != nil {
		return s.fail(fmt.Errorf("kv: delete: %w", err))
	}
	return nil
}

// Exists reports whether key is present.
func (s *Store) Exists(key []byte) (bool, error) {
	_, err := s.Get(key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

// IteratePrefix visits every (key, value) pair whose key starts with
// prefix, in ascending key order. visit returns (continue, err); returning
// continue=false stops iteration without error.
func (s *Store) IteratePrefix(prefix []byte, visit func(k, v []byte) (bool, error)) error {
	db, err := s.db_()
	if err != nil {
		return err
	}
	txErr := db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketOrdinal).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			cont, err := visit(k, v)
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
		return nil
	})
	if txErr != nil {
		return s.fail(fmt.Errorf("kv: iterate prefix: %w", txErr))
	}
	return nil
}

// First returns the smallest key in the store.
func (s *Store) First() (k, v []byte, err error) {
	db, err := s.db_()
	if err != nil {
		return nil, nil, err
	}
	txErr := db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketOrdinal).Cursor()
		fk, fv := c.First()
		if fk == nil {
			return ErrNotFound
		}
		k = append([]byte(nil), fk...)
		v = append([]byte(nil), fv...)
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, s.fail(fmt.Errorf("kv: first: %w", txErr))
	}
	return k, v, nil
}

// Last returns the largest key in the store.
func (s *Store) Last() (k, v []byte, err error) {
	db, err := s.db_()
	if err != nil {
		return nil, nil, err
	}
	txErr := db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketOrdinal).Cursor()
		lk, lv := c.Last()
		if lk == nil {
			return ErrNotFound
		}
		k = append([]byte(nil), lk...)
		v = append([]byte(nil), lv...)
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, s.fail(fmt.Errorf("kv: last: %w", txErr))
	}
	return k, v, nil
}

// Size returns the total number of entries in the store.
func (s *Store) Size() (int, error) {
	db, err := s.db_()
	if err != nil {
		return 0, err
	}
	var n int
	txErr := db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketOrdinal).Stats().KeyN
		return nil
	})
	if txErr != nil {
		return 0, s.fail(fmt.Errorf("kv: size: %w", txErr))
	}
	return n, nil
}

// CountPrefix counts the entries whose key starts with prefix. Used by OIC
// as a fallback for lazy counters outside recreate mode.
func (s *Store) CountPrefix(prefix []byte) (int, error) {
	n := 0
	err := s.IteratePrefix(prefix, func(k, v []byte) (bool, error) {
		n++
		return true, nil
	})
	return n, err
}
