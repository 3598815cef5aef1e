// Package checkpoint persists the last fully-indexed block sequence.
//
// The checkpoint owns the durability contract for the ordinal index: a
// block is only considered fully indexed once its sequence has been
// flushed here. It is backed by its own single-bucket, single-key bbolt
// file rather than living inside the main kv.Store, so that a torn write to
// the (much larger, much busier) ordinal keyspace can never corrupt the
// watermark used to decide whether a resume is safe. bbolt memory-maps
// whatever file it opens, so this small dedicated file gets the same
// memory-mapped, crash-safe semantics as the main store without a
// hand-rolled mmap wrapper.
package checkpoint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	bolt "go.etcd.io/bbolt"
)

// Wrong is the sentinel value meaning "no valid checkpoint" — an absent,
// malformed, or explicitly invalidated watermark.
const Wrong uint64 = ^uint64(0)

var (
	bucketCheckpoint = []byte("checkpoint")
	keyLastIndexed   = []byte("last_indexed")
)

// File is a crash-safe, fixed-size checkpoint store.
type File struct {
	mu   sync.Mutex
	db   *bolt.DB
	path string
}

// Open opens (creating if absent) the checkpoint file at
// filepath.Join(dir, "ordinal_last_indexed").
func Open(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint: create dir: %w", err)
	}
	path := filepath.Join(dir, "ordinal_last_indexed")

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCheckpoint)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpoint: create bucket: %w", err)
	}

	return &File{db: db, path: path}, nil
}

// Close closes the checkpoint file.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.db == nil {
		return nil
	}
	err := f.db.Close()
	f.db = nil
	return err
}

// Load returns the last indexed block sequence, or Wrong if the file held
// no value yet.
func (f *File) Load() (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.db == nil {
		return Wrong, errors.New("checkpoint: closed")
	}

	var seq uint64 = Wrong
	err := f.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketCheckpoint).Get(keyLastIndexed)
		if v == nil || len(v) != 8 {
			seq = Wrong
			return nil
		}
		seq = binary.BigEndian.Uint64(v)
		return nil
	})
	if err != nil {
		return Wrong, fmt.Errorf("checkpoint: load: %w", err)
	}
	return seq, nil
}

// Store writes and flushes seq as the new last-indexed watermark.
func (f *File) Store(seq uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.db == nil {
		return errors.New("checkpoint: closed")
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)

	return f.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCheckpoint).Put(keyLastIndexed, buf)
	})
}

// IsWrong reports whether seq is the wrong-sentinel value.
func IsWrong(seq uint64) bool {
	return seq == Wrong
}
