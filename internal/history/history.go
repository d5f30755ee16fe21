// Package history keeps a persistent log of evaluated lines in a bbolt
// database.
package history

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"gopkg.in/yaml.v3"
)

const bucketLines = "lines"

// ErrNoEntry is returned when no entry has the requested sequence number.
var ErrNoEntry = errors.New("no such history entry")

// Entry is one evaluated line.
type Entry struct {
	Seq    int       `yaml:"-"`
	Line   string    `yaml:"line"`
	Result string    `yaml:"result,omitempty"`
	Error  string    `yaml:"error,omitempty"`
	Time   time.Time `yaml:"time"`
}

type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketLines))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("history: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Add appends e and returns its sequence number. A zero Time is replaced by
// the current time.
func (s *Store) Add(e Entry) (int, error) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	data, err := yaml.Marshal(e)
	if err != nil {
		return 0, err
	}
	var seq uint64
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketLines))
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(marshalSeq(seq), data)
	})
	return int(seq), err
}

// Get returns the entry with sequence number seq.
func (s *Store) Get(seq int) (Entry, error) {
	var e Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketLines)).Get(marshalSeq(uint64(seq)))
		if v == nil {
			return ErrNoEntry
		}
		return unmarshalEntry(seq, v, &e)
	})
	return e, err
}

// List returns the last n entries in insertion order, or every entry when
// n <= 0.
func (s *Store) List(n int) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketLines)).Cursor()
		for k, v := c.Last(); k != nil && (n <= 0 || len(entries) < n); k, v = c.Prev() {
			var e Entry
			if err := unmarshalEntry(int(unmarshalSeq(k)), v, &e); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	})
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, err
}

// Delete removes the entry with sequence number seq.
func (s *Store) Delete(seq int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketLines)).Delete(marshalSeq(uint64(seq)))
	})
}

func unmarshalEntry(seq int, data []byte, e *Entry) error {
	if err := yaml.Unmarshal(data, e); err != nil {
		return fmt.Errorf("history: entry %d: %w", seq, err)
	}
	e.Seq = seq
	return nil
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func unmarshalSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
