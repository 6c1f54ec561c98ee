// Package bbolt implements the ports.Ledger interface using bbolt (embedded B+ tree).
// Every configuration key gets its own sub-bucket under "runs"; records are keyed
// by the sub-bucket's sequence counter. Writes are transactional, so a crash
// mid-write cannot corrupt previously committed runs.
package bbolt

import (
	"errors"
	"fmt"
	"time"

	"github.com/corey/svdprobe/internal/ports"
	bolt "go.etcd.io/bbolt"
)

var bucketRuns = []byte("runs")

// Store implements ports.Ledger backed by bbolt.
type Store struct {
	db *bolt.DB
}

var _ ports.Ledger = (*Store)(nil)

// NewStore opens (or creates) a bbolt database at the given path. A second
// process holding the file gets an error after one second rather than
// blocking forever.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// Append stores rec under key, assigning rec.Seq.
func (s *Store) Append(key string, rec *ports.RunRecord) (uint64, error) {
	if rec == nil {
		return 0, fmt.Errorf("nil run record")
	}
	if key == "" {
		return 0, fmt.Errorf("empty ledger key")
	}

	var seq uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		runs, err := tx.CreateBucketIfNotExists(bucketRuns)
		if err != nil {
			return err
		}
		kb, err := runs.CreateBucketIfNotExists([]byte(key))
		if err != nil {
			return err
		}
		if seq, err = kb.NextSequence(); err != nil {
			return err
		}
		rec.Seq = seq
		data, err := encodeRecord(rec)
		if err != nil {
			return err
		}
		return kb.Put(seqKey(seq), data)
	})
	if err != nil {
		return 0, fmt.Errorf("append %s: %w", key, err)
	}
	return seq, nil
}

// Last returns the most recent record for key.
// Returns nil, nil if the key has no records.
func (s *Store) Last(key string) (*ports.RunRecord, error) {
	recs, err := s.History(key, 1)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return recs[0], nil
}

// History returns up to limit records for key, newest first. limit <= 0
// returns every record.
func (s *Store) History(key string, limit int) ([]*ports.RunRecord, error) {
	var recs []*ports.RunRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		kb := keyBucket(tx, key)
		if kb == nil {
			return nil
		}
		c := kb.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(recs) == limit {
				break
			}
			rec, err := decodeRecord(k, v)
			if err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", key, err)
	}
	return recs, nil
}

// Keys lists every configuration key with at least one record, in byte order.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		if runs == nil {
			return nil
		}
		return runs.ForEachBucket(func(k []byte) error {
			if kb := runs.Bucket(k); kb != nil {
				if first, _ := kb.Cursor().First(); first == nil {
					return nil
				}
				keys = append(keys, string(k))
			}
			return nil
		})
	})
	return keys, err
}

// DeleteKey removes every record for key.
// Idempotent: deleting an unknown key is not an error.
func (s *Store) DeleteKey(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		if runs == nil {
			return nil
		}
		if err := runs.DeleteBucket([]byte(key)); !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		return nil
	})
}

func keyBucket(tx *bolt.Tx, key string) *bolt.Bucket {
	runs := tx.Bucket(bucketRuns)
	if runs == nil {
		return nil
	}
	return runs.Bucket([]byte(key))
}
