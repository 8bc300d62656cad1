package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cuemby/groupsched/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketAffinity = []byte("affinity")
	bucketPasses   = []byte("passes")
	bucketMeta     = []byte("meta")

	keyAffinityImportedAt = []byte("affinity_imported_at")
)

// ErrNoAffinity is returned when no affinity table has been imported yet
var ErrNoAffinity = errors.New("no affinity table imported")

// BoltStore implements Store using BoltDB
type BoltStore struct {
	db   *bolt.DB
	path string
}

// NewBoltStore opens (or creates) groupsched.db in dataDir
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "groupsched.db")

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketPasses, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, path: dbPath}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *BoltStore) Path() string {
	return s.path
}

// PutAffinity replaces the stored affinity table in a single transaction
func (s *BoltStore) PutAffinity(entries map[int]int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketAffinity) != nil {
			if err := tx.DeleteBucket(bucketAffinity); err != nil {
				return fmt.Errorf("failed to clear affinity table: %w", err)
			}
		}
		b, err := tx.CreateBucket(bucketAffinity)
		if err != nil {
			return fmt.Errorf("failed to create affinity bucket: %w", err)
		}
		for taskID, groupID := range entries {
			if err := b.Put(encodeInt(taskID), encodeInt(groupID)); err != nil {
				return err
			}
		}
		stamp, err := time.Now().UTC().MarshalText()
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keyAffinityImportedAt, stamp)
	})
}

// Affinity returns the stored table, or ErrNoAffinity if none was imported
func (s *BoltStore) Affinity() (map[int]int, error) {
	entries := make(map[int]int)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAffinity)
		if b == nil {
			return ErrNoAffinity
		}
		return b.ForEach(func(k, v []byte) error {
			taskID, err := decodeInt(k)
			if err != nil {
				return err
			}
			groupID, err := decodeInt(v)
			if err != nil {
				return err
			}
			entries[taskID] = groupID
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// AffinityImportedAt returns when the table was last imported
func (s *BoltStore) AffinityImportedAt() (time.Time, error) {
	var t time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyAffinityImportedAt)
		if data == nil {
			return ErrNoAffinity
		}
		return t.UnmarshalText(data)
	})
	return t, err
}

// SavePass records a pass report. Keys sort chronologically.
func (s *BoltStore) SavePass(report *types.PassReport) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPasses)
		data, err := json.Marshal(report)
		if err != nil {
			return err
		}
		return b.Put(passKey(report), data)
	})
}

// ListPasses returns up to limit reports, newest first. limit <= 0 returns all.
func (s *BoltStore) ListPasses(limit int) ([]*types.PassReport, error) {
	var reports []*types.PassReport
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketPasses).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(reports) >= limit {
				break
			}
			var report types.PassReport
			if err := json.Unmarshal(v, &report); err != nil {
				return fmt.Errorf("failed to decode pass %s: %w", k, err)
			}
			reports = append(reports, &report)
		}
		return nil
	})
	return reports, err
}

// PrunePasses keeps only the newest keep reports
func (s *BoltStore) PrunePasses(keep int) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPasses)
		excess := b.Stats().KeyN - keep
		if excess <= 0 {
			return nil
		}
		// Collect first; deleting through the cursor while iterating skips keys
		var stale [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil && len(stale) < excess; k, _ = c.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

func passKey(report *types.PassReport) []byte {
	key := make([]byte, 8, 8+len(report.ID))
	binary.BigEndian.PutUint64(key, uint64(report.StartedAt.UnixNano()))
	return append(key, report.ID...)
}

func encodeInt(v int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(int64(v)))
	return b
}

func decodeInt(b []byte) (int, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("invalid integer encoding of length %d", len(b))
	}
	return int(int64(binary.BigEndian.Uint64(b))), nil
}
