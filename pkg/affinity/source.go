package affinity

import (
	"errors"
	"fmt"
	"os"

	"github.com/cuemby/groupsched/pkg/log"
	"github.com/cuemby/groupsched/pkg/storage"
)

// DefaultPath is where the affinity table is read from unless configured otherwise
const DefaultPath = "/jars/config.txt"

// Source supplies the affinity table.
//
// The scheduler calls Load exactly once at the start of every pass and never
// caches the result, so a change to the underlying table takes effect on the
// next pass. Implementations must not cache either.
type Source interface {
	// Load returns the current table. An unavailable table is an empty map
	// with a nil error; a malformed table is an error.
	Load() (*Map, error)

	// Describe names the source for logs
	Describe() string
}

// FileSource reads the table from a text file on every Load
type FileSource struct {
	Path string
}

// NewFileSource creates a file-backed source, using DefaultPath when path is empty
func NewFileSource(path string) *FileSource {
	if path == "" {
		path = DefaultPath
	}
	return &FileSource{Path: path}
}

func (s *FileSource) Load() (*Map, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger := log.WithComponent("affinity")
			logger.Warn().
				Str("path", s.Path).
				Msg("Affinity file not found, using empty table")
			return NewMap(nil), nil
		}
		return nil, fmt.Errorf("failed to open affinity file: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.Path, err)
	}
	warnDuplicates(s, m)
	return m, nil
}

func (s *FileSource) Describe() string {
	return "file:" + s.Path
}

// StaticSource serves a fixed in-memory table
type StaticSource struct {
	Entries map[int]int
}

func (s *StaticSource) Load() (*Map, error) {
	return NewMap(s.Entries), nil
}

func (s *StaticSource) Describe() string {
	return "static"
}

// BoltSource reads the table imported into the bbolt store
type BoltSource struct {
	store *storage.BoltStore
}

// NewBoltSource creates a source backed by the given store
func NewBoltSource(store *storage.BoltStore) *BoltSource {
	return &BoltSource{store: store}
}

func (s *BoltSource) Load() (*Map, error) {
	entries, err := s.store.Affinity()
	if err != nil {
		if errors.Is(err, storage.ErrNoAffinity) {
			logger := log.WithComponent("affinity")
			logger.Warn().
				Str("source", s.Describe()).
				Msg("No affinity table imported, using empty table")
			return NewMap(nil), nil
		}
		return nil, fmt.Errorf("failed to read affinity table: %w", err)
	}
	return NewMap(entries), nil
}

func (s *BoltSource) Describe() string {
	return "bolt:" + s.store.Path()
}

func warnDuplicates(s Source, m *Map) {
	if dups := m.Duplicates(); len(dups) > 0 {
		logger := log.WithComponent("affinity")
		logger.Warn().
			Str("source", s.Describe()).
			Ints("task_ids", dups).
			Msg("Duplicate task ids in affinity table, last entry wins")
	}
}
