package storage

import (
	"time"

	"github.com/cuemby/groupsched/pkg/types"
)

// Store defines the persistence operations groupsched needs.
// Nothing in here is read by the placement logic itself: the affinity table
// is reloaded through a Source each pass and pass history is audit only.
type Store interface {
	// Affinity table
	PutAffinity(entries map[int]int) error
	Affinity() (map[int]int, error)
	AffinityImportedAt() (time.Time, error)

	// Pass history
	SavePass(report *types.PassReport) error
	ListPasses(limit int) ([]*types.PassReport, error)
	PrunePasses(keep int) (int, error)

	// Utility
	Path() string
	Close() error
}

var _ Store = (*BoltStore)(nil)
