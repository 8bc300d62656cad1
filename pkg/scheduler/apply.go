package scheduler

import (
	"fmt"

	"github.com/cuemby/groupsched/pkg/cluster"
	"github.com/cuemby/groupsched/pkg/types"
)

// Apply issues the planned bindings against the cluster in order.
// It stops at the first failed bind and returns how many succeeded.
func Apply(c cluster.Cluster, assignments []types.Assignment) (int, error) {
	for i, a := range assignments {
		if err := c.Assign(a.Slot, a.TopologyID, a.Executors); err != nil {
			return i, fmt.Errorf("failed to assign %d executors of %s to %s: %w",
				len(a.Executors), a.TopologyID, a.Slot, err)
		}
	}
	return len(assignments), nil
}
