package scheduler

import (
	"fmt"

	"github.com/cuemby/groupsched/pkg/cluster"
	"github.com/cuemby/groupsched/pkg/registry"
	"github.com/cuemby/groupsched/pkg/types"
)

// SlotView answers slot availability during planning
type SlotView interface {
	// Available lists the free slots of a node, first slot first
	Available(nodeID string) []types.WorkerSlot

	// Take marks a slot as used for the rest of the pass
	Take(slot types.WorkerSlot)
}

// Snapshot is a point-in-time copy of free slots per node
type Snapshot struct {
	slots map[string][]types.WorkerSlot
}

// NewSnapshot creates a snapshot from explicit slot lists
func NewSnapshot(slots map[string][]types.WorkerSlot) *Snapshot {
	s := &Snapshot{slots: make(map[string][]types.WorkerSlot, len(slots))}
	for nodeID, list := range slots {
		s.slots[nodeID] = append([]types.WorkerSlot(nil), list...)
	}
	return s
}

// TakeSnapshot reads the free slots of every registered node
func TakeSnapshot(c cluster.Cluster, reg *registry.Registry) (*Snapshot, error) {
	s := &Snapshot{slots: make(map[string][]types.WorkerSlot)}
	for _, node := range reg.Nodes() {
		slots, err := c.AvailableSlots(node.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list slots of node %s: %w", node.ID, err)
		}
		s.slots[node.ID] = slots
	}
	return s, nil
}

func (s *Snapshot) Available(nodeID string) []types.WorkerSlot {
	return s.slots[nodeID]
}

func (s *Snapshot) Take(slot types.WorkerSlot) {
	slots := s.slots[slot.NodeID]
	for i, candidate := range slots {
		if candidate == slot {
			s.slots[slot.NodeID] = append(slots[:i:i], slots[i+1:]...)
			return
		}
	}
}

// Planner turns buckets into slot bindings without touching the cluster
type Planner struct {
	strategy PlacementStrategy
}

// NewPlanner creates a planner; a nil strategy means SingleSlot
func NewPlanner(strategy PlacementStrategy) *Planner {
	if strategy == nil {
		strategy = SingleSlot{}
	}
	return &Planner{strategy: strategy}
}

// Strategy returns the placement strategy in use
func (p *Planner) Strategy() PlacementStrategy {
	return p.strategy
}

// Plan binds each non-empty bucket to slots of its node, in bucket order.
// Buckets whose node has no free slot left in the view are dropped.
// Slots used by the plan are taken from the view.
func (p *Planner) Plan(topologyID string, buckets *Buckets, slots SlotView) []types.Assignment {
	var assignments []types.Assignment

	for _, bucket := range buckets.All() {
		if len(bucket.Executors) == 0 {
			continue
		}
		available := slots.Available(bucket.Node.ID)
		if len(available) == 0 {
			continue
		}

		for _, a := range p.strategy.Place(bucket.Executors, available) {
			a.TopologyID = topologyID
			a.NodeID = bucket.Node.ID
			assignments = append(assignments, a)
		}
	}

	for _, a := range assignments {
		slots.Take(a.Slot)
	}
	return assignments
}

// dropped returns the buckets the plan left without any binding
func dropped(buckets *Buckets, assignments []types.Assignment) []*Bucket {
	planned := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		planned[a.NodeID] = true
	}

	var out []*Bucket
	for _, bucket := range buckets.All() {
		if !planned[bucket.Node.ID] {
			out = append(out, bucket)
		}
	}
	return out
}

// markDropped flips the assigned outcomes of units in dropped buckets
func markDropped(outcomes []types.UnitOutcome, buckets *Buckets, assignments []types.Assignment) []types.UnitOutcome {
	for _, bucket := range dropped(buckets, assignments) {
		for i := range outcomes {
			if outcomes[i].NodeID == bucket.Node.ID && outcomes[i].Kind == types.OutcomeAssigned {
				outcomes[i].Kind = types.OutcomeSkippedNoSlot
				outcomes[i].Executors = 0
			}
		}
	}
	return outcomes
}
