package scheduler

import (
	"fmt"

	"github.com/cuemby/groupsched/pkg/types"
)

// Strategy names accepted by StrategyByName
const (
	StrategySingleSlot = "single-slot"
	StrategySpread     = "spread"
)

// PlacementStrategy decides how a node's executors are laid out over its
// free slots. slots is never empty. Returned assignments only carry Slot
// and Executors; the planner fills in the rest.
type PlacementStrategy interface {
	Name() string
	Place(executors []types.Executor, slots []types.WorkerSlot) []types.Assignment
}

// SingleSlot binds the whole bucket to the node's first free slot,
// however many executors it holds
type SingleSlot struct{}

func (SingleSlot) Name() string { return StrategySingleSlot }

func (SingleSlot) Place(executors []types.Executor, slots []types.WorkerSlot) []types.Assignment {
	return []types.Assignment{{
		Slot:      slots[0],
		Executors: append([]types.Executor(nil), executors...),
	}}
}

// SpreadSlots deals executors round-robin over every free slot of the node
type SpreadSlots struct{}

func (SpreadSlots) Name() string { return StrategySpread }

func (SpreadSlots) Place(executors []types.Executor, slots []types.WorkerSlot) []types.Assignment {
	n := len(slots)
	if len(executors) < n {
		n = len(executors)
	}

	assignments := make([]types.Assignment, n)
	for i := range assignments {
		assignments[i].Slot = slots[i]
	}
	for i, executor := range executors {
		a := &assignments[i%n]
		a.Executors = append(a.Executors, executor)
	}
	return assignments
}

// StrategyByName returns the strategy registered under name
func StrategyByName(name string) (PlacementStrategy, error) {
	switch name {
	case "", StrategySingleSlot:
		return SingleSlot{}, nil
	case StrategySpread:
		return SpreadSlots{}, nil
	default:
		return nil, fmt.Errorf("unknown placement strategy %q", name)
	}
}
