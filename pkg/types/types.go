package types

import (
	"fmt"
	"time"
)

// GroupIDKey is the node metadata key carrying the node's group id
const GroupIDKey = "group-id"

// TaskIDKey is the unit configuration key carrying the unit's task id
const TaskIDKey = "task-id"

// Node represents a supervisor host in the cluster
type Node struct {
	ID       string
	Hostname string
	Meta     map[string]string // Scheduler metadata; only GroupIDKey is read
}

// Topology is a submitted computation graph
type Topology struct {
	ID         string
	Name       string
	Sources    []*Unit // Iterated before Transforms
	Transforms []*Unit
}

// Units returns the user-defined units in iteration order: sources first, then transforms
func (t *Topology) Units() []*Unit {
	units := make([]*Unit, 0, len(t.Sources)+len(t.Transforms))
	units = append(units, t.Sources...)
	units = append(units, t.Transforms...)
	return units
}

// Unit is a named component of a topology
type Unit struct {
	Name string
	Conf string // JSON configuration blob embedded at submission time
}

// Executor is the minimal schedulable granule, a task range of one unit
type Executor struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

func (e Executor) String() string {
	return fmt.Sprintf("[%d-%d]", e.Start, e.End)
}

// WorkerSlot is a placement target on a node
type WorkerSlot struct {
	NodeID string `json:"nodeId"`
	Port   int    `json:"port"`
}

func (s WorkerSlot) String() string {
	return fmt.Sprintf("%s:%d", s.NodeID, s.Port)
}

// Assignment binds a list of executors of one topology to a slot
type Assignment struct {
	TopologyID string     `json:"topologyId"`
	NodeID     string     `json:"nodeId"`
	Slot       WorkerSlot `json:"slot"`
	Executors  []Executor `json:"executors"`
}

// OutcomeKind tags what happened to a unit during a pass
type OutcomeKind string

const (
	OutcomeAssigned                  OutcomeKind = "assigned"
	OutcomeSkippedNoAffinity         OutcomeKind = "skipped-no-affinity"
	OutcomeSkippedNoNode             OutcomeKind = "skipped-no-node"
	OutcomeSkippedNoSlot             OutcomeKind = "skipped-no-slot"
	OutcomeSkippedNoPendingExecutors OutcomeKind = "skipped-no-pending-executors"
)

// OutcomeKinds lists every outcome kind
var OutcomeKinds = []OutcomeKind{
	OutcomeAssigned,
	OutcomeSkippedNoAffinity,
	OutcomeSkippedNoNode,
	OutcomeSkippedNoSlot,
	OutcomeSkippedNoPendingExecutors,
}

// UnitOutcome records the resolution of one unit in one pass
type UnitOutcome struct {
	TopologyID string      `json:"topologyId"`
	Unit       string      `json:"unit"`
	System     bool        `json:"system,omitempty"`
	Kind       OutcomeKind `json:"kind"`
	TaskID     int         `json:"taskId,omitempty"`
	GroupID    int         `json:"groupId,omitempty"`
	NodeID     string      `json:"nodeId,omitempty"`
	Executors  int         `json:"executors,omitempty"`
}

// PassReport aggregates everything a scheduling pass decided
type PassReport struct {
	ID              string            `json:"id"`
	StartedAt       time.Time         `json:"startedAt"`
	Duration        time.Duration     `json:"duration"`
	AffinityEntries int               `json:"affinityEntries"`
	RegisteredNodes int               `json:"registeredNodes"`
	Outcomes        []UnitOutcome     `json:"outcomes"`
	Assignments     []Assignment      `json:"assignments"`
	TopologyErrors  map[string]string `json:"topologyErrors,omitempty"`
}

// Count returns how many outcomes of the given kind the pass produced
func (r *PassReport) Count(kind OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// ExecutorsAssigned returns the total number of executors bound in the pass
func (r *PassReport) ExecutorsAssigned() int {
	n := 0
	for _, a := range r.Assignments {
		n += len(a.Executors)
	}
	return n
}
