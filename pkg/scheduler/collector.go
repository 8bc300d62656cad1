package scheduler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cuemby/groupsched/pkg/affinity"
	"github.com/cuemby/groupsched/pkg/registry"
	"github.com/cuemby/groupsched/pkg/types"
	"github.com/cuemby/groupsched/pkg/unitconf"
)

const (
	// DefaultSystemGroupID is the group system units are pinned to
	DefaultSystemGroupID = 1
	// DefaultSystemPrefix marks framework-internal components
	DefaultSystemPrefix = "__"
)

// UnitConfError reports a unit whose configuration could not be decoded.
// The whole topology is left unplaced for the pass.
type UnitConfError struct {
	Topology string
	Unit     string
	Err      error
}

func (e *UnitConfError) Error() string {
	return fmt.Sprintf("topology %s unit %s: %v", e.Topology, e.Unit, e.Err)
}

func (e *UnitConfError) Unwrap() error {
	return e.Err
}

// Bucket accumulates the executors headed for one node
type Bucket struct {
	Node      *types.Node
	Executors []types.Executor
	Units     []string
}

// Buckets groups executors by target node in first-insertion order
type Buckets struct {
	order  []string
	byNode map[string]*Bucket
}

// NewBuckets creates an empty bucket set
func NewBuckets() *Buckets {
	return &Buckets{byNode: make(map[string]*Bucket)}
}

// Add appends a unit's executors to the bucket of a node
func (b *Buckets) Add(node *types.Node, unit string, executors []types.Executor) {
	bucket, ok := b.byNode[node.ID]
	if !ok {
		bucket = &Bucket{Node: node}
		b.byNode[node.ID] = bucket
		b.order = append(b.order, node.ID)
	}
	bucket.Executors = append(bucket.Executors, executors...)
	bucket.Units = append(bucket.Units, unit)
}

// All returns the buckets in the order their nodes were first seen
func (b *Buckets) All() []*Bucket {
	all := make([]*Bucket, 0, len(b.order))
	for _, id := range b.order {
		all = append(all, b.byNode[id])
	}
	return all
}

// Get returns the bucket of a node
func (b *Buckets) Get(nodeID string) (*Bucket, bool) {
	bucket, ok := b.byNode[nodeID]
	return bucket, ok
}

// Len returns the number of buckets
func (b *Buckets) Len() int {
	return len(b.order)
}

// View is the pass state one topology is collected against
type View struct {
	Affinity *affinity.Map
	Registry *registry.Registry
	Pending  map[string][]types.Executor
	Slots    SlotView
}

// Collector resolves each unit of a topology to a target node
type Collector struct {
	SystemGroupID int
	SystemPrefix  string
}

// NewCollector creates a collector pinning system units to the given group
func NewCollector(systemGroupID int, systemPrefix string) *Collector {
	return &Collector{
		SystemGroupID: systemGroupID,
		SystemPrefix:  systemPrefix,
	}
}

// Collect buckets the pending executors of a topology by target node and
// returns one outcome per unit. Sources are visited before transforms,
// followed by pending system components sorted by name.
func (c *Collector) Collect(topo *types.Topology, view *View) (*Buckets, []types.UnitOutcome, error) {
	buckets := NewBuckets()
	outcomes := make([]types.UnitOutcome, 0, len(topo.Sources)+len(topo.Transforms))
	declared := make(map[string]bool)

	for _, unit := range topo.Units() {
		declared[unit.Name] = true

		taskID, ok, err := unitconf.TaskID(unit.Conf)
		if err != nil {
			return nil, nil, &UnitConfError{Topology: topo.ID, Unit: unit.Name, Err: err}
		}

		outcome := types.UnitOutcome{TopologyID: topo.ID, Unit: unit.Name}
		if !ok {
			outcome.Kind = types.OutcomeSkippedNoAffinity
			outcomes = append(outcomes, outcome)
			continue
		}
		outcome.TaskID = taskID

		groupID, ok := view.Affinity.Lookup(taskID)
		if !ok {
			outcome.Kind = types.OutcomeSkippedNoAffinity
			outcomes = append(outcomes, outcome)
			continue
		}

		outcomes = append(outcomes, c.resolve(outcome, groupID, view, buckets))
	}

	for _, name := range c.systemUnits(view.Pending, declared) {
		outcome := types.UnitOutcome{TopologyID: topo.ID, Unit: name, System: true}
		outcomes = append(outcomes, c.resolve(outcome, c.SystemGroupID, view, buckets))
	}

	return buckets, outcomes, nil
}

// resolve applies the node, slot and pending checks for a unit whose
// group is known and buckets its executors when all pass
func (c *Collector) resolve(outcome types.UnitOutcome, groupID int, view *View, buckets *Buckets) types.UnitOutcome {
	outcome.GroupID = groupID

	node, ok := view.Registry.Lookup(groupID)
	if !ok {
		outcome.Kind = types.OutcomeSkippedNoNode
		return outcome
	}
	outcome.NodeID = node.ID

	if len(view.Slots.Available(node.ID)) == 0 {
		outcome.Kind = types.OutcomeSkippedNoSlot
		return outcome
	}

	executors := view.Pending[outcome.Unit]
	if len(executors) == 0 {
		outcome.Kind = types.OutcomeSkippedNoPendingExecutors
		return outcome
	}

	buckets.Add(node, outcome.Unit, executors)
	outcome.Kind = types.OutcomeAssigned
	outcome.Executors = len(executors)
	return outcome
}

func (c *Collector) systemUnits(pending map[string][]types.Executor, declared map[string]bool) []string {
	var names []string
	for name := range pending {
		if strings.HasPrefix(name, c.SystemPrefix) && !declared[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
