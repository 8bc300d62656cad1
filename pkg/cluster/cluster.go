package cluster

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cuemby/groupsched/pkg/types"
)

var (
	// ErrUnknownNode is returned for a node the cluster does not know
	ErrUnknownNode = errors.New("unknown node")
	// ErrUnknownTopology is returned for a topology the cluster does not know
	ErrUnknownTopology = errors.New("unknown topology")
	// ErrSlotInUse is returned when binding to a slot that is already taken
	ErrSlotInUse = errors.New("slot already in use")
)

// Cluster is the live cluster state the scheduler reads and binds against.
// It is owned by the coordinator; the scheduler assumes nobody else mutates
// it during a pass.
type Cluster interface {
	// Topologies lists topologies that may need scheduling
	Topologies() ([]*types.Topology, error)

	// Nodes lists supervisor nodes in registration order
	Nodes() ([]*types.Node, error)

	// AvailableSlots lists the free slots of a node, first slot first
	AvailableSlots(nodeID string) ([]types.WorkerSlot, error)

	// PendingExecutors lists unassigned executors per component of a topology.
	// Components with nothing pending may be absent.
	PendingExecutors(topologyID string) (map[string][]types.Executor, error)

	// Assign binds executors of a topology to a slot
	Assign(slot types.WorkerSlot, topologyID string, executors []types.Executor) error
}

type slotState struct {
	port     int
	topology string // empty while free
}

// Memory is an in-memory Cluster
type Memory struct {
	mu          sync.RWMutex
	nodes       []*types.Node
	slots       map[string][]*slotState
	topologies  []*types.Topology
	pending     map[string]map[string][]types.Executor
	assignments []types.Assignment
}

// NewMemory creates an empty in-memory cluster
func NewMemory() *Memory {
	return &Memory{
		slots:   make(map[string][]*slotState),
		pending: make(map[string]map[string][]types.Executor),
	}
}

// AddNode registers a node with free slots on the given ports.
// Registering an existing node id replaces its metadata and slots.
func (m *Memory) AddNode(node *types.Node, ports ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slots := make([]*slotState, 0, len(ports))
	for _, port := range ports {
		slots = append(slots, &slotState{port: port})
	}

	for i, existing := range m.nodes {
		if existing.ID == node.ID {
			m.nodes[i] = node
			m.slots[node.ID] = slots
			return
		}
	}
	m.nodes = append(m.nodes, node)
	m.slots[node.ID] = slots
}

// AddTopology registers a topology and its pending executors per component
func (m *Memory) AddTopology(topo *types.Topology, pending map[string][]types.Executor) {
	m.mu.Lock()
	defer m.mu.Unlock()

	components := make(map[string][]types.Executor, len(pending))
	for name, executors := range pending {
		components[name] = append([]types.Executor(nil), executors...)
	}

	for i, existing := range m.topologies {
		if existing.ID == topo.ID {
			m.topologies[i] = topo
			m.pending[topo.ID] = components
			return
		}
	}
	m.topologies = append(m.topologies, topo)
	m.pending[topo.ID] = components
}

func (m *Memory) Topologies() ([]*types.Topology, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*types.Topology(nil), m.topologies...), nil
}

func (m *Memory) Nodes() ([]*types.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*types.Node(nil), m.nodes...), nil
}

func (m *Memory) AvailableSlots(nodeID string) ([]types.WorkerSlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slots, ok := m.slots[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, nodeID)
	}
	var free []types.WorkerSlot
	for _, s := range slots {
		if s.topology == "" {
			free = append(free, types.WorkerSlot{NodeID: nodeID, Port: s.port})
		}
	}
	return free, nil
}

func (m *Memory) PendingExecutors(topologyID string) (map[string][]types.Executor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	components, ok := m.pending[topologyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopology, topologyID)
	}
	out := make(map[string][]types.Executor, len(components))
	for name, executors := range components {
		if len(executors) > 0 {
			out[name] = append([]types.Executor(nil), executors...)
		}
	}
	return out, nil
}

// Assign marks the slot used by the topology and removes the executors from pending
func (m *Memory) Assign(slot types.WorkerSlot, topologyID string, executors []types.Executor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	components, ok := m.pending[topologyID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTopology, topologyID)
	}
	slots, ok := m.slots[slot.NodeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, slot.NodeID)
	}

	var target *slotState
	for _, s := range slots {
		if s.port == slot.Port {
			target = s
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: no slot %s", ErrUnknownNode, slot)
	}
	if target.topology != "" && target.topology != topologyID {
		return fmt.Errorf("%w: %s held by %s", ErrSlotInUse, slot, target.topology)
	}
	target.topology = topologyID

	bound := make(map[types.Executor]bool, len(executors))
	for _, e := range executors {
		bound[e] = true
	}
	for name, list := range components {
		kept := list[:0]
		for _, e := range list {
			if !bound[e] {
				kept = append(kept, e)
			}
		}
		components[name] = kept
	}

	m.assignments = append(m.assignments, types.Assignment{
		TopologyID: topologyID,
		NodeID:     slot.NodeID,
		Slot:       slot,
		Executors:  append([]types.Executor(nil), executors...),
	})
	return nil
}

// Assignments returns every bind made so far, in call order
func (m *Memory) Assignments() []types.Assignment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.Assignment(nil), m.assignments...)
}

// UsedSlots returns the topology id holding each occupied slot
func (m *Memory) UsedSlots() map[types.WorkerSlot]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	used := make(map[types.WorkerSlot]string)
	for id, slots := range m.slots {
		for _, s := range slots {
			if s.topology != "" {
				used[types.WorkerSlot{NodeID: id, Port: s.port}] = s.topology
			}
		}
	}
	return used
}

var _ Cluster = (*Memory)(nil)
