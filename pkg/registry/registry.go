package registry

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/cuemby/groupsched/pkg/log"
	"github.com/cuemby/groupsched/pkg/types"
)

// ErrMalformedGroupID is returned when a node's group id is not an integer
var ErrMalformedGroupID = errors.New("malformed node group id")

// Registry maps group ids to the node registered for them
type Registry struct {
	nodes    map[int]*types.Node
	shadowed []*types.Node
}

// Build indexes nodes by their group-id metadata.
// Nodes without the key are left out. When two nodes share a group id the
// later one in input order wins.
func Build(nodes []*types.Node) (*Registry, error) {
	r := &Registry{nodes: make(map[int]*types.Node)}
	logger := log.WithComponent("registry")

	for _, node := range nodes {
		raw, ok := node.Meta[types.GroupIDKey]
		if !ok {
			continue
		}
		groupID, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: node %s has %s=%q", ErrMalformedGroupID, node.ID, types.GroupIDKey, raw)
		}

		if prev, exists := r.nodes[groupID]; exists {
			logger.Warn().
				Int("group_id", groupID).
				Str("node_id", node.ID).
				Str("shadowed_node_id", prev.ID).
				Msg("Duplicate group id, earlier node unreachable")
			r.shadowed = append(r.shadowed, prev)
		}
		r.nodes[groupID] = node
	}

	return r, nil
}

// Lookup returns the node registered for a group id
func (r *Registry) Lookup(groupID int) (*types.Node, bool) {
	if r == nil {
		return nil, false
	}
	node, ok := r.nodes[groupID]
	return node, ok
}

// Len returns the number of registered groups
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.nodes)
}

// Shadowed returns nodes that lost their group id to a later node
func (r *Registry) Shadowed() []*types.Node {
	if r == nil {
		return nil
	}
	return r.shadowed
}

// Nodes returns the registered nodes ordered by group id
func (r *Registry) Nodes() []*types.Node {
	if r == nil {
		return nil
	}
	groups := make([]int, 0, len(r.nodes))
	for groupID := range r.nodes {
		groups = append(groups, groupID)
	}
	sort.Ints(groups)

	nodes := make([]*types.Node, 0, len(groups))
	for _, groupID := range groups {
		nodes = append(nodes, r.nodes[groupID])
	}
	return nodes
}
