package registry

import (
	"testing"

	"github.com/cuemby/groupsched/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, meta map[string]string) *types.Node {
	return &types.Node{ID: id, Meta: meta}
}

// TestBuild tests group id indexing of nodes
func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []*types.Node
		expected map[int]string
	}{
		{
			name: "one node per group",
			nodes: []*types.Node{
				node("sup-1", map[string]string{"group-id": "1"}),
				node("sup-2", map[string]string{"group-id": "2"}),
			},
			expected: map[int]string{1: "sup-1", 2: "sup-2"},
		},
		{
			name: "nodes without group id are excluded",
			nodes: []*types.Node{
				node("sup-1", map[string]string{"group-id": "1"}),
				node("sup-2", map[string]string{"rack": "a"}),
				node("sup-3", nil),
			},
			expected: map[int]string{1: "sup-1"},
		},
		{
			name: "duplicate group id keeps the later node",
			nodes: []*types.Node{
				node("sup-x", map[string]string{"group-id": "2"}),
				node("sup-y", map[string]string{"group-id": "2"}),
			},
			expected: map[int]string{2: "sup-y"},
		},
		{
			name:     "no nodes",
			nodes:    nil,
			expected: map[int]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Build(tt.nodes)
			require.NoError(t, err)
			assert.Equal(t, len(tt.expected), r.Len())

			for groupID, nodeID := range tt.expected {
				n, ok := r.Lookup(groupID)
				require.True(t, ok)
				assert.Equal(t, nodeID, n.ID)
			}
		})
	}
}

// TestBuildDuplicateShadowsEarlierNode tests that the earlier node is unreachable through any group
func TestBuildDuplicateShadowsEarlierNode(t *testing.T) {
	x := node("sup-x", map[string]string{"group-id": "2"})
	y := node("sup-y", map[string]string{"group-id": "2"})

	r, err := Build([]*types.Node{x, y})
	require.NoError(t, err)

	for groupID := -5; groupID <= 5; groupID++ {
		if n, ok := r.Lookup(groupID); ok {
			assert.NotEqual(t, "sup-x", n.ID)
		}
	}
	assert.Equal(t, []*types.Node{x}, r.Shadowed())
}

// TestBuildMalformedGroupID tests that a non-numeric group id fails the build
func TestBuildMalformedGroupID(t *testing.T) {
	r, err := Build([]*types.Node{
		node("sup-1", map[string]string{"group-id": "1"}),
		node("sup-2", map[string]string{"group-id": "east"}),
	})
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrMalformedGroupID)
	assert.Contains(t, err.Error(), "sup-2")
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	_, ok := r.Lookup(1)
	assert.False(t, ok)
	assert.Zero(t, r.Len())
	assert.Nil(t, r.Shadowed())
	assert.Nil(t, r.Nodes())
}

func TestNodesOrderedByGroupID(t *testing.T) {
	r, err := Build([]*types.Node{
		node("sup-c", map[string]string{types.GroupIDKey: "3"}),
		node("sup-a", map[string]string{types.GroupIDKey: "1"}),
		node("sup-none", nil),
		node("sup-b", map[string]string{types.GroupIDKey: "2"}),
	})
	require.NoError(t, err)

	var ids []string
	for _, n := range r.Nodes() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"sup-a", "sup-b", "sup-c"}, ids)
}
