package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/groupsched/pkg/affinity"
	"github.com/cuemby/groupsched/pkg/registry"
	"github.com/cuemby/groupsched/pkg/types"
	"github.com/cuemby/groupsched/pkg/unitconf"
)

func conf(t *testing.T, taskID int) string {
	t.Helper()
	c, err := unitconf.Encode(taskID, nil)
	require.NoError(t, err)
	return c
}

func groupNode(id string, group string) *types.Node {
	return &types.Node{ID: id, Meta: map[string]string{types.GroupIDKey: group}}
}

func executors(ids ...int) []types.Executor {
	out := make([]types.Executor, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.Executor{Start: id, End: id})
	}
	return out
}

func slotsOf(nodeID string, ports ...int) []types.WorkerSlot {
	out := make([]types.WorkerSlot, 0, len(ports))
	for _, port := range ports {
		out = append(out, types.WorkerSlot{NodeID: nodeID, Port: port})
	}
	return out
}

func mustRegistry(t *testing.T, nodes ...*types.Node) *registry.Registry {
	t.Helper()
	reg, err := registry.Build(nodes)
	require.NoError(t, err)
	return reg
}

func outcomeKinds(outcomes []types.UnitOutcome) map[string]types.OutcomeKind {
	kinds := make(map[string]types.OutcomeKind, len(outcomes))
	for _, o := range outcomes {
		kinds[o.Unit] = o.Kind
	}
	return kinds
}

func TestCollectSkipRules(t *testing.T) {
	topo := &types.Topology{
		ID: "topo-1",
		Sources: []*types.Unit{
			{Name: "no-task-id", Conf: ""},
			{Name: "unknown-task", Conf: conf(t, 99)},
			{Name: "no-node", Conf: conf(t, 20)},
		},
		Transforms: []*types.Unit{
			{Name: "no-slot", Conf: conf(t, 30)},
			{Name: "nothing-pending", Conf: conf(t, 10)},
			{Name: "placed", Conf: conf(t, 11)},
		},
	}
	view := &View{
		Affinity: affinity.NewMap(map[int]int{10: 1, 11: 1, 20: 2, 30: 3}),
		Registry: mustRegistry(t, groupNode("sup-1", "1"), groupNode("sup-3", "3")),
		Pending: map[string][]types.Executor{
			"unknown-task": executors(1),
			"no-node":      executors(2),
			"no-slot":      executors(3),
			"placed":       executors(4, 5),
		},
		Slots: NewSnapshot(map[string][]types.WorkerSlot{
			"sup-1": slotsOf("sup-1", 6700),
		}),
	}

	buckets, outcomes, err := NewCollector(DefaultSystemGroupID, DefaultSystemPrefix).Collect(topo, view)
	require.NoError(t, err)

	assert.Equal(t, map[string]types.OutcomeKind{
		"no-task-id":      types.OutcomeSkippedNoAffinity,
		"unknown-task":    types.OutcomeSkippedNoAffinity,
		"no-node":         types.OutcomeSkippedNoNode,
		"no-slot":         types.OutcomeSkippedNoSlot,
		"nothing-pending": types.OutcomeSkippedNoPendingExecutors,
		"placed":          types.OutcomeAssigned,
	}, outcomeKinds(outcomes))

	require.Equal(t, 1, buckets.Len())
	bucket, ok := buckets.Get("sup-1")
	require.True(t, ok)
	assert.Equal(t, executors(4, 5), bucket.Executors)
	assert.Equal(t, []string{"placed"}, bucket.Units)

	// Sources come before transforms in the outcome list
	var order []string
	for _, o := range outcomes {
		order = append(order, o.Unit)
	}
	assert.Equal(t, []string{"no-task-id", "unknown-task", "no-node", "no-slot", "nothing-pending", "placed"}, order)
}

func TestCollectMergesUnitsOnSameNode(t *testing.T) {
	topo := &types.Topology{
		ID:         "topo-1",
		Sources:    []*types.Unit{{Name: "spout", Conf: conf(t, 10)}},
		Transforms: []*types.Unit{{Name: "bolt-a", Conf: conf(t, 11)}, {Name: "bolt-b", Conf: conf(t, 12)}},
	}
	view := &View{
		Affinity: affinity.NewMap(map[int]int{10: 2, 11: 1, 12: 2}),
		Registry: mustRegistry(t, groupNode("sup-1", "1"), groupNode("sup-2", "2")),
		Pending: map[string][]types.Executor{
			"spout":  executors(1),
			"bolt-a": executors(2),
			"bolt-b": executors(3, 4),
		},
		Slots: NewSnapshot(map[string][]types.WorkerSlot{
			"sup-1": slotsOf("sup-1", 6700),
			"sup-2": slotsOf("sup-2", 6700),
		}),
	}

	buckets, _, err := NewCollector(DefaultSystemGroupID, DefaultSystemPrefix).Collect(topo, view)
	require.NoError(t, err)

	all := buckets.All()
	require.Len(t, all, 2)
	assert.Equal(t, "sup-2", all[0].Node.ID, "first insertion order")
	assert.Equal(t, executors(1, 3, 4), all[0].Executors)
	assert.Equal(t, []string{"spout", "bolt-b"}, all[0].Units)
	assert.Equal(t, "sup-1", all[1].Node.ID)
}

func TestCollectSystemUnits(t *testing.T) {
	topo := &types.Topology{ID: "topo-1"}
	view := &View{
		Affinity: affinity.NewMap(nil),
		Registry: mustRegistry(t, groupNode("sup-1", "1"), groupNode("sup-7", "7")),
		Pending: map[string][]types.Executor{
			"__system": executors(2),
			"__acker":  executors(1),
			"other":    executors(3),
		},
		Slots: NewSnapshot(map[string][]types.WorkerSlot{
			"sup-1": slotsOf("sup-1", 6700),
			"sup-7": slotsOf("sup-7", 6700),
		}),
	}

	t.Run("default group", func(t *testing.T) {
		buckets, outcomes, err := NewCollector(DefaultSystemGroupID, DefaultSystemPrefix).Collect(topo, view)
		require.NoError(t, err)

		require.Len(t, outcomes, 2)
		assert.Equal(t, "__acker", outcomes[0].Unit, "system units sorted by name")
		assert.Equal(t, "__system", outcomes[1].Unit)
		for _, o := range outcomes {
			assert.True(t, o.System)
			assert.Equal(t, types.OutcomeAssigned, o.Kind)
			assert.Equal(t, "sup-1", o.NodeID)
		}

		bucket, ok := buckets.Get("sup-1")
		require.True(t, ok)
		assert.Equal(t, executors(1, 2), bucket.Executors)
	})

	t.Run("overridden group", func(t *testing.T) {
		buckets, _, err := NewCollector(7, DefaultSystemPrefix).Collect(topo, view)
		require.NoError(t, err)
		_, ok := buckets.Get("sup-7")
		assert.True(t, ok)
	})

	t.Run("no node for group", func(t *testing.T) {
		buckets, outcomes, err := NewCollector(5, DefaultSystemPrefix).Collect(topo, view)
		require.NoError(t, err)
		assert.Zero(t, buckets.Len())
		for _, o := range outcomes {
			assert.Equal(t, types.OutcomeSkippedNoNode, o.Kind)
		}
	})
}

func TestCollectDeclaredUnitWithSystemPrefixVisitedOnce(t *testing.T) {
	topo := &types.Topology{
		ID:      "topo-1",
		Sources: []*types.Unit{{Name: "__custom", Conf: conf(t, 10)}},
	}
	view := &View{
		Affinity: affinity.NewMap(map[int]int{10: 1}),
		Registry: mustRegistry(t, groupNode("sup-1", "1")),
		Pending:  map[string][]types.Executor{"__custom": executors(1)},
		Slots:    NewSnapshot(map[string][]types.WorkerSlot{"sup-1": slotsOf("sup-1", 6700)}),
	}

	buckets, outcomes, err := NewCollector(DefaultSystemGroupID, DefaultSystemPrefix).Collect(topo, view)
	require.NoError(t, err)
	assert.Len(t, outcomes, 1)
	bucket, _ := buckets.Get("sup-1")
	assert.Equal(t, executors(1), bucket.Executors)
}

func TestCollectMalformedConf(t *testing.T) {
	topo := &types.Topology{
		ID: "topo-1",
		Sources: []*types.Unit{
			{Name: "good", Conf: conf(t, 10)},
			{Name: "broken", Conf: `{"task-id": `},
		},
	}
	view := &View{
		Affinity: affinity.NewMap(map[int]int{10: 1}),
		Registry: mustRegistry(t, groupNode("sup-1", "1")),
		Pending:  map[string][]types.Executor{"good": executors(1)},
		Slots:    NewSnapshot(map[string][]types.WorkerSlot{"sup-1": slotsOf("sup-1", 6700)}),
	}

	buckets, outcomes, err := NewCollector(DefaultSystemGroupID, DefaultSystemPrefix).Collect(topo, view)
	require.Error(t, err)
	assert.Nil(t, buckets)
	assert.Nil(t, outcomes)

	var confErr *UnitConfError
	require.True(t, errors.As(err, &confErr))
	assert.Equal(t, "topo-1", confErr.Topology)
	assert.Equal(t, "broken", confErr.Unit)
	assert.ErrorIs(t, err, unitconf.ErrMalformedConf)
}
