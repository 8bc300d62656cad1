package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/groupsched/pkg/cluster"
	"github.com/cuemby/groupsched/pkg/types"
)

func TestCollectorCollect(t *testing.T) {
	c := cluster.NewMemory()
	c.AddNode(&types.Node{ID: "sup-1", Meta: map[string]string{types.GroupIDKey: "1"}}, 6700, 6701)
	c.AddNode(&types.Node{ID: "sup-2"}, 6700)
	c.AddTopology(&types.Topology{ID: "topo-1"}, map[string][]types.Executor{
		"spout": {{Start: 1, End: 1}, {Start: 2, End: 2}},
		"bolt":  {{Start: 3, End: 3}},
	})

	collector := NewCollector(c)
	collector.Collect()

	assert.Equal(t, 3.0, testutil.ToFloat64(PendingExecutors.WithLabelValues("topo-1")))
	assert.Equal(t, 2.0, testutil.ToFloat64(FreeSlots.WithLabelValues("sup-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(FreeSlots.WithLabelValues("sup-2")))

	require.NoError(t, c.Assign(types.WorkerSlot{NodeID: "sup-1", Port: 6700}, "topo-1",
		[]types.Executor{{Start: 1, End: 1}, {Start: 2, End: 2}}))
	collector.Collect()

	assert.Equal(t, 1.0, testutil.ToFloat64(PendingExecutors.WithLabelValues("topo-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(FreeSlots.WithLabelValues("sup-1")))
}

func TestCollectorStartStop(t *testing.T) {
	collector := NewCollector(cluster.NewMemory())
	collector.Start()
	collector.Stop()
}
