package metrics

import (
	"time"

	"github.com/cuemby/groupsched/pkg/cluster"
	"github.com/cuemby/groupsched/pkg/log"
)

// DefaultCollectInterval is how often the collector samples the cluster
const DefaultCollectInterval = 15 * time.Second

// Collector samples cluster state into the pending and free-slot gauges
type Collector struct {
	cluster  cluster.Cluster
	interval time.Duration
	stopCh   chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(c cluster.Cluster) *Collector {
	return &Collector{
		cluster:  c,
		interval: DefaultCollectInterval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		// Collect immediately on start
		c.Collect()

		for {
			select {
			case <-ticker.C:
				c.Collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

// Collect samples the cluster once
func (c *Collector) Collect() {
	c.collectPendingMetrics()
	c.collectSlotMetrics()
}

func (c *Collector) collectPendingMetrics() {
	topologies, err := c.cluster.Topologies()
	if err != nil {
		logger := log.WithComponent("metrics")
		logger.Debug().Err(err).Msg("Failed to list topologies")
		return
	}

	PendingExecutors.Reset()
	for _, topo := range topologies {
		pending, err := c.cluster.PendingExecutors(topo.ID)
		if err != nil {
			continue
		}

		count := 0
		for _, executors := range pending {
			count += len(executors)
		}
		PendingExecutors.WithLabelValues(topo.ID).Set(float64(count))
	}
}

func (c *Collector) collectSlotMetrics() {
	nodes, err := c.cluster.Nodes()
	if err != nil {
		logger := log.WithComponent("metrics")
		logger.Debug().Err(err).Msg("Failed to list nodes")
		return
	}

	FreeSlots.Reset()
	for _, node := range nodes {
		slots, err := c.cluster.AvailableSlots(node.ID)
		if err != nil {
			continue
		}
		FreeSlots.WithLabelValues(node.ID).Set(float64(len(slots)))
	}
}
