package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "groupsched"

var (
	// Scheduling pass metrics
	PassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduling_pass_duration_seconds",
			Help:      "Time taken by one scheduling pass in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	PassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduling_passes_total",
			Help:      "Total number of scheduling passes by result",
		},
		[]string{"result"},
	)

	UnitOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unit_outcomes_total",
			Help:      "Total number of unit resolutions by outcome",
		},
		[]string{"outcome"},
	)

	AssignmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignments_total",
			Help:      "Total number of slot bindings issued",
		},
	)

	ExecutorsAssignedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executors_assigned_total",
			Help:      "Total number of executors bound to slots",
		},
	)

	TopologyErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "topology_errors_total",
			Help:      "Total number of topologies whose collection failed",
		},
	)

	// Per-pass inputs
	AffinityEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "affinity_entries",
			Help:      "Task ids in the affinity table at the last pass",
		},
	)

	RegisteredNodes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registered_nodes",
			Help:      "Group ids resolvable to a node at the last pass",
		},
	)

	// Cluster metrics
	PendingExecutors = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_executors",
			Help:      "Executors waiting for placement by topology",
		},
		[]string{"topology"},
	)

	FreeSlots = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "free_slots",
			Help:      "Available slots by node",
		},
		[]string{"node"},
	)
)

func init() {
	prometheus.MustRegister(PassDuration)
	prometheus.MustRegister(PassesTotal)
	prometheus.MustRegister(UnitOutcomesTotal)
	prometheus.MustRegister(AssignmentsTotal)
	prometheus.MustRegister(ExecutorsAssignedTotal)
	prometheus.MustRegister(TopologyErrorsTotal)
	prometheus.MustRegister(AffinityEntries)
	prometheus.MustRegister(RegisteredNodes)
	prometheus.MustRegister(PendingExecutors)
	prometheus.MustRegister(FreeSlots)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
