/*
Package metrics provides Prometheus metrics and health reporting for the
scheduler.

All metrics are registered with the default Prometheus registry at package
init and exposed through Handler, which the api package mounts at /metrics.

# Metrics

Pass metrics, updated once per scheduling pass:

	groupsched_scheduling_pass_duration_seconds    histogram
	groupsched_scheduling_passes_total{result}     counter (ok, failed)
	groupsched_unit_outcomes_total{outcome}        counter (assigned, skipped-*)
	groupsched_assignments_total                   counter
	groupsched_executors_assigned_total            counter
	groupsched_topology_errors_total               counter
	groupsched_affinity_entries                    gauge
	groupsched_registered_nodes                    gauge

Cluster metrics, sampled by Collector on an interval:

	groupsched_pending_executors{topology}         gauge
	groupsched_free_slots{node}                    gauge

# Timing

	timer := metrics.NewTimer()
	report, err := s.Schedule()
	timer.ObserveDuration(metrics.PassDuration)

# Health

The package keeps a process-wide HealthChecker. Components report through
RegisterComponent and UpdateComponent; the scheduler marks completed passes
with MarkPass. Readiness requires the affinity and cluster components to be
registered and healthy. The scheduler component is informational only: a
topology whose configuration cannot be decoded marks it unhealthy without
taking the process out of rotation.

HealthHandler and ReadyHandler serve the JSON documents and answer 503 when
unhealthy or not ready.
*/
package metrics
