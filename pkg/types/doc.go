/*
Package types defines the data structures shared by groupsched packages.

The types mirror what a stream-processing cluster exposes to a pluggable
scheduler: supervisor nodes with a metadata bag, submitted topologies with
their source and transform units, executors waiting for placement, and the
worker slots they can be bound to. The scheduler's own products, unit
outcomes, assignments and the per-pass report, live here as well so that
storage, events and the CLI can share them without importing the scheduler.

# Core Types

Cluster side:
  - Node: supervisor host; Meta["group-id"] ties it to an affinity group
  - WorkerSlot: node + port placement target
  - Executor: task range of one unit waiting to be placed

Topology side:
  - Topology: named graph with ordered Sources and Transforms
  - Unit: named component with its embedded JSON configuration

Scheduler output:
  - Assignment: executors bound to one slot for one topology
  - UnitOutcome: what happened to a unit (assigned or a skip reason)
  - PassReport: everything one pass decided

# Iteration Order

Topology.Units returns sources before transforms, each in slice order.
The scheduler relies on this order: a configuration decode failure stops
the topology at the failing unit, so units after it are never looked at.
*/
package types
