/*
Package scheduler places pending executors on the nodes their units are
pinned to through the affinity table.

# Scheduling Pass

Each call to Schedule runs one synchronous pass:

 1. Load the affinity table from the Source. The table is re-read on every
    pass; a malformed table fails the pass and nothing is bound.
 2. List nodes and build the group id registry. A node whose group-id is
    not an integer fails the pass. When two nodes claim a group, the one
    registered later wins.
 3. For every topology, in the order the cluster lists them:
    snapshot its pending executors and the free slots of registered nodes,
    collect, plan, then apply.

# Collect

The Collector visits sources, then transforms, then every pending system
component (name prefix "__") sorted by name. User units resolve their
group through the task-id in their configuration; system units always
use the system group (1 unless WithSystemGroupID says otherwise). Each
unit ends with exactly one outcome, checked in this order:

	skipped-no-affinity            no task id, or task id not in the table
	skipped-no-node                no node registered for the group
	skipped-no-slot                node has no free slot
	skipped-no-pending-executors   nothing pending for the unit
	assigned                       executors appended to the node's bucket

A configuration blob that cannot be decoded returns a *UnitConfError. The
topology places nothing for the pass, the error is recorded in the
PassReport and the next topology is scheduled normally.

# Plan and Apply

The Planner is pure: it turns buckets into assignments using a
PlacementStrategy and takes the slots it uses from the snapshot.

	SingleSlot   the whole bucket goes to the node's first free slot (default)
	SpreadSlots  executors are dealt round-robin over every free slot

Apply then issues one cluster.Assign per assignment, in bucket order, and
stops at the first failure.

# Usage

	c, _ := cluster.LoadState("cluster.yaml")
	s := scheduler.New(c, affinity.NewFileSource(""),
		scheduler.WithStrategy(scheduler.SpreadSlots{}),
		scheduler.WithBroker(broker),
	)
	report, err := s.Schedule()

Start and Stop run Schedule on a ticker for long-running deployments.
*/
package scheduler
