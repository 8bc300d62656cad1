/*
Package cluster defines the cluster collaborator the scheduler works against.

The Cluster interface is the contract a stream-processing coordinator
offers a pluggable scheduler: list topologies, list supervisor nodes with
their metadata, list a node's free slots, list a topology's pending
executors per component, and bind executors to a slot. The scheduler only
reads through this interface, except for Assign which it calls from its
explicit apply step.

Memory is a thread-safe in-memory implementation used by the CLI and tests.
It keeps nodes in registration order, which matters when two nodes claim
the same group id: the registry keeps the later one.

# State Files

LoadState builds a Memory cluster from YAML:

	nodes:
	  - id: sup-1
	    meta: {group-id: "1"}
	    slots: [6700, 6701]
	topologies:
	  - id: linear-1
	    sources:
	      - name: spout_node
	        taskId: 10              # or conf: '{"task-id":"10"}'
	    transforms:
	      - name: bolt_1
	        conf: '{"task-id":"11"}'
	    pending:
	      spout_node: [{start: 1, end: 1}]
	      __acker: [{start: 2, end: 2}]

taskId is a shorthand that encodes a configuration blob the way a topology
builder embeds it. Use conf directly to reproduce malformed blobs.
*/
package cluster
