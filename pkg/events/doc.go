/*
Package events provides an in-memory event broker for scheduling events.

The broker broadcasts every published event to all subscribers. Delivery is
asynchronous through buffered channels: the broker queue holds 100 events
and each subscriber 50. Publish never blocks, and a slow subscriber misses
events rather than stalling a scheduling pass.

	Publisher -> broker queue (100) -> broadcast loop -> subscribers (50 each)

# Event Types

	pass.completed      a pass finished; metadata carries counts
	pass.failed         a pass aborted on malformed affinity or node metadata
	topology.failed     a unit configuration could not be decoded
	executors.assigned  executors were bound to a slot
	unit.skipped        a unit placed nothing; metadata carries the reason

Event IDs are random UUIDs assigned by NewEvent or at publish time.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	for event := range sub {
		fmt.Println(event.Type, event.Message)
	}
*/
package events
