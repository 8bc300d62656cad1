/*
Package log provides structured logging for groupsched using zerolog.

The package wraps a single global zerolog.Logger with component-scoped
child loggers. Until Init is called the global logger discards everything,
so library code and tests can log freely without configuring output.

# Usage

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stderr,
	})

	logger := log.WithComponent("scheduler")
	logger.Info().
		Str("pass_id", report.ID).
		Int("assignments", len(report.Assignments)).
		Msg("Scheduling pass completed")

# Fields

Context helpers attach the identifiers used across groupsched logs:

  - component: scheduler, affinity, registry, api, storage
  - node_id: supervisor node
  - topology_id: topology being collected
  - pass_id: uuid of the scheduling pass

# Levels

Skipped units are logged at debug, since they are expected on every pass
for topologies whose tasks are not in the affinity table. A missing
affinity file is a warning: the pass runs and places nothing. Fatal pass
errors (malformed affinity line, malformed node group id) and per-topology
configuration decode failures are logged at error with the error attached.
*/
package log
