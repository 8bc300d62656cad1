package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/groupsched/pkg/affinity"
	"github.com/cuemby/groupsched/pkg/cluster"
	"github.com/cuemby/groupsched/pkg/events"
	"github.com/cuemby/groupsched/pkg/log"
	"github.com/cuemby/groupsched/pkg/metrics"
	"github.com/cuemby/groupsched/pkg/registry"
	"github.com/cuemby/groupsched/pkg/storage"
	"github.com/cuemby/groupsched/pkg/types"
)

const (
	// DefaultInterval is the time between passes of the scheduling loop
	DefaultInterval = 10 * time.Second
	// DefaultHistoryRetention is how many pass reports the history keeps
	DefaultHistoryRetention = 100
)

// Scheduler places pending executors on the nodes their task ids are pinned to
type Scheduler struct {
	cluster   cluster.Cluster
	source    affinity.Source
	collector *Collector
	planner   *Planner
	broker    *events.Broker
	history   storage.Store
	retention int
	interval  time.Duration
	logger    zerolog.Logger

	mu     sync.Mutex
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithSystemGroupID pins system units to another group
func WithSystemGroupID(groupID int) Option {
	return func(s *Scheduler) {
		s.collector.SystemGroupID = groupID
	}
}

// WithSystemPrefix changes the name prefix identifying system units
func WithSystemPrefix(prefix string) Option {
	return func(s *Scheduler) {
		s.collector.SystemPrefix = prefix
	}
}

// WithStrategy sets the placement strategy
func WithStrategy(strategy PlacementStrategy) Option {
	return func(s *Scheduler) {
		s.planner = NewPlanner(strategy)
	}
}

// WithBroker publishes scheduling events to the broker
func WithBroker(broker *events.Broker) Option {
	return func(s *Scheduler) {
		s.broker = broker
	}
}

// WithHistory records every completed pass in the store, keeping the
// newest retention reports
func WithHistory(store storage.Store, retention int) Option {
	return func(s *Scheduler) {
		s.history = store
		s.retention = retention
	}
}

// WithInterval sets the time between passes of the loop
func WithInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		s.interval = interval
	}
}

// New creates a scheduler over a cluster and an affinity source
func New(c cluster.Cluster, source affinity.Source, opts ...Option) *Scheduler {
	s := &Scheduler{
		cluster:   c,
		source:    source,
		collector: NewCollector(DefaultSystemGroupID, DefaultSystemPrefix),
		planner:   NewPlanner(SingleSlot{}),
		retention: DefaultHistoryRetention,
		interval:  DefaultInterval,
		logger:    log.WithComponent("scheduler"),
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the scheduler loop
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop stops the scheduler and waits for an in-flight pass to finish
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// run is the main scheduler loop
func (s *Scheduler) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Failures are logged and reported by Schedule; the next tick retries
			_, _ = s.Schedule()
		case <-s.stopCh:
			return
		}
	}
}

// Schedule performs one scheduling pass. It returns an error only when the
// affinity table or the node metadata is malformed, or the cluster cannot
// be listed; in that case nothing is bound. Failures confined to a single
// topology are recorded in the report and the pass continues.
func (s *Scheduler) Schedule() (*types.PassReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := metrics.NewTimer()
	report := &types.PassReport{
		ID:             uuid.New().String(),
		StartedAt:      time.Now(),
		TopologyErrors: make(map[string]string),
	}
	logger := s.logger.With().Str("pass_id", report.ID).Logger()

	if err := s.schedule(report, logger); err != nil {
		timer.ObserveDuration(metrics.PassDuration)
		metrics.PassesTotal.WithLabelValues("failed").Inc()
		logger.Error().Err(err).Msg("Scheduling pass failed")
		s.publish(events.EventPassFailed, err.Error(), map[string]string{"pass_id": report.ID})
		return nil, err
	}

	report.Duration = timer.Duration()
	timer.ObserveDuration(metrics.PassDuration)
	s.finish(report, logger)
	return report, nil
}

func (s *Scheduler) schedule(report *types.PassReport, logger zerolog.Logger) error {
	affinityMap, err := s.source.Load()
	if err != nil {
		metrics.UpdateComponent(metrics.ComponentAffinity, false, err.Error())
		return fmt.Errorf("failed to load affinity table from %s: %w", s.source.Describe(), err)
	}
	metrics.UpdateComponent(metrics.ComponentAffinity, true, "")
	report.AffinityEntries = affinityMap.Len()

	nodes, err := s.cluster.Nodes()
	if err != nil {
		metrics.UpdateComponent(metrics.ComponentCluster, false, err.Error())
		return fmt.Errorf("failed to list nodes: %w", err)
	}
	reg, err := registry.Build(nodes)
	if err != nil {
		metrics.UpdateComponent(metrics.ComponentCluster, false, err.Error())
		return fmt.Errorf("failed to build node registry: %w", err)
	}
	report.RegisteredNodes = reg.Len()

	topologies, err := s.cluster.Topologies()
	if err != nil {
		metrics.UpdateComponent(metrics.ComponentCluster, false, err.Error())
		return fmt.Errorf("failed to list topologies: %w", err)
	}
	metrics.UpdateComponent(metrics.ComponentCluster, true, "")

	for _, topo := range topologies {
		if err := s.scheduleTopology(topo, affinityMap, reg, report); err != nil {
			report.TopologyErrors[topo.ID] = err.Error()
			metrics.TopologyErrorsTotal.Inc()

			var confErr *UnitConfError
			event := logger.Error().Err(err).Str("topology_id", topo.ID)
			if errors.As(err, &confErr) {
				event = event.Str("unit", confErr.Unit)
			}
			event.Msg("Failed to schedule topology")

			s.publish(events.EventTopologyFailed, err.Error(), map[string]string{
				"pass_id":  report.ID,
				"topology": topo.ID,
			})
		}
	}

	return nil
}

// scheduleTopology collects, plans and applies one topology. Outcomes and
// assignments are added to the report only once collection succeeded.
func (s *Scheduler) scheduleTopology(topo *types.Topology, affinityMap *affinity.Map, reg *registry.Registry, report *types.PassReport) error {
	pending, err := s.cluster.PendingExecutors(topo.ID)
	if err != nil {
		return fmt.Errorf("failed to list pending executors: %w", err)
	}
	snapshot, err := TakeSnapshot(s.cluster, reg)
	if err != nil {
		return err
	}

	buckets, outcomes, err := s.collector.Collect(topo, &View{
		Affinity: affinityMap,
		Registry: reg,
		Pending:  pending,
		Slots:    snapshot,
	})
	if err != nil {
		return err
	}

	assignments := s.planner.Plan(topo.ID, buckets, snapshot)
	outcomes = markDropped(outcomes, buckets, assignments)
	report.Outcomes = append(report.Outcomes, outcomes...)

	applied, err := Apply(s.cluster, assignments)
	report.Assignments = append(report.Assignments, assignments[:applied]...)
	return err
}

func (s *Scheduler) finish(report *types.PassReport, logger zerolog.Logger) {
	metrics.PassesTotal.WithLabelValues("ok").Inc()
	metrics.AffinityEntries.Set(float64(report.AffinityEntries))
	metrics.RegisteredNodes.Set(float64(report.RegisteredNodes))
	metrics.AssignmentsTotal.Add(float64(len(report.Assignments)))
	metrics.ExecutorsAssignedTotal.Add(float64(report.ExecutorsAssigned()))
	metrics.MarkPass(report.StartedAt)

	if n := len(report.TopologyErrors); n > 0 {
		metrics.UpdateComponent(metrics.ComponentScheduler, false, fmt.Sprintf("%d topologies failed", n))
	} else {
		metrics.UpdateComponent(metrics.ComponentScheduler, true, "")
	}

	for _, o := range report.Outcomes {
		metrics.UnitOutcomesTotal.WithLabelValues(string(o.Kind)).Inc()
		if o.Kind == types.OutcomeAssigned {
			continue
		}
		logger.Debug().
			Str("topology_id", o.TopologyID).
			Str("unit", o.Unit).
			Str("reason", string(o.Kind)).
			Msg("Unit skipped")
		s.publish(events.EventUnitSkipped, o.Unit+" "+string(o.Kind), map[string]string{
			"pass_id":  report.ID,
			"topology": o.TopologyID,
			"unit":     o.Unit,
			"reason":   string(o.Kind),
		})
	}

	for _, a := range report.Assignments {
		s.publish(events.EventExecutorsAssigned,
			fmt.Sprintf("bound %d executors to %s", len(a.Executors), a.Slot),
			map[string]string{
				"pass_id":   report.ID,
				"topology":  a.TopologyID,
				"node":      a.NodeID,
				"slot":      a.Slot.String(),
				"executors": strconv.Itoa(len(a.Executors)),
			})
	}

	if s.history != nil {
		if err := s.history.SavePass(report); err != nil {
			logger.Warn().Err(err).Msg("Failed to record pass")
		} else if s.retention > 0 {
			if _, err := s.history.PrunePasses(s.retention); err != nil {
				logger.Warn().Err(err).Msg("Failed to prune pass history")
			}
		}
	}

	logger.Info().
		Int("affinity_entries", report.AffinityEntries).
		Int("registered_nodes", report.RegisteredNodes).
		Int("assigned", report.Count(types.OutcomeAssigned)).
		Int("skipped", len(report.Outcomes)-report.Count(types.OutcomeAssigned)).
		Int("assignments", len(report.Assignments)).
		Int("executors", report.ExecutorsAssigned()).
		Int("topology_errors", len(report.TopologyErrors)).
		Dur("duration", report.Duration).
		Msg("Scheduling pass completed")

	s.publish(events.EventPassCompleted, "scheduling pass completed", map[string]string{
		"pass_id":     report.ID,
		"assignments": strconv.Itoa(len(report.Assignments)),
		"executors":   strconv.Itoa(report.ExecutorsAssigned()),
	})
}

func (s *Scheduler) publish(eventType events.EventType, message string, metadata map[string]string) {
	if s.broker == nil {
		return
	}
	s.broker.Publish(events.NewEvent(eventType, message, metadata))
}
