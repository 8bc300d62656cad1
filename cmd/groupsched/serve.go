package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/groupsched/pkg/api"
	"github.com/cuemby/groupsched/pkg/cluster"
	"github.com/cuemby/groupsched/pkg/events"
	"github.com/cuemby/groupsched/pkg/log"
	"github.com/cuemby/groupsched/pkg/metrics"
	"github.com/cuemby/groupsched/pkg/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve --state FILE",
	Short: "Schedule continuously and serve health endpoints",
	Long: `Run the scheduling loop against a cluster state file, re-reading the
affinity table on every pass, and serve /health, /ready and /metrics over
HTTP plus the gRPC health service.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("state", "s", "", "Cluster state file (YAML, required)")
	serveCmd.Flags().String("affinity", "", "Affinity table file (overrides the configured source)")
	serveCmd.Flags().String("strategy", "", "Placement strategy: single-slot or spread")
	serveCmd.Flags().Duration("interval", 0, "Time between scheduling passes")
	_ = serveCmd.MarkFlagRequired("state")
}

func runServe(cmd *cobra.Command, args []string) error {
	statePath, _ := cmd.Flags().GetString("state")
	logger := log.WithComponent("serve")

	c, err := cluster.LoadState(statePath)
	if err != nil {
		return err
	}
	metrics.RegisterComponent(metrics.ComponentCluster, true, "")

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	source, err := openSource(cfg, store)
	if err != nil {
		return err
	}

	fmt.Println("Starting groupsched...")
	fmt.Printf("  Affinity source: %s\n", source.Describe())
	fmt.Printf("  Strategy: %s\n", cfg.Strategy)
	fmt.Printf("  Interval: %s\n", cfg.Interval)
	fmt.Printf("  Data Directory: %s\n", cfg.DataDir)
	fmt.Println()

	// Event broker, logged at debug level
	broker := events.NewBroker()
	broker.Start()
	sub := broker.Subscribe()
	go func() {
		for event := range sub {
			logger.Debug().
				Str("event_id", event.ID).
				Str("type", string(event.Type)).
				Interface("metadata", event.Metadata).
				Msg(event.Message)
		}
	}()

	opts, err := cfg.SchedulerOptions()
	if err != nil {
		return err
	}
	opts = append(opts,
		scheduler.WithBroker(broker),
		scheduler.WithHistory(store, cfg.HistoryRetention),
	)
	sched := scheduler.New(c, source, opts...)

	// First pass right away, then on every tick
	if _, err := sched.Schedule(); err != nil {
		fmt.Fprintf(os.Stderr, "✗ Initial pass failed: %v\n", err)
	}
	sched.Start()
	fmt.Println("✓ Scheduler started")

	collector := metrics.NewCollector(c)
	collector.Start()

	errCh := make(chan error, 2)

	var healthServer *api.HealthServer
	if cfg.API.HTTPAddr != "" {
		healthServer = api.NewHealthServer()
		go func() {
			if err := healthServer.Start(cfg.API.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("health server error: %w", err)
			}
		}()
		fmt.Printf("✓ Health endpoints on http://%s\n", cfg.API.HTTPAddr)
	}

	var grpcHealth *api.GRPCHealth
	if cfg.API.GRPCAddr != "" {
		grpcHealth = api.NewGRPCHealth()
		go func() {
			if err := grpcHealth.Start(cfg.API.GRPCAddr); err != nil {
				errCh <- fmt.Errorf("gRPC health error: %w", err)
			}
		}()
		fmt.Printf("✓ gRPC health on %s\n", cfg.API.GRPCAddr)
	}

	fmt.Println()
	fmt.Println("Scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nShutting down...")
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
	}

	// Shutdown
	sched.Stop()
	collector.Stop()
	if grpcHealth != nil {
		grpcHealth.Stop()
	}
	if healthServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthServer.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("Health server did not shut down cleanly")
		}
	}
	broker.Unsubscribe(sub)
	broker.Stop()

	fmt.Println("✓ Shutdown complete")
	return nil
}
