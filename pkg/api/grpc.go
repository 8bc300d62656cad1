package api

import (
	"fmt"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/cuemby/groupsched/pkg/log"
	"github.com/cuemby/groupsched/pkg/metrics"
)

// SchedulerService is the service name reported by the gRPC health service
// in addition to the overall ("") status
const SchedulerService = "groupsched.Scheduler"

// DefaultSyncInterval is how often GRPCHealth refreshes its serving status
const DefaultSyncInterval = 5 * time.Second

// GRPCHealth serves grpc.health.v1.Health, reporting SERVING while the
// scheduler is ready
type GRPCHealth struct {
	grpc     *grpc.Server
	health   *health.Server
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewGRPCHealth creates the gRPC health service
func NewGRPCHealth() *GRPCHealth {
	g := &GRPCHealth{
		grpc:     grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor())),
		health:   health.NewServer(),
		interval: DefaultSyncInterval,
		stopCh:   make(chan struct{}),
	}
	healthpb.RegisterHealthServer(g.grpc, g.health)
	g.Sync()
	return g
}

// Sync copies the current readiness into the serving status
func (g *GRPCHealth) Sync() {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if metrics.GetReadiness().Status == "ready" {
		status = healthpb.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(SchedulerService, status)
}

// Start listens on addr and serves until Stop
func (g *GRPCHealth) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return g.Serve(lis)
}

// Serve serves on an existing listener and keeps the status in sync
func (g *GRPCHealth) Serve(lis net.Listener) error {
	go g.syncLoop()

	logger := log.WithComponent("grpc")
	logger.Info().Str("addr", lis.Addr().String()).Msg("gRPC health service listening")
	return g.grpc.Serve(lis)
}

// Stop marks every service NOT_SERVING and stops the server gracefully
func (g *GRPCHealth) Stop() {
	g.stopOnce.Do(func() {
		close(g.stopCh)
		g.health.Shutdown()
		g.grpc.GracefulStop()
	})
}

func (g *GRPCHealth) syncLoop() {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.Sync()
		case <-g.stopCh:
			return
		}
	}
}
