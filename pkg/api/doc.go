/*
Package api exposes the scheduler's health to operators and orchestrators.

HealthServer serves three HTTP endpoints:

	GET /health    component health, 503 when any component is unhealthy
	GET /ready     readiness, 503 until affinity and cluster are healthy
	GET /metrics   Prometheus exposition

GRPCHealth serves the standard grpc.health.v1.Health service so the
scheduler can be probed by gRPC-aware load balancers and kubelet gRPC
probes. Both the overall service ("") and "groupsched.Scheduler" report
SERVING while the process is ready; the status is refreshed from the
metrics health registry every few seconds. Calls are logged at debug level
through LoggingInterceptor.

	hs := api.NewHealthServer()
	go hs.Start("127.0.0.1:9090")

	gh := api.NewGRPCHealth()
	go gh.Start("127.0.0.1:9091")
	defer gh.Stop()
*/
package api
