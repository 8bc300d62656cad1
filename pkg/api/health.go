package api

import (
	"context"
	"net/http"
	"time"

	"github.com/cuemby/groupsched/pkg/metrics"
)

// HealthServer provides HTTP health check endpoints
type HealthServer struct {
	mux    *http.ServeMux
	server *http.Server
}

// NewHealthServer creates a new health check HTTP server
func NewHealthServer() *HealthServer {
	mux := http.NewServeMux()
	hs := &HealthServer{mux: mux}

	// Register endpoints
	mux.HandleFunc("/health", getOnly(metrics.HealthHandler()))
	mux.HandleFunc("/ready", getOnly(metrics.ReadyHandler()))
	mux.Handle("/metrics", metrics.Handler())

	return hs
}

// Start starts the health check HTTP server. It blocks until the server
// stops and returns http.ErrServerClosed after Shutdown.
func (hs *HealthServer) Start(addr string) error {
	hs.server = &http.Server{
		Addr:         addr,
		Handler:      hs.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return hs.server.ListenAndServe()
}

// Shutdown gracefully stops the server
func (hs *HealthServer) Shutdown(ctx context.Context) error {
	if hs.server == nil {
		return nil
	}
	return hs.server.Shutdown(ctx)
}

// GetHandler returns the HTTP handler for embedding in other servers
func (hs *HealthServer) GetHandler() http.Handler {
	return hs.mux
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}
