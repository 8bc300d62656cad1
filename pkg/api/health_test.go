package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/groupsched/pkg/metrics"
)

func markReady(ready bool) {
	metrics.RegisterComponent(metrics.ComponentAffinity, true, "")
	if ready {
		metrics.RegisterComponent(metrics.ComponentCluster, true, "")
	} else {
		metrics.RegisterComponent(metrics.ComponentCluster, false, "list nodes failed")
	}
}

// TestHealthServerMethods tests that only GET is accepted
func TestHealthServerMethods(t *testing.T) {
	markReady(true)
	handler := NewHealthServer().GetHandler()

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{name: "GET health", method: http.MethodGet, path: "/health", expectedStatus: http.StatusOK},
		{name: "POST health", method: http.MethodPost, path: "/health", expectedStatus: http.StatusMethodNotAllowed},
		{name: "GET ready", method: http.MethodGet, path: "/ready", expectedStatus: http.StatusOK},
		{name: "DELETE ready", method: http.MethodDelete, path: "/ready", expectedStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestReadyEndpointNotReady(t *testing.T) {
	markReady(false)
	defer markReady(true)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	NewHealthServer().GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response metrics.HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "not_ready", response.Status)
	assert.Contains(t, response.Components[metrics.ComponentCluster], "list nodes failed")
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.PassesTotal.WithLabelValues("ok").Add(0)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	NewHealthServer().GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "groupsched_scheduling_passes_total"))
}

func TestShutdownBeforeStart(t *testing.T) {
	assert.NoError(t, NewHealthServer().Shutdown(context.Background()))
}
