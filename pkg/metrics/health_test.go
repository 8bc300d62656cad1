package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func resetHealth() {
	healthChecker = newHealthChecker()
}

func TestRegisterComponent(t *testing.T) {
	resetHealth()

	RegisterComponent("test-component", true, "running")

	if len(healthChecker.components) != 1 {
		t.Errorf("expected 1 component, got %d", len(healthChecker.components))
	}

	comp := healthChecker.components["test-component"]
	if !comp.Healthy {
		t.Error("component should be healthy")
	}

	if comp.Message != "running" {
		t.Errorf("expected message 'running', got '%s'", comp.Message)
	}
}

func TestGetHealth_AllHealthy(t *testing.T) {
	resetHealth()
	SetVersion("1.0.0")

	RegisterComponent(ComponentAffinity, true, "")
	RegisterComponent(ComponentCluster, true, "")

	health := GetHealth()

	if health.Status != "healthy" {
		t.Errorf("expected status 'healthy', got '%s'", health.Status)
	}

	if len(health.Components) != 2 {
		t.Errorf("expected 2 components, got %d", len(health.Components))
	}

	if health.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got '%s'", health.Version)
	}

	if health.LastPass != nil {
		t.Error("expected no last pass before MarkPass")
	}
}

func TestGetHealth_OneUnhealthy(t *testing.T) {
	resetHealth()

	RegisterComponent(ComponentCluster, true, "")
	RegisterComponent(ComponentAffinity, false, "malformed line 3")

	health := GetHealth()

	if health.Status != "unhealthy" {
		t.Errorf("expected status 'unhealthy', got '%s'", health.Status)
	}

	if health.Components[ComponentAffinity] != "unhealthy: malformed line 3" {
		t.Errorf("unexpected affinity status: %s", health.Components[ComponentAffinity])
	}
}

func TestUpdateComponent(t *testing.T) {
	resetHealth()

	RegisterComponent(ComponentAffinity, false, "missing")
	UpdateComponent(ComponentAffinity, true, "")

	if !healthChecker.components[ComponentAffinity].Healthy {
		t.Error("component should be healthy after update")
	}
}

func TestGetReadiness(t *testing.T) {
	tests := []struct {
		name       string
		setup      func()
		wantStatus string
	}{
		{
			name:       "nothing registered",
			setup:      func() {},
			wantStatus: "not_ready",
		},
		{
			name: "only affinity registered",
			setup: func() {
				RegisterComponent(ComponentAffinity, true, "")
			},
			wantStatus: "not_ready",
		},
		{
			name: "cluster unhealthy",
			setup: func() {
				RegisterComponent(ComponentAffinity, true, "")
				RegisterComponent(ComponentCluster, false, "list nodes failed")
			},
			wantStatus: "not_ready",
		},
		{
			name: "all critical healthy",
			setup: func() {
				RegisterComponent(ComponentAffinity, true, "")
				RegisterComponent(ComponentCluster, true, "")
			},
			wantStatus: "ready",
		},
		{
			name: "non critical unhealthy does not block readiness",
			setup: func() {
				RegisterComponent(ComponentAffinity, true, "")
				RegisterComponent(ComponentCluster, true, "")
				RegisterComponent(ComponentScheduler, false, "topology failed")
			},
			wantStatus: "ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetHealth()
			tt.setup()

			readiness := GetReadiness()
			if readiness.Status != tt.wantStatus {
				t.Errorf("expected status '%s', got '%s' (%v)", tt.wantStatus, readiness.Status, readiness.Components)
			}
			if tt.wantStatus == "not_ready" && readiness.Message == "" {
				t.Error("expected a message when not ready")
			}
		})
	}
}

func TestMarkPass(t *testing.T) {
	resetHealth()

	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	MarkPass(at)

	health := GetHealth()
	if health.LastPass == nil || !health.LastPass.Equal(at) {
		t.Errorf("expected last pass %v, got %v", at, health.LastPass)
	}
}

func TestHealthHandler(t *testing.T) {
	resetHealth()
	RegisterComponent(ComponentAffinity, false, "malformed")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	HealthHandler()(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}

	var health HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if health.Status != "unhealthy" {
		t.Errorf("expected status 'unhealthy', got '%s'", health.Status)
	}
}

func TestReadyHandler(t *testing.T) {
	resetHealth()
	RegisterComponent(ComponentAffinity, true, "")
	RegisterComponent(ComponentCluster, true, "")

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	ReadyHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %s", ct)
	}
}
