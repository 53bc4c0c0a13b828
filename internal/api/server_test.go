package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/warden/internal/collector"
	"github.com/MikeSquared-Agency/warden/internal/engine"
	"github.com/MikeSquared-Agency/warden/internal/health"
)

type stubSource struct {
	readings map[string]collector.Reading
}

func (s *stubSource) Read(ctx context.Context, tenantID string) (collector.Reading, error) {
	r, ok := s.readings[tenantID]
	if !ok {
		return collector.Reading{}, context.DeadlineExceeded
	}
	return r, nil
}

func newTestServer(t *testing.T, apiToken string) *Server {
	t.Helper()
	src := &stubSource{readings: map[string]collector.Reading{
		"acme": {
			Components: health.Snapshot{EMQ: 80, APIHealth: 90, EventLoss: 95, PlatformStability: 60, DataQuality: 70},
			UpdatedAt:  time.Now().UTC(),
		},
	}}
	eng := engine.New(src, health.DefaultWeights(), health.DefaultThresholds(), 1000, engine.Options{}, slog.Default())
	return NewServer(8760, apiToken, eng)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, "")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestTenantHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, "")

	req := httptest.NewRequest("GET", "/api/v1/tenants/acme/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		TenantID   string             `json:"tenant_id"`
		Composite  int                `json:"composite_score"`
		Band       string             `json:"band"`
		Components map[string]float64 `json:"components"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Composite != 83 {
		t.Errorf("expected composite 83, got %d", body.Composite)
	}
	if body.Band != "PASS" {
		t.Errorf("expected band PASS, got %q", body.Band)
	}
	if body.Components["emq"] != 80 {
		t.Errorf("expected emq 80 in breakdown, got %+v", body.Components)
	}
}

func TestTenantHealthEndpoint_UnknownTenant(t *testing.T) {
	srv := newTestServer(t, "")

	req := httptest.NewRequest("GET", "/api/v1/tenants/nobody/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestAutopilotStateEndpoint(t *testing.T) {
	srv := newTestServer(t, "")

	req := httptest.NewRequest("GET", "/api/v1/tenants/acme/autopilot", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Mode              string   `json:"mode"`
		Band              string   `json:"band"`
		AllowedActions    []string `json:"allowed_actions"`
		RestrictedActions []string `json:"restricted_actions"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Mode != "normal" {
		t.Errorf("expected mode normal, got %q", body.Mode)
	}
	if body.Band != "PASS" {
		t.Errorf("expected band PASS, got %q", body.Band)
	}
	if len(body.AllowedActions) == 0 {
		t.Error("expected allowed actions for normal mode")
	}
}

func TestSetOverrideEndpoint(t *testing.T) {
	srv := newTestServer(t, "")

	payload := `{"mode":"frozen","reason":"incident 4821","operator":"oncall@agency"}`
	req := httptest.NewRequest("PUT", "/api/v1/tenants/acme/autopilot/override", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Mode     string `json:"mode"`
		Override *struct {
			Reason   string `json:"reason"`
			Operator string `json:"operator"`
		} `json:"override"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Mode != "frozen" {
		t.Errorf("expected mode frozen, got %q", body.Mode)
	}
	if body.Override == nil || body.Override.Operator != "oncall@agency" {
		t.Errorf("override not reflected in state: %+v", body.Override)
	}
}

func TestSetOverrideEndpoint_InvalidMode(t *testing.T) {
	srv := newTestServer(t, "")

	payload := `{"mode":"bogus","reason":"oops","operator":"ops@x"}`
	req := httptest.NewRequest("PUT", "/api/v1/tenants/acme/autopilot/override", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}

	// State must be unchanged afterwards.
	req = httptest.NewRequest("GET", "/api/v1/tenants/acme/autopilot", nil)
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	var body struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Mode != "normal" {
		t.Errorf("state changed by rejected override: mode = %q", body.Mode)
	}
}

func TestSetOverrideEndpoint_MissingFields(t *testing.T) {
	srv := newTestServer(t, "")

	payload := `{"mode":"frozen"}`
	req := httptest.NewRequest("PUT", "/api/v1/tenants/acme/autopilot/override", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without reason/operator, got %d", w.Code)
	}
}

func TestClearOverrideEndpoint(t *testing.T) {
	srv := newTestServer(t, "")

	// Set then clear; the cleared state must reflect the live band.
	payload := `{"mode":"frozen","reason":"incident","operator":"ops@x"}`
	req := httptest.NewRequest("PUT", "/api/v1/tenants/acme/autopilot/override", strings.NewReader(payload))
	srv.router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest("DELETE", "/api/v1/tenants/acme/autopilot/override", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Mode != "normal" {
		t.Errorf("expected mode normal after clear, got %q", body.Mode)
	}
}

func TestClearOverrideEndpoint_Idempotent(t *testing.T) {
	srv := newTestServer(t, "")

	req := httptest.NewRequest("DELETE", "/api/v1/tenants/acme/autopilot/override", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("defensive clear should succeed, got %d", w.Code)
	}
}

func TestOverrideEndpoints_RequireBearerToken(t *testing.T) {
	srv := newTestServer(t, "warden-secret")

	payload := `{"mode":"frozen","reason":"incident","operator":"ops@x"}`

	t.Run("missing token rejected", func(t *testing.T) {
		req := httptest.NewRequest("PUT", "/api/v1/tenants/acme/autopilot/override", strings.NewReader(payload))
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("wrong token rejected", func(t *testing.T) {
		req := httptest.NewRequest("DELETE", "/api/v1/tenants/acme/autopilot/override", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("correct token accepted", func(t *testing.T) {
		req := httptest.NewRequest("PUT", "/api/v1/tenants/acme/autopilot/override", strings.NewReader(payload))
		req.Header.Set("Authorization", "Bearer warden-secret")
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("read endpoints stay open", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/tenants/acme/autopilot", nil)
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})
}
