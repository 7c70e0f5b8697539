package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okPinger() Pinger {
	return PingFunc(func(context.Context) error { return nil })
}

func failingPinger(msg string) Pinger {
	return PingFunc(func(context.Context) error { return errors.New(msg) })
}

func TestHealthChecker_BasicMode(t *testing.T) {
	t.Parallel()

	// Basic mode never touches dependencies.
	checker := NewHealthChecker(map[string]Pinger{"database": failingPinger("down")})

	w := httptest.NewRecorder()
	checker.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var body HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Status != "healthy" {
		t.Errorf("Expected status healthy, got %s", body.Status)
	}
	if body.Checks != nil {
		t.Errorf("Expected no checks in basic mode, got %v", body.Checks)
	}
}

func TestHealthChecker_ExtendedMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		checks     map[string]Pinger
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name: "all healthy",
			checks: map[string]Pinger{
				"database": okPinger(),
				"redis":    okPinger(),
				"rabbitmq": okPinger(),
			},
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
			wantChecks: map[string]string{"database": "healthy", "redis": "healthy", "rabbitmq": "healthy"},
		},
		{
			name: "queue not configured",
			checks: map[string]Pinger{
				"database": okPinger(),
				"rabbitmq": nil,
			},
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
			wantChecks: map[string]string{"database": "healthy", "rabbitmq": "not configured"},
		},
		{
			name: "database down",
			checks: map[string]Pinger{
				"database": failingPinger("connection refused"),
				"redis":    okPinger(),
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
			wantChecks: map[string]string{"database": "unhealthy: connection refused", "redis": "healthy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			checker := NewHealthChecker(tt.checks)
			w := httptest.NewRecorder()
			checker.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/healthz?mode=extended", nil))

			if w.Code != tt.wantCode {
				t.Errorf("Expected status %d, got %d", tt.wantCode, w.Code)
			}
			var body HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if body.Status != tt.wantStatus {
				t.Errorf("Expected status %s, got %s", tt.wantStatus, body.Status)
			}
			if len(body.Checks) != len(tt.wantChecks) {
				t.Fatalf("Expected %d checks, got %v", len(tt.wantChecks), body.Checks)
			}
			for key, want := range tt.wantChecks {
				if body.Checks[key] != want {
					t.Errorf("Expected check[%s] = %q, got %q", key, want, body.Checks[key])
				}
			}
		})
	}
}

func TestHealthChecker_PingHasDeadline(t *testing.T) {
	t.Parallel()

	var hadDeadline bool
	checker := NewHealthChecker(map[string]Pinger{
		"database": PingFunc(func(ctx context.Context) error {
			_, hadDeadline = ctx.Deadline()
			return nil
		}),
	})

	w := httptest.NewRecorder()
	checker.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/healthz?mode=extended", nil))

	if !hadDeadline {
		t.Error("Expected dependency checks to run under a deadline")
	}
	if !strings.Contains(w.Body.String(), `"database":"healthy"`) {
		t.Errorf("Unexpected body: %s", w.Body.String())
	}
}
