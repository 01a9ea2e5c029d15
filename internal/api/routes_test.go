package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// testApp wires the full route tree around a handler with no database
// and no cache, the state the server runs in when both backends are
// down at startup.
func testApp() *fiber.App {
	app := fiber.New()
	handler := NewHandler(nil, nil, nil, nil, nil, 3)
	SetupRoutes(app, handler, "admin", "secret")
	return app
}

func TestReadinessWithoutBackends(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", resp.StatusCode, fiber.StatusServiceUnavailable)
	}

	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "not_ready" {
		t.Errorf("Status = %q, want %q", body.Status, "not_ready")
	}
	if got := body.Services["redis"]; got.Status != "unhealthy" || got.Error != "unavailable" {
		t.Errorf("redis health = %+v, want unhealthy/unavailable", got)
	}
	if got := body.Services["database"]; got.Status != "unhealthy" {
		t.Errorf("database health = %+v, want unhealthy", got)
	}
}

func TestInvalidateCacheWithoutRedis(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/cache/bonds", nil)
	req.Header.Set("Authorization", "Basic YWRtaW46c2VjcmV0")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", resp.StatusCode, fiber.StatusServiceUnavailable)
	}

	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "cache is not available" {
		t.Errorf("Error = %q, want %q", body.Error, "cache is not available")
	}
}

func TestAdminRequiresCredentials(t *testing.T) {
	app := testApp()

	tests := []struct {
		name string
		auth string
		want int
	}{
		{"no credentials", "", fiber.StatusUnauthorized},
		{"wrong credentials", "Basic d3Jvbmc6Y3JlZHM=", fiber.StatusUnauthorized},
		{"configured credentials", "Basic YWRtaW46c2VjcmV0", fiber.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/cache/bonds", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()

			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestRequestIDAssigned(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	id := resp.Header.Get("X-Request-ID")
	if id == "" {
		t.Fatal("X-Request-ID not set")
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("X-Request-ID %q is not a UUID: %v", id, err)
	}
}

func TestRequestIDPreserved(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "caller-supplied-id")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "caller-supplied-id" {
		t.Errorf("X-Request-ID = %q, want caller-supplied-id", got)
	}
}
