package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthReportsWiring(t *testing.T) {
	h := NewHealth("osrm", "redis")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var res map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res["status"] != "ok" {
		t.Errorf("status = %q, want ok", res["status"])
	}
	if res["matrix_provider"] != "osrm" || res["matrix_cache"] != "redis" {
		t.Errorf("wiring = %q/%q, want osrm/redis", res["matrix_provider"], res["matrix_cache"])
	}
}

func TestHealthDefaultsCacheKind(t *testing.T) {
	h := NewHealth("google", "")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	var res map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res["matrix_cache"] != "none" {
		t.Errorf("cache = %q, want none", res["matrix_cache"])
	}
}

func TestHealthMethodNotAllowed(t *testing.T) {
	h := NewHealth("osrm", "none")
	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
