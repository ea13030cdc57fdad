package ops

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestHandler_GetHealth_Healthy(t *testing.T) {
	h := NewHandler(zap.NewNop(), "in_memory", nil)

	rr := httptest.NewRecorder()
	h.Router().ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("health body is not JSON: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
	if body["cache_backend"] != "in_memory" {
		t.Errorf("cache_backend = %v, want in_memory", body["cache_backend"])
	}
}

func TestHandler_GetHealth_CachePingFailure(t *testing.T) {
	h := NewHandler(zap.NewNop(), "memcached", func() error { return errors.New("connect: refused") })

	rr := httptest.NewRecorder()
	h.Router().ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("health body is not JSON: %v", err)
	}
	if body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", body["status"])
	}
}

func TestHandler_Router_ServesMetrics(t *testing.T) {
	h := NewHandler(zap.NewNop(), "in_memory", nil)

	rr := httptest.NewRecorder()
	h.Router().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Body.Len() == 0 {
		t.Error("metrics body is empty")
	}
}
