package handlers

import (
	"context"
	"net/http"
	"time"
)

const version = "1.0.0"

// Pinger checks the liveness of an external dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check represents the status of a health check.
type Check struct {
	Status  string `json:"status"`            // "pass" or "fail"
	Latency string `json:"latency,omitempty"` // e.g., "2ms"
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string           `json:"status"` // "healthy" or "degraded"
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	Timestamp string           `json:"timestamp"`
}

// WithHealthChecks registers the dependencies probed by Health.
func (h *Handler) WithHealthChecks(pg, cache Pinger) *Handler {
	h.pg = pg
	h.cache = cache
	return h
}

// probe pings one dependency. A nil Pinger is an optional dependency
// that was not configured; it is skipped, not failed.
func probe(ctx context.Context, p Pinger, checks map[string]Check, name string) bool {
	if p == nil {
		return true
	}
	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		checks[name] = Check{Status: "fail", Message: "connection failed"}
		return false
	}
	checks[name] = Check{Status: "pass", Latency: time.Since(start).String()}
	return true
}

// Health handles the health check endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]Check)
	healthy := probe(ctx, h.pg, checks, "postgres")
	healthy = probe(ctx, h.cache, checks, "redis") && healthy

	status := "healthy"
	statusCode := http.StatusOK
	if !healthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	h.JSON(w, statusCode, HealthResponse{
		Status:    status,
		Version:   version,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// RootResponse represents the root endpoint response.
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Message string `json:"message"`
}

// Root handles the root endpoint.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, RootResponse{
		Name:    "ngobrol",
		Version: version,
		Message: "Welcome to Ngobrol API",
	})
}
