package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/ezienecker/discogs-ctl/pkg/response"
)

// Pinger is a dependency whose reachability gates readiness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Handler serves liveness and readiness.
type Handler struct {
	version string
	checks  map[string]Pinger
}

func New(version string, checks map[string]Pinger) *Handler {
	return &Handler{version: version, checks: checks}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	})
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Ready     bool      `json:"ready"`
	Timestamp time.Time `json:"timestamp"`
	Checks    []Check   `json:"checks"`
}

// Check represents an individual readiness check.
type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Ready handles GET /api/v1/ready
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := []Check{{Name: "api", Status: "ok"}}
	allReady := true
	for name, p := range h.checks {
		c := Check{Name: name, Status: "ok"}
		if err := p.PingContext(ctx); err != nil {
			c.Status = "error"
			c.Error = err.Error()
			allReady = false
		}
		checks = append(checks, c)
	}

	status := http.StatusOK
	if !allReady {
		status = http.StatusServiceUnavailable
	}

	response.JSON(w, status, ReadyResponse{
		Ready:     allReady,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	})
}
