package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is a dependency the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck names a dependency. An optional dependency that fails degrades
// the status instead of failing it.
type HealthCheck struct {
	Name     string
	Pinger   Pinger
	Optional bool
}

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checks    []HealthCheck
	timeout   time.Duration
	now       func() time.Time
	responder responder
}

func NewHealthHandler(checks []HealthCheck, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		checks:    checks,
		timeout:   5 * time.Second,
		now:       time.Now,
		responder: newResponder(logger),
	}
}

// Live always answers 200 while the process serves requests.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	h.responder.writeJSON(r.Context(), w, http.StatusOK, healthResponse{
		Status:    statusHealthy,
		Timestamp: formatTime(h.now()),
	})
}

// Ready pings every dependency and answers 503 when a required one fails.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := healthResponse{
		Status:       statusHealthy,
		Timestamp:    formatTime(h.now()),
		Dependencies: make(map[string]dependencyStatus, len(h.checks)),
	}
	for _, check := range h.checks {
		if check.Pinger == nil {
			continue
		}
		start := time.Now()
		err := check.Pinger.Ping(ctx)
		dep := dependencyStatus{Status: statusHealthy, LatencyMS: time.Since(start).Milliseconds()}
		if err != nil {
			dep.Status = statusUnhealthy
			dep.Message = err.Error()
			switch {
			case !check.Optional:
				resp.Status = statusUnhealthy
			case resp.Status == statusHealthy:
				resp.Status = statusDegraded
			}
			h.responder.loggerFor(r.Context()).WarnContext(r.Context(), "dependency check failed", "dependency", check.Name, "error", err)
		}
		resp.Dependencies[check.Name] = dep
	}

	status := http.StatusOK
	if resp.Status == statusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	h.responder.writeJSON(r.Context(), w, status, resp)
}

type healthResponse struct {
	Status       string                      `json:"status"`
	Timestamp    string                      `json:"timestamp"`
	Dependencies map[string]dependencyStatus `json:"dependencies,omitempty"`
}

type dependencyStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}
