package health

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Status is a point-in-time snapshot of the daemon's working state
type Status struct {
	Temperature  int    `json:"temperature"`
	Phase        string `json:"phase"`
	Outputs      int    `json:"outputs"`
	ReadyOutputs int    `json:"ready_outputs"`
}

// StatusFunc supplies the current daemon status for the detailed handler
type StatusFunc func() Status

// Checker provides health check functionality for the daemon
type Checker struct {
	status StatusFunc
	logger *slog.Logger
}

// NewChecker creates a new health checker
func NewChecker(status StatusFunc, logger *slog.Logger) *Checker {
	return &Checker{
		status: status,
		logger: logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Daemon    *Status `json:"daemon,omitempty"`
}

// HandlerFunc returns an HTTP handler for liveness checks. It reports
// only that the process is alive, keeping the probe fast.
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode health response", "error", err)
		}
	}
}

// StatusHandlerFunc returns a handler that includes the daemon snapshot:
// current temperature, phase, and output readiness.
func (h *Checker) StatusHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var daemon *Status
		if h.status != nil {
			s := h.status()
			daemon = &s
		}

		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Daemon:    daemon,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode health response", "error", err)
		}
	}
}
