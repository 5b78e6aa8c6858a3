package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/Mr-Georgie/weather-api/application/ports"
	"github.com/Mr-Georgie/weather-api/pkg/common"
)

// HealthHandler answers liveness and readiness probes
type HealthHandler struct {
	checks  map[string]ports.HealthChecker
	timeout time.Duration
}

// NewHealthHandler creates a handler that pings each named dependency on readiness checks.
func NewHealthHandler(checks map[string]ports.HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// Ping handles GET /api/v1/ping
// @Summary Ping
// @Tags health
// @Produce json
// @Success 200 {object} common.APIResponse
// @Router /ping [get]
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	common.RespondOK(w, "Hello World!")
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	common.RespondOK(w, map[string]string{"status": "healthy"})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	message := "ready"
	if status != http.StatusOK {
		message = "not ready"
	}
	common.RespondJSON(w, status, message, results)
}
