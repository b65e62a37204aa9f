package handler

import (
	"context"
	"net/http"
	"time"

	"visit-tracking-service/pkg/response"
)

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]HealthCheck
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := make(map[string]string)
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		response.JSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "degraded", "checks": failed})
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
