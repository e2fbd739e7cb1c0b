package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/shashiranjanraj/souq/pkg/ctx"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HealthController struct {
	checks map[string]HealthCheck
}

// NewHealthController probes each named check on every request.
func NewHealthController(checks map[string]HealthCheck) *HealthController {
	return &HealthController{checks: checks}
}

func (c *HealthController) Check(x *ctx.Context) {
	probeCtx, cancel := context.WithTimeout(x.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(c.checks))
	for name, check := range c.checks {
		if err := check(probeCtx); err != nil {
			results[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	x.JSON(code, map[string]any{"status": status, "checks": results})
}
