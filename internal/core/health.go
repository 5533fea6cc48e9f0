package core

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// healthCheckTimeout bounds each dependency probe so a hung backend cannot
// stall the health endpoint.
const healthCheckTimeout = 2 * time.Second

// HealthStatus is the health endpoint payload.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HandleHealth returns a handler probing the named dependencies. Any failed
// probe degrades the overall status and the response code to 503.
func HandleHealth(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := HealthStatus{
			Status: "ok",
			Checks: make(map[string]string, len(deps)),
		}

		code := http.StatusOK
		for name, dep := range deps {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := dep.Ping(ctx)
			cancel()
			if err != nil {
				status.Checks[name] = "unreachable"
				status.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status.Checks[name] = "ok"
		}

		JSON(w, r, code, status)
	}
}
