// Package health serves the liveness report of the API and its backends.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const checkTimeout = 2 * time.Second

// Check pings one backend
type Check func(ctx context.Context) error

type probe struct {
	name     string
	check    Check
	critical bool
}

// Handler reports the status of each registered backend.
// Only a failing critical check turns the response into a 503.
type Handler struct {
	version string
	now     func() time.Time
	probes  []probe
}

func NewHandler(version string) *Handler {
	return &Handler{version: version, now: time.Now}
}

// Critical registers a backend the API cannot work without
func (h *Handler) Critical(name string, check Check) *Handler {
	h.probes = append(h.probes, probe{name: name, check: check, critical: true})
	return h
}

// Optional registers a backend whose failure only degrades the service
func (h *Handler) Optional(name string, check Check) *Handler {
	h.probes = append(h.probes, probe{name: name, check: check})
	return h
}

// Disabled reports a backend that is switched off by configuration
func (h *Handler) Disabled(name string) *Handler {
	h.probes = append(h.probes, probe{name: name})
	return h
}

// Serve handles GET /health
func (h *Handler) Serve(c *gin.Context) {
	status := "ok"
	statusCode := http.StatusOK
	services := gin.H{}

	for _, p := range h.probes {
		if p.check == nil {
			services[p.name] = "disabled"
			continue
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		err := p.check(ctx)
		cancel()

		if err == nil {
			services[p.name] = "ok"
			continue
		}
		services[p.name] = "error: " + err.Error()
		status = "degraded"
		if p.critical {
			statusCode = http.StatusServiceUnavailable
		}
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"timestamp": h.now().Format(time.RFC3339),
		"version":   h.version,
		"services":  services,
	})
}
