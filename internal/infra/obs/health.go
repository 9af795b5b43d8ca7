package obs

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthReport is the aggregated dependency status served on /health.
type HealthReport struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
	Circuits     any               `json:"circuits,omitempty"`
}

// HealthHandlers exposes endpoints for liveness, readiness and dependency health.
type HealthHandlers struct {
	Ready  func() error
	Report func(ctx context.Context) HealthReport
}

func (h HealthHandlers) Livez(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (h HealthHandlers) Readyz(c *gin.Context) {
	if h.Ready != nil {
		if err := h.Ready(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
			return
		}
	}
	c.Status(http.StatusOK)
}

// Health answers 200 while at least one dependency is up, 503 once everything is down.
func (h HealthHandlers) Health(c *gin.Context) {
	if h.Report == nil {
		c.JSON(http.StatusOK, HealthReport{Status: "ok", Dependencies: map[string]string{}})
		return
	}
	report := h.Report(c.Request.Context())
	code := http.StatusOK
	if report.Status == "down" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, report)
}
