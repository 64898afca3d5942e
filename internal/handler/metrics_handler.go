package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-planner/internal/service"
)

// MetricsHandler exposes liveness, readiness and Prometheus endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	probe   func(ctx context.Context) error
}

// NewMetricsHandler constructs a metrics handler. probe checks that storage
// answers; nil skips the check.
func NewMetricsHandler(metrics *service.MetricsService, probe func(ctx context.Context) error) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, probe: probe}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness checks.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether storage answers, with request and storage counters.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.probe != nil {
		if err := h.probe(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "metrics": h.metrics.Snapshot()})
}
