package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/internal/service"
)

// StoreProbe reports whether the graph store is reachable.
type StoreProbe interface {
	Available() bool
}

// ContentProbe reports what the content repository loaded.
type ContentProbe interface {
	Stats() models.ContentStats
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	store   StoreProbe
	content ContentProbe
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, store StoreProbe, content ContentProbe) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, store: store, content: content}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports graph store availability and loaded content. The service
// keeps serving content pages with the store offline, so readiness degrades
// instead of failing.
func (h *MetricsHandler) Ready(c *gin.Context) {
	graphUp := h.store != nil && h.store.Available()
	status := "ok"
	if !graphUp {
		status = "degraded"
	}
	body := gin.H{"status": status, "graph_store": graphUp}
	if h.content != nil {
		body["content"] = h.content.Stats()
	}
	c.JSON(http.StatusOK, body)
}
