package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lakgs-api/internal/dto"
	"github.com/noah-isme/lakgs-api/internal/middleware"
	"github.com/noah-isme/lakgs-api/internal/models"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
	"github.com/noah-isme/lakgs-api/pkg/response"
)

const (
	defaultTrendDays     = 7
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

// AnalyticsService is the read-only dashboard surface. Every method reports
// whether it degraded to empty defaults.
type AnalyticsService interface {
	ActivitySummary(ctx context.Context) (models.ActivitySummary, bool)
	DailyTrend(ctx context.Context, days int) ([]models.DailyCount, bool)
	ModuleStatistics(ctx context.Context, module string) (models.ModuleStats, bool)
	AllModulesStatistics(ctx context.Context) (map[string]models.ModuleStats, bool)
	Leaderboard(ctx context.Context, module string, limit int) ([]models.LeaderboardEntry, bool)
	StudentActivities(ctx context.Context, studentID, module string, limit int) ([]models.Activity, bool)
	StudentInModule(ctx context.Context, studentID, module string) (models.StudentModuleAnalysis, bool)
}

// SystemSnapshot reports process-level counters.
type SystemSnapshot interface {
	Snapshot() models.SystemMetrics
}

// AnalyticsHandler exposes dashboard-ready analytics endpoints.
type AnalyticsHandler struct {
	analytics AnalyticsService
	system    SystemSnapshot
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics AnalyticsService, system SystemSnapshot) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, system: system}
}

func (h *AnalyticsHandler) respond(c *gin.Context, data any, degraded bool) {
	middleware.SetDegraded(c, degraded)
	ok(c, http.StatusOK, data)
}

// Summary godoc
// @Summary Activity summary
// @Description Totals, today's activities and students active in the last seven days. meta.banner is set when the store is offline
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /analytics/summary [get]
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	summary, degraded := h.analytics.ActivitySummary(c.Request.Context())
	h.respond(c, summary, degraded)
}

// Trend godoc
// @Summary Daily activity trend
// @Tags Analytics
// @Produce json
// @Param days query int false "Window in days (1-366)"
// @Success 200 {object} response.Envelope
// @Router /analytics/trend [get]
func (h *AnalyticsHandler) Trend(c *gin.Context) {
	var query dto.TrendQuery
	if !bindQuery(c, &query) {
		return
	}
	if query.Days == 0 {
		query.Days = defaultTrendDays
	}
	trend, degraded := h.analytics.DailyTrend(c.Request.Context(), query.Days)
	h.respond(c, trend, degraded)
}

// Modules returns statistics for every module.
func (h *AnalyticsHandler) Modules(c *gin.Context) {
	stats, degraded := h.analytics.AllModulesStatistics(c.Request.Context())
	h.respond(c, stats, degraded)
}

// Module returns statistics for one module.
func (h *AnalyticsHandler) Module(c *gin.Context) {
	stats, degraded := h.analytics.ModuleStatistics(c.Request.Context(), c.Param("module"))
	h.respond(c, stats, degraded)
}

// Leaderboard godoc
// @Summary Student leaderboard
// @Tags Analytics
// @Produce json
// @Param module query string false "Restrict to one module"
// @Param limit query int false "Entries (1-100)"
// @Success 200 {object} response.Envelope
// @Router /analytics/leaderboard [get]
func (h *AnalyticsHandler) Leaderboard(c *gin.Context) {
	var query dto.LeaderboardQuery
	if !bindQuery(c, &query) {
		return
	}
	board, degraded := h.analytics.Leaderboard(c.Request.Context(), query.Module, query.Limit)
	h.respond(c, board, degraded)
}

// StudentActivities lists one student's activities most-recent-first.
func (h *AnalyticsHandler) StudentActivities(c *gin.Context) {
	limit := defaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxActivityLimit {
			response.Error(c, appErrors.Field("limit", "must be between 1 and 500"))
			return
		}
		limit = parsed
	}
	activities, degraded := h.analytics.StudentActivities(c.Request.Context(), c.Param("id"), c.Query("module"), limit)
	h.respond(c, activities, degraded)
}

// StudentInModule returns the drill-down of one student in one module.
func (h *AnalyticsHandler) StudentInModule(c *gin.Context) {
	analysis, degraded := h.analytics.StudentInModule(c.Request.Context(), c.Param("id"), c.Param("module"))
	h.respond(c, analysis, degraded)
}

// System returns instrumentation metrics snapshots.
func (h *AnalyticsHandler) System(c *gin.Context) {
	if h.system == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "metrics not configured"))
		return
	}
	ok(c, http.StatusOK, h.system.Snapshot())
}
