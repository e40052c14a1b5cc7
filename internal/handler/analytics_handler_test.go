package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lakgs-api/internal/models"
)

type analyticsMock struct {
	degraded  bool
	trendDays int
	limit     int
	module    string
}

func (m *analyticsMock) ActivitySummary(context.Context) (models.ActivitySummary, bool) {
	return models.ActivitySummary{TotalStudents: 3}, m.degraded
}

func (m *analyticsMock) DailyTrend(_ context.Context, days int) ([]models.DailyCount, bool) {
	m.trendDays = days
	return make([]models.DailyCount, days), m.degraded
}

func (m *analyticsMock) ModuleStatistics(_ context.Context, module string) (models.ModuleStats, bool) {
	m.module = module
	return models.ModuleStats{}, m.degraded
}

func (m *analyticsMock) AllModulesStatistics(context.Context) (map[string]models.ModuleStats, bool) {
	return map[string]models.ModuleStats{}, m.degraded
}

func (m *analyticsMock) Leaderboard(_ context.Context, module string, limit int) ([]models.LeaderboardEntry, bool) {
	m.module, m.limit = module, limit
	return []models.LeaderboardEntry{}, m.degraded
}

func (m *analyticsMock) StudentActivities(_ context.Context, _ string, module string, limit int) ([]models.Activity, bool) {
	m.module, m.limit = module, limit
	return []models.Activity{}, m.degraded
}

func (m *analyticsMock) StudentInModule(_ context.Context, studentID, module string) (models.StudentModuleAnalysis, bool) {
	m.module = module
	return models.StudentModuleAnalysis{StudentID: studentID, ModuleName: module}, m.degraded
}

func TestAnalyticsSummaryBanner(t *testing.T) {
	handler := NewAnalyticsHandler(&analyticsMock{degraded: true}, nil)
	c, w := newGinContext(http.MethodGet, "/analytics/summary", nil)
	handler.Summary(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, "database offline", env.Meta["banner"])
	assert.Contains(t, string(env.Data), `"total_students":3`)

	handler = NewAnalyticsHandler(&analyticsMock{}, nil)
	c, w = newGinContext(http.MethodGet, "/analytics/summary", nil)
	handler.Summary(c)
	assert.Nil(t, decode(t, w).Meta["banner"])
}

func TestAnalyticsTrendDefaultsAndValidation(t *testing.T) {
	mock := &analyticsMock{}
	handler := NewAnalyticsHandler(mock, nil)

	c, w := newGinContext(http.MethodGet, "/analytics/trend", nil)
	handler.Trend(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultTrendDays, mock.trendDays)

	c, _ = newGinContext(http.MethodGet, "/analytics/trend?days=30", nil)
	handler.Trend(c)
	assert.Equal(t, 30, mock.trendDays)

	c, w = newGinContext(http.MethodGet, "/analytics/trend?days=abc", nil)
	handler.Trend(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyticsStudentActivitiesLimit(t *testing.T) {
	mock := &analyticsMock{}
	handler := NewAnalyticsHandler(mock, nil)

	c, w := newGinContext(http.MethodGet, "/analytics/students/2024001?module=cases", nil)
	c.Params = gin.Params{{Key: "id", Value: "2024001"}}
	handler.StudentActivities(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultActivityLimit, mock.limit)
	assert.Equal(t, "cases", mock.module)

	c, w = newGinContext(http.MethodGet, "/analytics/students/2024001?limit=0", nil)
	handler.StudentActivities(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyticsSystemWithoutMetrics(t *testing.T) {
	handler := NewAnalyticsHandler(&analyticsMock{}, nil)
	c, w := newGinContext(http.MethodGet, "/analytics/system", nil)
	handler.System(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
