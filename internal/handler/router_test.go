package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/content"
	"github.com/noah-isme/lakgs-api/internal/dto"
	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/internal/service"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
)

type tokenSessions map[string]*models.Session

func (s tokenSessions) CurrentUser(_ context.Context, token string) (*models.Session, error) {
	if session, ok := s[token]; ok {
		return session, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
}

type reportMock struct {
	download *service.ReportDownload
	err      error
}

func (m *reportMock) Generate(context.Context, dto.ReportRequest) (*models.Report, error) {
	return &models.Report{ID: "r1", Markdown: "# r", Degraded: true}, nil
}

func (m *reportMock) Download(context.Context, string) (*service.ReportDownload, error) {
	return m.download, m.err
}

type dataMock struct {
	deleted string
}

func (m *dataMock) DeleteAllActivities(context.Context) (int, error) { return 7, nil }

func (m *dataMock) DeleteStudent(_ context.Context, id string) (models.DeleteResult, error) {
	m.deleted = id
	return models.DeleteResult{Students: 1, Activities: 2}, nil
}

func (m *dataMock) FixFieldNames(context.Context) (models.FieldMigrationResult, error) {
	return models.FieldMigrationResult{}, nil
}

func (m *dataMock) ExportActivities(_ context.Context, format string) (*service.ExportFile, error) {
	return &service.ExportFile{Filename: "activities.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("timestamp\n")}, nil
}

type recordingSink struct{ activities []models.Activity }

func (r *recordingSink) Record(_ context.Context, user models.User, activity models.Activity) {
	activity.StudentID = user.StudentID
	r.activities = append(r.activities, activity)
}

func newTestRouter(t *testing.T, data *dataMock, sink *recordingSink) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := content.Load("../content/testdata/snapshot", zap.NewNop())

	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), RouterConfig{
		Sessions:  tokenSessions{"student": studentSession, "teacher": teacherSession},
		Logger:    zap.NewNop(),
		Auth:      NewAuthHandler(&authServiceMock{}),
		Learning:  NewLearningHandler(service.NewLearningService(repo, sink, nil, nil, zap.NewNop())),
		Knowledge: NewKnowledgeHandler(service.NewKnowledgeService(repo, content.DefaultTopicTable(), content.TopicLimits{}, nil, zap.NewNop())),
		Analytics: NewAnalyticsHandler(&analyticsMock{}, service.NewMetricsService()),
		Reports:   NewReportHandler(&reportMock{download: &service.ReportDownload{Filename: "report-r1.md", Data: []byte("# r")}}),
		Data:      NewDataHandler(data),
	})
	return r
}

func serve(r http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouterAccessControl(t *testing.T) {
	r := newTestRouter(t, &dataMock{}, &recordingSink{})
	search := "/api/v1/knowledge/search?q=" + url.QueryEscape("秦朝")

	cases := []struct {
		name   string
		method string
		target string
		token  string
		status int
	}{
		{"anonymous search", http.MethodGet, search, "", http.StatusUnauthorized},
		{"expired token", http.MethodGet, search, "stale", http.StatusUnauthorized},
		{"student search", http.MethodGet, search, "student", http.StatusOK},
		{"student analytics", http.MethodGet, "/api/v1/analytics/summary", "student", http.StatusForbidden},
		{"teacher analytics", http.MethodGet, "/api/v1/analytics/summary", "teacher", http.StatusOK},
		{"teacher system metrics", http.MethodGet, "/api/v1/analytics/system", "teacher", http.StatusOK},
		{"student admin", http.MethodDelete, "/api/v1/admin/activities", "student", http.StatusForbidden},
		{"public download", http.MethodGet, "/api/v1/reports/download?token=abc", "", http.StatusOK},
		{"download without token", http.MethodGet, "/api/v1/reports/download", "", http.StatusBadRequest},
		{"unknown textbook", http.MethodGet, "/api/v1/content/textbooks/none/units", "student", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, serve(r, tc.method, tc.target, tc.token).Code)
		})
	}
}

func TestRouterViewLessonRecordsActivity(t *testing.T) {
	sink := &recordingSink{}
	r := newTestRouter(t, &dataMock{}, sink)

	w := serve(r, http.MethodGet, "/api/v1/lessons/l2?module="+url.QueryEscape("案例库"), "student")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, sink.activities, 1)
	assert.Equal(t, models.ActivityViewContent, sink.activities[0].ActivityType)
	assert.Equal(t, "案例库", sink.activities[0].ModuleName)
	assert.Equal(t, "l2", sink.activities[0].ContentID)

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/v1/lessons/missing", "student").Code)
}

func TestRouterDataManagement(t *testing.T) {
	data := &dataMock{}
	r := newTestRouter(t, data, &recordingSink{})

	w := serve(r, http.MethodDelete, "/api/v1/admin/students/2024001", "teacher")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024001", data.deleted)

	w = serve(r, http.MethodGet, "/api/v1/admin/exports/activities?format=csv", "teacher")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="activities.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "timestamp\n", w.Body.String())

	w = serve(r, http.MethodDelete, "/api/v1/admin/activities", "teacher")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":7`)
}
