package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/content"
	"github.com/noah-isme/lakgs-api/internal/dto"
	"github.com/noah-isme/lakgs-api/internal/llm"
	"github.com/noah-isme/lakgs-api/internal/models"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
	"github.com/noah-isme/lakgs-api/pkg/storage"
)

func newTestReports(t *testing.T, repo *fakeAnalyticsRepo, mediator *fakeMediator) *ReportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	contentRepo := content.Load(contentFixture, zap.NewNop())
	knowledge := NewKnowledgeService(contentRepo, content.DefaultTopicTable(), content.TopicLimits{}, nil, zap.NewNop())
	return NewReportService(newTestAnalytics(repo), contentRepo, knowledge, mediator, store, signer, nil, zap.NewNop(),
		ReportServiceConfig{DownloadPath: "/api/v1/reports/download"})
}

func tokenOf(t *testing.T, downloadURL string) string {
	t.Helper()
	parsed, err := url.Parse(downloadURL)
	require.NoError(t, err)
	return parsed.Query().Get("token")
}

func TestReportGenerateStoresAndDownloads(t *testing.T) {
	repo := &fakeAnalyticsRepo{students: 2, buckets: []models.ActivityBucket{
		{StudentID: "a", Name: "甲", ModuleName: "案例库", Day: "2024-05-10", Visits: 3},
	}}
	mediator := &fakeMediator{reply: "# 报告\n整体良好"}
	svc := newTestReports(t, repo, mediator)

	report, err := svc.Generate(context.Background(), dto.ReportRequest{Scope: "overall"})
	require.NoError(t, err)
	assert.Equal(t, "# 报告\n整体良好", report.Markdown)
	assert.False(t, report.Degraded)
	require.NotNil(t, report.ExpiresAt)
	assert.True(t, strings.HasPrefix(report.DownloadURL, "/api/v1/reports/download?token="))

	require.Len(t, mediator.prompts, 1)
	assert.Contains(t, mediator.prompts[0], "全班整体")
	assert.Contains(t, mediator.prompts[0], `"total_students": 2`)

	download, err := svc.Download(context.Background(), tokenOf(t, report.DownloadURL))
	require.NoError(t, err)
	assert.Equal(t, report.Markdown, string(download.Data))
	assert.Equal(t, "report-overall-"+report.ID+".md", download.Filename)

	_, err = svc.Download(context.Background(), "forged.token.value.sig")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestReportFallsBackToStatisticsWhenLLMUnavailable(t *testing.T) {
	repo := &fakeAnalyticsRepo{buckets: []models.ActivityBucket{
		{StudentID: "a", Name: "甲", ModuleName: "案例库", Day: "2024-05-10", Visits: 3},
	}}
	svc := newTestReports(t, repo, &fakeMediator{err: llm.ErrUnavailable})

	report, err := svc.Generate(context.Background(), dto.ReportRequest{Scope: "module", Key: "案例库"})
	require.NoError(t, err)
	assert.True(t, report.Degraded)
	assert.Contains(t, report.Markdown, "模块「案例库」")
	assert.Contains(t, report.Markdown, "访问次数：3")
	assert.NotEmpty(t, report.DownloadURL)
}

func TestReportMarksOfflineStoreAsDegraded(t *testing.T) {
	mediator := &fakeMediator{reply: "# 报告"}
	svc := newTestReports(t, &fakeAnalyticsRepo{offline: true}, mediator)

	report, err := svc.Generate(context.Background(), dto.ReportRequest{Scope: "student", Key: "2024001"})
	require.NoError(t, err)
	assert.True(t, report.Degraded)
	assert.Contains(t, mediator.prompts[0], "数据库离线")
}

func TestReportPromptCarriesContentSamples(t *testing.T) {
	repo := &fakeAnalyticsRepo{activities: []models.Activity{
		{StudentID: "2024001", ActivityType: models.ActivityViewContent, ModuleName: "知识图谱", ContentID: "l3", ContentName: "第6课 从隋唐盛世到五代十国"},
		{StudentID: "2024001", ActivityType: models.ActivityViewContent, ModuleName: "知识图谱", ContentID: "e3", ContentName: "隋朝开创科举制"},
	}}
	mediator := &fakeMediator{reply: "# 报告"}
	svc := newTestReports(t, repo, mediator)

	_, err := svc.Generate(context.Background(), dto.ReportRequest{Scope: "student", Key: "2024001"})
	require.NoError(t, err)
	require.Len(t, mediator.prompts, 1)
	assert.Contains(t, mediator.prompts[0], `"samples"`)
	assert.Contains(t, mediator.prompts[0], "隋朝创立科举制，唐朝完善三省六部制。")
	assert.Contains(t, mediator.prompts[0], `"year_text": "605年"`)
}

func TestReportSamplesFallBackToTopic(t *testing.T) {
	mediator := &fakeMediator{err: llm.ErrUnavailable}
	svc := newTestReports(t, &fakeAnalyticsRepo{}, mediator)

	report, err := svc.Generate(context.Background(), dto.ReportRequest{Scope: "module", Key: "案例库"})
	require.NoError(t, err)
	assert.Contains(t, report.Markdown, "## 相关内容")
	assert.Contains(t, report.Markdown, "秦朝")
}

func TestReportValidation(t *testing.T) {
	svc := newTestReports(t, &fakeAnalyticsRepo{}, &fakeMediator{})

	_, err := svc.Generate(context.Background(), dto.ReportRequest{Scope: "student"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key")

	_, err = svc.Generate(context.Background(), dto.ReportRequest{Scope: "class"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestReportSurfacesRateLimit(t *testing.T) {
	svc := newTestReports(t, &fakeAnalyticsRepo{}, &fakeMediator{err: llm.ErrRateLimited})
	_, err := svc.Generate(context.Background(), dto.ReportRequest{Scope: "overall"})
	assert.True(t, errors.Is(err, appErrors.ErrRateLimited))
}
