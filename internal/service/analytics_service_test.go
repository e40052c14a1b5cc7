package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/internal/repository"
	"github.com/noah-isme/lakgs-api/pkg/config"
)

type fakeAnalyticsRepo struct {
	mu         sync.Mutex
	offline    bool
	students   int
	buckets    []models.ActivityBucket
	typeCounts []repository.TypeCount
	activities []models.Activity
	err        error
	filters    []repository.BucketFilter
}

func (f *fakeAnalyticsRepo) Available() bool { return !f.offline }

func (f *fakeAnalyticsRepo) CountStudents(context.Context) (int, error) {
	return f.students, f.err
}

func (f *fakeAnalyticsRepo) ActivityBuckets(_ context.Context, filter repository.BucketFilter) ([]models.ActivityBucket, error) {
	f.mu.Lock()
	f.filters = append(f.filters, filter)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.ActivityBucket
	for _, b := range f.buckets {
		if filter.Module != "" && b.ModuleName != filter.Module {
			continue
		}
		if filter.Since != "" && b.Day < filter.Since {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeAnalyticsRepo) StudentTypeCounts(context.Context, string, string) ([]repository.TypeCount, error) {
	return f.typeCounts, f.err
}

func (f *fakeAnalyticsRepo) ActivitiesOf(context.Context, string, string, int) ([]models.Activity, error) {
	return f.activities, f.err
}

var fixedNow = time.Date(2024, 5, 10, 15, 30, 0, 0, time.Local)

func newTestAnalytics(repo *fakeAnalyticsRepo) *AnalyticsService {
	return NewAnalyticsService(repo, repo, config.DefaultModuleTags, zap.NewNop()).
		WithClock(func() time.Time { return fixedNow })
}

func TestModuleStatisticsScenario(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		students: 1,
		buckets: []models.ActivityBucket{
			{StudentID: "2024001", ModuleName: "案例库", Day: "2024-05-10", Visits: 3},
			{StudentID: "2024001", ModuleName: "知识图谱", Day: "2024-05-10", Visits: 1},
		},
	}
	svc := newTestAnalytics(repo)

	stats, degraded := svc.ModuleStatistics(context.Background(), "案例库")
	require.False(t, degraded)
	assert.Equal(t, models.ModuleStats{TotalVisits: 3, UniqueStudents: 1, AvgVisitsPerStudent: 3.0, Recent7dVisits: 3}, stats)

	stats, _ = svc.ModuleStatistics(context.Background(), "知识图谱")
	assert.Equal(t, 1, stats.TotalVisits)

	summary, degraded := svc.ActivitySummary(context.Background())
	require.False(t, degraded)
	assert.Equal(t, 4, summary.TotalActivities)
	assert.Equal(t, 4, summary.TodayActivities)
	assert.Equal(t, 1, summary.ActiveStudents7d)
}

func TestModuleStatisticsRoundsAverageAndWindowsRecentVisits(t *testing.T) {
	repo := &fakeAnalyticsRepo{buckets: []models.ActivityBucket{
		{StudentID: "a", ModuleName: "m", Day: "2024-05-10", Visits: 2},
		{StudentID: "b", ModuleName: "m", Day: "2024-05-04", Visits: 3},
		{StudentID: "c", ModuleName: "m", Day: "2024-05-03", Visits: 5},
	}}
	stats, _ := newTestAnalytics(repo).ModuleStatistics(context.Background(), "m")
	assert.Equal(t, 10, stats.TotalVisits)
	assert.Equal(t, 3, stats.UniqueStudents)
	assert.Equal(t, 3.3, stats.AvgVisitsPerStudent)
	assert.Equal(t, 5, stats.Recent7dVisits)
}

func TestModuleStatisticsWithoutStudentsIsZero(t *testing.T) {
	stats, degraded := newTestAnalytics(&fakeAnalyticsRepo{}).ModuleStatistics(context.Background(), "m")
	assert.False(t, degraded)
	assert.Equal(t, models.ModuleStats{}, stats)
}

func TestModuleStatisticsQueriesCanonicalName(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	newTestAnalytics(repo).ModuleStatistics(context.Background(), models.LegacyModuleAssessment)
	require.Len(t, repo.filters, 1)
	assert.Equal(t, models.ModuleAssessment, repo.filters[0].Module)
}

func TestLeaderboardScenario(t *testing.T) {
	repo := &fakeAnalyticsRepo{buckets: []models.ActivityBucket{
		{StudentID: "C", Name: "丙", ModuleName: "m", Day: "2024-05-01", Visits: 1},
		{StudentID: "C", Name: "丙", ModuleName: "m", Day: "2024-05-02", Visits: 1},
		{StudentID: "C", Name: "丙", ModuleName: "m", Day: "2024-05-03", Visits: 1},
		{StudentID: "B", Name: "乙", ModuleName: "m", Day: "2024-05-05", Visits: 5},
		{StudentID: "A", Name: "甲", ModuleName: "m", Day: "2024-05-05", Visits: 2},
		{StudentID: "A", Name: "甲", ModuleName: "x", Day: "2024-05-06", Visits: 3},
	}}
	board, degraded := newTestAnalytics(repo).Leaderboard(context.Background(), "", 3)
	require.False(t, degraded)
	require.Len(t, board, 3)

	assert.Equal(t, []string{"A", "B", "C"}, []string{board[0].StudentID, board[1].StudentID, board[2].StudentID})
	assert.Equal(t, []int{5, 5, 3}, []int{board[0].ActivityCount, board[1].ActivityCount, board[2].ActivityCount})
	assert.Equal(t, []int{2, 1, 3}, []int{board[0].ActiveDays, board[1].ActiveDays, board[2].ActiveDays})
	assert.Equal(t, "甲", board[0].Name)

	limited, _ := newTestAnalytics(repo).Leaderboard(context.Background(), "", 1)
	assert.Len(t, limited, 1)
}

func TestDailyTrendIsZeroFilled(t *testing.T) {
	repo := &fakeAnalyticsRepo{buckets: []models.ActivityBucket{
		{StudentID: "a", Day: "2024-05-10", Visits: 2},
		{StudentID: "b", Day: "2024-05-10", Visits: 1},
		{StudentID: "a", Day: "2024-05-08", Visits: 4},
		{StudentID: "a", Day: "2024-04-01", Visits: 9},
	}}
	trend, degraded := newTestAnalytics(repo).DailyTrend(context.Background(), 3)
	require.False(t, degraded)
	assert.Equal(t, []models.DailyCount{
		{Date: "2024-05-08", Count: 4},
		{Date: "2024-05-09", Count: 0},
		{Date: "2024-05-10", Count: 3},
	}, trend)
	assert.Equal(t, "2024-05-08", repo.filters[0].Since)
}

func TestDailyTrendClampsWindow(t *testing.T) {
	svc := newTestAnalytics(&fakeAnalyticsRepo{})

	trend, _ := svc.DailyTrend(context.Background(), 0)
	assert.Equal(t, []models.DailyCount{{Date: "2024-05-10", Count: 0}}, trend)

	trend, _ = svc.DailyTrend(context.Background(), 1000)
	assert.Len(t, trend, 366)
	assert.Equal(t, "2024-05-10", trend[365].Date)
}

func TestAllModulesStatisticsFoldsUnknownIntoOther(t *testing.T) {
	repo := &fakeAnalyticsRepo{buckets: []models.ActivityBucket{
		{StudentID: "a", ModuleName: models.ModuleAssessment, Day: "2024-05-10", Visits: 2},
		{StudentID: "a", ModuleName: "未知模块", Day: "2024-05-10", Visits: 1},
		{StudentID: "b", ModuleName: "", Day: "2024-05-09", Visits: 1},
	}}
	stats, degraded := newTestAnalytics(repo).AllModulesStatistics(context.Background())
	require.False(t, degraded)

	assert.Equal(t, 2, stats[models.ModuleAssessment].TotalVisits)
	assert.Equal(t, 2, stats[models.ModuleOther].TotalVisits)
	assert.Equal(t, 2, stats[models.ModuleOther].UniqueStudents)
	_, legacy := stats[models.LegacyModuleAssessment]
	assert.False(t, legacy)
	for _, tag := range config.DefaultModuleTags {
		_, ok := stats[models.CanonicalModule(tag)]
		assert.True(t, ok, tag)
	}
	assert.Len(t, repo.filters, 1)
}

func TestAnalyticsDegradesWhenStoreOffline(t *testing.T) {
	repo := &fakeAnalyticsRepo{offline: true}
	svc := newTestAnalytics(repo)
	ctx := context.Background()

	summary, degraded := svc.ActivitySummary(ctx)
	assert.True(t, degraded)
	assert.Equal(t, models.ActivitySummary{}, summary)

	trend, degraded := svc.DailyTrend(ctx, 7)
	assert.True(t, degraded)
	assert.Len(t, trend, 7)

	board, degraded := svc.Leaderboard(ctx, "", 5)
	assert.True(t, degraded)
	assert.Empty(t, board)
	assert.NotNil(t, board)

	assert.Empty(t, repo.filters)
}

func TestAnalyticsDegradesOnQueryFailure(t *testing.T) {
	repo := &fakeAnalyticsRepo{err: errors.New("boom")}
	svc := newTestAnalytics(repo)

	stats, degraded := svc.ModuleStatistics(context.Background(), "m")
	assert.True(t, degraded)
	assert.Equal(t, models.ModuleStats{}, stats)

	analysis, degraded := svc.StudentInModule(context.Background(), "s1", "m")
	assert.True(t, degraded)
	assert.Empty(t, analysis.Activities)
	assert.NotNil(t, analysis.Counters.ByType)
}

func TestStudentInModuleCounters(t *testing.T) {
	first := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	last := time.Date(2024, 5, 9, 18, 0, 0, 0, time.Local)
	repo := &fakeAnalyticsRepo{
		activities: []models.Activity{{ID: "a2"}, {ID: "a1"}},
		typeCounts: []repository.TypeCount{
			{ActivityType: models.ActivityViewContent, Count: 3, Days: []string{"2024-05-01", "2024-05-02"}, FirstSeen: first, LastSeen: first.Add(24 * time.Hour)},
			{ActivityType: models.ActivityEnterModule, Count: 2, Days: []string{"2024-05-02", "2024-05-09"}, FirstSeen: first.Add(time.Hour), LastSeen: last},
		},
	}
	analysis, degraded := newTestAnalytics(repo).StudentInModule(context.Background(), "s1", models.LegacyModuleAssessment)
	require.False(t, degraded)

	assert.Equal(t, models.ModuleAssessment, analysis.ModuleName)
	assert.Len(t, analysis.Activities, 2)
	assert.Equal(t, 5, analysis.Counters.Total)
	assert.Equal(t, map[string]int{models.ActivityViewContent: 3, models.ActivityEnterModule: 2}, analysis.Counters.ByType)
	assert.Equal(t, 3, analysis.Counters.ActiveDays)
	require.NotNil(t, analysis.Counters.FirstSeen)
	require.NotNil(t, analysis.Counters.LastSeen)
	assert.True(t, analysis.Counters.FirstSeen.Equal(first))
	assert.True(t, analysis.Counters.LastSeen.Equal(last))
}
