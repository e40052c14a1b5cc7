package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/internal/repository"
)

const (
	dayLayout       = "2006-01-02"
	maxTrendDays    = 366
	recentWindow    = 7
	defaultBoardLen = 10
	studentSliceLen = 20
)

// AnalyticsRepository describes the grouped reads required by AnalyticsService.
type AnalyticsRepository interface {
	Available() bool
	CountStudents(ctx context.Context) (int, error)
	ActivityBuckets(ctx context.Context, filter repository.BucketFilter) ([]models.ActivityBucket, error)
	StudentTypeCounts(ctx context.Context, studentID, module string) ([]repository.TypeCount, error)
}

// ActivityReader lists a student's activities most-recent-first.
type ActivityReader interface {
	ActivitiesOf(ctx context.Context, studentID, module string, limit int) ([]models.Activity, error)
}

// AnalyticsService shapes grouped activity rows into dashboard payloads. Every
// method degrades to its empty default when the store is offline or a query
// fails; the returned bool reports that degradation.
type AnalyticsService struct {
	repo       AnalyticsRepository
	activities ActivityReader
	moduleTags []string
	logger     *zap.Logger
	now        func() time.Time
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(repo AnalyticsRepository, activities ActivityReader, moduleTags []string, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		repo:       repo,
		activities: activities,
		moduleTags: moduleTags,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the clock used for local day bucketing.
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	s.now = now
	return s
}

func (s *AnalyticsService) today() time.Time {
	now := s.now().In(time.Local)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
}

// daysAgo returns the local date n days before today.
func (s *AnalyticsService) daysAgo(n int) string {
	return s.today().AddDate(0, 0, -n).Format(dayLayout)
}

func (s *AnalyticsService) degraded(op string, err error) {
	if err == nil {
		s.logger.Warn("analytics degraded: graph store offline", zap.String("op", op))
		return
	}
	s.logger.Warn("analytics degraded", zap.String("op", op), zap.Error(err))
}

// ActivitySummary returns the dashboard headline. Active students are the
// distinct students with at least one activity in the last seven local days.
func (s *AnalyticsService) ActivitySummary(ctx context.Context) (models.ActivitySummary, bool) {
	if !s.repo.Available() {
		s.degraded("summary", nil)
		return models.ActivitySummary{}, true
	}
	students, err := s.repo.CountStudents(ctx)
	if err != nil {
		s.degraded("summary", err)
		return models.ActivitySummary{}, true
	}
	buckets, err := s.repo.ActivityBuckets(ctx, repository.BucketFilter{})
	if err != nil {
		s.degraded("summary", err)
		return models.ActivitySummary{}, true
	}

	today := s.daysAgo(0)
	since := s.daysAgo(recentWindow - 1)
	summary := models.ActivitySummary{TotalStudents: students}
	active := map[string]struct{}{}
	for _, b := range buckets {
		summary.TotalActivities += b.Visits
		if b.Day == today {
			summary.TodayActivities += b.Visits
		}
		if b.Day >= since {
			active[b.StudentID] = struct{}{}
		}
	}
	summary.ActiveStudents7d = len(active)
	return summary, false
}

// DailyTrend returns exactly days entries covering [today-days+1, today],
// zero-filled. days is clamped to 1..366.
func (s *AnalyticsService) DailyTrend(ctx context.Context, days int) ([]models.DailyCount, bool) {
	if days < 1 {
		days = 1
	}
	if days > maxTrendDays {
		days = maxTrendDays
	}
	trend := make([]models.DailyCount, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := s.daysAgo(days - 1 - i)
		trend[i] = models.DailyCount{Date: date}
		index[date] = i
	}

	if !s.repo.Available() {
		s.degraded("trend", nil)
		return trend, true
	}
	buckets, err := s.repo.ActivityBuckets(ctx, repository.BucketFilter{Since: trend[0].Date})
	if err != nil {
		s.degraded("trend", err)
		return trend, true
	}
	for _, b := range buckets {
		if i, ok := index[b.Day]; ok {
			trend[i].Count += b.Visits
		}
	}
	return trend, false
}

// ModuleStatistics aggregates one module. The legacy spelling of a module is
// counted with its canonical name.
func (s *AnalyticsService) ModuleStatistics(ctx context.Context, module string) (models.ModuleStats, bool) {
	if !s.repo.Available() {
		s.degraded("module_statistics", nil)
		return models.ModuleStats{}, true
	}
	buckets, err := s.repo.ActivityBuckets(ctx, repository.BucketFilter{Module: models.CanonicalModule(module)})
	if err != nil {
		s.degraded("module_statistics", err)
		return models.ModuleStats{}, true
	}
	acc := newModuleAccumulator(s.daysAgo(recentWindow - 1))
	for _, b := range buckets {
		acc.add(b)
	}
	return acc.stats(), false
}

// AllModulesStatistics aggregates every module in one round trip. Configured
// tags are always present; anything outside the tag set folds into "other".
func (s *AnalyticsService) AllModulesStatistics(ctx context.Context) (map[string]models.ModuleStats, bool) {
	out := make(map[string]models.ModuleStats, len(s.moduleTags)+1)
	known := make(map[string]struct{}, len(s.moduleTags))
	for _, tag := range s.moduleTags {
		canonical := models.CanonicalModule(tag)
		known[canonical] = struct{}{}
		out[canonical] = models.ModuleStats{}
	}

	if !s.repo.Available() {
		s.degraded("all_modules_statistics", nil)
		return out, true
	}
	buckets, err := s.repo.ActivityBuckets(ctx, repository.BucketFilter{})
	if err != nil {
		s.degraded("all_modules_statistics", err)
		return out, true
	}

	since := s.daysAgo(recentWindow - 1)
	accs := map[string]*moduleAccumulator{}
	for _, b := range buckets {
		module := b.ModuleName
		if _, ok := known[module]; !ok {
			module = models.ModuleOther
		}
		acc, ok := accs[module]
		if !ok {
			acc = newModuleAccumulator(since)
			accs[module] = acc
		}
		acc.add(b)
	}
	for module, acc := range accs {
		out[module] = acc.stats()
	}
	return out, false
}

type moduleAccumulator struct {
	since    string
	visits   int
	recent   int
	students map[string]struct{}
}

func newModuleAccumulator(since string) *moduleAccumulator {
	return &moduleAccumulator{since: since, students: map[string]struct{}{}}
}

func (a *moduleAccumulator) add(b models.ActivityBucket) {
	a.visits += b.Visits
	a.students[b.StudentID] = struct{}{}
	if b.Day >= a.since {
		a.recent += b.Visits
	}
}

func (a *moduleAccumulator) stats() models.ModuleStats {
	stats := models.ModuleStats{
		TotalVisits:    a.visits,
		UniqueStudents: len(a.students),
		Recent7dVisits: a.recent,
	}
	if stats.UniqueStudents > 0 {
		stats.AvgVisitsPerStudent = math.Round(float64(a.visits)/float64(stats.UniqueStudents)*10) / 10
	}
	return stats
}

// Leaderboard ranks students by activity count, ties broken by student id.
// An empty module ranks across all modules.
func (s *AnalyticsService) Leaderboard(ctx context.Context, module string, limit int) ([]models.LeaderboardEntry, bool) {
	if limit <= 0 {
		limit = defaultBoardLen
	}
	if !s.repo.Available() {
		s.degraded("leaderboard", nil)
		return []models.LeaderboardEntry{}, true
	}
	buckets, err := s.repo.ActivityBuckets(ctx, repository.BucketFilter{Module: models.CanonicalModule(module)})
	if err != nil {
		s.degraded("leaderboard", err)
		return []models.LeaderboardEntry{}, true
	}

	entries := map[string]*models.LeaderboardEntry{}
	days := map[string]map[string]struct{}{}
	for _, b := range buckets {
		entry, ok := entries[b.StudentID]
		if !ok {
			entry = &models.LeaderboardEntry{StudentID: b.StudentID, Name: b.Name}
			entries[b.StudentID] = entry
			days[b.StudentID] = map[string]struct{}{}
		}
		entry.ActivityCount += b.Visits
		days[b.StudentID][b.Day] = struct{}{}
	}

	board := make([]models.LeaderboardEntry, 0, len(entries))
	for id, entry := range entries {
		entry.ActiveDays = len(days[id])
		board = append(board, *entry)
	}
	sort.Slice(board, func(i, j int) bool {
		if board[i].ActivityCount != board[j].ActivityCount {
			return board[i].ActivityCount > board[j].ActivityCount
		}
		return board[i].StudentID < board[j].StudentID
	})
	if len(board) > limit {
		board = board[:limit]
	}
	return board, false
}

// StudentActivities lists a student's activities most-recent-first.
func (s *AnalyticsService) StudentActivities(ctx context.Context, studentID, module string, limit int) ([]models.Activity, bool) {
	if !s.repo.Available() {
		s.degraded("student_activities", nil)
		return []models.Activity{}, true
	}
	activities, err := s.activities.ActivitiesOf(ctx, studentID, models.CanonicalModule(module), limit)
	if err != nil {
		s.degraded("student_activities", err)
		return []models.Activity{}, true
	}
	return activities, false
}

// StudentInModule is the teacher's drill-down: the last activities of a
// student in one module with counters over the whole slice.
func (s *AnalyticsService) StudentInModule(ctx context.Context, studentID, module string) (models.StudentModuleAnalysis, bool) {
	module = models.CanonicalModule(module)
	analysis := models.StudentModuleAnalysis{
		StudentID:  studentID,
		ModuleName: module,
		Activities: []models.Activity{},
		Counters:   models.StudentCounters{ByType: map[string]int{}},
	}
	if !s.repo.Available() {
		s.degraded("student_in_module", nil)
		return analysis, true
	}
	activities, err := s.activities.ActivitiesOf(ctx, studentID, module, studentSliceLen)
	if err != nil {
		s.degraded("student_in_module", err)
		return analysis, true
	}
	counts, err := s.repo.StudentTypeCounts(ctx, studentID, module)
	if err != nil {
		s.degraded("student_in_module", err)
		return analysis, true
	}
	analysis.Activities = activities
	analysis.Counters = studentCounters(counts)
	return analysis, false
}

func studentCounters(counts []repository.TypeCount) models.StudentCounters {
	counters := models.StudentCounters{ByType: make(map[string]int, len(counts))}
	days := map[string]struct{}{}
	for _, c := range counts {
		counters.Total += c.Count
		counters.ByType[c.ActivityType] += c.Count
		for _, d := range c.Days {
			days[d] = struct{}{}
		}
		if !c.FirstSeen.IsZero() && (counters.FirstSeen == nil || c.FirstSeen.Before(*counters.FirstSeen)) {
			first := c.FirstSeen
			counters.FirstSeen = &first
		}
		if !c.LastSeen.IsZero() && (counters.LastSeen == nil || c.LastSeen.After(*counters.LastSeen)) {
			last := c.LastSeen
			counters.LastSeen = &last
		}
	}
	counters.ActiveDays = len(days)
	return counters
}
