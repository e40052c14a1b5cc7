package models

import "time"

// ActivitySummary is the dashboard headline.
type ActivitySummary struct {
	TotalStudents    int `json:"total_students"`
	TotalActivities  int `json:"total_activities"`
	TodayActivities  int `json:"today_activities"`
	ActiveStudents7d int `json:"active_students_7d"`
}

// DailyCount is one day of the activity trend.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ModuleStats aggregates one module.
type ModuleStats struct {
	TotalVisits         int     `json:"total_visits"`
	UniqueStudents      int     `json:"unique_students"`
	AvgVisitsPerStudent float64 `json:"avg_visits_per_student"`
	Recent7dVisits      int     `json:"recent_7d_visits"`
}

// LeaderboardEntry ranks one student.
type LeaderboardEntry struct {
	StudentID     string `json:"student_id"`
	Name          string `json:"name"`
	ActivityCount int    `json:"activity_count"`
	ActiveDays    int    `json:"active_days"`
}

// ActivityBucket is the raw aggregation row: activities of one student in one
// module on one local calendar day.
type ActivityBucket struct {
	StudentID  string
	Name       string
	ModuleName string
	Day        string
	Visits     int
}

// StudentCounters summarises a student's activity slice.
type StudentCounters struct {
	Total      int            `json:"total"`
	ByType     map[string]int `json:"by_type"`
	ActiveDays int            `json:"active_days"`
	FirstSeen  *time.Time     `json:"first_seen,omitempty"`
	LastSeen   *time.Time     `json:"last_seen,omitempty"`
}

// StudentModuleAnalysis is the teacher's drill-down for one student in one module.
type StudentModuleAnalysis struct {
	StudentID  string          `json:"student_id"`
	ModuleName string          `json:"module_name"`
	Activities []Activity      `json:"activities"`
	Counters   StudentCounters `json:"counters"`
}

// SystemMetrics represents process level figures captured from instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	LLMCallCount             uint64    `json:"llm_call_count"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
