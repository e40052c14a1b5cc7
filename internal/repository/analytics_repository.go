package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/pkg/graphdb"
)

// dayExpr buckets a stored timestamp into its local calendar day. Legacy
// string timestamps share the same yyyy-mm-dd prefix.
const dayExpr = `substring(toString(a.timestamp), 0, 10)`

// AnalyticsRepository exposes read-only grouped queries. Shaping into
// dashboard payloads happens in the analytics service.
type AnalyticsRepository struct {
	graph graphdb.Runner
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(graph graphdb.Runner) *AnalyticsRepository {
	return &AnalyticsRepository{graph: graph}
}

// Available reports whether the backing store can answer queries.
func (r *AnalyticsRepository) Available() bool {
	return r.graph.Available()
}

// CountStudents counts every student node, with or without activities.
func (r *AnalyticsRepository) CountStudents(ctx context.Context) (int, error) {
	rows, err := r.graph.Read(ctx, graphdb.Query{
		Name:   "count_students",
		Cypher: `MATCH (s:#Student) RETURN count(s) AS n`,
	})
	if err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Int("n"), nil
}

// BucketFilter narrows ActivityBuckets. Zero values select everything.
type BucketFilter struct {
	Module string
	Since  string // yyyy-mm-dd, inclusive
}

// ActivityBuckets groups activities by student, module and local day.
func (r *AnalyticsRepository) ActivityBuckets(ctx context.Context, filter BucketFilter) ([]models.ActivityBucket, error) {
	var modules any
	if filter.Module != "" {
		modules = moduleAliases(filter.Module)
	}
	rows, err := r.graph.Read(ctx, graphdb.Query{
		Name: "activity_buckets",
		Cypher: `
MATCH (s:#Student)-[:PERFORMED]->(a:#Activity)
WITH s, a, coalesce(a.module_name, a.module, '') AS module_name, ` + dayExpr + ` AS day
WHERE ($modules IS NULL OR module_name IN $modules) AND ($since = '' OR day >= $since)
RETURN s.student_id AS student_id, coalesce(s.name, '') AS name, module_name, day, count(a) AS visits`,
		Params: map[string]any{"modules": modules, "since": filter.Since},
	})
	if err != nil {
		return nil, fmt.Errorf("activity buckets: %w", err)
	}

	out := make([]models.ActivityBucket, 0, len(rows))
	for _, rec := range rows {
		out = append(out, models.ActivityBucket{
			StudentID:  rec.String("student_id"),
			Name:       rec.String("name"),
			ModuleName: models.CanonicalModule(rec.String("module_name")),
			Day:        rec.String("day"),
			Visits:     rec.Int("visits"),
		})
	}
	return out, nil
}

// TypeCount is one activity type of a student's slice with its span.
type TypeCount struct {
	ActivityType string
	Count        int
	Days         []string
	FirstSeen    time.Time
	LastSeen     time.Time
}

// StudentTypeCounts groups a student's activities by type. An empty module
// covers every module.
func (r *AnalyticsRepository) StudentTypeCounts(ctx context.Context, studentID, module string) ([]TypeCount, error) {
	var modules any
	if module != "" {
		modules = moduleAliases(module)
	}
	rows, err := r.graph.Read(ctx, graphdb.Query{
		Name: "student_type_counts",
		Cypher: `
MATCH (s:#Student {student_id: $student_id})-[:PERFORMED]->(a:#Activity)
WITH a, coalesce(a.module_name, a.module) AS module_name, coalesce(a.activity_type, a.type, 'unknown') AS activity_type
WHERE $modules IS NULL OR module_name IN $modules
RETURN activity_type, count(a) AS n, collect(DISTINCT ` + dayExpr + `) AS days,
       min(a.timestamp) AS first_seen, max(a.timestamp) AS last_seen`,
		Params: map[string]any{"student_id": studentID, "modules": modules},
	})
	if err != nil {
		return nil, fmt.Errorf("student type counts: %w", err)
	}

	out := make([]TypeCount, 0, len(rows))
	for _, rec := range rows {
		out = append(out, TypeCount{
			ActivityType: rec.String("activity_type"),
			Count:        rec.Int("n"),
			Days:         rec.Strings("days"),
			FirstSeen:    rec.Time("first_seen"),
			LastSeen:     rec.Time("last_seen"),
		})
	}
	return out, nil
}
