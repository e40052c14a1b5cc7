package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/pkg/graphdb"
)

// ErrNoRows is returned when a lookup or guarded write matched nothing.
var ErrNoRows = errors.New("repository: no rows")

// ActivityRepository owns students, activities and the PERFORMED edges between them.
type ActivityRepository struct {
	graph graphdb.Runner
	now   func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewActivityRepository constructs an ActivityRepository.
func NewActivityRepository(graph graphdb.Runner) *ActivityRepository {
	return &ActivityRepository{graph: graph, now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (r *ActivityRepository) WithClock(now func() time.Time) *ActivityRepository {
	r.now = now
	return r
}

// timestamp returns a local time that is never earlier than the previous one.
func (r *ActivityRepository) timestamp() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	ts := r.now().In(time.Local)
	if !ts.After(r.last) {
		ts = r.last.Add(time.Microsecond)
	}
	r.last = ts
	return ts
}

const upsertStudentCypher = `
MERGE (s:#Student {student_id: $student_id})
ON CREATE SET s.login_count = 1, s.role = 'student'
ON MATCH SET s.login_count = coalesce(s.login_count, 0) + 1
SET s.last_login = $now,
    s.name = CASE WHEN $name = '' THEN coalesce(s.name, '') ELSE $name END
RETURN s.student_id AS student_id, s.name AS name, s.login_count AS login_count,
       s.last_login AS last_login, s.role AS role`

// UpsertStudent creates the student on first login and bumps login counters afterwards.
// An empty name keeps the stored one.
func (r *ActivityRepository) UpsertStudent(ctx context.Context, studentID, name string) (*models.Student, error) {
	rows, err := r.graph.Write(ctx, graphdb.Query{
		Name:   "upsert_student",
		Cypher: upsertStudentCypher,
		Params: map[string]any{"student_id": studentID, "name": name, "now": graphdb.FormatTime(r.timestamp())},
	})
	if err != nil {
		return nil, fmt.Errorf("upsert student: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("upsert student: %w", ErrNoRows)
	}
	return studentFromRecord(rows[0]), nil
}

// GetStudent loads a student by id.
func (r *ActivityRepository) GetStudent(ctx context.Context, studentID string) (*models.Student, error) {
	rows, err := r.graph.Read(ctx, graphdb.Query{
		Name: "get_student",
		Cypher: `
MATCH (s:#Student {student_id: $student_id})
RETURN s.student_id AS student_id, s.name AS name, s.login_count AS login_count,
       s.last_login AS last_login, s.role AS role`,
		Params: map[string]any{"student_id": studentID},
	})
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return studentFromRecord(rows[0]), nil
}

func studentFromRecord(rec graphdb.Record) *models.Student {
	role := models.Role(rec.String("role"))
	if role == "" {
		role = models.RoleStudent
	}
	return &models.Student{
		StudentID:  rec.String("student_id"),
		Name:       rec.String("name"),
		LoginCount: rec.Int("login_count"),
		LastLogin:  rec.Time("last_login"),
		Role:       role,
	}
}

const logActivityCypher = `
MATCH (s:#Student {student_id: $student_id})
CREATE (a:#Activity {
  id: $id, activity_type: $activity_type, module_name: $module_name,
  content_id: $content_id, content_name: $content_name, details: $details,
  timestamp: $timestamp
})
CREATE (s)-[:PERFORMED]->(a)
RETURN a.id AS id`

// Log appends an activity for an existing student. ID and Timestamp are
// assigned here; the stored activity is returned.
func (r *ActivityRepository) Log(ctx context.Context, activity models.Activity) (*models.Activity, error) {
	activity.ID = uuid.NewString()
	activity.Timestamp = r.timestamp()
	activity.ModuleName = models.CanonicalModule(activity.ModuleName)

	rows, err := r.graph.Write(ctx, graphdb.Query{
		Name:   "log_activity",
		Cypher: logActivityCypher,
		Params: map[string]any{
			"student_id":    activity.StudentID,
			"id":            activity.ID,
			"activity_type": activity.ActivityType,
			"module_name":   activity.ModuleName,
			"content_id":    activity.ContentID,
			"content_name":  activity.ContentName,
			"details":       activity.Details,
			"timestamp":     graphdb.FormatTime(activity.Timestamp),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("log activity: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("log activity for %s: %w", activity.StudentID, ErrNoRows)
	}
	return &activity, nil
}

// moduleAliases lists the stored spellings a module filter must match.
func moduleAliases(module string) []string {
	module = models.CanonicalModule(module)
	if module == models.ModuleAssessment {
		return []string{module, models.LegacyModuleAssessment}
	}
	return []string{module}
}

const activityColumns = `
RETURN s.student_id AS student_id, a.id AS id, activity_type, module_name,
       a.content_id AS content_id, a.content_name AS content_name,
       a.details AS details, a.timestamp AS timestamp
ORDER BY a.timestamp DESC
LIMIT $limit`

// ActivitiesOf returns a student's activities, most recent first. An empty
// module returns every module. Legacy property names are read through coalesce.
func (r *ActivityRepository) ActivitiesOf(ctx context.Context, studentID, module string, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 20
	}
	var modules any
	if module != "" {
		modules = moduleAliases(module)
	}
	rows, err := r.graph.Read(ctx, graphdb.Query{
		Name: "activities_of_student",
		Cypher: `
MATCH (s:#Student {student_id: $student_id})-[:PERFORMED]->(a:#Activity)
WITH s, a, coalesce(a.module_name, a.module) AS module_name, coalesce(a.activity_type, a.type) AS activity_type
WHERE $modules IS NULL OR module_name IN $modules` + activityColumns,
		Params: map[string]any{"student_id": studentID, "modules": modules, "limit": limit},
	})
	if err != nil {
		return nil, fmt.Errorf("activities of %s: %w", studentID, err)
	}
	return activitiesFromRecords(rows), nil
}

// AllActivities returns activities across students, most recent first.
func (r *ActivityRepository) AllActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 10000
	}
	rows, err := r.graph.Read(ctx, graphdb.Query{
		Name: "all_activities",
		Cypher: `
MATCH (s:#Student)-[:PERFORMED]->(a:#Activity)
WITH s, a, coalesce(a.module_name, a.module) AS module_name, coalesce(a.activity_type, a.type) AS activity_type` + activityColumns,
		Params: map[string]any{"limit": limit},
	})
	if err != nil {
		return nil, fmt.Errorf("all activities: %w", err)
	}
	return activitiesFromRecords(rows), nil
}

func activitiesFromRecords(rows []graphdb.Record) []models.Activity {
	out := make([]models.Activity, 0, len(rows))
	for _, rec := range rows {
		out = append(out, models.Activity{
			ID:           rec.String("id"),
			StudentID:    rec.String("student_id"),
			ActivityType: rec.String("activity_type"),
			ModuleName:   models.CanonicalModule(rec.String("module_name")),
			ContentID:    rec.String("content_id"),
			ContentName:  rec.String("content_name"),
			Details:      rec.String("details"),
			Timestamp:    rec.Time("timestamp"),
		})
	}
	return out
}

// DeleteAllActivities removes every activity node and its edges.
func (r *ActivityRepository) DeleteAllActivities(ctx context.Context) (int, error) {
	rows, err := r.graph.Write(ctx, graphdb.Query{
		Name: "delete_all_activities",
		Cypher: `
MATCH (a:#Activity)
DETACH DELETE a
RETURN count(a) AS deleted`,
	})
	if err != nil {
		return 0, fmt.Errorf("delete all activities: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Int("deleted"), nil
}

// DeleteStudent removes a student and their activities in one transaction.
func (r *ActivityRepository) DeleteStudent(ctx context.Context, studentID string) (models.DeleteResult, error) {
	params := map[string]any{"student_id": studentID}
	rows, err := r.graph.Read(ctx, graphdb.Query{
		Name: "count_student_activities",
		Cypher: `
MATCH (s:#Student {student_id: $student_id})
OPTIONAL MATCH (s)-[:PERFORMED]->(a:#Activity)
RETURN count(DISTINCT s) AS students, count(a) AS activities`,
		Params: params,
	})
	if err != nil {
		return models.DeleteResult{}, fmt.Errorf("count student activities: %w", err)
	}
	if len(rows) == 0 || rows[0].Int("students") == 0 {
		return models.DeleteResult{}, ErrNoRows
	}
	result := models.DeleteResult{Students: rows[0].Int("students"), Activities: rows[0].Int("activities")}

	err = r.graph.WriteTx(ctx, "delete_student",
		graphdb.Query{
			Name: "delete_student_activities",
			Cypher: `
MATCH (s:#Student {student_id: $student_id})-[:PERFORMED]->(a:#Activity)
DETACH DELETE a`,
			Params: params,
		},
		graphdb.Query{
			Name: "delete_student_node",
			Cypher: `
MATCH (s:#Student {student_id: $student_id})
DETACH DELETE s`,
			Params: params,
		},
	)
	if err != nil {
		return models.DeleteResult{}, fmt.Errorf("delete student %s: %w", studentID, err)
	}
	return result, nil
}

// FixFieldNames migrates legacy activity properties and the retired module tag.
// Running it twice changes nothing the second time.
func (r *ActivityRepository) FixFieldNames(ctx context.Context) (models.FieldMigrationResult, error) {
	steps := []struct {
		query graphdb.Query
		dest  *int
	}{
		{query: graphdb.Query{Name: "migrate_module_field", Cypher: `
MATCH (a:#Activity) WHERE a.module IS NOT NULL
SET a.module_name = coalesce(a.module_name, a.module)
REMOVE a.module
RETURN count(a) AS n`}},
		{query: graphdb.Query{Name: "migrate_type_field", Cypher: `
MATCH (a:#Activity) WHERE a.type IS NOT NULL
SET a.activity_type = coalesce(a.activity_type, a.type)
REMOVE a.type
RETURN count(a) AS n`}},
		{query: graphdb.Query{Name: "migrate_module_tag", Cypher: `
MATCH (a:#Activity {module_name: $legacy})
SET a.module_name = $canonical
RETURN count(a) AS n`, Params: map[string]any{
			"legacy":    models.LegacyModuleAssessment,
			"canonical": models.ModuleAssessment,
		}}},
	}

	var result models.FieldMigrationResult
	steps[0].dest = &result.ModuleRenamed
	steps[1].dest = &result.TypeRenamed
	steps[2].dest = &result.TagsMigrated

	for _, step := range steps {
		rows, err := r.graph.Write(ctx, step.query)
		if err != nil {
			return result, fmt.Errorf("fix field names: %w", err)
		}
		if len(rows) > 0 {
			*step.dest = rows[0].Int("n")
		}
	}
	return result, nil
}
