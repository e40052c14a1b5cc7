package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/pkg/graphdb"
)

const defaultSyncBatch = 500

// ContentSnapshot is everything content sync writes.
type ContentSnapshot struct {
	Textbooks []models.Textbook
	Units     []models.Unit
	Lessons   []models.Lesson
	Events    []models.Event
	Figures   []models.Figure
	Concepts  []models.Concept
}

// SyncResult counts rows written per statement.
type SyncResult map[string]int

// ContentGraphRepository mirrors the content snapshot into the graph.
type ContentGraphRepository struct {
	graph     graphdb.Runner
	batchSize int
}

// NewContentGraphRepository constructs the repository. A non-positive batch
// size uses the default.
func NewContentGraphRepository(graph graphdb.Runner, batchSize int) *ContentGraphRepository {
	if batchSize <= 0 {
		batchSize = defaultSyncBatch
	}
	return &ContentGraphRepository{graph: graph, batchSize: batchSize}
}

var syncStatements = []struct {
	name   string
	cypher string
}{
	{"sync_textbooks", `
UNWIND $rows AS row
MERGE (b:#Textbook {id: row.id})
SET b.name = row.name, b.type = row.type`},
	{"sync_units", `
UNWIND $rows AS row
MERGE (u:#Unit {id: row.id})
SET u.title = row.title, u.order = row.order, u.book_id = row.book_id
WITH u, row
MATCH (b:#Textbook {id: row.book_id})
MERGE (b)-[:HAS_UNIT]->(u)`},
	{"sync_lessons", `
UNWIND $rows AS row
MERGE (l:#Lesson {id: row.id})
SET l.title = row.title, l.order = row.order, l.unit_id = row.unit_id, l.content = row.content
WITH l, row
MATCH (u:#Unit {id: row.unit_id})
MERGE (u)-[:HAS_LESSON]->(l)`},
	{"sync_events", `
UNWIND $rows AS row
MERGE (e:#Event {id: row.id})
SET e.year = row.year, e.year_text = row.year_text, e.description = row.description
WITH e, row
MATCH (l:#Lesson {id: row.lesson_id})
MERGE (l)-[:MENTIONS_EVENT]->(e)`},
	{"sync_figures", `
UNWIND $rows AS row
MERGE (f:#Figure {id: row.id})
SET f.name = row.name, f.description = row.description
WITH f, row
MATCH (l:#Lesson {id: row.lesson_id})
MERGE (l)-[:MENTIONS_FIGURE]->(f)`},
	{"sync_concepts", `
UNWIND $rows AS row
MERGE (c:#Concept {id: row.id})
SET c.term = row.term, c.category = row.category, c.description = row.description
WITH c, row
MATCH (l:#Lesson {id: row.lesson_id})
MERGE (l)-[:DEFINES_CONCEPT]->(c)`},
	{"sync_lesson_sequence", `
UNWIND $rows AS row
MATCH (a:#Lesson {id: row.from}), (b:#Lesson {id: row.to})
MERGE (a)-[:NEXT]->(b)`},
}

// Sync writes every entity and edge with idempotent MERGE statements.
func (r *ContentGraphRepository) Sync(ctx context.Context, snap ContentSnapshot) (SyncResult, error) {
	rows := [][]map[string]any{
		textbookRows(snap.Textbooks),
		unitRows(snap.Units),
		lessonRows(snap.Lessons),
		eventRows(snap.Events),
		figureRows(snap.Figures),
		conceptRows(snap.Concepts),
		lessonSequence(snap.Lessons),
	}

	result := SyncResult{}
	for i, stmt := range syncStatements {
		for start := 0; start < len(rows[i]); start += r.batchSize {
			end := min(start+r.batchSize, len(rows[i]))
			_, err := r.graph.Write(ctx, graphdb.Query{
				Name:   stmt.name,
				Cypher: stmt.cypher,
				Params: map[string]any{"rows": rows[i][start:end]},
			})
			if err != nil {
				return result, fmt.Errorf("content sync %s: %w", stmt.name, err)
			}
			result[stmt.name] += end - start
		}
	}
	return result, nil
}

func textbookRows(items []models.Textbook) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, b := range items {
		out = append(out, map[string]any{"id": b.ID, "name": b.Name, "type": b.Type})
	}
	return out
}

func unitRows(items []models.Unit) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, u := range items {
		out = append(out, map[string]any{"id": u.ID, "book_id": u.BookID, "title": u.Title, "order": u.Order})
	}
	return out
}

func lessonRows(items []models.Lesson) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, l := range items {
		out = append(out, map[string]any{"id": l.ID, "unit_id": l.UnitID, "title": l.Title, "order": l.Order, "content": l.Content})
	}
	return out
}

func eventRows(items []models.Event) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, e := range items {
		var year any
		if e.Year != nil {
			year = *e.Year
		}
		out = append(out, map[string]any{
			"id": e.ID, "lesson_id": e.LessonID, "year": year, "year_text": e.YearText, "description": e.Description,
		})
	}
	return out
}

func figureRows(items []models.Figure) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, f := range items {
		out = append(out, map[string]any{"id": f.ID, "lesson_id": f.LessonID, "name": f.Name, "description": f.Description})
	}
	return out
}

func conceptRows(items []models.Concept) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, c := range items {
		out = append(out, map[string]any{
			"id": c.ID, "lesson_id": c.LessonID, "term": c.Term, "category": c.Category, "description": c.Description,
		})
	}
	return out
}

// lessonSequence links consecutive lessons of each unit by order.
func lessonSequence(lessons []models.Lesson) []map[string]any {
	byUnit := map[string][]models.Lesson{}
	var units []string
	for _, l := range lessons {
		if _, ok := byUnit[l.UnitID]; !ok {
			units = append(units, l.UnitID)
		}
		byUnit[l.UnitID] = append(byUnit[l.UnitID], l)
	}
	var out []map[string]any
	for _, unit := range units {
		ls := byUnit[unit]
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].Order < ls[j].Order })
		for i := 0; i+1 < len(ls); i++ {
			out = append(out, map[string]any{"from": ls[i].ID, "to": ls[i+1].ID})
		}
	}
	return out
}
