package repository

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/pkg/graphdb"
)

// ClassroomRepository stores classroom questions and the REPLIED edges to them.
type ClassroomRepository struct {
	graph graphdb.Runner
	now   func() time.Time
}

// NewClassroomRepository constructs a ClassroomRepository.
func NewClassroomRepository(graph graphdb.Runner) *ClassroomRepository {
	return &ClassroomRepository{graph: graph, now: time.Now}
}

const questionColumns = `
RETURN q.id AS id, q.text AS text, q.created_at AS created_at, q.status AS status`

// CreateQuestion closes every active question and creates a new active one
// in a single transaction, so at most one question is ever active.
func (r *ClassroomRepository) CreateQuestion(ctx context.Context, text string) (*models.ClassroomQuestion, error) {
	q := &models.ClassroomQuestion{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: r.now().In(time.Local),
		Status:    models.QuestionActive,
	}
	err := r.graph.WriteTx(ctx, "create_classroom_question",
		graphdb.Query{
			Name: "close_active_questions",
			Cypher: `
MATCH (q:#Question {status: 'active'})
SET q.status = 'closed', q.closed_at = $now`,
			Params: map[string]any{"now": graphdb.FormatTime(q.CreatedAt)},
		},
		graphdb.Query{
			Name: "create_question",
			Cypher: `
CREATE (q:#Question {id: $id, text: $text, status: 'active', created_at: $now})`,
			Params: map[string]any{"id": q.ID, "text": q.Text, "now": graphdb.FormatTime(q.CreatedAt)},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create classroom question: %w", err)
	}
	return q, nil
}

// ActiveQuestion returns the active question or ErrNoRows.
func (r *ClassroomRepository) ActiveQuestion(ctx context.Context) (*models.ClassroomQuestion, error) {
	rows, err := r.graph.Read(ctx, graphdb.Query{
		Name: "active_question",
		Cypher: `
MATCH (q:#Question {status: 'active'})` + questionColumns + `
ORDER BY q.created_at DESC
LIMIT 1`,
	})
	if err != nil {
		return nil, fmt.Errorf("active question: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return questionFromRecord(rows[0]), nil
}

// GetQuestion loads a question by id.
func (r *ClassroomRepository) GetQuestion(ctx context.Context, id string) (*models.ClassroomQuestion, error) {
	rows, err := r.graph.Read(ctx, graphdb.Query{
		Name:   "get_question",
		Cypher: `MATCH (q:#Question {id: $id})` + questionColumns,
		Params: map[string]any{"id": id},
	})
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return questionFromRecord(rows[0]), nil
}

// CloseQuestion marks a question closed.
func (r *ClassroomRepository) CloseQuestion(ctx context.Context, id string) error {
	rows, err := r.graph.Write(ctx, graphdb.Query{
		Name: "close_question",
		Cypher: `
MATCH (q:#Question {id: $id})
SET q.status = 'closed', q.closed_at = $now
RETURN q.id AS id`,
		Params: map[string]any{"id": id, "now": graphdb.FormatTime(r.now())},
	})
	if err != nil {
		return fmt.Errorf("close question: %w", err)
	}
	if len(rows) == 0 {
		return ErrNoRows
	}
	return nil
}

// AddReply stores a reply on an active question. ErrNoRows means the student
// or the active question is missing.
func (r *ClassroomRepository) AddReply(ctx context.Context, questionID, studentID, content string) (*models.Reply, error) {
	reply := &models.Reply{
		StudentID: studentID,
		Content:   content,
		Timestamp: r.now().In(time.Local),
		Length:    utf8.RuneCountInString(content),
	}
	rows, err := r.graph.Write(ctx, graphdb.Query{
		Name: "add_reply",
		Cypher: `
MATCH (s:#Student {student_id: $student_id})
MATCH (q:#Question {id: $question_id, status: 'active'})
CREATE (s)-[:REPLIED {content: $content, timestamp: $now, length: $length}]->(q)
RETURN coalesce(s.name, '') AS name`,
		Params: map[string]any{
			"student_id":  studentID,
			"question_id": questionID,
			"content":     content,
			"now":         graphdb.FormatTime(reply.Timestamp),
			"length":      reply.Length,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("add reply: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	reply.StudentName = rows[0].String("name")
	return reply, nil
}

// Replies lists a question's replies oldest first.
func (r *ClassroomRepository) Replies(ctx context.Context, questionID string) ([]models.Reply, error) {
	rows, err := r.graph.Read(ctx, graphdb.Query{
		Name: "question_replies",
		Cypher: `
MATCH (s:#Student)-[r:REPLIED]->(q:#Question {id: $question_id})
RETURN s.student_id AS student_id, coalesce(s.name, '') AS name, r.content AS content,
       r.timestamp AS timestamp, r.length AS length
ORDER BY r.timestamp ASC`,
		Params: map[string]any{"question_id": questionID},
	})
	if err != nil {
		return nil, fmt.Errorf("question replies: %w", err)
	}
	out := make([]models.Reply, 0, len(rows))
	for _, rec := range rows {
		out = append(out, models.Reply{
			StudentID:   rec.String("student_id"),
			StudentName: rec.String("name"),
			Content:     rec.String("content"),
			Timestamp:   rec.Time("timestamp"),
			Length:      rec.Int("length"),
		})
	}
	return out, nil
}

func questionFromRecord(rec graphdb.Record) *models.ClassroomQuestion {
	return &models.ClassroomQuestion{
		ID:        rec.String("id"),
		Text:      rec.String("text"),
		CreatedAt: rec.Time("created_at"),
		Status:    models.QuestionStatus(rec.String("status")),
	}
}
