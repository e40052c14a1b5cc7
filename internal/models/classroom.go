package models

import "time"

type QuestionStatus string

const (
	QuestionActive QuestionStatus = "active"
	QuestionClosed QuestionStatus = "closed"
)

// ClassroomQuestion is a teacher prompt students reply to during class.
type ClassroomQuestion struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	CreatedAt time.Time      `json:"created_at"`
	Status    QuestionStatus `json:"status"`
}

// Reply is a student's answer stored on the REPLIED edge.
type Reply struct {
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	Length      int       `json:"length"`
}
