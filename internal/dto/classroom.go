package dto

import "github.com/noah-isme/lakgs-api/internal/models"

// CreateClassroomQuestionRequest opens a new classroom question.
type CreateClassroomQuestionRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

// ReplyRequest answers the active classroom question.
type ReplyRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	Content    string `json:"content" validate:"required,max=2000"`
}

// RepliesResponse lists the replies to one question.
type RepliesResponse struct {
	Question models.ClassroomQuestion `json:"question"`
	Replies  []models.Reply           `json:"replies"`
}

// ReplySummary is the LLM summary of a question's replies.
type ReplySummary struct {
	QuestionID string `json:"question_id"`
	Replies    int    `json:"replies"`
	Summary    string `json:"summary"`
}
