package dto

import "github.com/noah-isme/lakgs-api/internal/models"

// ModuleLanding is returned when a student enters a module.
type ModuleLanding struct {
	Module           string            `json:"module"`
	Textbooks        []models.Textbook `json:"textbooks"`
	RecentActivities []models.Activity `json:"recent_activities"`
}

// SaveNoteRequest stores a note against a piece of content.
type SaveNoteRequest struct {
	ModuleName  string `json:"module_name" validate:"required"`
	ContentID   string `json:"content_id"`
	ContentName string `json:"content_name"`
	Note        string `json:"note" validate:"required,max=5000"`
}

// SubmitAnswerRequest records an answer to a practice question.
type SubmitAnswerRequest struct {
	ModuleName string `json:"module_name" validate:"required"`
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Answer     string `json:"answer" validate:"required,max=5000"`
	Correct    *bool  `json:"correct,omitempty"`
}
