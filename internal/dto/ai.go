package dto

import "github.com/noah-isme/lakgs-api/internal/models"

// ChatMessage is one turn of the caller-held conversation.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,max=4000"`
}

// ChatRequest carries the whole conversation; the server keeps none.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,max=40,dive"`
	Module   string        `json:"module" validate:"omitempty,max=32"`
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Reply    string `json:"reply"`
	Degraded bool   `json:"degraded"`
}

// ExplainRequest asks for an explanation of a topic.
type ExplainRequest struct {
	Topic  string `json:"topic" validate:"required,max=100"`
	Level  string `json:"level" validate:"omitempty,oneof=simple detailed advanced"`
	Module string `json:"module" validate:"omitempty,max=32"`
}

// ExplainResponse is an explanation; Degraded marks the content fallback.
type ExplainResponse struct {
	Topic    string `json:"topic"`
	Level    string `json:"level"`
	Markdown string `json:"markdown"`
	Cached   bool   `json:"cached"`
	Degraded bool   `json:"degraded"`
}

// GenerateQuestionsRequest asks for validated practice questions.
type GenerateQuestionsRequest struct {
	Topics     []string `json:"topics" validate:"required,min=1,max=10,dive,required,max=50"`
	Difficulty string   `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Count      int      `json:"count" validate:"required,min=1,max=10"`
	Type       string   `json:"type" validate:"required,oneof=single_choice multiple_choice material"`
	Module     string   `json:"module" validate:"omitempty,max=32"`
}

// GenerateQuestionsResponse wraps the questions.
type GenerateQuestionsResponse struct {
	Questions []models.Question `json:"questions"`
}

// GradeEssayRequest submits an essay answer for grading.
type GradeEssayRequest struct {
	Question  string `json:"question" validate:"required,max=2000"`
	Answer    string `json:"answer" validate:"required,max=10000"`
	Reference string `json:"reference" validate:"omitempty,max=10000"`
	Module    string `json:"module" validate:"omitempty,max=32"`
}

// WrongQuestionsResponse lists the session's wrong-question book.
type WrongQuestionsResponse struct {
	Questions []string `json:"questions"`
}
