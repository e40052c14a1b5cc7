package dto

import "github.com/noah-isme/lakgs-api/internal/models"

// SearchQuery is the query string of GET /knowledge/search.
type SearchQuery struct {
	Keyword string `form:"q" validate:"required,max=50"`
	Kind    string `form:"kind" validate:"omitempty,oneof=all lesson event figure concept"`
	Limit   int    `form:"limit" validate:"omitempty,min=1,max=100"`
}

// TimelineQuery is the query string of GET /knowledge/timeline.
// A missing bound is open; an explicit 0 is year 0.
type TimelineQuery struct {
	Start *int `form:"start"`
	End   *int `form:"end"`
	Limit int `form:"limit" validate:"omitempty,min=1,max=500"`
}

// RelatedRequest asks for knowledge related to a free-text question.
type RelatedRequest struct {
	Question string `json:"question" validate:"required,max=500"`
}

// TopicSummary lists a topic without its search results.
type TopicSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Periods     []string `json:"periods"`
}

// TopicResult is a topic with its knowledge bundle.
type TopicResult struct {
	Topic  models.Topic           `json:"topic"`
	Bundle models.KnowledgeBundle `json:"bundle"`
}
