package models

// QuestionType is the shape of a generated exercise.
type QuestionType string

const (
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionMaterial       QuestionType = "material"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type ExplainLevel string

const (
	ExplainSimple   ExplainLevel = "simple"
	ExplainDetailed ExplainLevel = "detailed"
	ExplainAdvanced ExplainLevel = "advanced"
)

// OptionKeys are the only option letters a choice question may use.
var OptionKeys = []string{"A", "B", "C", "D"}

// Question is a validated generated exercise. Options is empty for material questions.
type Question struct {
	Question    string            `json:"question"`
	Options     map[string]string `json:"options,omitempty"`
	Answer      string            `json:"answer"`
	Explanation string            `json:"explanation"`
	Difficulty  Difficulty        `json:"difficulty"`
	Type        QuestionType      `json:"type"`
}

// EssayGrade is the grading feedback with the parsed total score.
type EssayGrade struct {
	Feedback    string `json:"feedback"`
	Score       *int   `json:"score"`
	AddedToBook bool   `json:"added_to_wrong_questions"`
}
