package models

// Textbook is the root of the content hierarchy.
type Textbook struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type Unit struct {
	ID     string `json:"id"`
	BookID string `json:"book_id"`
	Order  int    `json:"order"`
	Title  string `json:"title"`
}

type Lesson struct {
	ID       string `json:"id"`
	UnitID   string `json:"unit_id"`
	Order    int    `json:"order"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	BookName string `json:"book_name"`
}

// Event is a historical event. Year is nil when the source text had no parseable year.
type Event struct {
	ID          string `json:"id"`
	LessonID    string `json:"lesson_id"`
	Year        *int   `json:"year"`
	YearText    string `json:"year_text,omitempty"`
	Description string `json:"description"`
}

type Figure struct {
	ID          string `json:"id"`
	LessonID    string `json:"lesson_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Concept struct {
	ID          string `json:"id"`
	LessonID    string `json:"lesson_id"`
	Term        string `json:"term"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// LessonDetail bundles a lesson with the entities that reference it.
type LessonDetail struct {
	Lesson   Lesson    `json:"lesson"`
	Unit     *Unit     `json:"unit,omitempty"`
	Events   []Event   `json:"events"`
	Figures  []Figure  `json:"figures"`
	Concepts []Concept `json:"concepts"`
}

// ContentKind selects which entity lists a search covers.
type ContentKind string

const (
	KindAll     ContentKind = "all"
	KindLesson  ContentKind = "lesson"
	KindEvent   ContentKind = "event"
	KindFigure  ContentKind = "figure"
	KindConcept ContentKind = "concept"
)

// Valid reports whether k is a known kind.
func (k ContentKind) Valid() bool {
	switch k {
	case KindAll, KindLesson, KindEvent, KindFigure, KindConcept:
		return true
	}
	return false
}

// SearchHit is one ranked keyword match.
type SearchHit struct {
	Kind        ContentKind `json:"kind"`
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	LessonID    string      `json:"lesson_id,omitempty"`
	Year        *int        `json:"year,omitempty"`
	Score       float64     `json:"score"`
}

// KnowledgeBundle groups typed results of a knowledge query.
type KnowledgeBundle struct {
	Keywords []string  `json:"keywords,omitempty"`
	Lessons  []Lesson  `json:"lessons"`
	Events   []Event   `json:"events"`
	Figures  []Figure  `json:"figures"`
	Concepts []Concept `json:"concepts"`
}

// ContentStats counts loaded entities per kind.
type ContentStats struct {
	Textbooks int `json:"textbooks"`
	Units     int `json:"units"`
	Lessons   int `json:"lessons"`
	Events    int `json:"events"`
	Figures   int `json:"figures"`
	Concepts  int `json:"concepts"`
}

// Topic is an entry of the topic table.
type Topic struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
	Periods     []string `json:"periods" yaml:"periods"`
}

// Period is a named signed year range, inclusive on both ends.
type Period struct {
	Name      string `json:"name" yaml:"name"`
	StartYear int    `json:"start" yaml:"start"`
	EndYear   int    `json:"end" yaml:"end"`
}

// Contains reports whether year falls inside the period.
func (p Period) Contains(year int) bool {
	return year >= p.StartYear && year <= p.EndYear
}
