package content

import (
	"sort"
	"strings"

	"github.com/noah-isme/lakgs-api/internal/models"
)

// Repository is the read-only content store. It is built once and never
// mutated, so it is safe for concurrent use without locks.
type Repository struct {
	textbooks []models.Textbook
	units     []models.Unit
	lessons   []models.Lesson
	events    []models.Event
	figures   []models.Figure
	concepts  []models.Concept

	textbookByID map[string]int
	unitByID     map[string]int
	lessonByID   map[string]int
	eventByID    map[string]int
	figureByID   map[string]int
	conceptByID  map[string]int

	unitsOfBook      map[string][]int
	lessonsOfUnit    map[string][]int
	eventsOfLesson   map[string][]int
	figuresOfLesson  map[string][]int
	conceptsOfLesson map[string][]int

	docs   []document
	tokens map[string][]int

	files []FileStatus
}

// document is one searchable entity with lower-cased text.
type document struct {
	kind  models.ContentKind
	pos   int
	id    string
	title string
	desc  string
}

func newRepository(s snapshot) *Repository {
	r := &Repository{
		textbooks: s.textbooks,
		units:     s.units,
		lessons:   s.lessons,
		events:    s.events,
		figures:   s.figures,
		concepts:  s.concepts,

		textbookByID: make(map[string]int, len(s.textbooks)),
		unitByID:     make(map[string]int, len(s.units)),
		lessonByID:   make(map[string]int, len(s.lessons)),
		eventByID:    make(map[string]int, len(s.events)),
		figureByID:   make(map[string]int, len(s.figures)),
		conceptByID:  make(map[string]int, len(s.concepts)),

		unitsOfBook:      map[string][]int{},
		lessonsOfUnit:    map[string][]int{},
		eventsOfLesson:   map[string][]int{},
		figuresOfLesson:  map[string][]int{},
		conceptsOfLesson: map[string][]int{},

		tokens: map[string][]int{},
	}

	// First occurrence of a duplicated id wins.
	for i, b := range r.textbooks {
		putFirst(r.textbookByID, b.ID, i)
	}
	for i, u := range r.units {
		putFirst(r.unitByID, u.ID, i)
		r.unitsOfBook[u.BookID] = append(r.unitsOfBook[u.BookID], i)
	}
	for i, l := range r.lessons {
		putFirst(r.lessonByID, l.ID, i)
		r.lessonsOfUnit[l.UnitID] = append(r.lessonsOfUnit[l.UnitID], i)
		r.addDocument(models.KindLesson, i, l.ID, l.Title, l.Content)
	}
	for i, e := range r.events {
		putFirst(r.eventByID, e.ID, i)
		r.eventsOfLesson[e.LessonID] = append(r.eventsOfLesson[e.LessonID], i)
		r.addDocument(models.KindEvent, i, e.ID, e.YearText, e.Description)
	}
	for i, f := range r.figures {
		putFirst(r.figureByID, f.ID, i)
		r.figuresOfLesson[f.LessonID] = append(r.figuresOfLesson[f.LessonID], i)
		r.addDocument(models.KindFigure, i, f.ID, f.Name, f.Description)
	}
	for i, c := range r.concepts {
		putFirst(r.conceptByID, c.ID, i)
		r.conceptsOfLesson[c.LessonID] = append(r.conceptsOfLesson[c.LessonID], i)
		r.addDocument(models.KindConcept, i, c.ID, c.Term, joinNonEmpty(" ", c.Category, c.Description))
	}

	for book, idx := range r.unitsOfBook {
		sort.SliceStable(idx, func(a, b int) bool { return r.units[idx[a]].Order < r.units[idx[b]].Order })
		r.unitsOfBook[book] = idx
	}
	for unit, idx := range r.lessonsOfUnit {
		sort.SliceStable(idx, func(a, b int) bool { return r.lessons[idx[a]].Order < r.lessons[idx[b]].Order })
		r.lessonsOfUnit[unit] = idx
	}
	return r
}

func putFirst(m map[string]int, id string, i int) {
	if _, ok := m[id]; !ok {
		m[id] = i
	}
}

func (r *Repository) addDocument(kind models.ContentKind, pos int, id, title, desc string) {
	doc := document{kind: kind, pos: pos, id: id, title: strings.ToLower(title), desc: strings.ToLower(desc)}
	docID := len(r.docs)
	r.docs = append(r.docs, doc)
	for _, gram := range bigrams(doc.title + "\n" + doc.desc) {
		r.tokens[gram] = append(r.tokens[gram], docID)
	}
}

// ListTextbooks returns textbooks in file order.
func (r *Repository) ListTextbooks() []models.Textbook {
	return append([]models.Textbook(nil), r.textbooks...)
}

// UnitsOf returns the units of a textbook ordered by their order field.
func (r *Repository) UnitsOf(bookID string) []models.Unit {
	idx := r.unitsOfBook[bookID]
	out := make([]models.Unit, 0, len(idx))
	for _, i := range idx {
		out = append(out, r.units[i])
	}
	return out
}

// LessonsOf returns the lessons of a unit ordered by their order field.
func (r *Repository) LessonsOf(unitID string) []models.Lesson {
	idx := r.lessonsOfUnit[unitID]
	out := make([]models.Lesson, 0, len(idx))
	for _, i := range idx {
		out = append(out, r.lessons[i])
	}
	return out
}

// LessonDetail returns a lesson with its unit, events, figures and concepts.
func (r *Repository) LessonDetail(lessonID string) (models.LessonDetail, bool) {
	i, ok := r.lessonByID[lessonID]
	if !ok {
		return models.LessonDetail{}, false
	}
	lesson := r.lessons[i]
	detail := models.LessonDetail{
		Lesson:   lesson,
		Events:   make([]models.Event, 0, len(r.eventsOfLesson[lessonID])),
		Figures:  make([]models.Figure, 0, len(r.figuresOfLesson[lessonID])),
		Concepts: make([]models.Concept, 0, len(r.conceptsOfLesson[lessonID])),
	}
	if u, ok := r.unitByID[lesson.UnitID]; ok {
		unit := r.units[u]
		detail.Unit = &unit
	}
	for _, e := range r.eventsOfLesson[lessonID] {
		detail.Events = append(detail.Events, r.events[e])
	}
	for _, f := range r.figuresOfLesson[lessonID] {
		detail.Figures = append(detail.Figures, r.figures[f])
	}
	for _, c := range r.conceptsOfLesson[lessonID] {
		detail.Concepts = append(detail.Concepts, r.concepts[c])
	}
	return detail, true
}

func (r *Repository) Textbook(id string) (models.Textbook, bool) {
	i, ok := r.textbookByID[id]
	if !ok {
		return models.Textbook{}, false
	}
	return r.textbooks[i], true
}

func (r *Repository) Lesson(id string) (models.Lesson, bool) {
	i, ok := r.lessonByID[id]
	if !ok {
		return models.Lesson{}, false
	}
	return r.lessons[i], true
}

func (r *Repository) Event(id string) (models.Event, bool) {
	i, ok := r.eventByID[id]
	if !ok {
		return models.Event{}, false
	}
	return r.events[i], true
}

func (r *Repository) Figure(id string) (models.Figure, bool) {
	i, ok := r.figureByID[id]
	if !ok {
		return models.Figure{}, false
	}
	return r.figures[i], true
}

func (r *Repository) Concept(id string) (models.Concept, bool) {
	i, ok := r.conceptByID[id]
	if !ok {
		return models.Concept{}, false
	}
	return r.concepts[i], true
}

// Snapshot exposes the full entity lists for the graph sync tool.
func (r *Repository) Snapshot() (textbooks []models.Textbook, units []models.Unit, lessons []models.Lesson,
	events []models.Event, figures []models.Figure, concepts []models.Concept) {
	return r.textbooks, r.units, r.lessons, r.events, r.figures, r.concepts
}

// Stats counts loaded entities per kind.
func (r *Repository) Stats() models.ContentStats {
	return models.ContentStats{
		Textbooks: len(r.textbooks),
		Units:     len(r.units),
		Lessons:   len(r.lessons),
		Events:    len(r.events),
		Figures:   len(r.figures),
		Concepts:  len(r.concepts),
	}
}

// Files reports how each snapshot file loaded.
func (r *Repository) Files() []FileStatus {
	return append([]FileStatus(nil), r.files...)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
