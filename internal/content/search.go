package content

import (
	"sort"
	"strings"

	"github.com/noah-isme/lakgs-api/internal/models"
)

const defaultSearchLimit = 20

var kindRank = map[models.ContentKind]int{
	models.KindLesson:  0,
	models.KindEvent:   1,
	models.KindFigure:  2,
	models.KindConcept: 3,
}

// bigrams returns the distinct 2-rune windows of s. A single rune yields itself.
func bigrams(s string) []string {
	runes := []rune(s)
	if len(runes) == 1 {
		return []string{s}
	}
	seen := make(map[string]struct{}, len(runes))
	out := make([]string, 0, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		gram := string(runes[i : i+2])
		if _, ok := seen[gram]; ok {
			continue
		}
		seen[gram] = struct{}{}
		out = append(out, gram)
	}
	return out
}

// Search ranks entities containing keyword. The score sums, over the keyword's
// 2-grams, twice the title frequency plus the description frequency. Results
// are ordered by score descending, then id ascending.
func (r *Repository) Search(keyword string, kind models.ContentKind, limit int) []models.SearchHit {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return nil
	}
	if kind == "" {
		kind = models.KindAll
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	grams := bigrams(kw)

	var candidates []int
	if len([]rune(kw)) == 1 {
		candidates = make([]int, len(r.docs))
		for i := range r.docs {
			candidates[i] = i
		}
	} else {
		seen := map[int]struct{}{}
		for _, gram := range grams {
			for _, d := range r.tokens[gram] {
				if _, ok := seen[d]; !ok {
					seen[d] = struct{}{}
					candidates = append(candidates, d)
				}
			}
		}
	}

	hits := make([]scoredDoc, 0, len(candidates))
	for _, d := range candidates {
		doc := r.docs[d]
		if kind != models.KindAll && doc.kind != kind {
			continue
		}
		if !strings.Contains(doc.title, kw) && !strings.Contains(doc.desc, kw) {
			continue
		}
		score := 0
		for _, gram := range grams {
			score += 2*strings.Count(doc.title, gram) + strings.Count(doc.desc, gram)
		}
		hits = append(hits, scoredDoc{doc: doc, score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		if hits[i].doc.id != hits[j].doc.id {
			return hits[i].doc.id < hits[j].doc.id
		}
		return kindRank[hits[i].doc.kind] < kindRank[hits[j].doc.kind]
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]models.SearchHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, r.hit(h))
	}
	return out
}

type scoredDoc struct {
	doc   document
	score int
}

func (r *Repository) hit(h scoredDoc) models.SearchHit {
	hit := models.SearchHit{Kind: h.doc.kind, ID: h.doc.id, Score: float64(h.score)}
	switch h.doc.kind {
	case models.KindLesson:
		l := r.lessons[h.doc.pos]
		hit.Title, hit.Description = l.Title, excerpt(l.Content, 120)
	case models.KindEvent:
		e := r.events[h.doc.pos]
		hit.Title, hit.Description, hit.LessonID, hit.Year = e.YearText, e.Description, e.LessonID, e.Year
	case models.KindFigure:
		f := r.figures[h.doc.pos]
		hit.Title, hit.Description, hit.LessonID = f.Name, f.Description, f.LessonID
	case models.KindConcept:
		c := r.concepts[h.doc.pos]
		hit.Title, hit.Description, hit.LessonID = c.Term, c.Description, c.LessonID
	}
	return hit
}

// Bundle resolves hits into typed lists, keeping hit order and dropping duplicates.
func (r *Repository) Bundle(hits []models.SearchHit) models.KnowledgeBundle {
	b := emptyBundle()
	seen := map[string]struct{}{}
	for _, h := range hits {
		key := string(h.Kind) + ":" + h.ID
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		switch h.Kind {
		case models.KindLesson:
			if v, ok := r.Lesson(h.ID); ok {
				b.Lessons = append(b.Lessons, v)
			}
		case models.KindEvent:
			if v, ok := r.Event(h.ID); ok {
				b.Events = append(b.Events, v)
			}
		case models.KindFigure:
			if v, ok := r.Figure(h.ID); ok {
				b.Figures = append(b.Figures, v)
			}
		case models.KindConcept:
			if v, ok := r.Concept(h.ID); ok {
				b.Concepts = append(b.Concepts, v)
			}
		}
	}
	return b
}

func emptyBundle() models.KnowledgeBundle {
	return models.KnowledgeBundle{
		Lessons:  []models.Lesson{},
		Events:   []models.Event{},
		Figures:  []models.Figure{},
		Concepts: []models.Concept{},
	}
}

// EventsInRange returns events with a parseable year in [start, end], oldest
// first. A non-positive limit returns every match.
func (r *Repository) EventsInRange(start, end, limit int) []models.Event {
	if start > end {
		start, end = end, start
	}
	out := make([]models.Event, 0)
	for _, e := range r.events {
		if e.Year != nil && *e.Year >= start && *e.Year <= end {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].Year < *out[j].Year })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func excerpt(s string, max int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max]) + "…"
}
