package service

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/content"
	"github.com/noah-isme/lakgs-api/internal/dto"
	"github.com/noah-isme/lakgs-api/internal/models"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
)

const (
	defaultSearchLimit   = 20
	defaultTimelineLimit = 200
	relatedPerKind       = 5
	timelineMinYear      = -10000
	timelineMaxYear      = 10000
)

// KnowledgeService answers keyword, topic, timeline and related-knowledge
// queries over the in-memory content repository.
type KnowledgeService struct {
	content   *content.Repository
	topics    content.TopicTable
	limits    content.TopicLimits
	validator *validator.Validate
	logger    *zap.Logger
}

// NewKnowledgeService constructs a KnowledgeService. Zero limits fall back to
// content.DefaultTopicLimits.
func NewKnowledgeService(repo *content.Repository, topics content.TopicTable, limits content.TopicLimits, validate *validator.Validate, logger *zap.Logger) *KnowledgeService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if limits == (content.TopicLimits{}) {
		limits = content.DefaultTopicLimits
	}
	return &KnowledgeService{content: repo, topics: topics, limits: limits, validator: validate, logger: logger}
}

// Search returns the ranked hits for a keyword grouped into a typed bundle.
func (s *KnowledgeService) Search(query dto.SearchQuery) (*models.KnowledgeBundle, error) {
	query.Keyword = strings.TrimSpace(query.Keyword)
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err)
	}
	kind := models.ContentKind(query.Kind)
	if kind == "" {
		kind = models.KindAll
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	bundle := s.content.Bundle(s.content.Search(query.Keyword, kind, limit))
	bundle.Keywords = []string{query.Keyword}
	return &bundle, nil
}

// Topics lists the topic table.
func (s *KnowledgeService) Topics() []dto.TopicSummary {
	out := make([]dto.TopicSummary, 0, len(s.topics.Topics))
	for _, t := range s.topics.Topics {
		out = append(out, dto.TopicSummary{
			Name:        t.Name,
			Description: t.Description,
			Keywords:    append([]string{}, t.Keywords...),
			Periods:     append([]string{}, t.Periods...),
		})
	}
	return out
}

// SearchByTopic resolves a named topic into its knowledge bundle.
func (s *KnowledgeService) SearchByTopic(name string) (*dto.TopicResult, error) {
	topic, ok := s.topics.Topic(strings.TrimSpace(name))
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "topic not found")
	}
	bundle := s.content.SearchByTopic(topic, s.topics.PeriodsOf(topic), s.limits)
	return &dto.TopicResult{Topic: topic, Bundle: bundle}, nil
}

// Timeline lists dated events in [start, end], oldest first. A missing bound
// leaves that side of the range open.
func (s *KnowledgeService) Timeline(query dto.TimelineQuery) ([]models.Event, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err)
	}
	start, end := timelineMinYear, timelineMaxYear
	if query.Start != nil {
		start = *query.Start
	}
	if query.End != nil {
		end = *query.End
	}
	if start > end {
		return nil, appErrors.Field("start", "must not be after end")
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultTimelineLimit
	}
	return s.content.EventsInRange(start, end, limit), nil
}

// RelatedKnowledge extracts keywords from a free-text question and unions
// their matches, deduplicated by id and capped per kind.
func (s *KnowledgeService) RelatedKnowledge(req dto.RelatedRequest) (*models.KnowledgeBundle, error) {
	req.Question = strings.TrimSpace(req.Question)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	bundle := s.related(req.Question, relatedPerKind)
	return &bundle, nil
}

func (s *KnowledgeService) related(text string, perKind int) models.KnowledgeBundle {
	keywords := content.ExtractKeywords(text)
	var hits []models.SearchHit
	for _, kw := range keywords {
		hits = append(hits, s.content.Search(kw, models.KindAll, perKind*4)...)
	}
	bundle := s.content.Bundle(hits)
	bundle.Keywords = keywords
	if bundle.Keywords == nil {
		bundle.Keywords = []string{}
	}
	bundle.Lessons = firstN(bundle.Lessons, perKind)
	bundle.Events = firstN(bundle.Events, perKind)
	bundle.Figures = firstN(bundle.Figures, perKind)
	bundle.Concepts = firstN(bundle.Concepts, perKind)
	return bundle
}

// Samples collects content related to free-text seeds such as activity
// content names or module tags. Each seed is searched as a phrase and through
// its extracted keywords. When nothing matches, the first topic of the table
// stands in so a report always carries some curriculum context.
func (s *KnowledgeService) Samples(seeds []string, perKind int) models.KnowledgeBundle {
	if perKind <= 0 {
		perKind = relatedPerKind
	}
	var (
		hits     []models.SearchHit
		keywords []string
		seen     = map[string]struct{}{}
	)
	add := func(kw string) {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			return
		}
		if _, dup := seen[kw]; dup {
			return
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
		hits = append(hits, s.content.Search(kw, models.KindAll, perKind*4)...)
	}
	for _, seed := range seeds {
		add(seed)
		for _, kw := range content.ExtractKeywords(seed) {
			add(kw)
		}
	}

	bundle := s.content.Bundle(hits)
	if len(bundle.Lessons)+len(bundle.Events)+len(bundle.Figures)+len(bundle.Concepts) == 0 && len(s.topics.Topics) > 0 {
		topic := s.topics.Topics[0]
		bundle = s.content.SearchByTopic(topic, s.topics.PeriodsOf(topic), s.limits)
		keywords = append(keywords, topic.Name)
	}
	bundle.Keywords = keywords
	if bundle.Keywords == nil {
		bundle.Keywords = []string{}
	}
	bundle.Lessons = firstN(bundle.Lessons, perKind)
	bundle.Events = firstN(bundle.Events, perKind)
	bundle.Figures = firstN(bundle.Figures, perKind)
	bundle.Concepts = firstN(bundle.Concepts, perKind)
	return bundle
}

// Excerpt returns the best matching content snippet for a topic, used when
// the LLM cannot be reached.
func (s *KnowledgeService) Excerpt(topic string) (string, bool) {
	hits := s.content.Search(topic, models.KindAll, 3)
	if len(hits) == 0 {
		bundle := s.related(topic, 1)
		for _, c := range bundle.Concepts {
			hits = append(hits, models.SearchHit{Title: c.Term, Description: c.Description})
		}
		for _, e := range bundle.Events {
			hits = append(hits, models.SearchHit{Title: e.YearText, Description: e.Description})
		}
	}
	if len(hits) == 0 {
		return "", false
	}
	var b strings.Builder
	for _, h := range hits {
		b.WriteString("- **")
		b.WriteString(h.Title)
		b.WriteString("**：")
		b.WriteString(h.Description)
		b.WriteString("\n")
	}
	return b.String(), true
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
