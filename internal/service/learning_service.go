package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/content"
	"github.com/noah-isme/lakgs-api/internal/dto"
	"github.com/noah-isme/lakgs-api/internal/models"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
)

const recentOnLanding = 5

// activitySink receives fire-and-forget activity events.
type activitySink interface {
	Record(ctx context.Context, user models.User, activity models.Activity)
}

// LearningService serves module and lesson pages and records what the
// student did. Recording never fails a request.
type LearningService struct {
	content    *content.Repository
	recorder   activitySink
	activities ActivityReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewLearningService constructs a LearningService.
func NewLearningService(repo *content.Repository, recorder activitySink, activities ActivityReader, validate *validator.Validate, logger *zap.Logger) *LearningService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LearningService{content: repo, recorder: recorder, activities: activities, validator: validate, logger: logger}
}

// Textbooks lists every textbook in file order.
func (s *LearningService) Textbooks() []models.Textbook {
	books := s.content.ListTextbooks()
	if books == nil {
		return []models.Textbook{}
	}
	return books
}

// Units lists the units of a textbook.
func (s *LearningService) Units(bookID string) ([]models.Unit, error) {
	if _, ok := s.content.Textbook(bookID); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "textbook not found")
	}
	return s.content.UnitsOf(bookID), nil
}

// Lessons lists the lessons of a unit; an unknown unit has none.
func (s *LearningService) Lessons(unitID string) []models.Lesson {
	return s.content.LessonsOf(unitID)
}

// EnterModule records enter-module and returns the landing payload.
func (s *LearningService) EnterModule(ctx context.Context, user models.User, module string) (*dto.ModuleLanding, error) {
	module = models.CanonicalModule(strings.TrimSpace(module))
	if module == "" {
		return nil, appErrors.Field("module", "is required")
	}
	s.recorder.Record(ctx, user, models.Activity{ActivityType: models.ActivityEnterModule, ModuleName: module})

	landing := &dto.ModuleLanding{
		Module:           module,
		Textbooks:        s.Textbooks(),
		RecentActivities: []models.Activity{},
	}
	if user.IsTeacher() || s.activities == nil {
		return landing, nil
	}
	recent, err := s.activities.ActivitiesOf(ctx, user.StudentID, module, recentOnLanding)
	if err != nil {
		s.logger.Debug("recent activities unavailable", zap.String("student_id", user.StudentID), zap.Error(err))
		return landing, nil
	}
	landing.RecentActivities = recent
	return landing, nil
}

// ViewLesson records view-content and returns the lesson with its entities.
// An empty module is recorded as "other".
func (s *LearningService) ViewLesson(ctx context.Context, user models.User, lessonID, module string) (*models.LessonDetail, error) {
	detail, ok := s.content.LessonDetail(strings.TrimSpace(lessonID))
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	s.recorder.Record(ctx, user, models.Activity{
		ActivityType: models.ActivityViewContent,
		ModuleName:   moduleOrOther(module),
		ContentID:    detail.Lesson.ID,
		ContentName:  detail.Lesson.Title,
	})
	return &detail, nil
}

// SaveNote records a save-note activity carrying the note text.
func (s *LearningService) SaveNote(ctx context.Context, user models.User, req dto.SaveNoteRequest) error {
	req.Note = strings.TrimSpace(req.Note)
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	s.recorder.Record(ctx, user, models.Activity{
		ActivityType: models.ActivitySaveNote,
		ModuleName:   models.CanonicalModule(req.ModuleName),
		ContentID:    req.ContentID,
		ContentName:  req.ContentName,
		Details:      req.Note,
	})
	return nil
}

type answerDetails struct {
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer"`
	Correct  *bool  `json:"correct,omitempty"`
}

// SubmitAnswer records a submit-answer activity; the answer travels as JSON details.
func (s *LearningService) SubmitAnswer(ctx context.Context, user models.User, req dto.SubmitAnswerRequest) error {
	req.Answer = strings.TrimSpace(req.Answer)
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	details, err := json.Marshal(answerDetails{Question: req.Question, Answer: req.Answer, Correct: req.Correct})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal, "failed to encode answer")
	}
	s.recorder.Record(ctx, user, models.Activity{
		ActivityType: models.ActivitySubmitAnswer,
		ModuleName:   models.CanonicalModule(req.ModuleName),
		ContentID:    req.QuestionID,
		ContentName:  req.Question,
		Details:      string(details),
	})
	return nil
}
