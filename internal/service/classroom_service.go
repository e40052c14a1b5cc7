package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/dto"
	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/internal/repository"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
)

// ClassroomStore persists classroom questions and replies.
type ClassroomStore interface {
	CreateQuestion(ctx context.Context, text string) (*models.ClassroomQuestion, error)
	ActiveQuestion(ctx context.Context) (*models.ClassroomQuestion, error)
	GetQuestion(ctx context.Context, id string) (*models.ClassroomQuestion, error)
	CloseQuestion(ctx context.Context, id string) error
	AddReply(ctx context.Context, questionID, studentID, content string) (*models.Reply, error)
	Replies(ctx context.Context, questionID string) ([]models.Reply, error)
}

// ClassroomService runs the in-class question and reply loop.
type ClassroomService struct {
	store     ClassroomStore
	mediator  AIMediator
	recorder  activitySink
	module    string
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassroomService constructs a ClassroomService. module names the tag
// reply activities are recorded under.
func NewClassroomService(store ClassroomStore, mediator AIMediator, recorder activitySink, module string, validate *validator.Validate, logger *zap.Logger) *ClassroomService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassroomService{
		store:     store,
		mediator:  mediator,
		recorder:  recorder,
		module:    moduleOrOther(module),
		validator: validate,
		logger:    logger,
	}
}

// CreateQuestion closes every active question and opens a new one atomically.
func (s *ClassroomService) CreateQuestion(ctx context.Context, req dto.CreateClassroomQuestionRequest) (*models.ClassroomQuestion, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	question, err := s.store.CreateQuestion(ctx, req.Text)
	if err != nil {
		return nil, storeError(err, "question not found")
	}
	return question, nil
}

// ActiveQuestion returns the active question, or nil when none is open.
func (s *ClassroomService) ActiveQuestion(ctx context.Context) (*models.ClassroomQuestion, error) {
	question, err := s.store.ActiveQuestion(ctx)
	if errors.Is(err, repository.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, "no active question")
	}
	return question, nil
}

// CloseQuestion closes a question.
func (s *ClassroomService) CloseQuestion(ctx context.Context, id string) error {
	return storeError(s.store.CloseQuestion(ctx, id), "question not found")
}

// Reply answers the active question. It is rejected when no question is
// active or the id names a question that is no longer active.
func (s *ClassroomService) Reply(ctx context.Context, user models.User, req dto.ReplyRequest) (*models.Reply, error) {
	if user.IsTeacher() || user.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can reply")
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	active, err := s.ActiveQuestion(ctx)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "no active question")
	}
	if active.ID != req.QuestionID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "question is no longer active")
	}

	reply, err := s.store.AddReply(ctx, req.QuestionID, user.StudentID, req.Content)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "question is no longer active")
		}
		return nil, storeError(err, "question not found")
	}

	s.recorder.Record(ctx, user, models.Activity{
		ActivityType: models.ActivityInteract,
		ModuleName:   s.module,
		ContentID:    req.QuestionID,
		ContentName:  truncateRunes(active.Text, 50),
		Details:      truncateRunes(req.Content, 200),
	})
	return reply, nil
}

// Replies lists a question with its replies, oldest first.
func (s *ClassroomService) Replies(ctx context.Context, questionID string) (*dto.RepliesResponse, error) {
	question, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, storeError(err, "question not found")
	}
	replies, err := s.store.Replies(ctx, questionID)
	if err != nil {
		return nil, storeError(err, "question not found")
	}
	return &dto.RepliesResponse{Question: *question, Replies: replies}, nil
}

// SummariseReplies asks the model to summarise every reply to a question.
func (s *ClassroomService) SummariseReplies(ctx context.Context, questionID string) (*dto.ReplySummary, error) {
	loaded, err := s.Replies(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if len(loaded.Replies) == 0 {
		return &dto.ReplySummary{QuestionID: questionID, Summary: "暂无学生回答。"}, nil
	}
	summary, err := s.mediator.SummariseReplies(ctx, loaded.Question.Text, loaded.Replies)
	if err != nil {
		return nil, llmError(err)
	}
	return &dto.ReplySummary{QuestionID: questionID, Replies: len(loaded.Replies), Summary: summary}, nil
}
