package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/dto"
	"github.com/noah-isme/lakgs-api/internal/llm"
	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/internal/repository"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
)

// PassMark is the lowest score that keeps a question out of the wrong-question book.
const PassMark = 60

// EssayService grades essay answers and keeps the session's wrong-question book.
type EssayService struct {
	mediator  AIMediator
	sessions  repository.SessionStore
	recorder  activitySink
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEssayService constructs an EssayService.
func NewEssayService(mediator AIMediator, sessions repository.SessionStore, recorder activitySink, validate *validator.Validate, logger *zap.Logger) *EssayService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EssayService{mediator: mediator, sessions: sessions, recorder: recorder, validator: validate, logger: logger}
}

// Grade returns the feedback and parsed score. A score below PassMark adds
// the question to the session's wrong-question book.
func (s *EssayService) Grade(ctx context.Context, session models.Session, req dto.GradeEssayRequest) (*models.EssayGrade, error) {
	req.Question = strings.TrimSpace(req.Question)
	req.Answer = strings.TrimSpace(req.Answer)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	feedback, err := s.mediator.GradeEssay(ctx, req.Question, req.Answer, req.Reference)
	if err != nil {
		return nil, llmError(err)
	}
	grade := &models.EssayGrade{Feedback: feedback}
	details := "score:unknown"
	if score, ok := llm.ParseScore(feedback); ok {
		grade.Score = &score
		details = fmt.Sprintf("score:%d", score)
		if score < PassMark {
			if err := s.sessions.AppendWrongQuestion(ctx, session.ID, req.Question); err != nil {
				s.logger.Warn("wrong-question book append failed", zap.String("session_id", session.ID), zap.Error(err))
			} else {
				grade.AddedToBook = true
			}
		}
	}

	s.recorder.Record(ctx, session.User, models.Activity{
		ActivityType: models.ActivitySubmitAnswer,
		ModuleName:   moduleOrOther(req.Module),
		ContentName:  truncateRunes(req.Question, 50),
		Details:      details,
	})
	return grade, nil
}

// WrongQuestions lists the session's wrong-question book.
func (s *EssayService) WrongQuestions(ctx context.Context, sessionID string) (*dto.WrongQuestionsResponse, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to load session")
	}
	questions := session.WrongQuestions
	if questions == nil {
		questions = []string{}
	}
	return &dto.WrongQuestionsResponse{Questions: questions}, nil
}
