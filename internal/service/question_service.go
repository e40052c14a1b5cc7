package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/dto"
	"github.com/noah-isme/lakgs-api/internal/llm"
	"github.com/noah-isme/lakgs-api/internal/models"
)

const degradedNotice = "AI 服务暂时不可用，以下是教材中的相关内容：\n\n"

// QuestionService fronts the conversational capabilities: chat, topic
// explanations and practice question generation.
type QuestionService struct {
	mediator  AIMediator
	knowledge *KnowledgeService
	cache     *ExplanationCache
	recorder  activitySink
	validator *validator.Validate
	logger    *zap.Logger
}

// NewQuestionService constructs a QuestionService. cache may be nil.
func NewQuestionService(mediator AIMediator, knowledge *KnowledgeService, cache *ExplanationCache, recorder activitySink, validate *validator.Validate, logger *zap.Logger) *QuestionService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionService{
		mediator:  mediator,
		knowledge: knowledge,
		cache:     cache,
		recorder:  recorder,
		validator: validate,
		logger:    logger,
	}
}

func moduleOrOther(module string) string {
	module = models.CanonicalModule(strings.TrimSpace(module))
	if module == "" {
		return models.ModuleOther
	}
	return module
}

// Chat answers the caller-held conversation. When the model cannot be
// reached the reply falls back to textbook excerpts for the last question.
func (s *QuestionService) Chat(ctx context.Context, user models.User, req dto.ChatRequest) (*dto.ChatResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	history := make([]llm.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	last := req.Messages[len(req.Messages)-1].Content

	s.recorder.Record(ctx, user, models.Activity{
		ActivityType: models.ActivityInteract,
		ModuleName:   moduleOrOther(req.Module),
		ContentName:  truncateRunes(last, 50),
	})

	reply, err := s.mediator.Chat(ctx, "", history, llm.ProfileChat)
	if err != nil {
		if llmUnavailable(err) && s.knowledge != nil {
			if text, ok := s.knowledge.Excerpt(last); ok {
				s.logger.Warn("chat degraded to content excerpt", zap.Error(err))
				return &dto.ChatResponse{Reply: degradedNotice + text, Degraded: true}, nil
			}
		}
		return nil, llmError(err)
	}
	return &dto.ChatResponse{Reply: reply}, nil
}

// Explain returns a cached or fresh explanation of a topic. Unreachable
// models fall back to the matching content excerpt, which is never cached.
func (s *QuestionService) Explain(ctx context.Context, user models.User, req dto.ExplainRequest) (*dto.ExplainResponse, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	level := models.ExplainLevel(req.Level)
	if level == "" {
		level = models.ExplainDetailed
	}

	s.recorder.Record(ctx, user, models.Activity{
		ActivityType: models.ActivityInteract,
		ModuleName:   moduleOrOther(req.Module),
		ContentName:  req.Topic,
		Details:      "explain:" + string(level),
	})

	resp := &dto.ExplainResponse{Topic: req.Topic, Level: string(level)}
	if cached, ok := s.cache.Lookup(ctx, req.Topic, level); ok {
		resp.Markdown, resp.Cached = cached, true
		return resp, nil
	}

	markdown, err := s.mediator.Explain(ctx, req.Topic, level)
	if err != nil {
		if llmUnavailable(err) && s.knowledge != nil {
			if text, ok := s.knowledge.Excerpt(req.Topic); ok {
				s.logger.Warn("explain degraded to content excerpt", zap.String("topic", req.Topic), zap.Error(err))
				resp.Markdown, resp.Degraded = degradedNotice+text, true
				return resp, nil
			}
		}
		return nil, llmError(err)
	}
	resp.Markdown = markdown
	s.cache.Store(ctx, req.Topic, level, markdown)
	return resp, nil
}

// Generate returns validated practice questions and records generate-ai.
func (s *QuestionService) Generate(ctx context.Context, user models.User, req dto.GenerateQuestionsRequest) (*dto.GenerateQuestionsResponse, error) {
	for i := range req.Topics {
		req.Topics[i] = strings.TrimSpace(req.Topics[i])
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	questions, err := s.mediator.GenerateQuestions(ctx, llm.QuestionRequest{
		Topics:     req.Topics,
		Difficulty: models.Difficulty(req.Difficulty),
		Count:      req.Count,
		Type:       models.QuestionType(req.Type),
	})
	if err != nil {
		return nil, llmError(err)
	}

	s.recorder.Record(ctx, user, models.Activity{
		ActivityType: models.ActivityGenerateAI,
		ModuleName:   moduleOrOther(req.Module),
		ContentName:  strings.Join(req.Topics, "、"),
		Details:      fmt.Sprintf("%d %s %s", len(questions), req.Type, req.Difficulty),
	})
	return &dto.GenerateQuestionsResponse{Questions: questions}, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n])
}
