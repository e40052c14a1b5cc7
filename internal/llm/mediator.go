package llm

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/models"
)

// Mediator maps the typed capabilities onto chat completions. It keeps no
// conversation state; callers pass the history.
type Mediator struct {
	completer Completer
	logger    *zap.Logger
}

// NewMediator wraps a Completer.
func NewMediator(completer Completer, logger *zap.Logger) *Mediator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mediator{completer: completer, logger: logger}
}

// Chat answers a conversation. An empty system prompt uses the tutor prompt.
func (m *Mediator) Chat(ctx context.Context, system string, history []Message, profile Profile) (string, error) {
	if system == "" {
		system = systemTutor
	}
	if profile.Name == "" {
		profile = ProfileChat
	}
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, Message{Role: "system", Content: system})
	messages = append(messages, history...)
	return m.completer.Complete(ctx, messages, profile)
}

// GradeEssay returns Markdown feedback headed by the total score.
func (m *Mediator) GradeEssay(ctx context.Context, question, answer, reference string) (string, error) {
	system, user := promptGradeEssay(question, answer, reference)
	return m.ask(ctx, system, user, ProfileGrade)
}

// GenerateQuestions asks for req.Count questions. Invalid output is retried
// once with a stricter prompt before a *GenerationError is returned.
func (m *Mediator) GenerateQuestions(ctx context.Context, req QuestionRequest) ([]models.Question, error) {
	if req.Count <= 0 {
		req.Count = 1
	}
	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		system, user := promptGenerateQuestions(req, attempt > 1, lastErr)
		content, err := m.ask(ctx, system, user, ProfileQuestion)
		if err != nil {
			return nil, err
		}
		questions, err := ParseQuestions(content, req)
		if err == nil {
			return questions, nil
		}
		lastErr = err
		m.logger.Warn("generated questions rejected", zap.Int("attempt", attempt), zap.Error(err))
	}
	return nil, &GenerationError{Attempts: 2, Reason: lastErr.Error()}
}

// Explain returns a Markdown explanation at the requested depth.
func (m *Mediator) Explain(ctx context.Context, topic string, level models.ExplainLevel) (string, error) {
	system, user := promptExplain(topic, level)
	return m.ask(ctx, system, user, ProfileChat)
}

// SummariseReplies summarises classroom replies with a fixed prompt.
func (m *Mediator) SummariseReplies(ctx context.Context, question string, replies []models.Reply) (string, error) {
	if len(replies) == 0 {
		return "", errors.New("llm: no replies to summarise")
	}
	system, user := promptSummariseReplies(question, replies)
	return m.ask(ctx, system, user, ProfileChat)
}

// SynthesiseReport turns an assembled analytics prompt into a Markdown report.
func (m *Mediator) SynthesiseReport(ctx context.Context, prompt string) (string, error) {
	return m.ask(ctx, systemReport, prompt, ProfileDefault)
}

func (m *Mediator) ask(ctx context.Context, system, user string, profile Profile) (string, error) {
	content, err := m.completer.Complete(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, profile)
	if err != nil {
		return "", fmt.Errorf("llm %s: %w", profile.Name, err)
	}
	return content, nil
}
