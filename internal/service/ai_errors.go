package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/noah-isme/lakgs-api/internal/llm"
	"github.com/noah-isme/lakgs-api/internal/models"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
)

// AIMediator is the LLM capability surface used by the facades.
type AIMediator interface {
	Chat(ctx context.Context, system string, history []llm.Message, profile llm.Profile) (string, error)
	GradeEssay(ctx context.Context, question, answer, reference string) (string, error)
	GenerateQuestions(ctx context.Context, req llm.QuestionRequest) ([]models.Question, error)
	Explain(ctx context.Context, topic string, level models.ExplainLevel) (string, error)
	SummariseReplies(ctx context.Context, question string, replies []models.Reply) (string, error)
	SynthesiseReport(ctx context.Context, prompt string) (string, error)
}

// llmError maps mediator failures onto the HTTP-aware sentinels.
func llmError(err error) error {
	var httpErr *llm.HTTPError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, llm.ErrGeneration):
		return appErrors.Wrap(err, appErrors.ErrGeneration, "")
	case errors.Is(err, llm.ErrRateLimited):
		return appErrors.Wrap(err, appErrors.ErrRateLimited, "")
	case errors.Is(err, llm.ErrMisconfigured):
		return appErrors.Wrap(err, appErrors.ErrLLMMisconfigured, "")
	case errors.Is(err, llm.ErrUnavailable):
		return appErrors.Wrap(err, appErrors.ErrLLMUnavailable, "")
	case errors.As(err, &httpErr):
		return appErrors.Wrap(err, appErrors.ErrLLMUnavailable, "AI request rejected").WithStatus(http.StatusBadGateway)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return appErrors.Wrap(err, appErrors.ErrLLMUnavailable, "")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal, "")
	}
}

// llmUnavailable reports whether the canned fallback path applies.
func llmUnavailable(err error) bool {
	return errors.Is(err, llm.ErrUnavailable) || errors.Is(err, llm.ErrMisconfigured)
}
