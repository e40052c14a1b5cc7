package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lakgs-api/internal/dto"
	"github.com/noah-isme/lakgs-api/internal/middleware"
	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/pkg/response"
)

// QuestionService is the chat, explanation and generation surface.
type QuestionService interface {
	Chat(ctx context.Context, user models.User, req dto.ChatRequest) (*dto.ChatResponse, error)
	Explain(ctx context.Context, user models.User, req dto.ExplainRequest) (*dto.ExplainResponse, error)
	Generate(ctx context.Context, user models.User, req dto.GenerateQuestionsRequest) (*dto.GenerateQuestionsResponse, error)
}

// EssayService grades essays and keeps the session's wrong-question book.
type EssayService interface {
	Grade(ctx context.Context, session models.Session, req dto.GradeEssayRequest) (*models.EssayGrade, error)
	WrongQuestions(ctx context.Context, sessionID string) (*dto.WrongQuestionsResponse, error)
}

// AIHandler exposes the LLM-backed endpoints.
type AIHandler struct {
	questions QuestionService
	essays    EssayService
}

// NewAIHandler constructs the AI handler.
func NewAIHandler(questions QuestionService, essays EssayService) *AIHandler {
	return &AIHandler{questions: questions, essays: essays}
}

// Chat godoc
// @Summary Q&A chat turn
// @Description The caller sends the whole conversation; the reply falls back to content excerpts when the model is unreachable
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body dto.ChatRequest true "Conversation"
// @Success 200 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /ai/chat [post]
func (h *AIHandler) Chat(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	var req dto.ChatRequest
	if !bindJSON(c, &req, "invalid chat payload") {
		return
	}
	res, err := h.questions.Chat(c.Request.Context(), session.User, req)
	if err != nil {
		response.Error(c, err, middleware.ExtractMeta(c))
		return
	}
	ok(c, http.StatusOK, res)
}

// Explain godoc
// @Summary Explain a topic
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body dto.ExplainRequest true "Topic and level"
// @Success 200 {object} response.Envelope
// @Router /ai/explain [post]
func (h *AIHandler) Explain(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	var req dto.ExplainRequest
	if !bindJSON(c, &req, "invalid explain payload") {
		return
	}
	res, err := h.questions.Explain(c.Request.Context(), session.User, req)
	if err != nil {
		response.Error(c, err, middleware.ExtractMeta(c))
		return
	}
	middleware.SetCacheHit(c, res.Cached)
	ok(c, http.StatusOK, res)
}

// GenerateQuestions godoc
// @Summary Generate practice questions
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body dto.GenerateQuestionsRequest true "Generation request"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /ai/questions [post]
func (h *AIHandler) GenerateQuestions(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	var req dto.GenerateQuestionsRequest
	if !bindJSON(c, &req, "invalid generation payload") {
		return
	}
	res, err := h.questions.Generate(c.Request.Context(), session.User, req)
	if err != nil {
		response.Error(c, err, middleware.ExtractMeta(c))
		return
	}
	ok(c, http.StatusOK, res)
}

// GradeEssay grades an essay; a low score lands in the wrong-question book.
func (h *AIHandler) GradeEssay(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	var req dto.GradeEssayRequest
	if !bindJSON(c, &req, "invalid essay payload") {
		return
	}
	grade, err := h.essays.Grade(c.Request.Context(), *session, req)
	if err != nil {
		response.Error(c, err, middleware.ExtractMeta(c))
		return
	}
	ok(c, http.StatusOK, grade)
}

// WrongQuestions lists the session's wrong-question book.
func (h *AIHandler) WrongQuestions(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	res, err := h.essays.WrongQuestions(c.Request.Context(), session.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}
