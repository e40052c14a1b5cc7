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

// ClassroomService runs the in-class question loop.
type ClassroomService interface {
	CreateQuestion(ctx context.Context, req dto.CreateClassroomQuestionRequest) (*models.ClassroomQuestion, error)
	ActiveQuestion(ctx context.Context) (*models.ClassroomQuestion, error)
	CloseQuestion(ctx context.Context, id string) error
	Reply(ctx context.Context, user models.User, req dto.ReplyRequest) (*models.Reply, error)
	Replies(ctx context.Context, questionID string) (*dto.RepliesResponse, error)
	SummariseReplies(ctx context.Context, questionID string) (*dto.ReplySummary, error)
}

// ClassroomHandler exposes classroom interaction.
type ClassroomHandler struct {
	classroom ClassroomService
}

// NewClassroomHandler constructs the classroom handler.
func NewClassroomHandler(classroom ClassroomService) *ClassroomHandler {
	return &ClassroomHandler{classroom: classroom}
}

// Active godoc
// @Summary Current classroom question
// @Description data is null when no question is open
// @Tags Classroom
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classroom/active [get]
func (h *ClassroomHandler) Active(c *gin.Context) {
	question, err := h.classroom.ActiveQuestion(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"question": question})
}

// Reply godoc
// @Summary Reply to the active question
// @Tags Classroom
// @Accept json
// @Produce json
// @Param payload body dto.ReplyRequest true "Reply"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classroom/active/replies [post]
func (h *ClassroomHandler) Reply(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	var req dto.ReplyRequest
	if !bindJSON(c, &req, "invalid reply payload") {
		return
	}
	reply, err := h.classroom.Reply(c.Request.Context(), session.User, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusCreated, reply)
}

// CreateQuestion closes any open question and opens a new one.
func (h *ClassroomHandler) CreateQuestion(c *gin.Context) {
	var req dto.CreateClassroomQuestionRequest
	if !bindJSON(c, &req, "invalid question payload") {
		return
	}
	question, err := h.classroom.CreateQuestion(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusCreated, question)
}

// CloseQuestion closes a question.
func (h *ClassroomHandler) CloseQuestion(c *gin.Context) {
	if err := h.classroom.CloseQuestion(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Replies lists a question's replies oldest first.
func (h *ClassroomHandler) Replies(c *gin.Context) {
	res, err := h.classroom.Replies(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// Summary asks the model to summarise the replies.
func (h *ClassroomHandler) Summary(c *gin.Context) {
	res, err := h.classroom.SummariseReplies(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err, middleware.ExtractMeta(c))
		return
	}
	ok(c, http.StatusOK, res)
}
