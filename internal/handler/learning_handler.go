package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lakgs-api/internal/dto"
	"github.com/noah-isme/lakgs-api/internal/service"
	"github.com/noah-isme/lakgs-api/pkg/response"
)

// LearningHandler serves the student-facing content pages.
type LearningHandler struct {
	learning *service.LearningService
}

// NewLearningHandler constructs the learning handler.
func NewLearningHandler(learning *service.LearningService) *LearningHandler {
	return &LearningHandler{learning: learning}
}

// Textbooks godoc
// @Summary List textbooks
// @Tags Content
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /content/textbooks [get]
func (h *LearningHandler) Textbooks(c *gin.Context) {
	ok(c, http.StatusOK, h.learning.Textbooks())
}

// Units godoc
// @Summary List the units of a textbook
// @Tags Content
// @Produce json
// @Param id path string true "Textbook ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /content/textbooks/{id}/units [get]
func (h *LearningHandler) Units(c *gin.Context) {
	units, err := h.learning.Units(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, units)
}

// Lessons lists the lessons of a unit.
func (h *LearningHandler) Lessons(c *gin.Context) {
	ok(c, http.StatusOK, h.learning.Lessons(c.Param("id")))
}

// EnterModule godoc
// @Summary Enter a learning module
// @Description Records enter-module and returns textbooks with the student's recent activities
// @Tags Learning
// @Produce json
// @Param module path string true "Module tag"
// @Success 200 {object} response.Envelope
// @Router /modules/{module}/enter [get]
func (h *LearningHandler) EnterModule(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	landing, err := h.learning.EnterModule(c.Request.Context(), session.User, c.Param("module"))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, landing)
}

// ViewLesson godoc
// @Summary View a lesson
// @Tags Learning
// @Produce json
// @Param id path string true "Lesson ID"
// @Param module query string false "Module the lesson was opened from"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{id} [get]
func (h *LearningHandler) ViewLesson(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	detail, err := h.learning.ViewLesson(c.Request.Context(), session.User, c.Param("id"), c.Query("module"))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, detail)
}

// SaveNote records a note.
func (h *LearningHandler) SaveNote(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	var req dto.SaveNoteRequest
	if !bindJSON(c, &req, "invalid note payload") {
		return
	}
	if err := h.learning.SaveNote(c.Request.Context(), session.User, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SubmitAnswer records a practice answer.
func (h *LearningHandler) SubmitAnswer(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	var req dto.SubmitAnswerRequest
	if !bindJSON(c, &req, "invalid answer payload") {
		return
	}
	if err := h.learning.SubmitAnswer(c.Request.Context(), session.User, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
