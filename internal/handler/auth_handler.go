package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lakgs-api/internal/dto"
	"github.com/noah-isme/lakgs-api/pkg/response"
)

// AuthService is the identity surface the auth endpoints need.
type AuthService interface {
	StudentLogin(ctx context.Context, req dto.StudentLoginRequest) (*dto.LoginResponse, error)
	TeacherLogin(ctx context.Context, req dto.TeacherLoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service AuthService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// StudentLogin godoc
// @Summary Student login
// @Description Signs a student in by id; the display name is optional
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.StudentLoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /auth/student/login [post]
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req dto.StudentLoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}
	res, err := h.service.StudentLogin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// TeacherLogin godoc
// @Summary Teacher login
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.TeacherLoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/teacher/login [post]
func (h *AuthHandler) TeacherLogin(c *gin.Context) {
	var req dto.TeacherLoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}
	res, err := h.service.TeacherLogin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Logout godoc
// @Summary Logout current session
// @Description Deletes every key of the session
// @Tags Authentication
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	if err := h.service.Logout(c.Request.Context(), session.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Me godoc
// @Summary Get current user
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	response.JSON(c, http.StatusOK, session.User)
}
