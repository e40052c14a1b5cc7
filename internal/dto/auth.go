package dto

import "github.com/noah-isme/lakgs-api/internal/models"

// StudentLoginRequest is the student sign-in payload. Name is optional.
type StudentLoginRequest struct {
	StudentID string `json:"student_id" validate:"required,max=64"`
	Name      string `json:"name" validate:"omitempty,max=32"`
}

// TeacherLoginRequest is the teacher sign-in payload.
type TeacherLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the access token bound to a server-side session.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	User        models.User `json:"user"`
}
