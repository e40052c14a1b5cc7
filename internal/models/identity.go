package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the authorisation role carried by a session.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Student is the persisted learner node.
type Student struct {
	StudentID  string    `json:"student_id"`
	Name       string    `json:"name"`
	LoginCount int       `json:"login_count"`
	LastLogin  time.Time `json:"last_login"`
	Role       Role      `json:"role"`
}

// User is the identity bound to the current request.
type User struct {
	StudentID string `json:"student_id,omitempty"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
}

// IsTeacher reports whether the user holds the privileged role.
func (u User) IsTeacher() bool { return u.Role == RoleTeacher }

// Session is the server-side state behind an access token.
type Session struct {
	ID             string    `json:"id"`
	User           User      `json:"user"`
	WrongQuestions []string  `json:"wrong_questions,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// SessionClaims are the JWT claims issued at login.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Role      Role   `json:"role"`
	jwt.RegisteredClaims
}
