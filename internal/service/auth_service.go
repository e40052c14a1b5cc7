package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/lakgs-api/internal/dto"
	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/internal/repository"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
)

type studentUpserter interface {
	UpsertStudent(ctx context.Context, studentID, name string) (*models.Student, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	SessionTTL        time.Duration
	Issuer            string
	TeacherUsername   string
	// TeacherPassword is either a bcrypt hash or a plain secret hashed at start-up.
	TeacherPassword string
}

// AuthService signs students and the teacher in and resolves sessions.
type AuthService struct {
	students    studentUpserter
	sessions    repository.SessionStore
	validator   *validator.Validate
	logger      *zap.Logger
	config      AuthConfig
	teacherHash []byte
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(students studentUpserter, sessions repository.SessionStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) (*AuthService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 8 * time.Hour
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = config.AccessTokenExpiry
	}
	if config.AccessTokenSecret == "" {
		return nil, errors.New("auth: access token secret is required")
	}

	s := &AuthService{students: students, sessions: sessions, validator: validate, logger: logger, config: config}
	switch {
	case config.TeacherPassword == "":
		logger.Warn("teacher password not configured; teacher login disabled")
	case isBcryptHash(config.TeacherPassword):
		s.teacherHash = []byte(config.TeacherPassword)
	default:
		hash, err := bcrypt.GenerateFromPassword([]byte(config.TeacherPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("auth: hash teacher password: %w", err)
		}
		s.teacherHash = hash
	}
	return s, nil
}

func isBcryptHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}

// StudentLogin upserts the student best-effort and opens a session. A store
// outage never blocks login.
func (s *AuthService) StudentLogin(ctx context.Context, req dto.StudentLoginRequest) (*dto.LoginResponse, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	name := req.Name
	if student, err := s.students.UpsertStudent(ctx, req.StudentID, req.Name); err != nil {
		s.logger.Warn("student upsert failed; continuing login", zap.String("student_id", req.StudentID), zap.Error(err))
	} else if name == "" {
		name = student.Name
	}
	if name == "" {
		name = defaultStudentName(req.StudentID)
	}

	return s.openSession(ctx, models.User{StudentID: req.StudentID, Name: name, Role: models.RoleStudent})
}

// defaultStudentName derives 学生<last4> from the id.
func defaultStudentName(studentID string) string {
	runes := []rune(studentID)
	if len(runes) > 4 {
		runes = runes[len(runes)-4:]
	}
	return "学生" + string(runes)
}

// TeacherLogin checks the configured credential pair.
func (s *AuthService) TeacherLogin(ctx context.Context, req dto.TeacherLoginRequest) (*dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if s.teacherHash == nil || s.config.TeacherUsername == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "teacher login is not configured")
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.config.TeacherUsername)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.teacherHash, []byte(req.Password))
	if !userOK || passErr != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
	}
	return s.openSession(ctx, models.User{Name: "teacher", Role: models.RoleTeacher})
}

func (s *AuthService) openSession(ctx context.Context, user models.User) (*dto.LoginResponse, error) {
	session := models.Session{ID: uuid.NewString(), User: user, CreatedAt: time.Now().UTC()}
	if err := s.sessions.Save(ctx, session, s.config.SessionTTL); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to create session")
	}
	token, err := s.generateAccessToken(session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to create access token")
	}
	return &dto.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		User:        user,
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized, "invalid token")
	}
	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// CurrentUser resolves a token to its live session.
func (s *AuthService) CurrentUser(ctx context.Context, tokenString string) (*models.Session, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return s.Session(ctx, claims.SessionID)
}

// Session loads a session by id.
func (s *AuthService) Session(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to load session")
	}
	return session, nil
}

// Logout deletes every key of the session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal, "failed to end session")
	}
	return nil
}

func (s *AuthService) generateAccessToken(session models.Session) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.SessionClaims{
		SessionID: session.ID,
		Role:      session.User.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   session.User.StudentID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
}
