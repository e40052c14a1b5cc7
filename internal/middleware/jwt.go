package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lakgs-api/internal/models"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
	"github.com/noah-isme/lakgs-api/pkg/response"
)

// ContextSessionKey is the gin context key storing the live session.
const ContextSessionKey = "currentSession"

// SessionResolver turns an access token into its live session.
type SessionResolver interface {
	CurrentUser(ctx context.Context, token string) (*models.Session, error)
}

// Session binds the bearer token's session to the request when present. It
// never blocks; RequireLogin decides who may pass.
func Session(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || resolver == nil {
			c.Next()
			return
		}
		session, err := resolver.CurrentUser(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}
		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// RequireSession protects routes by requiring a valid access token and a
// live session. The failure reason is reported.
func RequireSession(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "login required"))
			c.Abort()
			return
		}
		token, ok := bearerToken(header)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}
		session, err := resolver.CurrentUser(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// CurrentSession returns the session bound by Session or RequireSession.
func CurrentSession(c *gin.Context) (*models.Session, bool) {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil, false
	}
	session, ok := value.(*models.Session)
	return session, ok && session != nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
