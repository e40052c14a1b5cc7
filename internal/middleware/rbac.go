package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lakgs-api/internal/models"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
	"github.com/noah-isme/lakgs-api/pkg/response"
)

// RequireLogin rejects requests without a session (401) and, when roles are
// given, sessions holding none of them (403).
func RequireLogin(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		session, ok := CurrentSession(c)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "login required"))
			c.Abort()
			return
		}
		if len(allowed) > 0 {
			if _, ok := allowed[session.User.Role]; !ok {
				response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "insufficient role"))
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// RequireTeacher is RequireLogin restricted to the teacher role.
func RequireTeacher() gin.HandlerFunc {
	return RequireLogin(models.RoleTeacher)
}
