package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lakgs-api/internal/middleware"
	"github.com/noah-isme/lakgs-api/internal/models"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
	"github.com/noah-isme/lakgs-api/pkg/response"
)

func sessionFromContext(c *gin.Context) *models.Session {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return nil
	}
	return session
}

// requireSession writes 401 and returns nil when no session is bound.
func requireSession(c *gin.Context) *models.Session {
	session := sessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "login required"))
	}
	return session
}

func bindJSON(c *gin.Context, dest any, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, message))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dest any) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid query parameters"))
		return false
	}
	return true
}

// ok writes data with whatever meta the middleware collected.
func ok(c *gin.Context, status int, data any) {
	response.JSON(c, status, data, middleware.ExtractMeta(c))
}
