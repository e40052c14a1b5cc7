package cors

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// New returns the CORS middleware for the browser client. Origins may be
// exact ("https://lakgs.example.cn") or a subdomain wildcard
// ("https://*.example.cn"); entries without an http(s) scheme are ignored.
// An empty list or "*" allows any origin. Requests from other origins are
// rejected with 403.
func New(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		AllowWildcard:    true,
		MaxAge:           10 * time.Minute,
	}

	anyOrigin := false
	for _, origin := range allowedOrigins {
		origin = strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
		switch {
		case origin == "*":
			anyOrigin = true
		case strings.HasPrefix(origin, "http://"), strings.HasPrefix(origin, "https://"):
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}
	if anyOrigin || len(cfg.AllowOrigins) == 0 {
		// Echo the caller's origin; "*" is not valid alongside credentials.
		cfg.AllowOrigins = nil
		cfg.AllowOriginFunc = func(string) bool { return true }
	}
	return cors.New(cfg)
}
