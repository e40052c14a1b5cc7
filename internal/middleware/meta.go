package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lakgs-api/internal/llm"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
	bannerKey       = "banner"
	warningsKey     = "warnings"
)

// BannerDatabaseOffline is shown when a page was served from empty defaults.
const BannerDatabaseOffline = "database offline"

// WithResponseMeta initialises response metadata storage on the request context.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
		meta := ensureMeta(c)
		if _, exists := meta["processing_time_ms"]; !exists {
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
}

// LLMWarnings surfaces LLM retry attempts of the request as response warnings.
func LLMWarnings() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := llm.WithRetryObserver(c.Request.Context(), func(attempt int, err error) {
			AddWarning(c, fmt.Sprintf("AI request retried (attempt %d failed: %v)", attempt, err))
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// SetCacheHit records cache hit information for the current response.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[cacheHitKey] = hit
}

// SetDegraded sets the "database offline" banner when degraded is true.
func SetDegraded(c *gin.Context, degraded bool) {
	if degraded {
		ensureMeta(c)[bannerKey] = BannerDatabaseOffline
	}
}

// AddWarning appends a user-visible warning.
func AddWarning(c *gin.Context, warning string) {
	meta := ensureMeta(c)
	warnings, _ := meta[warningsKey].([]string)
	meta[warningsKey] = append(warnings, warning)
}

// ExtractMeta returns the metadata map stored on the context.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	newMeta := make(map[string]interface{})
	c.Set(responseMetaKey, newMeta)
	return newMeta
}
