package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareRejectsAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := New(0.001, 2)
	r := gin.New()
	r.Use(limiter.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSweepDropsIdleVisitors(t *testing.T) {
	now := time.Now()
	limiter := New(10, 10)
	limiter.now = func() time.Time { return now }
	limiter.Allow("a")

	now = now.Add(10 * time.Minute)
	limiter.Allow("b")

	assert.Equal(t, 1, limiter.Sweep())
	assert.Len(t, limiter.visitors, 1)
}

func TestZeroRateDisablesLimiting(t *testing.T) {
	limiter := New(0, 1)
	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow("x"))
	}
}
