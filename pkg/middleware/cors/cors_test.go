package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/api/topics", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func request(r http.Handler, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/topics", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if method == http.MethodOptions {
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestExactAndWildcardOrigins(t *testing.T) {
	r := newRouter([]string{"https://LAKGS.example.cn/", "https://*.school.edu.cn", "no-scheme.example.cn"})

	w := request(r, http.MethodGet, "https://lakgs.example.cn")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://lakgs.example.cn", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = request(r, http.MethodGet, "https://class3.school.edu.cn")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://class3.school.edu.cn", w.Header().Get("Access-Control-Allow-Origin"))

	w = request(r, http.MethodGet, "https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = request(r, http.MethodGet, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPreflight(t *testing.T) {
	r := newRouter([]string{"https://lakgs.example.cn"})

	w := request(r, http.MethodOptions, "https://lakgs.example.cn")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")

	w = request(r, http.MethodOptions, "https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestEmptyListAllowsAnyOrigin(t *testing.T) {
	for _, origins := range [][]string{nil, {"*"}} {
		w := request(newRouter(origins), http.MethodGet, "http://localhost:5173")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	}
}
