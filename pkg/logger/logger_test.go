package logger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/pkg/config"
)

func TestGinRecoveryReturnsPageLoadError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinRecovery(zap.NewNop(), "/"))
	r.GET("/boom", func(*gin.Context) { panic("lesson index missing") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Meta map[string]string `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "PAGE_LOAD_ERROR", body.Error.Code)
	assert.Equal(t, "page load error: lesson index missing", body.Error.Message)
	assert.Equal(t, "/", body.Meta["home"])
}

func TestNewWritesRotatedFileCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lakgs.log")
	cfg := &config.Config{Env: config.EnvProduction, Log: config.LogConfig{Level: "info", Format: "json", File: path}}

	l, err := New(cfg)
	require.NoError(t, err)
	l.Info("hello", zap.String("module", "案例库"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), "案例库")
}
