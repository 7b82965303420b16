package logger

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitLoggerWritesJSONToFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "app.log")
	InitLogger(&config.LogConfig{Level: "info", Filename: filename, MaxSize: 1})

	Info("hello")
	Debug("hidden")
	_ = Sync()

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestSetLevel(t *testing.T) {
	InitLogger(&config.LogConfig{Level: "error"})
	assert.Equal(t, zapcore.ErrorLevel, atomicLevel.Level())

	SetLevel("debug")
	assert.Equal(t, zapcore.DebugLevel, atomicLevel.Level())

	SetLevel("unknown")
	assert.Equal(t, zapcore.InfoLevel, atomicLevel.Level())
}

func TestGinLoggerLevels(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "gin.log")
	InitLogger(&config.LogConfig{Level: "info", Filename: filename, MaxSize: 1})
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(GinLogger())
	r.GET("/ok", func(c *gin.Context) {
		c.Set("userID", uint(42))
		c.Status(http.StatusOK)
	})
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, path := range []string{"/ok", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	_ = Sync()

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"level":"info"`)
	assert.Contains(t, lines[0], `"user_id":42`)
	assert.Contains(t, lines[1], `"level":"warn"`)
	assert.Contains(t, lines[1], `"path":"/missing"`)
}
