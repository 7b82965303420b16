package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/nsxzhou1114/gram-api/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupJWT(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.GlobalConfig = &config.Config{JWT: config.JWTConfig{
		SecretKey:            "test-secret",
		AccessExpireSeconds:  60,
		RefreshExpireSeconds: 120,
		BufferSeconds:        300,
		Issuer:               "gram-test",
	}}
	auth.SetBlacklist(auth.NewMemoryBlacklist())
}

func newEngine(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/", mw, func(c *gin.Context) {
		id, ok := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "ok": ok, "token": GetToken(c) != ""})
	})
	return r
}

func do(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	setupJWT(t)
	pair, err := auth.GenerateTokenPair(7, "user", false)
	require.NoError(t, err)
	r := newEngine(JWTAuth())

	w := do(r, "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"ok":true,"token":true}`, w.Body.String())
	assert.Equal(t, "true", w.Header().Get("X-Token-Expire-Soon"))

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Token "+pair.AccessToken).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer "+pair.RefreshToken).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer garbage").Code)

	require.NoError(t, auth.RevokeToken(context.Background(), pair.AccessToken))
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer "+pair.AccessToken).Code)
}

func TestRefreshAuth(t *testing.T) {
	setupJWT(t)
	pair, err := auth.GenerateTokenPair(7, "user", false)
	require.NoError(t, err)
	r := newEngine(RefreshAuth())

	w := do(r, "Bearer "+pair.RefreshToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get("X-Refresh-Token-Expire-Soon"))
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer "+pair.AccessToken).Code)
}

func TestOptionalAuth(t *testing.T) {
	setupJWT(t)
	pair, err := auth.GenerateTokenPair(7, "user", false)
	require.NoError(t, err)
	r := newEngine(OptionalAuth())

	w := do(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":0,"ok":false,"token":false}`, w.Body.String())

	w = do(r, "Bearer garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":0,"ok":false,"token":false}`, w.Body.String())

	w = do(r, "Bearer "+pair.AccessToken)
	assert.JSONEq(t, `{"id":7,"ok":true,"token":true}`, w.Body.String())
}

func TestCors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	open := gin.New()
	open.Use(Cors(config.CorsConfig{}))
	open.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	w := httptest.NewRecorder()
	open.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	restricted := gin.New()
	restricted.Use(Cors(config.CorsConfig{AllowOrigins: []string{"https://gram.example"}, AllowCredentials: true}))
	restricted.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://gram.example")
	w = httptest.NewRecorder()
	restricted.ServeHTTP(w, req)
	assert.Equal(t, "https://gram.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	restricted.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
