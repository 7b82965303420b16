package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/nsxzhou1114/gram-api/pkg/auth"
	"github.com/nsxzhou1114/gram-api/pkg/response"
)

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
	ctxToken    = "token"
)

var errBadAuthHeader = errors.New("Authorization格式错误")

// bearerToken 从Authorization头取出令牌，头不存在时返回空串
func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", nil
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") || parts[1] == "" {
		return "", errBadAuthHeader
	}
	return parts[1], nil
}

// parse 校验令牌及其类型
func parse(c *gin.Context, token string, want auth.TokenType) (*auth.Claims, error) {
	claims, err := auth.ParseToken(c.Request.Context(), token)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, errors.New("使用了错误类型的令牌")
	}
	return claims, nil
}

func setClaims(c *gin.Context, token string, claims *auth.Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxUserRole, claims.Role)
	c.Set(ctxToken, token)
}

// markExpireSoon 访问令牌在缓冲时间内过期时提示客户端刷新
func markExpireSoon(c *gin.Context, claims *auth.Claims) {
	cfg := config.GetConfig()
	if cfg == nil {
		return
	}
	bufferTime := time.Duration(cfg.JWT.BufferSeconds) * time.Second
	if time.Until(time.Unix(claims.ExpiresAt, 0)) < bufferTime {
		c.Header("X-Token-Expire-Soon", "true")
	}
}

// JWTAuth JWT认证中间件
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			response.Unauthorized(c, err.Error(), nil)
			c.Abort()
			return
		}
		if token == "" {
			response.Unauthorized(c, "请先登录", nil)
			c.Abort()
			return
		}

		claims, err := parse(c, token, auth.AccessToken)
		if err != nil {
			logger.Warnf("无效的令牌: %v", err)
			response.Unauthorized(c, "无效的令牌", err)
			c.Abort()
			return
		}

		markExpireSoon(c, claims)
		setClaims(c, token, claims)
		c.Next()
	}
}

// RefreshAuth 用于刷新访问令牌的中间件
func RefreshAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			response.Unauthorized(c, err.Error(), nil)
			c.Abort()
			return
		}
		if token == "" {
			response.Unauthorized(c, "请提供刷新令牌", nil)
			c.Abort()
			return
		}

		claims, err := parse(c, token, auth.RefreshToken)
		if err != nil {
			logger.Warnf("无效的刷新令牌: %v", err)
			response.Unauthorized(c, "无效的刷新令牌", err)
			c.Abort()
			return
		}

		if time.Until(time.Unix(claims.ExpiresAt, 0)) < 24*time.Hour {
			c.Header("X-Refresh-Token-Expire-Soon", "true")
		}
		setClaims(c, token, claims)
		c.Next()
	}
}

// OptionalAuth 可选认证，令牌有效时设置用户信息，否则按匿名访问继续
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil || token == "" {
			c.Next()
			return
		}

		claims, err := parse(c, token, auth.AccessToken)
		if err != nil {
			logger.Warnf("无效的令牌: %v", err)
			c.Next()
			return
		}

		markExpireSoon(c, claims)
		setClaims(c, token, claims)
		c.Next()
	}
}

// GetUserID 从上下文中获取用户ID
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetToken 从上下文中获取原始令牌
func GetToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}
