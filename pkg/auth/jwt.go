package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/nsxzhou1114/gram-api/internal/config"
)

// TokenType 令牌用途
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// 记住登录时的有效期
const (
	rememberAccessTTL  = 7 * 24 * time.Hour
	rememberRefreshTTL = 30 * 24 * time.Hour
)

var (
	ErrTokenRevoked = errors.New("令牌已被撤销")
	ErrInvalidToken = errors.New("无效的令牌")
	ErrWrongType    = errors.New("令牌类型不匹配")
)

// Claims 令牌载荷，jti用作黑名单键
type Claims struct {
	UserID uint      `json:"user_id"`
	Role   string    `json:"role"`
	Type   TokenType `json:"type"`

	// Previous 轮换前刷新令牌的jti
	Previous string `json:"previous,omitempty"`

	jwt.StandardClaims
}

// expiry 令牌过期时间
func (c *Claims) expiry() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// TokenPair 登录或刷新后下发的令牌
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`

	// ExpiresIn 访问令牌剩余秒数
	ExpiresIn int `json:"expires_in"`
}

// lifetimes 访问令牌与刷新令牌的有效期
func lifetimes(remember bool) (access, refresh time.Duration) {
	if remember {
		return rememberAccessTTL, rememberRefreshTTL
	}
	cfg := config.GlobalConfig.JWT
	return time.Duration(cfg.AccessExpireSeconds) * time.Second,
		time.Duration(cfg.RefreshExpireSeconds) * time.Second
}

// GenerateTokenPair 签发一对新令牌
func GenerateTokenPair(userID uint, role string, remember bool) (*TokenPair, error) {
	return issuePair(userID, role, remember, "")
}

func issuePair(userID uint, role string, remember bool, previous string) (*TokenPair, error) {
	accessTTL, refreshTTL := lifetimes(remember)

	access, err := sign(&Claims{UserID: userID, Role: role, Type: AccessToken}, accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := sign(&Claims{UserID: userID, Role: role, Type: RefreshToken, Previous: previous}, refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(accessTTL / time.Second),
	}, nil
}

// sign 补全标准字段后用HS256签名
func sign(claims *Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	cfg := config.GlobalConfig.JWT
	claims.StandardClaims = jwt.StandardClaims{
		Id:        uuid.NewString(),
		Subject:   strconv.FormatUint(uint64(claims.UserID), 10),
		Issuer:    cfg.Issuer,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("签发令牌失败: %w", err)
	}
	return signed, nil
}

func hmacKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("不支持的签名算法: %v", token.Header["alg"])
	}
	return []byte(config.GlobalConfig.JWT.SecretKey), nil
}

// verify 只校验签名和有效期
func verify(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, hmacKey)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseToken 校验令牌并排除已撤销的
func ParseToken(ctx context.Context, raw string) (*Claims, error) {
	claims, err := verify(raw)
	if err != nil {
		return nil, err
	}
	if GetBlacklist().Contains(ctx, claims.Id) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// RefreshAccessToken 用刷新令牌换一对新令牌，旧刷新令牌随即作废
func RefreshAccessToken(ctx context.Context, raw string) (*TokenPair, error) {
	claims, err := ParseToken(ctx, raw)
	if err != nil {
		return nil, err
	}
	if claims.Type != RefreshToken {
		return nil, ErrWrongType
	}

	pair, err := issuePair(claims.UserID, claims.Role, false, claims.Id)
	if err != nil {
		return nil, err
	}
	if err := GetBlacklist().Add(ctx, claims.Id, claims.expiry()); err != nil {
		return nil, err
	}
	return pair, nil
}

// RevokeToken 登出时把令牌加入黑名单
func RevokeToken(ctx context.Context, raw string) error {
	claims, err := verify(raw)
	if err != nil {
		return err
	}
	return GetBlacklist().Add(ctx, claims.Id, claims.expiry())
}
