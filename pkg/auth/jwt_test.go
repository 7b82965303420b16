package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupJWT(t *testing.T) {
	t.Helper()
	config.GlobalConfig = &config.Config{JWT: config.JWTConfig{
		SecretKey:            "test-secret",
		AccessExpireSeconds:  60,
		RefreshExpireSeconds: 120,
		Issuer:               "gram-test",
	}}
	SetBlacklist(NewMemoryBlacklist())
}

func TestGenerateAndParse(t *testing.T) {
	setupJWT(t)
	ctx := context.Background()

	pair, err := GenerateTokenPair(42, "user", false)
	require.NoError(t, err)
	assert.Equal(t, 60, pair.ExpiresIn)

	claims, err := ParseToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, AccessToken, claims.Type)
	assert.NotEmpty(t, claims.Id)

	config.GlobalConfig.JWT.SecretKey = "other"
	_, err = ParseToken(ctx, pair.AccessToken)
	assert.Error(t, err)
}

func TestRefreshRotatesToken(t *testing.T) {
	setupJWT(t)
	ctx := context.Background()

	pair, err := GenerateTokenPair(7, "user", false)
	require.NoError(t, err)

	_, err = RefreshAccessToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrWrongType)

	next, err := RefreshAccessToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	claims, err := ParseToken(ctx, next.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.Previous)

	_, err = RefreshAccessToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRememberExtendsLifetime(t *testing.T) {
	setupJWT(t)

	pair, err := GenerateTokenPair(3, "user", true)
	require.NoError(t, err)
	assert.Equal(t, int(rememberAccessTTL/time.Second), pair.ExpiresIn)

	claims, err := ParseToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, RefreshToken, claims.Type)
	assert.WithinDuration(t, time.Now().Add(rememberRefreshTTL), claims.expiry(), time.Minute)
}

func TestRevokeToken(t *testing.T) {
	setupJWT(t)
	ctx := context.Background()

	pair, err := GenerateTokenPair(1, "user", false)
	require.NoError(t, err)
	require.NoError(t, RevokeToken(ctx, pair.AccessToken))

	_, err = ParseToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRedisBlacklist(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	b := NewRedisBlacklist(client)
	assert.False(t, b.Contains(ctx, "jti-1"))

	require.NoError(t, b.Add(ctx, "jti-1", time.Now().Add(time.Minute)))
	assert.True(t, b.Contains(ctx, "jti-1"))
	assert.True(t, mr.Exists(blacklistKeyPrefix+"jti-1"))

	// 新实例没有本地缓存，从Redis读取
	other := NewRedisBlacklist(client)
	assert.True(t, other.Contains(ctx, "jti-1"))

	require.NoError(t, b.Add(ctx, "expired", time.Now().Add(-time.Second)))
	assert.False(t, b.Contains(ctx, "expired"))
}

func TestMemoryBlacklistExpiry(t *testing.T) {
	b := NewMemoryBlacklist()
	ctx := context.Background()
	require.NoError(t, b.Add(ctx, "a", time.Now().Add(-time.Second)))
	assert.False(t, b.Contains(ctx, "a"))
	require.NoError(t, b.Add(ctx, "b", time.Now().Add(time.Minute)))
	assert.True(t, b.Contains(ctx, "b"))
}
