package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// Redis键前缀
	blacklistKeyPrefix = "jwt:blacklist:"
	// 本地缓存最大条目数
	maxLocalCacheSize = 10000
)

// RedisBlacklist Redis令牌黑名单，多实例共享
type RedisBlacklist struct {
	redis      *redis.Client
	localCache map[string]time.Time // 本地缓存，减少Redis查询
	mutex      sync.RWMutex
}

// NewRedisBlacklist 创建Redis黑名单
func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{
		redis:      client,
		localCache: make(map[string]time.Time),
	}
}

// Add 将令牌添加到黑名单
func (b *RedisBlacklist) Add(ctx context.Context, tokenID string, expireAt time.Time) error {
	duration := time.Until(expireAt)
	if duration <= 0 {
		return nil
	}

	if err := b.redis.Set(ctx, blacklistKeyPrefix+tokenID, "1", duration).Err(); err != nil {
		logger.Error("添加令牌到Redis黑名单失败", zap.String("jti", tokenID), zap.Error(err))
		return fmt.Errorf("添加令牌到黑名单失败: %w", err)
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	if len(b.localCache) >= maxLocalCacheSize {
		b.cleanupLocalCacheUnsafe()
	}
	b.localCache[tokenID] = expireAt
	return nil
}

// Contains 检查令牌是否在黑名单中，先查本地缓存再查Redis
func (b *RedisBlacklist) Contains(ctx context.Context, tokenID string) bool {
	b.mutex.RLock()
	expireAt, exists := b.localCache[tokenID]
	b.mutex.RUnlock()
	if exists && time.Now().Before(expireAt) {
		return true
	}

	key := blacklistKeyPrefix + tokenID
	n, err := b.redis.Exists(ctx, key).Result()
	if err != nil {
		// Redis异常时仅依赖本地缓存
		logger.Error("检查Redis黑名单失败", zap.String("jti", tokenID), zap.Error(err))
		return false
	}
	if n == 0 {
		return false
	}
	if ttl := b.redis.TTL(ctx, key).Val(); ttl > 0 {
		b.mutex.Lock()
		b.localCache[tokenID] = time.Now().Add(ttl)
		b.mutex.Unlock()
	}
	return true
}

// cleanupLocalCacheUnsafe 清理本地缓存中的过期令牌（不加锁版本）
func (b *RedisBlacklist) cleanupLocalCacheUnsafe() {
	now := time.Now()
	for token, expireAt := range b.localCache {
		if now.After(expireAt) {
			delete(b.localCache, token)
		}
	}
}
