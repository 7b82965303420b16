package auth

import (
	"context"
	"sync"
	"time"
)

// Blacklist 令牌黑名单，按令牌ID记录已撤销的令牌
type Blacklist interface {
	// Add 将令牌ID加入黑名单直到过期
	Add(ctx context.Context, tokenID string, expireAt time.Time) error
	// Contains 检查令牌ID是否已撤销
	Contains(ctx context.Context, tokenID string) bool
}

// BlacklistType 黑名单类型
type BlacklistType string

const (
	// MemoryBlacklistType 内存黑名单
	MemoryBlacklistType BlacklistType = "memory"
	// RedisBlacklistType Redis黑名单
	RedisBlacklistType BlacklistType = "redis"
)

var (
	blacklist   Blacklist = NewMemoryBlacklist()
	blacklistMu sync.RWMutex
)

// SetBlacklist 替换全局黑名单实现
func SetBlacklist(b Blacklist) {
	blacklistMu.Lock()
	defer blacklistMu.Unlock()
	blacklist = b
}

// GetBlacklist 获取全局黑名单
func GetBlacklist() Blacklist {
	blacklistMu.RLock()
	defer blacklistMu.RUnlock()
	return blacklist
}

// MemoryBlacklist 内存令牌黑名单，单实例部署使用
type MemoryBlacklist struct {
	tokens map[string]time.Time
	mutex  sync.RWMutex
}

// NewMemoryBlacklist 创建内存黑名单
func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{tokens: make(map[string]time.Time)}
}

// Add 将令牌添加到黑名单，写入时顺带清理过期条目
func (b *MemoryBlacklist) Add(_ context.Context, tokenID string, expireAt time.Time) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.cleanupUnsafe()
	b.tokens[tokenID] = expireAt
	return nil
}

// Contains 检查令牌是否在黑名单中
func (b *MemoryBlacklist) Contains(_ context.Context, tokenID string) bool {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	expireAt, exists := b.tokens[tokenID]
	return exists && time.Now().Before(expireAt)
}

// cleanupUnsafe 清理过期的令牌（不加锁版本）
func (b *MemoryBlacklist) cleanupUnsafe() {
	now := time.Now()
	for token, expireAt := range b.tokens {
		if now.After(expireAt) {
			delete(b.tokens, token)
		}
	}
}
