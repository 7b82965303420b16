package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/redis/go-redis/v9"
)

const (
	usernameFilterKey = KeyPrefix + "bloom:username"
	snapshotTTL       = 24 * time.Hour

	// 100万用户，1%误判率
	usernameCapacity  = 1000000
	usernameFalseRate = 0.01
)

// UsernameFilter 用户名布隆过滤器，判断在内存完成，快照保存在Redis。
// 注册和改名时用它跳过一定未被占用的用户名的查重查询，漏记的用户名由唯一索引兜底。
type UsernameFilter struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
	client *redis.Client
	key    string
}

// NewUsernameFilter 创建空的用户名过滤器
func NewUsernameFilter(client *redis.Client) *UsernameFilter {
	return &UsernameFilter{
		filter: bloom.NewWithEstimates(usernameCapacity, usernameFalseRate),
		client: client,
		key:    usernameFilterKey,
	}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Add 记录用户名，大小写不敏感
func (u *UsernameFilter) Add(_ context.Context, username string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.filter.AddString(normalizeUsername(username))
	return nil
}

// BatchAdd 批量记录用户名
func (u *UsernameFilter) BatchAdd(_ context.Context, usernames []string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, name := range usernames {
		u.filter.AddString(normalizeUsername(name))
	}
	return nil
}

// MightExist 返回false时用户名一定不存在
func (u *UsernameFilter) MightExist(_ context.Context, username string) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.filter.TestString(normalizeUsername(username))
}

// Save 写入快照
func (u *UsernameFilter) Save(ctx context.Context) error {
	var buf bytes.Buffer
	u.mu.RLock()
	_, err := u.filter.WriteTo(&buf)
	u.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode username filter failed: %w", err)
	}
	return u.client.Set(ctx, u.key, buf.Bytes(), snapshotTTL).Err()
}

// Load 读取快照并与内存中的过滤器合并，快照不存在时不做处理
func (u *UsernameFilter) Load(ctx context.Context) error {
	data, err := u.client.Get(ctx, u.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get username filter failed: %w", err)
	}

	snapshot := &bloom.BloomFilter{}
	if _, err := snapshot.ReadFrom(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("decode username filter failed: %w", err)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if err := snapshot.Merge(u.filter); err != nil {
		return fmt.Errorf("merge username filter failed: %w", err)
	}
	u.filter = snapshot
	return nil
}
