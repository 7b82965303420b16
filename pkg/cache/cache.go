package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix 所有缓存键的命名空间
const KeyPrefix = "gram:"

// JSONCache 以JSON保存值的Redis缓存
type JSONCache struct {
	client *redis.Client
	prefix string
}

// NewJSONCache 创建缓存，键统一加上KeyPrefix
func NewJSONCache(client *redis.Client) *JSONCache {
	return &JSONCache{client: client, prefix: KeyPrefix}
}

func (c *JSONCache) key(k string) string {
	return c.prefix + k
}

// Get 读取并反序列化，未命中时返回false
func (c *JSONCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("unmarshal cache %s failed: %w", key, err)
	}
	return true, nil
}

// Set 序列化后写入
func (c *JSONCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache %s failed: %w", key, err)
	}
	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

// Delete 删除键
func (c *JSONCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.client.Del(ctx, full...).Err()
}
