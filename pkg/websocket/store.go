package websocket

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	offlineKeyFormat = "gram:notifications:offline:%d"
	offlineLimit     = 100
	offlineTTL       = 7 * 24 * time.Hour
)

// MessageStore 用户离线期间的消息暂存
type MessageStore interface {
	Save(ctx context.Context, userID uint, payload []byte) error
	Drain(ctx context.Context, userID uint) ([][]byte, error)
}

// RedisMessageStore 基于Redis列表的离线消息，只保留最近的消息
type RedisMessageStore struct {
	client *redis.Client
}

// NewRedisMessageStore 创建离线消息存储
func NewRedisMessageStore(client *redis.Client) *RedisMessageStore {
	return &RedisMessageStore{client: client}
}

// Save 追加一条离线消息
func (s *RedisMessageStore) Save(ctx context.Context, userID uint, payload []byte) error {
	key := offlineKey(userID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, payload)
		pipe.LTrim(ctx, key, -offlineLimit, -1)
		pipe.Expire(ctx, key, offlineTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("保存离线消息失败: %w", err)
	}
	return nil
}

// Drain 取出并清空离线消息，按写入顺序返回
func (s *RedisMessageStore) Drain(ctx context.Context, userID uint) ([][]byte, error) {
	key := offlineKey(userID)
	var entries *redis.StringSliceCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		entries = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("读取离线消息失败: %w", err)
	}

	payloads := make([][]byte, 0, len(entries.Val()))
	for _, entry := range entries.Val() {
		payloads = append(payloads, []byte(entry))
	}
	return payloads, nil
}

func offlineKey(userID uint) string {
	return fmt.Sprintf(offlineKeyFormat, userID)
}
