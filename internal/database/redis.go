package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 启动时依赖服务的连接重试
const (
	connectAttempts = 3
	connectDelay    = time.Second
)

var (
	// Redis 全局客户端，缓存、令牌黑名单和离线通知共用
	Redis    *redis.Client
	redisOne sync.Once
)

// ping 在有限次数内重试连通性检查
func ping(ctx context.Context, name string, check func(ctx context.Context) error) error {
	return retry.Do(
		func() error { return check(ctx) },
		retry.Context(ctx),
		retry.Attempts(connectAttempts),
		retry.Delay(connectDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn(name+"连接失败，重试中", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
}

// InitRedis 创建客户端并确认可用
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	err := ping(context.Background(), "redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接redis失败: %w", err)
	}

	logger.Info("redis连接成功", zap.String("addr", cfg.Addr()), zap.Int("db", cfg.DB))
	return client, nil
}

// GetRedis 获取全局客户端，首次调用时按配置连接，失败时panic
func GetRedis() *redis.Client {
	redisOne.Do(func() {
		client, err := InitRedis(&config.GlobalConfig.Redis)
		if err != nil {
			panic(fmt.Sprintf("redis初始化失败: %v", err))
		}
		Redis = client
	})
	return Redis
}
