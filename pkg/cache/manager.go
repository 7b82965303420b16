package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Manager 缓存管理器，未初始化时各组件为nil，调用方按未启用处理
type Manager struct {
	mu           sync.RWMutex
	client       *redis.Client
	profileStats *ProfileStatsCache
	usernames    *UsernameFilter
}

var (
	instance *Manager
	once     sync.Once
)

// GetManager 获取缓存管理器单例
func GetManager() *Manager {
	once.Do(func() {
		instance = &Manager{}
	})
	return instance
}

// Initialize 创建缓存组件，加载用户名快照并用数据库中的用户名预热
func (m *Manager) Initialize(ctx context.Context, client *redis.Client, db *gorm.DB) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		return nil
	}

	usernames := NewUsernameFilter(client)
	if err := usernames.Load(ctx); err != nil {
		return err
	}
	if db != nil {
		var names []string
		if err := db.WithContext(ctx).Table("users").Pluck("username", &names).Error; err != nil {
			return fmt.Errorf("load usernames failed: %w", err)
		}
		if err := usernames.BatchAdd(ctx, names); err != nil {
			return err
		}
	}

	m.client = client
	m.usernames = usernames
	m.profileStats = NewProfileStatsCache(NewJSONCache(client))
	return nil
}

// GetProfileStats 资料计数缓存
func (m *Manager) GetProfileStats() *ProfileStatsCache {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profileStats
}

// GetUsernameFilter 用户名过滤器
func (m *Manager) GetUsernameFilter() *UsernameFilter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usernames
}

// SaveBloomFilters 保存布隆过滤器快照，由定时任务调用
func (m *Manager) SaveBloomFilters(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.usernames == nil {
		return fmt.Errorf("cache manager not initialized")
	}
	return m.usernames.Save(ctx)
}

// Close 保存快照并关闭连接
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil
	}

	saveErr := m.usernames.Save(context.Background())
	closeErr := m.client.Close()
	m.client, m.usernames, m.profileStats = nil, nil, nil
	if saveErr != nil {
		return fmt.Errorf("save username filter failed: %w", saveErr)
	}
	return closeErr
}
