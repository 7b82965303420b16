package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	profileStatsKey = "profile:stats:%d"
	profileStatsTTL = 5 * time.Minute
)

// ProfileStats 用户资料计数
type ProfileStats struct {
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
	ItemsCount     int64 `json:"items_count"`
}

// ProfileStatsCache 用户资料计数缓存，关注关系或作品变化时失效
type ProfileStatsCache struct {
	cache *JSONCache
}

// NewProfileStatsCache 创建资料计数缓存
func NewProfileStatsCache(cache *JSONCache) *ProfileStatsCache {
	return &ProfileStatsCache{cache: cache}
}

// Get 读取计数，未命中或出错时返回false
func (p *ProfileStatsCache) Get(ctx context.Context, userID uint) (*ProfileStats, bool) {
	var stats ProfileStats
	ok, err := p.cache.Get(ctx, fmt.Sprintf(profileStatsKey, userID), &stats)
	if err != nil || !ok {
		return nil, false
	}
	return &stats, true
}

// Set 写入计数
func (p *ProfileStatsCache) Set(ctx context.Context, userID uint, stats *ProfileStats) error {
	return p.cache.Set(ctx, fmt.Sprintf(profileStatsKey, userID), stats, profileStatsTTL)
}

// Invalidate 删除计数
func (p *ProfileStatsCache) Invalidate(ctx context.Context, userIDs ...uint) error {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, fmt.Sprintf(profileStatsKey, id))
	}
	return p.cache.Delete(ctx, keys...)
}
