package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/nsxzhou1114/gram-api/internal/database"
	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/nsxzhou1114/gram-api/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	feedService     *FeedService
	feedServiceOnce sync.Once
)

// FeedService 首页、热门、探索与推荐，全部是当前数据的只读查询
type FeedService struct {
	db      *gorm.DB
	logger  *zap.SugaredLogger
	feedCfg config.FeedConfig
	tags    *TagService
	view    itemView
}

// NewFeedService 创建信息流服务实例
func NewFeedService() *FeedService {
	feedServiceOnce.Do(func() {
		db := database.GetDB()
		feedService = &FeedService{
			db:     db,
			logger: logger.GetSugaredLogger(),
			tags:   NewTagService(),
			view:   itemView{db: db},
		}
		if cfg := config.GetConfig(); cfg != nil {
			feedService.feedCfg = cfg.Feed
		}
	})
	return feedService
}

func (s *FeedService) followingIDs(userID uint) *gorm.DB {
	return s.db.Model(&model.UserFollow{}).Select("followed_id").Where("follower_id = ?", userID)
}

func (s *FeedService) publicAccountIDs() *gorm.DB {
	return s.db.Model(&model.Profile{}).Select("user_id").Where("private_account = ?", false)
}

// feedScope 自己和关注的人发布的作品
func (s *FeedService) feedScope(db *gorm.DB, userID uint) *gorm.DB {
	return db.Where("items.owner_id = ? OR items.owner_id IN (?)", userID, s.followingIDs(userID))
}

// availableScope 自己、关注的人以及所有公开账号发布的作品
func (s *FeedService) availableScope(db *gorm.DB, userID uint) *gorm.DB {
	return db.Where("items.owner_id = ? OR items.owner_id IN (?) OR items.owner_id IN (?)",
		userID, s.followingIDs(userID), s.publicAccountIDs())
}

// Feed 首页信息流，按发布时间倒序
func (s *FeedService) Feed(ctx context.Context, userID uint, page *dto.PageRequest) (*dto.PageResult[dto.ItemListResponse], error) {
	return s.view.page(ctx, s.feedScope(s.db.WithContext(ctx), userID), page)
}

// Available 可见作品，按发布时间倒序
func (s *FeedService) Available(ctx context.Context, userID uint, page *dto.PageRequest) (*dto.PageResult[dto.ItemListResponse], error) {
	return s.view.page(ctx, s.availableScope(s.db.WithContext(ctx), userID), page)
}

// Explore 可见作品中去掉自己发布的
func (s *FeedService) Explore(ctx context.Context, userID uint, page *dto.PageRequest) (*dto.PageResult[dto.ItemListResponse], error) {
	query := s.availableScope(s.db.WithContext(ctx), userID).Where("items.owner_id <> ?", userID)
	return s.view.page(ctx, query, page)
}

// HashtagItems 带有该话题的可见作品
func (s *FeedService) HashtagItems(ctx context.Context, userID, hashtagID uint, page *dto.PageRequest) (*dto.PageResult[dto.ItemListResponse], error) {
	if _, err := s.tags.Get(ctx, hashtagID); err != nil {
		return nil, err
	}
	sub := s.db.Model(&model.ItemHashtag{}).Select("item_id").Where("hashtag_id = ?", hashtagID)
	query := s.availableScope(s.db.WithContext(ctx), userID).Where("items.id IN (?)", sub)
	return s.view.page(ctx, query, page)
}

type trendingRow struct {
	ID        uint
	LikeCount int64
}

// Trending 可见作品按点赞数倒序，点赞数相同时新的在前。limit<=0时使用配置值
func (s *FeedService) Trending(ctx context.Context, userID uint, limit int) ([]dto.ItemListResponse, error) {
	if limit <= 0 {
		limit = s.feedCfg.TrendingLimit
	}
	if limit <= 0 {
		limit = 6
	}

	db := s.db.WithContext(ctx)
	var rows []trendingRow
	if err := s.availableScope(db.Model(&model.Item{}), userID).
		Select("items.id AS id, COUNT(item_likes.id) AS like_count").
		Joins("LEFT JOIN item_likes ON item_likes.item_id = items.id").
		Group("items.id, items.created_at").
		Order("like_count DESC, items.created_at DESC, items.id DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询热门作品失败: %w", err)
	}
	if len(rows) == 0 {
		return []dto.ItemListResponse{}, nil
	}

	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	var items []model.Item
	if err := db.Preload("Owner.Profile").Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("查询作品失败: %w", err)
	}
	byID := make(map[uint]model.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	ordered := make([]model.Item, 0, len(items))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		}
	}
	return s.view.list(ctx, ordered)
}

// SuggestedProfiles 推荐用户：关注的人所关注的人与未回关的粉丝的并集，
// 再与已发出待处理请求的用户做对称差，按资料创建时间倒序
func (s *FeedService) SuggestedProfiles(ctx context.Context, userID uint, limit int) ([]dto.UserBrief, error) {
	if limit <= 0 {
		limit = s.feedCfg.SuggestionLimit
	}
	if limit <= 0 {
		limit = 6
	}
	db := s.db.WithContext(ctx)

	var following []uint
	if err := db.Model(&model.UserFollow{}).
		Where("follower_id = ? AND followed_id <> ?", userID, userID).
		Pluck("followed_id", &following).Error; err != nil {
		return nil, fmt.Errorf("查询关注列表失败: %w", err)
	}
	followingSet := toSet(following)

	candidates := make(map[uint]struct{})
	if len(following) > 0 {
		var mutual []uint
		if err := db.Model(&model.UserFollow{}).
			Where("follower_id IN ?", following).
			Distinct().Pluck("followed_id", &mutual).Error; err != nil {
			return nil, fmt.Errorf("查询共同关注失败: %w", err)
		}
		for _, id := range mutual {
			if _, ok := followingSet[id]; !ok && id != userID {
				candidates[id] = struct{}{}
			}
		}
	}

	var followers []uint
	if err := db.Model(&model.UserFollow{}).
		Where("followed_id = ? AND follower_id <> ?", userID, userID).
		Pluck("follower_id", &followers).Error; err != nil {
		return nil, fmt.Errorf("查询粉丝失败: %w", err)
	}
	for _, id := range followers {
		if _, ok := followingSet[id]; !ok {
			candidates[id] = struct{}{}
		}
	}

	var pending []uint
	if err := db.Model(&model.FollowRequest{}).
		Where("sender_id = ? AND status = ?", userID, model.FollowRequestSent).
		Distinct().Pluck("receiver_id", &pending).Error; err != nil {
		return nil, fmt.Errorf("查询关注请求失败: %w", err)
	}
	for _, id := range pending {
		if _, ok := candidates[id]; ok {
			delete(candidates, id)
		} else {
			candidates[id] = struct{}{}
		}
	}
	if len(candidates) == 0 {
		return []dto.UserBrief{}, nil
	}

	ids := make([]uint, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	var users []model.User
	if err := db.Preload("Profile").
		Joins("JOIN profiles ON profiles.user_id = users.id").
		Where("users.id IN ?", ids).
		Order("profiles.created_at DESC, users.id DESC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("查询推荐用户失败: %w", err)
	}
	return toUserBriefs(users), nil
}

func toSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
