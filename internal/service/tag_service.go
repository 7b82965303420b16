package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nsxzhou1114/gram-api/internal/database"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/nsxzhou1114/gram-api/internal/model"
	"github.com/nsxzhou1114/gram-api/pkg/apperr"
	"github.com/nsxzhou1114/gram-api/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	tagService     *TagService
	tagServiceOnce sync.Once
)

// TagService 话题与用户标记解析
type TagService struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// NewTagService 创建标记服务实例
func NewTagService() *TagService {
	tagServiceOnce.Do(func() {
		tagService = &TagService{
			db:     database.GetDB(),
			logger: logger.GetSugaredLogger(),
		}
	})
	return tagService
}

// ResolveHashtags 按名称不区分大小写获取或创建话题，重复名称合并为一个
func (s *TagService) ResolveHashtags(tx *gorm.DB, names []string) ([]model.Hashtag, error) {
	seen := make(map[uint]struct{}, len(names))
	hashtags := make([]model.Hashtag, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		hashtag, err := s.getOrCreateHashtag(tx, name)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[hashtag.ID]; ok {
			continue
		}
		seen[hashtag.ID] = struct{}{}
		hashtags = append(hashtags, *hashtag)
	}
	return hashtags, nil
}

func (s *TagService) getOrCreateHashtag(tx *gorm.DB, name string) (*model.Hashtag, error) {
	var hashtag model.Hashtag
	err := tx.Where("LOWER(name) = LOWER(?)", name).Order("id ASC").First(&hashtag).Error
	if err == nil {
		return &hashtag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询话题失败: %w", err)
	}

	slug := utils.SlugifyHashtag(name)
	if slug == "" {
		return nil, apperr.Validation(fmt.Sprintf("无效的话题: %s", name))
	}
	// 不同名称可能生成相同slug，复用已有话题
	err = tx.Where("slug = ?", slug).First(&hashtag).Error
	if err == nil {
		return &hashtag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询话题失败: %w", err)
	}

	hashtag = model.Hashtag{Name: name, Slug: slug}
	if err := tx.Create(&hashtag).Error; err != nil {
		return nil, fmt.Errorf("创建话题失败: %w", err)
	}
	return &hashtag, nil
}

// ResolveTags 按用户名不区分大小写查找被标记用户，不存在的用户名直接忽略
func (s *TagService) ResolveTags(ctx context.Context, tx *gorm.DB, usernames []string) ([]model.User, error) {
	lowered := make([]string, 0, len(usernames))
	seen := make(map[string]struct{}, len(usernames))
	for _, raw := range usernames {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "@")))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		lowered = append(lowered, name)
	}
	if len(lowered) == 0 {
		return []model.User{}, nil
	}

	var users []model.User
	if err := tx.WithContext(ctx).Where("LOWER(username) IN ?", lowered).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("查询被标记用户失败: %w", err)
	}
	return users, nil
}

// Get 获取话题
func (s *TagService) Get(ctx context.Context, id uint) (*model.Hashtag, error) {
	var hashtag model.Hashtag
	if err := s.db.WithContext(ctx).First(&hashtag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("话题不存在")
		}
		return nil, fmt.Errorf("查询话题失败: %w", err)
	}
	return &hashtag, nil
}
