package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"sync"

	"github.com/avast/retry-go"
	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/nsxzhou1114/gram-api/internal/database"
	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/nsxzhou1114/gram-api/internal/messaging"
	"github.com/nsxzhou1114/gram-api/internal/model"
	"github.com/nsxzhou1114/gram-api/pkg/apperr"
	"github.com/nsxzhou1114/gram-api/pkg/cache"
	"github.com/nsxzhou1114/gram-api/pkg/storage"
	"github.com/nsxzhou1114/gram-api/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errSlugTaken = errors.New("slug已被占用")

var (
	itemService     *ItemService
	itemServiceOnce sync.Once
)

// ItemService 作品服务
type ItemService struct {
	db            *gorm.DB
	logger        *zap.SugaredLogger
	feedCfg       config.FeedConfig
	storageCfg    *config.StorageConfig
	storage       storage.Storage
	filter        *TextFilter
	tags          *TagService
	notifications *NotificationService
	publisher     messaging.Publisher
	stats         *cache.ProfileStatsCache
	view          itemView
}

// NewItemService 创建作品服务实例
func NewItemService() *ItemService {
	itemServiceOnce.Do(func() {
		db := database.GetDB()
		itemService = &ItemService{
			db:            db,
			logger:        logger.GetSugaredLogger(),
			storage:       storage.Default(),
			filter:        NewTextFilter(),
			tags:          NewTagService(),
			notifications: NewNotificationService(),
			publisher:     messaging.GetPublisher(),
			stats:         cache.GetManager().GetProfileStats(),
			view:          itemView{db: db},
		}
		if cfg := config.GetConfig(); cfg != nil {
			itemService.feedCfg = cfg.Feed
			itemService.storageCfg = &cfg.Storage
		}
	})
	return itemService
}

// generateSlug 生成唯一slug，超过尝试次数返回Internal错误
func (s *ItemService) generateSlug(tx *gorm.DB) (string, error) {
	length := s.feedCfg.SlugLength
	if length <= 0 {
		length = 10
	}
	attempts := s.feedCfg.SlugAttempts
	if attempts <= 0 {
		attempts = 5
	}

	var slug string
	err := retry.Do(
		func() error {
			candidate, err := utils.RandomString(length)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			var count int64
			if err := tx.Model(&model.Item{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
				return retry.Unrecoverable(err)
			}
			if count > 0 {
				return errSlugTaken
			}
			slug = candidate
			return nil
		},
		retry.Attempts(uint(attempts)),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", apperr.Internal("生成作品标识失败", err)
	}
	return slug, nil
}

// Create 发布作品，图片先写入存储，事务失败时删除
func (s *ItemService) Create(ctx context.Context, ownerID uint, req *dto.ItemCreateRequest, header *multipart.FileHeader) (*dto.ItemResponse, error) {
	if s.storage == nil || s.storageCfg == nil {
		return nil, apperr.Internal("存储未初始化", nil)
	}
	file, err := storage.ReadImage(s.storageCfg, header)
	if err != nil {
		return nil, err
	}
	key, err := storage.ItemImageKey(ownerID, file)
	if err != nil {
		return nil, fmt.Errorf("生成图片名称失败: %w", err)
	}
	url, err := s.storage.Put(ctx, key, file.Data, file.ContentType)
	if err != nil {
		return nil, fmt.Errorf("保存图片失败: %w", err)
	}

	item, notifications, err := s.create(ctx, ownerID, url, req)
	if err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Warnf("删除图片失败: %v", delErr)
		}
		return nil, err
	}

	invalidateStats(ctx, s.stats, s.logger, ownerID)
	s.notifications.dispatch(ctx, notifications...)
	s.publishCreated(item, req.Hashtags)
	return s.Get(ctx, ownerID, item.ID)
}

// create 在事务中写入作品、话题和标记，返回需要推送的通知
func (s *ItemService) create(ctx context.Context, ownerID uint, image string, req *dto.ItemCreateRequest) (*model.Item, []*model.Notification, error) {
	item := &model.Item{
		OwnerID:         ownerID,
		Image:           image,
		Caption:         s.filter.Clean(req.Caption),
		RestrictComment: req.RestrictComment,
	}
	var notifications []*model.Notification

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := s.generateSlug(tx)
		if err != nil {
			return err
		}
		item.Slug = slug
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("创建作品失败: %w", err)
		}
		if err := s.replaceHashtags(tx, item.ID, req.Hashtags); err != nil {
			return err
		}
		notifications, err = s.replaceTags(ctx, tx, item, req.Tags)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return item, notifications, nil
}

// replaceHashtags 整体替换作品的话题
func (s *ItemService) replaceHashtags(tx *gorm.DB, itemID uint, names []string) error {
	if err := tx.Where("item_id = ?", itemID).Delete(&model.ItemHashtag{}).Error; err != nil {
		return fmt.Errorf("清除作品话题失败: %w", err)
	}
	hashtags, err := s.tags.ResolveHashtags(tx, names)
	if err != nil {
		return err
	}
	if len(hashtags) == 0 {
		return nil
	}
	links := make([]model.ItemHashtag, 0, len(hashtags))
	for _, h := range hashtags {
		links = append(links, model.ItemHashtag{ItemID: itemID, HashtagID: h.ID})
	}
	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("关联作品话题失败: %w", err)
	}
	return nil
}

// replaceTags 整体替换被标记用户。不再被标记的用户通知失效，
// 新集合中的用户通知获取或创建并重新激活，只返回新增标记对应的通知
func (s *ItemService) replaceTags(ctx context.Context, tx *gorm.DB, item *model.Item, usernames []string) ([]*model.Notification, error) {
	var previous []uint
	if err := tx.Model(&model.ItemTag{}).Where("item_id = ?", item.ID).Pluck("user_id", &previous).Error; err != nil {
		return nil, fmt.Errorf("查询作品标记失败: %w", err)
	}
	wasTagged := make(map[uint]bool, len(previous))
	for _, id := range previous {
		wasTagged[id] = true
	}

	users, err := s.tags.ResolveTags(ctx, tx, usernames)
	if err != nil {
		return nil, err
	}
	if err := tx.Where("item_id = ?", item.ID).Delete(&model.ItemTag{}).Error; err != nil {
		return nil, fmt.Errorf("清除作品标记失败: %w", err)
	}

	keep := make([]uint, 0, len(users))
	links := make([]model.ItemTag, 0, len(users))
	for _, u := range users {
		keep = append(keep, u.ID)
		links = append(links, model.ItemTag{ItemID: item.ID, UserID: u.ID})
	}
	if len(links) > 0 {
		if err := tx.Create(&links).Error; err != nil {
			return nil, fmt.Errorf("关联被标记用户失败: %w", err)
		}
	}

	if err := s.notifications.deactivateTagsExcept(tx, item.OwnerID, item.ID, keep); err != nil {
		return nil, err
	}
	var created []*model.Notification
	for _, id := range keep {
		key := notificationKey{SenderID: item.OwnerID, ReceiverID: id, ItemID: uintPtr(item.ID), Type: model.NotificationTag}
		n, err := s.notifications.activate(tx, key, "")
		if err != nil {
			return nil, err
		}
		if n != nil && !wasTagged[id] {
			created = append(created, n)
		}
	}
	return created, nil
}

func (s *ItemService) publishCreated(item *model.Item, hashtags []string) {
	if s.publisher == nil {
		return
	}
	event := messaging.ItemCreatedEvent{
		ItemID:    item.ID,
		OwnerID:   item.OwnerID,
		Slug:      item.Slug,
		Hashtags:  hashtags,
		Timestamp: messaging.Now(),
	}
	if err := s.publisher.Publish(messaging.SubjectItemCreated, event); err != nil {
		s.logger.Warnf("发布作品事件失败: %v", err)
	}
}

// getItem 查询作品并预加载作者
func (s *ItemService) getItem(ctx context.Context, id uint) (*model.Item, error) {
	return findItem(s.db.WithContext(ctx), id)
}

func findItem(db *gorm.DB, id uint) (*model.Item, error) {
	var item model.Item
	if err := db.Preload("Owner.Profile").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("作品不存在")
		}
		return nil, fmt.Errorf("查询作品失败: %w", err)
	}
	return &item, nil
}

// getOwnedItem 只有作者可以修改作品
func (s *ItemService) getOwnedItem(ctx context.Context, actorID, id uint) (*model.Item, error) {
	item, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != actorID {
		return nil, apperr.PermissionDenied("只有作者可以修改作品")
	}
	return item, nil
}

// Get 作品详情，私密账号的作品只有作者和粉丝可见
func (s *ItemService) Get(ctx context.Context, viewerID, id uint) (*dto.ItemResponse, error) {
	item, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureCanView(s.db.WithContext(ctx), viewerID, item); err != nil {
		return nil, err
	}
	return s.view.detail(ctx, viewerID, item)
}

// Update 更新作品，话题和标记整体替换
func (s *ItemService) Update(ctx context.Context, actorID, id uint, req *dto.ItemUpdateRequest) (*dto.ItemResponse, error) {
	item, err := s.getOwnedItem(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Caption != nil {
		updates["caption"] = s.filter.Clean(*req.Caption)
	}
	if req.RestrictComment != nil {
		updates["restrict_comment"] = *req.RestrictComment
	}

	var notifications []*model.Notification
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&model.Item{}).Where("id = ?", item.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("更新作品失败: %w", err)
			}
		}
		if req.Hashtags != nil {
			if err := s.replaceHashtags(tx, item.ID, *req.Hashtags); err != nil {
				return err
			}
		}
		if req.Tags != nil {
			var err error
			if notifications, err = s.replaceTags(ctx, tx, item, *req.Tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.dispatch(ctx, notifications...)
	return s.Get(ctx, actorID, item.ID)
}

// Delete 删除作品及其关联数据，相关通知只置为无效
func (s *ItemService) Delete(ctx context.Context, actorID, id uint) error {
	item, err := s.getOwnedItem(ctx, actorID, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var commentIDs []uint
		if err := tx.Model(&model.Comment{}).Where("item_id = ?", item.ID).Pluck("id", &commentIDs).Error; err != nil {
			return fmt.Errorf("查询作品评论失败: %w", err)
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&model.CommentLike{}).Error; err != nil {
				return fmt.Errorf("删除评论点赞失败: %w", err)
			}
		}
		for _, m := range []interface{}{&model.Comment{}, &model.ItemLike{}, &model.ItemFavourite{}, &model.ItemHashtag{}, &model.ItemTag{}} {
			if err := tx.Where("item_id = ?", item.ID).Delete(m).Error; err != nil {
				return fmt.Errorf("删除作品关联数据失败: %w", err)
			}
		}
		if err := s.notifications.deactivateForItem(tx, item.ID); err != nil {
			return err
		}
		if err := tx.Delete(&model.Item{}, item.ID).Error; err != nil {
			return fmt.Errorf("删除作品失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	invalidateStats(ctx, s.stats, s.logger, item.OwnerID)
	return nil
}

// UserItems 用户发布的作品
func (s *ItemService) UserItems(ctx context.Context, viewerID, profileID uint, page *dto.PageRequest) (*dto.PageResult[dto.ItemListResponse], error) {
	if err := s.ensureCanViewProfile(ctx, viewerID, profileID); err != nil {
		return nil, err
	}
	return s.view.page(ctx, s.db.WithContext(ctx).Where("owner_id = ?", profileID), page)
}

// UserFavourites 用户收藏的作品
func (s *ItemService) UserFavourites(ctx context.Context, viewerID, profileID uint, page *dto.PageRequest) (*dto.PageResult[dto.ItemListResponse], error) {
	if err := s.ensureCanViewProfile(ctx, viewerID, profileID); err != nil {
		return nil, err
	}
	sub := s.db.Model(&model.ItemFavourite{}).Select("item_id").Where("user_id = ?", profileID)
	return s.view.page(ctx, s.db.WithContext(ctx).Where("id IN (?)", sub), page)
}

// UserTagged 用户被标记的作品
func (s *ItemService) UserTagged(ctx context.Context, viewerID, profileID uint, page *dto.PageRequest) (*dto.PageResult[dto.ItemListResponse], error) {
	if err := s.ensureCanViewProfile(ctx, viewerID, profileID); err != nil {
		return nil, err
	}
	sub := s.db.Model(&model.ItemTag{}).Select("item_id").Where("user_id = ?", profileID)
	return s.view.page(ctx, s.db.WithContext(ctx).Where("id IN (?)", sub), page)
}

func (s *ItemService) ensureCanViewProfile(ctx context.Context, viewerID, profileID uint) error {
	return ensureCanView(s.db.WithContext(ctx), viewerID, &model.Profile{UserID: profileID})
}
