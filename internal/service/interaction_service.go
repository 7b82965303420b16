package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nsxzhou1114/gram-api/internal/database"
	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/nsxzhou1114/gram-api/internal/model"
	"github.com/nsxzhou1114/gram-api/pkg/apperr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	interactionService     *InteractionService
	interactionServiceOnce sync.Once
)

// InteractionService 点赞与收藏
type InteractionService struct {
	db            *gorm.DB
	logger        *zap.SugaredLogger
	notifications *NotificationService
}

// NewInteractionService 创建互动服务实例
func NewInteractionService() *InteractionService {
	interactionServiceOnce.Do(func() {
		interactionService = &InteractionService{
			db:            database.GetDB(),
			logger:        logger.GetSugaredLogger(),
			notifications: NewNotificationService(),
		}
	})
	return interactionService
}

// edgeToggle 一次切换操作的参数
type edgeToggle struct {
	model   interface{}
	column  string
	target  uint
	actor   uint
	newEdge func() interface{}
	// key 为nil时不产生通知
	key *notificationKey
}

// toggle 存在则删除并撤销通知，不存在则创建并激活通知，返回切换后是否存在和当前总数
func (s *InteractionService) toggle(ctx context.Context, t edgeToggle) (bool, int64, error) {
	var (
		exists       bool
		count        int64
		notification *model.Notification
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		where := fmt.Sprintf("%s = ? AND user_id = ?", t.column)
		var n int64
		if err := tx.Model(t.model).Where(where, t.target, t.actor).Count(&n).Error; err != nil {
			return fmt.Errorf("查询状态失败: %w", err)
		}

		if n > 0 {
			if err := tx.Where(where, t.target, t.actor).Delete(t.model).Error; err != nil {
				return fmt.Errorf("取消失败: %w", err)
			}
			if t.key != nil {
				if err := s.notifications.deactivate(tx, *t.key); err != nil {
					return err
				}
			}
		} else {
			if err := tx.Create(t.newEdge()).Error; err != nil {
				return fmt.Errorf("保存失败: %w", err)
			}
			exists = true
			if t.key != nil {
				var err error
				if notification, err = s.notifications.activate(tx, *t.key, ""); err != nil {
					return err
				}
			}
		}

		if err := tx.Model(t.model).Where(t.column+" = ?", t.target).Count(&count).Error; err != nil {
			return fmt.Errorf("统计数量失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	s.notifications.dispatch(ctx, notification)
	return exists, count, nil
}

// viewableItem 查询作品并校验可见性
func (s *InteractionService) viewableItem(ctx context.Context, viewerID, itemID uint) (*model.Item, error) {
	db := s.db.WithContext(ctx)
	item, err := findItem(db, itemID)
	if err != nil {
		return nil, err
	}
	if err := ensureCanView(db, viewerID, item); err != nil {
		return nil, err
	}
	return item, nil
}

// viewableComment 查询评论并校验所属作品的可见性
func (s *InteractionService) viewableComment(ctx context.Context, viewerID, commentID uint) (*model.Comment, error) {
	db := s.db.WithContext(ctx)
	comment, err := findComment(db, commentID)
	if err != nil {
		return nil, err
	}
	if err := ensureCanView(db, viewerID, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ToggleItemLike 点赞或取消点赞作品
func (s *InteractionService) ToggleItemLike(ctx context.Context, actorID, itemID uint) (*dto.ToggleResponse, error) {
	item, err := s.viewableItem(ctx, actorID, itemID)
	if err != nil {
		return nil, err
	}
	liked, count, err := s.toggle(ctx, edgeToggle{
		model:   &model.ItemLike{},
		column:  "item_id",
		target:  item.ID,
		actor:   actorID,
		newEdge: func() interface{} { return &model.ItemLike{UserID: actorID, ItemID: item.ID} },
		key: &notificationKey{
			SenderID:   actorID,
			ReceiverID: item.OwnerID,
			ItemID:     uintPtr(item.ID),
			Type:       model.NotificationLike,
		},
	})
	if err != nil {
		return nil, err
	}
	state := dto.ToggleStateUnliked
	if liked {
		state = dto.ToggleStateLiked
	}
	return &dto.ToggleResponse{State: state, Count: count}, nil
}

// ToggleFavourite 收藏或取消收藏作品，不产生通知
func (s *InteractionService) ToggleFavourite(ctx context.Context, actorID, itemID uint) (*dto.ToggleResponse, error) {
	item, err := s.viewableItem(ctx, actorID, itemID)
	if err != nil {
		return nil, err
	}
	favourited, count, err := s.toggle(ctx, edgeToggle{
		model:   &model.ItemFavourite{},
		column:  "item_id",
		target:  item.ID,
		actor:   actorID,
		newEdge: func() interface{} { return &model.ItemFavourite{UserID: actorID, ItemID: item.ID} },
	})
	if err != nil {
		return nil, err
	}
	state := dto.ToggleStateUnfavourited
	if favourited {
		state = dto.ToggleStateFavourited
	}
	return &dto.ToggleResponse{State: state, Count: count}, nil
}

// ToggleCommentLike 点赞或取消点赞评论
func (s *InteractionService) ToggleCommentLike(ctx context.Context, actorID, commentID uint) (*dto.ToggleResponse, error) {
	comment, err := s.viewableComment(ctx, actorID, commentID)
	if err != nil {
		return nil, err
	}
	liked, count, err := s.toggle(ctx, edgeToggle{
		model:   &model.CommentLike{},
		column:  "comment_id",
		target:  comment.ID,
		actor:   actorID,
		newEdge: func() interface{} { return &model.CommentLike{UserID: actorID, CommentID: comment.ID} },
		key: &notificationKey{
			SenderID:   actorID,
			ReceiverID: comment.OwnerID,
			ItemID:     uintPtr(comment.ItemID),
			CommentID:  uintPtr(comment.ID),
			Type:       model.NotificationCommentLike,
		},
	})
	if err != nil {
		return nil, err
	}
	state := dto.ToggleStateUnliked
	if liked {
		state = dto.ToggleStateLiked
	}
	return &dto.ToggleResponse{State: state, Count: count}, nil
}

// ItemLikes 点赞作品的用户
func (s *InteractionService) ItemLikes(ctx context.Context, viewerID, itemID uint, page *dto.PageRequest) (*dto.PageResult[dto.UserBrief], error) {
	if _, err := s.viewableItem(ctx, viewerID, itemID); err != nil {
		return nil, err
	}
	sub := s.db.Model(&model.ItemLike{}).Select("user_id").Where("item_id = ?", itemID)
	return pageUsers(s.db.WithContext(ctx).Where("id IN (?)", sub), page)
}

// ItemFavourites 收藏作品的用户
func (s *InteractionService) ItemFavourites(ctx context.Context, viewerID, itemID uint, page *dto.PageRequest) (*dto.PageResult[dto.UserBrief], error) {
	if _, err := s.viewableItem(ctx, viewerID, itemID); err != nil {
		return nil, err
	}
	sub := s.db.Model(&model.ItemFavourite{}).Select("user_id").Where("item_id = ?", itemID)
	return pageUsers(s.db.WithContext(ctx).Where("id IN (?)", sub), page)
}

// CommentLikes 点赞评论的用户
func (s *InteractionService) CommentLikes(ctx context.Context, viewerID, commentID uint, page *dto.PageRequest) (*dto.PageResult[dto.UserBrief], error) {
	if _, err := s.viewableComment(ctx, viewerID, commentID); err != nil {
		return nil, err
	}
	sub := s.db.Model(&model.CommentLike{}).Select("user_id").Where("comment_id = ?", commentID)
	return pageUsers(s.db.WithContext(ctx).Where("id IN (?)", sub), page)
}

// findComment 查询评论并预加载所属作品
func findComment(db *gorm.DB, id uint) (*model.Comment, error) {
	var comment model.Comment
	if err := db.Preload("Item").Preload("Owner.Profile").First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("评论不存在")
		}
		return nil, fmt.Errorf("查询评论失败: %w", err)
	}
	return &comment, nil
}
