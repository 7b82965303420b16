package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nsxzhou1114/gram-api/internal/database"
	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/nsxzhou1114/gram-api/internal/messaging"
	"github.com/nsxzhou1114/gram-api/internal/model"
	"github.com/nsxzhou1114/gram-api/pkg/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PushTypeNotification WebSocket推送的通知消息类型
const PushTypeNotification = websocket.TypeNotification

// Pusher 实时推送接口
type Pusher interface {
	Push(ctx context.Context, userID uint, msgType string, data interface{}) error
}

var (
	notificationService     *NotificationService
	notificationServiceOnce sync.Once
)

// NotificationService 通知服务，负责通知的去重、激活与失效
type NotificationService struct {
	db        *gorm.DB
	logger    *zap.SugaredLogger
	pusher    Pusher
	publisher messaging.Publisher
}

// NewNotificationService 创建通知服务实例
func NewNotificationService() *NotificationService {
	notificationServiceOnce.Do(func() {
		notificationService = &NotificationService{
			db:        database.GetDB(),
			logger:    logger.GetSugaredLogger(),
			pusher:    websocket.GetManager(),
			publisher: messaging.GetPublisher(),
		}
	})
	return notificationService
}

// notificationKey 通知去重键，同一键最多一条有效通知
type notificationKey struct {
	SenderID   uint
	ReceiverID uint
	ItemID     *uint
	CommentID  *uint
	Type       string
}

func (k notificationKey) scope(tx *gorm.DB) *gorm.DB {
	query := tx.Model(&model.Notification{}).
		Where("sender_id = ? AND receiver_id = ? AND notification_type = ?", k.SenderID, k.ReceiverID, k.Type)
	if k.ItemID != nil {
		query = query.Where("item_id = ?", *k.ItemID)
	} else {
		query = query.Where("item_id IS NULL")
	}
	if k.CommentID != nil {
		query = query.Where("comment_id = ?", *k.CommentID)
	} else {
		query = query.Where("comment_id IS NULL")
	}
	return query
}

// activate 获取或创建通知并置为有效。发送者与接收者相同时不产生通知，返回nil
func (s *NotificationService) activate(tx *gorm.DB, key notificationKey, snippet string) (*model.Notification, error) {
	if key.SenderID == key.ReceiverID {
		return nil, nil
	}

	status := ""
	if key.Type == model.NotificationFollowRequest {
		status = model.FollowRequestSent
	}

	var notification model.Notification
	err := key.scope(tx).Order("id ASC").First(&notification).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		notification = model.Notification{
			SenderID:       key.SenderID,
			ReceiverID:     key.ReceiverID,
			ItemID:         key.ItemID,
			CommentID:      key.CommentID,
			Type:           key.Type,
			Status:         status,
			CommentSnippet: snippet,
			IsActive:       true,
		}
		if err := tx.Create(&notification).Error; err != nil {
			return nil, fmt.Errorf("创建通知失败: %w", err)
		}
		return &notification, nil
	case err != nil:
		return nil, fmt.Errorf("查询通知失败: %w", err)
	}

	updates := map[string]interface{}{
		"is_active":       true,
		"status":          status,
		"comment_snippet": snippet,
	}
	if err := tx.Model(&notification).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("激活通知失败: %w", err)
	}
	notification.IsActive = true
	notification.Status = status
	notification.CommentSnippet = snippet
	return &notification, nil
}

// deactivate 将匹配的有效通知置为无效
func (s *NotificationService) deactivate(tx *gorm.DB, key notificationKey) error {
	if err := key.scope(tx).Where("is_active = ?", true).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("撤销通知失败: %w", err)
	}
	return nil
}

// deactivateTagsExcept 撤销作品上接收者不在keep中的标记通知
func (s *NotificationService) deactivateTagsExcept(tx *gorm.DB, senderID, itemID uint, keep []uint) error {
	query := tx.Model(&model.Notification{}).
		Where("sender_id = ? AND item_id = ? AND notification_type = ? AND is_active = ?",
			senderID, itemID, model.NotificationTag, true)
	if len(keep) > 0 {
		query = query.Where("receiver_id NOT IN ?", keep)
	}
	if err := query.Update("is_active", false).Error; err != nil {
		return fmt.Errorf("撤销标记通知失败: %w", err)
	}
	return nil
}

// resolveFollowRequest 关注请求处理后，原请求通知记录结果并失效
func (s *NotificationService) resolveFollowRequest(tx *gorm.DB, senderID, receiverID uint, status string) error {
	key := notificationKey{SenderID: senderID, ReceiverID: receiverID, Type: model.NotificationFollowRequest}
	if err := key.scope(tx).Where("is_active = ?", true).Updates(map[string]interface{}{
		"status":    status,
		"is_active": false,
	}).Error; err != nil {
		return fmt.Errorf("更新关注请求通知失败: %w", err)
	}
	return nil
}

// hasActiveFollowRequest 是否存在有效的关注请求通知
func (s *NotificationService) hasActiveFollowRequest(tx *gorm.DB, senderID, receiverID uint) (bool, error) {
	key := notificationKey{SenderID: senderID, ReceiverID: receiverID, Type: model.NotificationFollowRequest}
	var count int64
	if err := key.scope(tx).Where("is_active = ?", true).Count(&count).Error; err != nil {
		return false, fmt.Errorf("查询关注请求通知失败: %w", err)
	}
	return count > 0, nil
}

// deactivateForItem 作品删除时撤销所有相关通知
func (s *NotificationService) deactivateForItem(tx *gorm.DB, itemID uint) error {
	if err := tx.Model(&model.Notification{}).
		Where("item_id = ? AND is_active = ?", itemID, true).
		Update("is_active", false).Error; err != nil {
		return fmt.Errorf("撤销作品通知失败: %w", err)
	}
	return nil
}

// deactivateForComments 评论删除时撤销相关通知
func (s *NotificationService) deactivateForComments(tx *gorm.DB, commentIDs []uint) error {
	if len(commentIDs) == 0 {
		return nil
	}
	if err := tx.Model(&model.Notification{}).
		Where("comment_id IN ? AND is_active = ?", commentIDs, true).
		Update("is_active", false).Error; err != nil {
		return fmt.Errorf("撤销评论通知失败: %w", err)
	}
	return nil
}

// dispatch 事务提交后推送通知并发布事件，失败只记录日志
func (s *NotificationService) dispatch(ctx context.Context, notifications ...*model.Notification) {
	for _, n := range notifications {
		if n == nil {
			continue
		}

		if s.pusher != nil {
			var sender model.User
			if err := s.db.Preload("Profile").First(&sender, n.SenderID).Error; err != nil {
				s.logger.Warnf("加载通知发送者失败: %v", err)
			} else {
				n.Sender = &sender
			}
			slugs := s.itemSlugs([]model.Notification{*n})
			if err := s.pusher.Push(ctx, n.ReceiverID, PushTypeNotification, toNotificationResponse(n, slugs)); err != nil {
				s.logger.Warnf("推送通知失败: %v", err)
			}
		}

		if s.publisher != nil {
			event := messaging.NotificationEvent{
				NotificationID: n.ID,
				Type:           n.Type,
				SenderID:       n.SenderID,
				ReceiverID:     n.ReceiverID,
				ItemID:         n.ItemID,
				CommentID:      n.CommentID,
				Timestamp:      messaging.Now(),
			}
			if err := s.publisher.Publish(messaging.SubjectNotificationCreated, event); err != nil {
				s.logger.Warnf("发布通知事件失败: %v", err)
			}
		}
	}
}

// List 获取通知列表，返回后将接收者所有未读通知标记为已读
func (s *NotificationService) List(ctx context.Context, receiverID uint, page *dto.PageRequest) (*dto.PageResult[dto.NotificationResponse], error) {
	query := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("receiver_id = ? AND sender_id <> ? AND is_active = ?", receiverID, receiverID, true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("统计通知失败: %w", err)
	}

	var notifications []model.Notification
	if err := query.Preload("Sender.Profile").
		Order(model.NewestFirst).
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("查询通知失败: %w", err)
	}

	slugs := s.itemSlugs(notifications)
	list := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		list = append(list, toNotificationResponse(&notifications[i], slugs))
	}

	if err := s.MarkAllSeen(ctx, receiverID); err != nil {
		s.logger.Warnf("标记通知已读失败: %v", err)
	}

	return &dto.PageResult[dto.NotificationResponse]{List: list, Total: total, Page: page.Page, Size: page.PageSize}, nil
}

// MarkAllSeen 将接收者所有未读通知标记为已读
func (s *NotificationService) MarkAllSeen(ctx context.Context, receiverID uint) error {
	return s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("receiver_id = ? AND is_seen = ?", receiverID, false).
		Update("is_seen", true).Error
}

// UnreadCount 未读的有效通知数
func (s *NotificationService) UnreadCount(ctx context.Context, receiverID uint) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("receiver_id = ? AND sender_id <> ? AND is_active = ? AND is_seen = ?", receiverID, receiverID, true, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("统计未读通知失败: %w", err)
	}
	return count, nil
}

// itemSlugs 查询通知关联作品的slug
func (s *NotificationService) itemSlugs(notifications []model.Notification) map[uint]string {
	var ids []uint
	for _, n := range notifications {
		if n.ItemID != nil {
			ids = append(ids, *n.ItemID)
		}
	}
	slugs := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return slugs
	}

	var items []model.Item
	if err := s.db.Select("id", "slug").Where("id IN ?", ids).Find(&items).Error; err != nil {
		s.logger.Warnf("查询通知作品失败: %v", err)
		return slugs
	}
	for _, item := range items {
		slugs[item.ID] = item.Slug
	}
	return slugs
}
