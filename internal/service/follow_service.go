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
	"github.com/nsxzhou1114/gram-api/pkg/apperr"
	"github.com/nsxzhou1114/gram-api/pkg/cache"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	followService     *FollowService
	followServiceOnce sync.Once
)

// FollowService 关注关系服务
type FollowService struct {
	db            *gorm.DB
	logger        *zap.SugaredLogger
	notifications *NotificationService
	publisher     messaging.Publisher
	stats         *cache.ProfileStatsCache
}

// NewFollowService 创建关注服务实例
func NewFollowService() *FollowService {
	followServiceOnce.Do(func() {
		followService = &FollowService{
			db:            database.GetDB(),
			logger:        logger.GetSugaredLogger(),
			notifications: NewNotificationService(),
			publisher:     messaging.GetPublisher(),
			stats:         cache.GetManager().GetProfileStats(),
		}
	})
	return followService
}

func (s *FollowService) getProfile(ctx context.Context, id uint) (*model.Profile, error) {
	var profile model.Profile
	if err := s.db.WithContext(ctx).First(&profile, "user_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("用户不存在")
		}
		return nil, fmt.Errorf("查询用户资料失败: %w", err)
	}
	return &profile, nil
}

// Toggle 关注或取消关注。私密账号且尚未关注时改为发送关注请求
func (s *FollowService) Toggle(ctx context.Context, actorID, targetID uint) (*dto.FollowResponse, error) {
	target, err := s.getProfile(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if actorID == targetID {
		return &dto.FollowResponse{State: dto.FollowStateSelf, Message: "不能关注自己"}, nil
	}

	var (
		resp         *dto.FollowResponse
		notification *model.Notification
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		following, err := isFollowing(tx, actorID, targetID)
		if err != nil {
			return err
		}

		switch {
		case following:
			if err := tx.Where("follower_id = ? AND followed_id = ?", actorID, targetID).
				Delete(&model.UserFollow{}).Error; err != nil {
				return fmt.Errorf("取消关注失败: %w", err)
			}
			key := notificationKey{SenderID: actorID, ReceiverID: targetID, Type: model.NotificationFollow}
			if err := s.notifications.deactivate(tx, key); err != nil {
				return err
			}
			resp = &dto.FollowResponse{State: dto.FollowStateUnfollowed, Message: "已取消关注"}

		case target.PrivateAccount:
			var pending int64
			if err := tx.Model(&model.FollowRequest{}).
				Where("sender_id = ? AND receiver_id = ? AND status = ?", actorID, targetID, model.FollowRequestSent).
				Count(&pending).Error; err != nil {
				return fmt.Errorf("查询关注请求失败: %w", err)
			}
			notified, err := s.notifications.hasActiveFollowRequest(tx, actorID, targetID)
			if err != nil {
				return err
			}
			if pending > 0 || notified {
				resp = &dto.FollowResponse{State: dto.FollowStateAlreadyRequested, Message: "已发送过关注请求"}
				return nil
			}

			request := &model.FollowRequest{SenderID: actorID, ReceiverID: targetID, Status: model.FollowRequestSent}
			if err := tx.Create(request).Error; err != nil {
				return fmt.Errorf("创建关注请求失败: %w", err)
			}
			key := notificationKey{SenderID: actorID, ReceiverID: targetID, Type: model.NotificationFollowRequest}
			if notification, err = s.notifications.activate(tx, key, ""); err != nil {
				return err
			}
			resp = &dto.FollowResponse{State: dto.FollowStateRequested, Message: "已发送关注请求"}

		default:
			if err := tx.Create(&model.UserFollow{FollowerID: actorID, FollowedID: targetID}).Error; err != nil {
				return fmt.Errorf("关注失败: %w", err)
			}
			key := notificationKey{SenderID: actorID, ReceiverID: targetID, Type: model.NotificationFollow}
			if notification, err = s.notifications.activate(tx, key, ""); err != nil {
				return err
			}
			resp = &dto.FollowResponse{State: dto.FollowStateFollowed, Message: "关注成功"}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterChange(ctx, actorID, targetID, resp.State, notification)
	return resp, nil
}

// afterChange 提交后清理计数缓存、推送通知并发布事件
func (s *FollowService) afterChange(ctx context.Context, followerID, followedID uint, state string, notification *model.Notification) {
	if state == dto.FollowStateAlreadyRequested {
		return
	}
	invalidateStats(ctx, s.stats, s.logger, followerID, followedID)
	s.notifications.dispatch(ctx, notification)
	if s.publisher != nil {
		event := messaging.FollowChangedEvent{
			FollowerID: followerID,
			FollowedID: followedID,
			State:      state,
			Timestamp:  messaging.Now(),
		}
		if err := s.publisher.Publish(messaging.SubjectFollowChanged, event); err != nil {
			s.logger.Warnf("发布关注事件失败: %v", err)
		}
	}
}

// Requests 当前用户收到的待处理关注请求
func (s *FollowService) Requests(ctx context.Context, actorID uint, page *dto.PageRequest) (*dto.PageResult[dto.FollowRequestResponse], error) {
	query := s.db.WithContext(ctx).Model(&model.FollowRequest{}).
		Where("receiver_id = ? AND status = ?", actorID, model.FollowRequestSent)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("统计关注请求失败: %w", err)
	}
	var requests []model.FollowRequest
	if err := query.Preload("Sender.Profile").
		Order(model.NewestFirst).
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("查询关注请求失败: %w", err)
	}

	list := make([]dto.FollowRequestResponse, 0, len(requests))
	for i := range requests {
		r := &requests[i]
		list = append(list, dto.FollowRequestResponse{
			ID:         r.ID,
			Sender:     toUserBrief(r.Sender),
			Status:     r.Status,
			Timestamps: dto.Timestamps{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
		})
	}
	return &dto.PageResult[dto.FollowRequestResponse]{List: list, Total: total, Page: page.Page, Size: page.PageSize}, nil
}

// Accept 接受关注请求，建立关注关系并通知
func (s *FollowService) Accept(ctx context.Context, actorID, requestID uint) error {
	return s.resolve(ctx, actorID, requestID, model.FollowRequestAccepted)
}

// Decline 拒绝关注请求
func (s *FollowService) Decline(ctx context.Context, actorID, requestID uint) error {
	return s.resolve(ctx, actorID, requestID, model.FollowRequestDeclined)
}

// resolve 只有接收者可以处理状态为sent的请求，其余情况一律视为不存在
func (s *FollowService) resolve(ctx context.Context, actorID, requestID uint, status string) error {
	var (
		request      model.FollowRequest
		notification *model.Notification
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND receiver_id = ? AND status = ?", requestID, actorID, model.FollowRequestSent).
			First(&request).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("关注请求不存在")
			}
			return fmt.Errorf("查询关注请求失败: %w", err)
		}

		if err := tx.Model(&request).Update("status", status).Error; err != nil {
			return fmt.Errorf("更新关注请求失败: %w", err)
		}
		if err := s.notifications.resolveFollowRequest(tx, request.SenderID, request.ReceiverID, status); err != nil {
			return err
		}
		if status != model.FollowRequestAccepted {
			return nil
		}

		following, err := isFollowing(tx, request.SenderID, request.ReceiverID)
		if err != nil {
			return err
		}
		if !following {
			if err := tx.Create(&model.UserFollow{FollowerID: request.SenderID, FollowedID: request.ReceiverID}).Error; err != nil {
				return fmt.Errorf("建立关注关系失败: %w", err)
			}
		}
		key := notificationKey{SenderID: request.SenderID, ReceiverID: request.ReceiverID, Type: model.NotificationFollow}
		notification, err = s.notifications.activate(tx, key, "")
		return err
	})
	if err != nil {
		return err
	}

	if status == model.FollowRequestAccepted {
		s.afterChange(ctx, request.SenderID, request.ReceiverID, dto.FollowStateFollowed, notification)
	}
	return nil
}

// Followers 粉丝列表，不包含自己
func (s *FollowService) Followers(ctx context.Context, viewerID, profileID uint, page *dto.PageRequest) (*dto.PageResult[dto.UserBrief], error) {
	sub := s.db.Model(&model.UserFollow{}).Select("follower_id").
		Where("followed_id = ? AND follower_id <> ?", profileID, profileID)
	return s.listUsers(ctx, viewerID, profileID, sub, page)
}

// Following 关注列表
func (s *FollowService) Following(ctx context.Context, viewerID, profileID uint, page *dto.PageRequest) (*dto.PageResult[dto.UserBrief], error) {
	sub := s.db.Model(&model.UserFollow{}).Select("followed_id").Where("follower_id = ?", profileID)
	return s.listUsers(ctx, viewerID, profileID, sub, page)
}

func (s *FollowService) listUsers(ctx context.Context, viewerID, profileID uint, ids *gorm.DB, page *dto.PageRequest) (*dto.PageResult[dto.UserBrief], error) {
	profile, err := s.getProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if err := ensureCanView(s.db.WithContext(ctx), viewerID, profile); err != nil {
		return nil, err
	}
	return pageUsers(s.db.WithContext(ctx).Where("id IN (?)", ids), page)
}

// pageUsers 分页查询用户摘要，按用户名排序
func pageUsers(query *gorm.DB, page *dto.PageRequest) (*dto.PageResult[dto.UserBrief], error) {
	query = query.Model(&model.User{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("统计用户失败: %w", err)
	}
	var users []model.User
	if err := query.Preload("Profile").
		Order("username ASC").
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return &dto.PageResult[dto.UserBrief]{List: toUserBriefs(users), Total: total, Page: page.Page, Size: page.PageSize}, nil
}
