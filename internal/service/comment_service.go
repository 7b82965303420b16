package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/nsxzhou1114/gram-api/internal/database"
	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/nsxzhou1114/gram-api/internal/model"
	"github.com/nsxzhou1114/gram-api/pkg/apperr"
	"github.com/nsxzhou1114/gram-api/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	commentService     *CommentService
	commentServiceOnce sync.Once
)

// CommentService 评论服务，评论只有一层回复
type CommentService struct {
	db            *gorm.DB
	logger        *zap.SugaredLogger
	filter        *TextFilter
	notifications *NotificationService
}

// NewCommentService 创建评论服务实例
func NewCommentService() *CommentService {
	commentServiceOnce.Do(func() {
		commentService = &CommentService{
			db:            database.GetDB(),
			logger:        logger.GetSugaredLogger(),
			filter:        NewTextFilter(),
			notifications: NewNotificationService(),
		}
	})
	return commentService
}

// Create 发表顶层评论
func (s *CommentService) Create(ctx context.Context, actorID, itemID uint, req *dto.CommentCreateRequest) (*dto.CommentResponse, error) {
	db := s.db.WithContext(ctx)
	item, err := findItem(db, itemID)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, actorID, item, nil, req.Content)
}

// Reply 回复评论。回复的回复挂到同一条顶层评论下
func (s *CommentService) Reply(ctx context.Context, actorID, commentID uint, req *dto.CommentCreateRequest) (*dto.CommentResponse, error) {
	db := s.db.WithContext(ctx)
	parent, err := findComment(db, commentID)
	if err != nil {
		return nil, err
	}
	rootID := parent.ID
	if parent.ReplyID != nil {
		rootID = *parent.ReplyID
	}
	return s.create(ctx, actorID, parent.Item, &rootID, req.Content)
}

func (s *CommentService) create(ctx context.Context, actorID uint, item *model.Item, replyID *uint, content string) (*dto.CommentResponse, error) {
	if item == nil {
		return nil, apperr.NotFound("作品不存在")
	}
	db := s.db.WithContext(ctx)
	if err := ensureCanView(db, actorID, item); err != nil {
		return nil, err
	}
	if item.RestrictComment && item.OwnerID != actorID {
		return nil, apperr.PermissionDenied("作者已关闭评论")
	}
	content = s.filter.Clean(content)
	if content == "" {
		return nil, apperr.Validation("评论内容不能为空")
	}

	comment := &model.Comment{ItemID: item.ID, OwnerID: actorID, ReplyID: replyID, Content: content}
	var notification *model.Notification
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return fmt.Errorf("创建评论失败: %w", err)
		}
		key := notificationKey{
			SenderID:   actorID,
			ReceiverID: item.OwnerID,
			ItemID:     uintPtr(item.ID),
			CommentID:  uintPtr(comment.ID),
			Type:       model.NotificationComment,
		}
		var err error
		notification, err = s.notifications.activate(tx, key, utils.Truncate(content, model.CommentSnippetLength))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifications.dispatch(ctx, notification)
	return s.Get(ctx, actorID, comment.ID)
}

// Get 评论详情，顶层评论附带回复
func (s *CommentService) Get(ctx context.Context, viewerID, id uint) (*dto.CommentResponse, error) {
	db := s.db.WithContext(ctx)
	comment, err := findComment(db, id)
	if err != nil {
		return nil, err
	}
	if err := ensureCanView(db, viewerID, comment); err != nil {
		return nil, err
	}
	list, err := s.build(ctx, viewerID, []model.Comment{*comment})
	if err != nil {
		return nil, err
	}
	resp := list[0]
	if comment.IsTopLevel() {
		var replies []model.Comment
		if err := db.Preload("Owner.Profile").
			Where("reply_id = ?", comment.ID).
			Order("created_at ASC, id ASC").
			Find(&replies).Error; err != nil {
			return nil, fmt.Errorf("查询回复失败: %w", err)
		}
		if resp.Replies, err = s.build(ctx, viewerID, replies); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

// List 作品的顶层评论，新的在前
func (s *CommentService) List(ctx context.Context, viewerID, itemID uint, page *dto.PageRequest) (*dto.PageResult[dto.CommentResponse], error) {
	db := s.db.WithContext(ctx)
	item, err := findItem(db, itemID)
	if err != nil {
		return nil, err
	}
	if err := ensureCanView(db, viewerID, item); err != nil {
		return nil, err
	}
	return s.page(ctx, viewerID, db.Where("item_id = ? AND reply_id IS NULL", item.ID), model.NewestFirst, page)
}

// Replies 顶层评论的回复，按时间正序
func (s *CommentService) Replies(ctx context.Context, viewerID, commentID uint, page *dto.PageRequest) (*dto.PageResult[dto.CommentResponse], error) {
	db := s.db.WithContext(ctx)
	comment, err := findComment(db, commentID)
	if err != nil {
		return nil, err
	}
	if err := ensureCanView(db, viewerID, comment); err != nil {
		return nil, err
	}
	rootID := comment.ID
	if comment.ReplyID != nil {
		rootID = *comment.ReplyID
	}
	return s.page(ctx, viewerID, db.Where("reply_id = ?", rootID), "created_at ASC, id ASC", page)
}

func (s *CommentService) page(ctx context.Context, viewerID uint, query *gorm.DB, order string, page *dto.PageRequest) (*dto.PageResult[dto.CommentResponse], error) {
	query = query.Model(&model.Comment{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("统计评论失败: %w", err)
	}
	var comments []model.Comment
	if err := query.Preload("Owner.Profile").
		Order(order).
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("查询评论失败: %w", err)
	}
	list, err := s.build(ctx, viewerID, comments)
	if err != nil {
		return nil, err
	}
	return &dto.PageResult[dto.CommentResponse]{List: list, Total: total, Page: page.Page, Size: page.PageSize}, nil
}

// build 批量组装评论响应
func (s *CommentService) build(ctx context.Context, viewerID uint, comments []model.Comment) ([]dto.CommentResponse, error) {
	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	view := itemView{db: s.db}
	likes, err := view.countBy(ctx, &model.CommentLike{}, "comment_id", ids)
	if err != nil {
		return nil, fmt.Errorf("统计评论点赞失败: %w", err)
	}
	replies, err := view.countBy(ctx, &model.Comment{}, "reply_id", ids)
	if err != nil {
		return nil, fmt.Errorf("统计回复失败: %w", err)
	}
	liked := make(map[uint]bool)
	if viewerID != 0 && len(ids) > 0 {
		var likedIDs []uint
		if err := s.db.WithContext(ctx).Model(&model.CommentLike{}).
			Where("user_id = ? AND comment_id IN ?", viewerID, ids).
			Pluck("comment_id", &likedIDs).Error; err != nil {
			return nil, fmt.Errorf("查询点赞状态失败: %w", err)
		}
		for _, id := range likedIDs {
			liked[id] = true
		}
	}

	list := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		c := &comments[i]
		list = append(list, dto.CommentResponse{
			ID:           c.ID,
			ItemID:       c.ItemID,
			ReplyID:      c.ReplyID,
			Owner:        toUserBrief(c.Owner),
			Content:      c.Content,
			LikesCount:   likes[c.ID],
			RepliesCount: replies[c.ID],
			IsLiked:      liked[c.ID],
			Timestamps:   dto.Timestamps{CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt},
		})
	}
	return list, nil
}

// getOwnedComment 只有评论作者可以修改或删除评论
func (s *CommentService) getOwnedComment(ctx context.Context, actorID, id uint) (*model.Comment, error) {
	comment, err := findComment(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if comment.OwnerID != actorID {
		return nil, apperr.PermissionDenied("只有评论作者可以修改评论")
	}
	return comment, nil
}

// Update 修改评论内容
func (s *CommentService) Update(ctx context.Context, actorID, id uint, req *dto.CommentUpdateRequest) (*dto.CommentResponse, error) {
	comment, err := s.getOwnedComment(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	content := s.filter.Clean(req.Content)
	if content == "" {
		return nil, apperr.Validation("评论内容不能为空")
	}
	if err := s.db.WithContext(ctx).Model(&model.Comment{}).Where("id = ?", comment.ID).
		Update("content", content).Error; err != nil {
		return nil, fmt.Errorf("更新评论失败: %w", err)
	}
	return s.Get(ctx, actorID, comment.ID)
}

// Delete 删除评论，顶层评论连同回复一起删除
func (s *CommentService) Delete(ctx context.Context, actorID, id uint) error {
	comment, err := s.getOwnedComment(ctx, actorID, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := []uint{comment.ID}
		if comment.IsTopLevel() {
			var replyIDs []uint
			if err := tx.Model(&model.Comment{}).Where("reply_id = ?", comment.ID).Pluck("id", &replyIDs).Error; err != nil {
				return fmt.Errorf("查询回复失败: %w", err)
			}
			ids = append(ids, replyIDs...)
		}
		if err := tx.Where("comment_id IN ?", ids).Delete(&model.CommentLike{}).Error; err != nil {
			return fmt.Errorf("删除评论点赞失败: %w", err)
		}
		if err := s.notifications.deactivateForComments(tx, ids); err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&model.Comment{}).Error; err != nil {
			return fmt.Errorf("删除评论失败: %w", err)
		}
		return nil
	})
}
