package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/nsxzhou1114/gram-api/internal/service"
	"github.com/nsxzhou1114/gram-api/pkg/response"
	"go.uber.org/zap"
)

// CommentApi 评论接口
type CommentApi struct {
	logger             *zap.SugaredLogger
	commentService     *service.CommentService
	interactionService *service.InteractionService
}

// NewCommentApi 创建评论接口
func NewCommentApi() *CommentApi {
	return &CommentApi{
		logger:             logger.GetSugaredLogger(),
		commentService:     service.NewCommentService(),
		interactionService: service.NewInteractionService(),
	}
}

// List 作品的顶层评论
func (api *CommentApi) List(c *gin.Context) {
	listByID(c, api.logger, "获取评论列表", api.commentService.List)
}

// Create 发表评论
func (api *CommentApi) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.CommentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	comment, err := api.commentService.Create(c.Request.Context(), userID, itemID, &req)
	if err != nil {
		fail(c, api.logger, "发表评论", err)
		return
	}
	response.Created(c, "评论成功", comment)
}

// Get 评论详情
func (api *CommentApi) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	comment, err := api.commentService.Get(c.Request.Context(), viewerID(c), id)
	if err != nil {
		fail(c, api.logger, "获取评论详情", err)
		return
	}
	response.Success(c, "获取成功", comment)
}

// Update 修改评论
func (api *CommentApi) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.CommentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	comment, err := api.commentService.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		fail(c, api.logger, "修改评论", err)
		return
	}
	response.Success(c, "修改成功", comment)
}

// Delete 删除评论
func (api *CommentApi) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := api.commentService.Delete(c.Request.Context(), userID, id); err != nil {
		fail(c, api.logger, "删除评论", err)
		return
	}
	response.Success(c, "删除成功", nil)
}

// Replies 评论的回复
func (api *CommentApi) Replies(c *gin.Context) {
	listByID(c, api.logger, "获取回复列表", api.commentService.Replies)
}

// Reply 回复评论
func (api *CommentApi) Reply(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.CommentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	comment, err := api.commentService.Reply(c.Request.Context(), userID, id, &req)
	if err != nil {
		fail(c, api.logger, "回复评论", err)
		return
	}
	response.Created(c, "回复成功", comment)
}

// ToggleLike 点赞或取消点赞评论
func (api *CommentApi) ToggleLike(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	resp, err := api.interactionService.ToggleCommentLike(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, api.logger, "点赞评论", err)
		return
	}
	response.Success(c, "操作成功", resp)
}

// Likes 点赞评论的用户
func (api *CommentApi) Likes(c *gin.Context) {
	listByID(c, api.logger, "获取点赞用户", api.interactionService.CommentLikes)
}
