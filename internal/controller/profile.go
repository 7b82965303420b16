package controller

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/nsxzhou1114/gram-api/internal/service"
	"github.com/nsxzhou1114/gram-api/pkg/response"
	"go.uber.org/zap"
)

// ProfileApi 用户资料与关注关系接口
type ProfileApi struct {
	logger        *zap.SugaredLogger
	userService   *service.UserService
	followService *service.FollowService
	itemService   *service.ItemService
}

// NewProfileApi 创建资料接口
func NewProfileApi() *ProfileApi {
	return &ProfileApi{
		logger:        logger.GetSugaredLogger(),
		userService:   service.NewUserService(),
		followService: service.NewFollowService(),
		itemService:   service.NewItemService(),
	}
}

// Get 用户资料
func (api *ProfileApi) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	profile, err := api.userService.GetProfile(c.Request.Context(), viewerID(c), id)
	if err != nil {
		fail(c, api.logger, "获取用户资料", err)
		return
	}
	response.Success(c, "获取成功", profile)
}

// UpdateMe 更新当前用户资料
func (api *ProfileApi) UpdateMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req dto.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	profile, err := api.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		fail(c, api.logger, "更新用户资料", err)
		return
	}
	response.Success(c, "更新成功", profile)
}

// UploadPhoto 上传头像，文件字段为photo
func (api *ProfileApi) UploadPhoto(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	header, err := c.FormFile("photo")
	if err != nil {
		response.BadRequest(c, "请上传头像", err)
		return
	}

	profile, err := api.userService.UploadPhoto(c.Request.Context(), userID, header)
	if err != nil {
		fail(c, api.logger, "上传头像", err)
		return
	}
	response.Success(c, "上传成功", profile)
}

// ToggleFollow 关注、取消关注或发送关注请求
func (api *ProfileApi) ToggleFollow(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	resp, err := api.followService.Toggle(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, api.logger, "关注操作", err)
		return
	}
	response.Success(c, resp.Message, resp)
}

// FollowRequests 收到的待处理关注请求
func (api *ProfileApi) FollowRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	req, ok := bindPage(c)
	if !ok {
		return
	}

	result, err := api.followService.Requests(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, api.logger, "获取关注请求", err)
		return
	}
	page(c, result)
}

// AcceptRequest 接受关注请求
func (api *ProfileApi) AcceptRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := api.followService.Accept(c.Request.Context(), userID, id); err != nil {
		fail(c, api.logger, "接受关注请求", err)
		return
	}
	response.Success(c, "已接受关注请求", nil)
}

// DeclineRequest 拒绝关注请求
func (api *ProfileApi) DeclineRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := api.followService.Decline(c.Request.Context(), userID, id); err != nil {
		fail(c, api.logger, "拒绝关注请求", err)
		return
	}
	response.Success(c, "已拒绝关注请求", nil)
}

// Followers 粉丝列表
func (api *ProfileApi) Followers(c *gin.Context) {
	listByID(c, api.logger, "获取粉丝列表", api.followService.Followers)
}

// Following 关注列表
func (api *ProfileApi) Following(c *gin.Context) {
	listByID(c, api.logger, "获取关注列表", api.followService.Following)
}

// Items 用户发布的作品
func (api *ProfileApi) Items(c *gin.Context) {
	listByID(c, api.logger, "获取用户作品", api.itemService.UserItems)
}

// Favourites 用户收藏的作品
func (api *ProfileApi) Favourites(c *gin.Context) {
	listByID(c, api.logger, "获取收藏作品", api.itemService.UserFavourites)
}

// Tagged 用户被标记的作品
func (api *ProfileApi) Tagged(c *gin.Context) {
	listByID(c, api.logger, "获取被标记作品", api.itemService.UserTagged)
}

// listByID 按路径中的ID分页查询
func listByID[T any](c *gin.Context, log *zap.SugaredLogger, action string, fn func(context.Context, uint, uint, *dto.PageRequest) (*dto.PageResult[T], error)) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	req, ok := bindPage(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), viewerID(c), id, req)
	if err != nil {
		fail(c, log, action, err)
		return
	}
	page(c, result)
}
