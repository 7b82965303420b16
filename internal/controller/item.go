package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/nsxzhou1114/gram-api/internal/service"
	"github.com/nsxzhou1114/gram-api/pkg/response"
	"go.uber.org/zap"
)

// ItemApi 作品接口
type ItemApi struct {
	logger             *zap.SugaredLogger
	itemService        *service.ItemService
	interactionService *service.InteractionService
}

// NewItemApi 创建作品接口
func NewItemApi() *ItemApi {
	return &ItemApi{
		logger:             logger.GetSugaredLogger(),
		itemService:        service.NewItemService(),
		interactionService: service.NewInteractionService(),
	}
}

// Create 发布作品，multipart表单，图片字段为image
func (api *ItemApi) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req dto.ItemCreateRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	header, err := c.FormFile("image")
	if err != nil {
		response.BadRequest(c, "请上传图片", err)
		return
	}

	item, err := api.itemService.Create(c.Request.Context(), userID, &req, header)
	if err != nil {
		fail(c, api.logger, "发布作品", err)
		return
	}
	response.Created(c, "发布成功", item)
}

// Get 作品详情
func (api *ItemApi) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	item, err := api.itemService.Get(c.Request.Context(), viewerID(c), id)
	if err != nil {
		fail(c, api.logger, "获取作品详情", err)
		return
	}
	response.Success(c, "获取成功", item)
}

// Update 更新作品
func (api *ItemApi) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ItemUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := api.itemService.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		fail(c, api.logger, "更新作品", err)
		return
	}
	response.Success(c, "更新成功", item)
}

// Delete 删除作品
func (api *ItemApi) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := api.itemService.Delete(c.Request.Context(), userID, id); err != nil {
		fail(c, api.logger, "删除作品", err)
		return
	}
	response.Success(c, "删除成功", nil)
}

// ToggleLike 点赞或取消点赞
func (api *ItemApi) ToggleLike(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	resp, err := api.interactionService.ToggleItemLike(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, api.logger, "点赞作品", err)
		return
	}
	response.Success(c, "操作成功", resp)
}

// Likes 点赞作品的用户
func (api *ItemApi) Likes(c *gin.Context) {
	listByID(c, api.logger, "获取点赞用户", api.interactionService.ItemLikes)
}

// ToggleFavourite 收藏或取消收藏
func (api *ItemApi) ToggleFavourite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	resp, err := api.interactionService.ToggleFavourite(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, api.logger, "收藏作品", err)
		return
	}
	response.Success(c, "操作成功", resp)
}

// Favourites 收藏作品的用户
func (api *ItemApi) Favourites(c *gin.Context) {
	listByID(c, api.logger, "获取收藏用户", api.interactionService.ItemFavourites)
}
