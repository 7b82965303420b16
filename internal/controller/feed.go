package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/nsxzhou1114/gram-api/internal/service"
	"github.com/nsxzhou1114/gram-api/pkg/response"
	"go.uber.org/zap"
)

// FeedApi 首页与探索接口
type FeedApi struct {
	logger      *zap.SugaredLogger
	feedService *service.FeedService
}

// NewFeedApi 创建信息流接口
func NewFeedApi() *FeedApi {
	return &FeedApi{
		logger:      logger.GetSugaredLogger(),
		feedService: service.NewFeedService(),
	}
}

// Feed 自己和关注的人发布的作品
func (api *FeedApi) Feed(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	req, ok := bindPage(c)
	if !ok {
		return
	}

	result, err := api.feedService.Feed(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, api.logger, "获取首页", err)
		return
	}
	page(c, result)
}

// Trending 热门作品
func (api *FeedApi) Trending(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	items, err := api.feedService.Trending(c.Request.Context(), userID, queryLimit(c))
	if err != nil {
		fail(c, api.logger, "获取热门作品", err)
		return
	}
	response.Success(c, "获取成功", items)
}

// Suggestions 推荐关注的用户
func (api *FeedApi) Suggestions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	users, err := api.feedService.SuggestedProfiles(c.Request.Context(), userID, queryLimit(c))
	if err != nil {
		fail(c, api.logger, "获取推荐用户", err)
		return
	}
	response.Success(c, "获取成功", users)
}

// Explore 可见作品中他人发布的
func (api *FeedApi) Explore(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	req, ok := bindPage(c)
	if !ok {
		return
	}

	result, err := api.feedService.Explore(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, api.logger, "获取探索页", err)
		return
	}
	page(c, result)
}

// HashtagItems 话题下的可见作品
func (api *FeedApi) HashtagItems(c *gin.Context) {
	listByID(c, api.logger, "获取话题作品", api.feedService.HashtagItems)
}

// queryLimit limit参数，缺省或非法时为0，由服务使用配置值
func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 0 || limit > 50 {
		return 0
	}
	return limit
}
