package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/middleware"
	"github.com/nsxzhou1114/gram-api/pkg/apperr"
	"github.com/nsxzhou1114/gram-api/pkg/response"
	"github.com/nsxzhou1114/gram-api/pkg/utils"
	"go.uber.org/zap"
)

// currentUserID 当前登录用户，未登录时写入401
func currentUserID(c *gin.Context) (uint, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		response.Unauthorized(c, "请先登录", nil)
		return 0, false
	}
	return userID, true
}

// viewerID 可选登录的访问者，匿名为0
func viewerID(c *gin.Context) uint {
	userID, _ := middleware.GetUserID(c)
	return userID
}

// paramID 解析路径中的ID参数
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "无效的ID", err)
		return 0, false
	}
	return uint(id), true
}

// bindError 参数校验失败
func bindError(c *gin.Context, err error) {
	response.BadRequest(c, utils.FormatValidationError(err), err)
}

// bindPage 解析分页参数并填充默认值
func bindPage(c *gin.Context) (*dto.PageRequest, bool) {
	var page dto.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		bindError(c, err)
		return nil, false
	}
	defaultSize := 0
	if cfg := config.GetConfig(); cfg != nil {
		defaultSize = cfg.Feed.PageSize
	}
	page.Normalize(defaultSize)
	return &page, true
}

// fail 输出错误响应，非业务错误记录日志
func fail(c *gin.Context, log *zap.SugaredLogger, action string, err error) {
	if apperr.TypeOf(err) == apperr.TypeInternal {
		log.Errorf("%s失败: %v", action, err)
	}
	response.FromError(c, err)
}

// page 输出分页响应
func page[T any](c *gin.Context, result *dto.PageResult[T]) {
	response.SuccessPage(c, "获取成功", result.List, result.Page, result.Size, result.Total)
}
