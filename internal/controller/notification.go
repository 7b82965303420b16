package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/nsxzhou1114/gram-api/internal/service"
	"github.com/nsxzhou1114/gram-api/pkg/auth"
	"github.com/nsxzhou1114/gram-api/pkg/response"
	"github.com/nsxzhou1114/gram-api/pkg/websocket"
	"go.uber.org/zap"
)

// NotificationApi 通知接口
type NotificationApi struct {
	logger              *zap.SugaredLogger
	websocketManager    *websocket.Manager
	notificationService *service.NotificationService
}

// NewNotificationApi 创建通知接口
func NewNotificationApi() *NotificationApi {
	return &NotificationApi{
		logger:              logger.GetSugaredLogger(),
		websocketManager:    websocket.GetManager(),
		notificationService: service.NewNotificationService(),
	}
}

// List 通知列表，返回后全部标记为已读
func (api *NotificationApi) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	req, ok := bindPage(c)
	if !ok {
		return
	}

	result, err := api.notificationService.List(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, api.logger, "获取通知", err)
		return
	}
	page(c, result)
}

// UnreadCount 未读通知数
func (api *NotificationApi) UnreadCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	count, err := api.notificationService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		fail(c, api.logger, "获取未读数量", err)
		return
	}
	response.Success(c, "获取成功", dto.UnreadCountResponse{Count: count})
}

// HandleWebSocket 建立通知推送连接，令牌通过token查询参数传递
func (api *NotificationApi) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		api.logger.Warnf("WebSocket连接缺少认证token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	claims, err := auth.ParseToken(c.Request.Context(), token)
	if err != nil {
		api.logger.Warnf("WebSocket连接token验证失败: %v", err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if claims.Type != auth.AccessToken {
		api.logger.Warnf("WebSocket连接使用了错误类型的token: %v", claims.Type)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	api.logger.Infof("用户 %d 建立WebSocket连接", claims.UserID)
	api.websocketManager.HandleWebSocket(c, claims.UserID)
}
