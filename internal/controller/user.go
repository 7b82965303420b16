package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/nsxzhou1114/gram-api/internal/middleware"
	"github.com/nsxzhou1114/gram-api/internal/service"
	"github.com/nsxzhou1114/gram-api/pkg/response"
	"go.uber.org/zap"
)

// UserApi 账号相关接口
type UserApi struct {
	logger      *zap.SugaredLogger
	userService *service.UserService
}

// NewUserApi 创建账号接口
func NewUserApi() *UserApi {
	return &UserApi{
		logger:      logger.GetSugaredLogger(),
		userService: service.NewUserService(),
	}
}

// Register 用户注册
func (api *UserApi) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := api.userService.Register(c.Request.Context(), &req)
	if err != nil {
		fail(c, api.logger, "用户注册", err)
		return
	}
	response.Created(c, "注册成功", resp)
}

// Login 用户登录
func (api *UserApi) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := api.userService.Login(c.Request.Context(), &req)
	if err != nil {
		fail(c, api.logger, "用户登录", err)
		return
	}
	response.Success(c, "登录成功", resp)
}

// RefreshToken 使用刷新令牌换取新的令牌对
func (api *UserApi) RefreshToken(c *gin.Context) {
	pair, err := api.userService.RefreshToken(c.Request.Context(), middleware.GetToken(c))
	if err != nil {
		fail(c, api.logger, "刷新令牌", err)
		return
	}
	response.Success(c, "刷新成功", pair)
}

// Logout 登出，同时撤销请求体中的刷新令牌
func (api *UserApi) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	if err := api.userService.Logout(c.Request.Context(), middleware.GetToken(c), req.RefreshToken); err != nil {
		fail(c, api.logger, "登出", err)
		return
	}
	response.Success(c, "登出成功", nil)
}

// Me 当前用户资料
func (api *UserApi) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	profile, err := api.userService.GetProfile(c.Request.Context(), userID, userID)
	if err != nil {
		fail(c, api.logger, "获取用户信息", err)
		return
	}
	response.Success(c, "获取成功", profile)
}

// ChangePassword 修改密码
func (api *UserApi) ChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := api.userService.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		fail(c, api.logger, "修改密码", err)
		return
	}
	response.Success(c, "密码修改成功", nil)
}

// Search 按用户名前缀搜索用户
func (api *UserApi) Search(c *gin.Context) {
	users, err := api.userService.SearchProfiles(c.Request.Context(), c.Query("q"))
	if err != nil {
		fail(c, api.logger, "搜索用户", err)
		return
	}
	response.Success(c, "获取成功", users)
}
