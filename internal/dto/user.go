package dto

import "github.com/nsxzhou1114/gram-api/pkg/auth"

// RegisterRequest 用户注册请求，Email2 Password2 为确认字段
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=50"`
	Email     string `json:"email" binding:"required,email,max=100"`
	Email2    string `json:"email2" binding:"required"`
	Password  string `json:"password" binding:"required,min=6,max=32"`
	Password2 string `json:"password2" binding:"required"`
}

// LoginRequest 用户登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // 用户名或邮箱
	Password string `json:"password" binding:"required"`
	Remember bool   `json:"remember"`
}

// RefreshTokenRequest 刷新令牌请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest 登出请求
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest 密码修改请求
type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6,max=32"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// UserBrief 用户摘要，列表和嵌套对象通用
type UserBrief struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Photo    string `json:"photo"`
}

// AuthResponse 注册登录响应
type AuthResponse struct {
	User  *ProfileResponse `json:"user"`
	Token *auth.TokenPair  `json:"token"`
}
