package model

import "time"

// 账号角色
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// 账号状态
const (
	UserDisabled = 0
	UserActive   = 1
)

// User 登录账号，公开展示的信息放在Profile
type User struct {
	Base
	Username    string     `gorm:"type:varchar(50);not null;uniqueIndex" json:"username"`
	Email       string     `gorm:"type:varchar(100);not null;uniqueIndex" json:"email"`
	Password    string     `gorm:"type:varchar(100);not null" json:"-"`
	Role        string     `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Status      int        `gorm:"not null;default:1" json:"status"`
	LastLoginAt *time.Time `json:"last_login_at"`

	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

func (User) TableName() string { return "users" }
