package model

import (
	"time"
)

// DefaultPhoto 默认头像
const DefaultPhoto = "user_default.jpg"

// Profile 用户资料，主键即用户ID
type Profile struct {
	UserID         uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Photo          string    `gorm:"type:varchar(255);not null;default:'user_default.jpg'" json:"photo"`
	Bio            string    `gorm:"type:varchar(255)" json:"bio"`
	Facebook       string    `gorm:"type:varchar(255)" json:"facebook"`
	Twitter        string    `gorm:"type:varchar(255)" json:"twitter"`
	Instagram      string    `gorm:"type:varchar(255)" json:"instagram"`
	Website        string    `gorm:"type:varchar(255)" json:"website"`
	PrivateAccount bool      `gorm:"not null;default:false" json:"private_account"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Profile) TableName() string {
	return "profiles"
}

// ResourceOwnerID 资料的所有者
func (p *Profile) ResourceOwnerID() uint {
	return p.UserID
}

// AudienceAccountID 决定可见性的账号
func (p *Profile) AudienceAccountID() uint {
	return p.UserID
}
