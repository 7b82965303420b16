package model

// 关注请求状态
const (
	FollowRequestSent     = "sent"
	FollowRequestAccepted = "accepted"
	FollowRequestDeclined = "declined"
)

// UserFollow 用户关注关系，FollowerID 关注 FollowedID
type UserFollow struct {
	Base
	FollowerID uint `gorm:"not null;uniqueIndex:idx_user_follow_pair" json:"follower_id"`
	FollowedID uint `gorm:"not null;uniqueIndex:idx_user_follow_pair;index" json:"followed_id"`
}

// TableName 指定表名
func (UserFollow) TableName() string {
	return "user_follows"
}

// FollowRequest 私密账号的关注请求
type FollowRequest struct {
	Base
	SenderID   uint   `gorm:"not null;index" json:"sender_id"`
	ReceiverID uint   `gorm:"not null;index" json:"receiver_id"`
	Status     string `gorm:"type:varchar(8);not null;default:'sent';index" json:"status"`

	// 关联
	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

// TableName 指定表名
func (FollowRequest) TableName() string {
	return "follow_requests"
}
