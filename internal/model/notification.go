package model

// 通知类型
const (
	NotificationLike          = "like"
	NotificationComment       = "comment"
	NotificationFollow        = "follow"
	NotificationTag           = "tag"
	NotificationFollowRequest = "follow_request"
	NotificationCommentLike   = "comment_like"
)

// CommentSnippetLength 评论通知保存的内容长度
const CommentSnippetLength = 90

// Notification 通知，同一(sender, receiver, item|comment, type)最多一条有效记录，取消操作只置为无效
type Notification struct {
	Base
	SenderID       uint   `gorm:"not null;index" json:"sender_id"`
	ReceiverID     uint   `gorm:"not null;index:idx_notification_receiver" json:"receiver_id"`
	ItemID         *uint  `gorm:"index" json:"item_id"`
	CommentID      *uint  `gorm:"index" json:"comment_id"`
	Type           string `gorm:"column:notification_type;type:varchar(20);not null;index" json:"notification_type"`
	Status         string `gorm:"type:varchar(8)" json:"status"` // 仅follow_request使用: sent accepted declined
	CommentSnippet string `gorm:"type:varchar(400)" json:"comment_snippet"`
	IsSeen         bool   `gorm:"not null;default:false;index:idx_notification_receiver" json:"is_seen"`
	IsActive       bool   `gorm:"not null;default:true;index:idx_notification_receiver" json:"is_active"`

	// 关联
	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
