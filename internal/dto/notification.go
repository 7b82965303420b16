package dto

import "time"

// NotificationResponse 通知
type NotificationResponse struct {
	ID             uint      `json:"id"`
	Type           string    `json:"notification_type"`
	Status         string    `json:"status,omitempty"`
	Sender         UserBrief `json:"sender"`
	ItemID         *uint     `json:"item_id,omitempty"`
	ItemSlug       string    `json:"item_slug,omitempty"`
	CommentID      *uint     `json:"comment_id,omitempty"`
	CommentSnippet string    `json:"comment_snippet,omitempty"`
	IsSeen         bool      `json:"is_seen"`
	CreatedAt      time.Time `json:"created_at"`
}

// UnreadCountResponse 未读通知数
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
