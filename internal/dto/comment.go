package dto

// CommentCreateRequest 评论请求
type CommentCreateRequest struct {
	Content string `json:"content" binding:"required,max=2200"`
}

// CommentUpdateRequest 评论修改请求
type CommentUpdateRequest struct {
	Content string `json:"content" binding:"required,max=2200"`
}

// CommentResponse 评论
type CommentResponse struct {
	ID           uint              `json:"id"`
	ItemID       uint              `json:"item_id"`
	ReplyID      *uint             `json:"reply_id"`
	Owner        UserBrief         `json:"owner"`
	Content      string            `json:"content"`
	LikesCount   int64             `json:"likes_count"`
	RepliesCount int64             `json:"replies_count"`
	IsLiked      bool              `json:"is_liked"`
	Replies      []CommentResponse `json:"replies,omitempty"`
	Timestamps
}
