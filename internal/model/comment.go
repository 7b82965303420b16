package model

// Comment 作品评论，ReplyID 只会指向顶层评论
type Comment struct {
	Base
	ItemID  uint   `gorm:"not null;index" json:"item_id"`
	OwnerID uint   `gorm:"not null;index" json:"owner_id"`
	ReplyID *uint  `gorm:"index" json:"reply_id"`
	Content string `gorm:"type:text;not null" json:"content"`

	// 关联
	Item  *Item `gorm:"foreignKey:ItemID" json:"-"`
	Owner *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

// TableName 指定表名
func (Comment) TableName() string {
	return "comments"
}

// ResourceOwnerID 评论作者
func (c *Comment) ResourceOwnerID() uint {
	return c.OwnerID
}

// AudienceAccountID 评论可见性跟随所属作品，需预加载Item
func (c *Comment) AudienceAccountID() uint {
	if c.Item == nil {
		return 0
	}
	return c.Item.OwnerID
}

// IsTopLevel 是否顶层评论
func (c *Comment) IsTopLevel() bool {
	return c.ReplyID == nil
}

// CommentLike 评论点赞
type CommentLike struct {
	Base
	UserID    uint `gorm:"not null;uniqueIndex:idx_comment_like_pair" json:"user_id"`
	CommentID uint `gorm:"not null;uniqueIndex:idx_comment_like_pair;index" json:"comment_id"`
}

// TableName 指定表名
func (CommentLike) TableName() string {
	return "comment_likes"
}
