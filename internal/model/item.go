package model

// Item 用户发布的图片作品
type Item struct {
	Base
	OwnerID         uint   `gorm:"not null;index" json:"owner_id"`
	Image           string `gorm:"type:varchar(255);not null" json:"image"`
	Slug            string `gorm:"type:varchar(32);not null;uniqueIndex" json:"slug"`
	Caption         string `gorm:"type:varchar(255)" json:"caption"`
	RestrictComment bool   `gorm:"not null;default:false" json:"restrict_comment"`

	// 关联
	Owner *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

// TableName 指定表名
func (Item) TableName() string {
	return "items"
}

// ResourceOwnerID 作品所有者
func (i *Item) ResourceOwnerID() uint {
	return i.OwnerID
}

// AudienceAccountID 决定可见性的账号
func (i *Item) AudienceAccountID() uint {
	return i.OwnerID
}

// ItemHashtag 作品-话题关联
type ItemHashtag struct {
	ItemID    uint `gorm:"primaryKey" json:"item_id"`
	HashtagID uint `gorm:"primaryKey;index" json:"hashtag_id"`
}

// TableName 指定表名
func (ItemHashtag) TableName() string {
	return "item_hashtags"
}

// ItemTag 作品-被标记用户关联
type ItemTag struct {
	ItemID uint `gorm:"primaryKey" json:"item_id"`
	UserID uint `gorm:"primaryKey;index" json:"user_id"`
}

// TableName 指定表名
func (ItemTag) TableName() string {
	return "item_tags"
}

// ItemLike 作品点赞
type ItemLike struct {
	Base
	UserID uint `gorm:"not null;uniqueIndex:idx_item_like_pair" json:"user_id"`
	ItemID uint `gorm:"not null;uniqueIndex:idx_item_like_pair;index" json:"item_id"`
}

// TableName 指定表名
func (ItemLike) TableName() string {
	return "item_likes"
}

// ItemFavourite 作品收藏
type ItemFavourite struct {
	Base
	UserID uint `gorm:"not null;uniqueIndex:idx_item_favourite_pair" json:"user_id"`
	ItemID uint `gorm:"not null;uniqueIndex:idx_item_favourite_pair;index" json:"item_id"`
}

// TableName 指定表名
func (ItemFavourite) TableName() string {
	return "item_favourites"
}
