package model

// Hashtag 话题，名称不区分大小写唯一
type Hashtag struct {
	Base
	Name string `gorm:"type:varchar(255);not null;index" json:"name"`
	Slug string `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
}

// TableName 指定表名
func (Hashtag) TableName() string {
	return "hashtags"
}
