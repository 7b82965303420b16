package model

import "time"

// NewestFirst 列表默认排序，同一时刻按主键倒序保证稳定
const NewestFirst = "created_at DESC, id DESC"

// Base 所有表共用的主键与时间戳
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
