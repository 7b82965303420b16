package dto

import "time"

// MaxPage 页码上限，避免偏移量溢出
const MaxPage = 10000

// PageRequest 分页请求
type PageRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1,max=10000"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Normalize 填充默认分页参数
func (p *PageRequest) Normalize(defaultSize int) {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultSize
	}
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
}

// Offset 查询偏移量
func (p *PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PageResult 分页结果
type PageResult[T any] struct {
	List  []T   `json:"list"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

// Timestamps 时间字段
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
