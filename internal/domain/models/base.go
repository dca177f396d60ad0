package models

import "time"

// BaseModel 公共字段
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaginationResult 分页结果
type PaginationResult struct {
	TotalRecords int64 `json:"total_records"`
	CurrentPage  int   `json:"current_page"`
	PageSize     int   `json:"page_size"`
	TotalPages   int64 `json:"total_pages"`
}

// NewPaginationResult 创建一个新的分页结果对象，totalPages = ceil(total / pageSize)
func NewPaginationResult(total int64, page, pageSize int) PaginationResult {
	totalPages := int64(0)
	if pageSize > 0 {
		totalPages = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return PaginationResult{
		TotalRecords: total,
		CurrentPage:  page,
		PageSize:     pageSize,
		TotalPages:   totalPages,
	}
}
