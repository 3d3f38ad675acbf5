package repository

import (
	"context"
)

// 分页默认值
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TxKey 上下文中保存当前事务的键
type TxKey struct{}

// Transactor 在同一事务中执行 fn；fn 内的仓储调用需使用传入的 ctx
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Pagination 分页参数，Page 从 1 开始
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPagination 创建分页参数，越界值被收敛到合法范围
func NewPagination(page, pageSize int) Pagination {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize < 1:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// Offset 计算偏移量
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit 获取限制数量
func (p Pagination) Limit() int {
	return p.PageSize
}

// PagedResult 分页结果
type PagedResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPagedResult 创建分页结果；pagination 未经 NewPagination 规整时按默认页大小计算
func NewPagedResult[T any](items []T, total int64, pagination Pagination) *PagedResult[T] {
	size := pagination.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	if items == nil {
		items = []T{}
	}
	return &PagedResult[T]{
		Items:      items,
		Total:      total,
		Page:       pagination.Page,
		PageSize:   size,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}
}

// HasNext 是否还有下一页
func (r *PagedResult[T]) HasNext() bool {
	return r.Page < r.TotalPages
}
