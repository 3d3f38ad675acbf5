// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"bookforge-ai-api/internal/domain/repository"
)

// PageRequest 分页请求参数
type PageRequest struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// Pagination 转换为仓储分页参数，越界值由仓储层收敛
func (r PageRequest) Pagination() repository.Pagination {
	return repository.NewPagination(r.Page, r.PageSize)
}

// BindPage 从查询串读取分页参数，非法值按默认处理
func BindPage(c *gin.Context) PageRequest {
	p := repository.NewPagination(
		queryInt(c, "page", 1),
		queryInt(c, "page_size", repository.DefaultPageSize),
	)
	return PageRequest{Page: p.Page, PageSize: p.PageSize}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

// BindUserID 从 URI 绑定用户 ID
func BindUserID(c *gin.Context) string {
	return c.Param("userId")
}

// BindDocumentID 从 URI 绑定文档 ID
func BindDocumentID(c *gin.Context) string {
	return c.Param("documentId")
}

// BindShareToken 从 URI 绑定分享令牌
func BindShareToken(c *gin.Context) string {
	return c.Param("token")
}
