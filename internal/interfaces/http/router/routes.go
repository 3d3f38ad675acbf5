// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"

	"bookforge-ai-api/internal/application/book"
	"bookforge-ai-api/internal/interfaces/http/handler"
)

// RegisterRoutes 注册业务路由
// 生成路由每个规格一条，共用同一个处理器
func RegisterRoutes(rg *gin.RouterGroup, h Handlers, rateLimit gin.HandlerFunc) {
	if h.Generate != nil {
		for _, p := range book.Profiles() {
			path, ok := handler.ProfileRoutes[p.Name]
			if !ok {
				continue
			}
			rg.POST(path, rateLimit, h.Generate.Generate(p))
		}
		rg.POST("/generate/cancel", h.Generate.Cancel)
		rg.GET("/profiles", h.Generate.ListProfiles)
	}

	if h.Document != nil {
		documents := rg.Group("/documents")
		{
			documents.GET("/:userId", h.Document.ListDocuments)
			documents.DELETE("/:documentId", h.Document.DeleteDocument)
			documents.POST("/:documentId/share", h.Document.ShareDocument)
		}
		rg.GET("/share/:token", h.Document.GetShared)
	}
}
