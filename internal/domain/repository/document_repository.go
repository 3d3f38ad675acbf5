// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"io"
	"time"

	"bookforge-ai-api/internal/domain/entity"
)

// DocumentFilter 文档过滤条件
type DocumentFilter struct {
	Status entity.DocumentStatus
	Type   entity.DocumentType
}

// DocumentRepository 文档元数据仓储接口
type DocumentRepository interface {
	// Create 创建文档记录
	Create(ctx context.Context, doc *entity.Document) error

	// GetByID 根据 ID 获取文档
	GetByID(ctx context.Context, id string) (*entity.Document, error)

	// GetByShareToken 根据分享令牌获取公开文档
	GetByShareToken(ctx context.Context, token string) (*entity.Document, error)

	// Update 更新文档
	Update(ctx context.Context, doc *entity.Document) error

	// Delete 删除文档
	Delete(ctx context.Context, id string) error

	// ListByUser 获取用户的文档列表，按创建时间倒序
	ListByUser(ctx context.Context, userID string, filter *DocumentFilter, pagination Pagination) (*PagedResult[*entity.Document], error)
}

// ConversationStore 会话快照存储
// 任务失败时保留快照便于排查，成功后删除
type ConversationStore interface {
	Save(ctx context.Context, snapshot *entity.ConversationSnapshot) error
	Get(ctx context.Context, sessionKey string) (*entity.ConversationSnapshot, error)
	Delete(ctx context.Context, sessionKey string) error
}

// ObjectStore 对象存储
type ObjectStore interface {
	// Put 上传对象并返回可访问 URL
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// Cache 读穿缓存，值以 JSON 保存
type Cache interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
}
