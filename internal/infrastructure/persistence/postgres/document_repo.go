package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"bookforge-ai-api/internal/domain/entity"
	"bookforge-ai-api/internal/domain/repository"
)

// DocumentRepository 文档元数据仓储实现
type DocumentRepository struct {
	client *Client
}

// NewDocumentRepository 创建文档仓储
func NewDocumentRepository(client *Client) *DocumentRepository {
	return &DocumentRepository{client: client}
}

// Create 创建文档记录
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.client.db).Create(doc).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取文档，不存在时返回 nil
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.GetByID")
	defer span.End()

	var doc entity.Document
	if err := getDB(ctx, r.client.db).First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// GetByShareToken 根据分享令牌获取公开文档
func (r *DocumentRepository) GetByShareToken(ctx context.Context, token string) (*entity.Document, error) {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.GetByShareToken")
	defer span.End()

	var doc entity.Document
	err := getDB(ctx, r.client.db).
		Where("share_token = ? AND is_public = ?", token, true).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get shared document: %w", err)
	}
	return &doc, nil
}

// Update 更新文档
func (r *DocumentRepository) Update(ctx context.Context, doc *entity.Document) error {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.Update")
	defer span.End()

	if err := getDB(ctx, r.client.db).Save(doc).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

// Delete 删除文档
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.Delete")
	defer span.End()

	if err := getDB(ctx, r.client.db).Delete(&entity.Document{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// ListByUser 获取用户的文档列表
func (r *DocumentRepository) ListByUser(ctx context.Context, userID string, filter *repository.DocumentFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Document], error) {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.ListByUser")
	defer span.End()

	query := getDB(ctx, r.client.db).Model(&entity.Document{}).Where("user_id = ?", userID)
	if filter != nil {
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.Type != "" {
			query = query.Where("type = ?", filter.Type)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	var docs []*entity.Document
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&docs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return repository.NewPagedResult(docs, total, pagination), nil
}
