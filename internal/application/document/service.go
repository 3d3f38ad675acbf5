// Package document 管理文档元数据生命周期，并把生成任务接入串行队列
package document

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookforge-ai-api/internal/application/book"
	"bookforge-ai-api/internal/application/render"
	"bookforge-ai-api/internal/domain/entity"
	"bookforge-ai-api/internal/domain/repository"
	"bookforge-ai-api/internal/infrastructure/messaging"
	apperrors "bookforge-ai-api/pkg/errors"
	"bookforge-ai-api/pkg/logger"
	"bookforge-ai-api/pkg/tracer"
)

const shareCachePrefix = "share:"

// EventPublisher 文档事件发布端口
type EventPublisher interface {
	PublishDocumentEvent(ctx context.Context, evt *messaging.DocumentEvent) (string, error)
}

// ServiceConfig 元数据服务配置
type ServiceConfig struct {
	ShareCacheTTL time.Duration
}

// Service 文档元数据服务
// repo 为空时所有写操作都是空操作，查询类接口返回 ErrMetadataDisabled
type Service struct {
	repo      repository.DocumentRepository
	store     repository.ObjectStore
	cache     repository.Cache
	publisher EventPublisher
	tx        repository.Transactor
	shareTTL  time.Duration
}

// NewService 创建元数据服务；store、cache、publisher 都可为空
func NewService(repo repository.DocumentRepository, store repository.ObjectStore, cache repository.Cache, publisher EventPublisher, cfg ServiceConfig) *Service {
	if cfg.ShareCacheTTL <= 0 {
		cfg.ShareCacheTTL = 5 * time.Minute
	}
	return &Service{
		repo:      repo,
		store:     store,
		cache:     cache,
		publisher: publisher,
		shareTTL:  cfg.ShareCacheTTL,
	}
}

// WithTransactor 分享与删除的读改写放进同一事务
func (s *Service) WithTransactor(tx repository.Transactor) *Service {
	s.tx = tx
	return s
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.WithTransaction(ctx, fn)
}

// Enabled 是否配置了元数据存储
func (s *Service) Enabled() bool {
	return s != nil && s.repo != nil
}

// CreatePending 任务入队前创建 pending 记录
func (s *Service) CreatePending(ctx context.Context, userID, topic string, profile book.Profile, format entity.DocumentFormat) (*entity.Document, error) {
	if !s.Enabled() {
		return nil, nil
	}
	doc := entity.NewDocument(userID, render.Title(topic), topic, profile.Name, profile.DocumentType, format)
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create document record")
	}
	return doc, nil
}

// MarkProcessing worker 开始执行时调用
func (s *Service) MarkProcessing(ctx context.Context, doc *entity.Document) {
	if !s.Enabled() || doc == nil {
		return
	}
	doc.Start()
	if err := s.repo.Update(ctx, doc); err != nil {
		logger.Warn(ctx, "failed to mark document processing", "document_id", doc.ID, "error", err.Error())
	}
}

// Complete 上传文件并把记录标记为 completed
// 上传失败时记录标记为 failed，但不影响本次响应
func (s *Service) Complete(ctx context.Context, doc *entity.Document, res *book.Result) {
	if !s.Enabled() || doc == nil {
		return
	}
	ctx, span := tracer.Start(ctx, "document.Service.Complete")
	defer span.End()

	url, key, err := s.upload(ctx, doc, res)
	if err != nil {
		tracer.Fail(span, err)
		logger.Error(ctx, "failed to upload document", err, "document_id", doc.ID)
		s.Fail(ctx, doc, fmt.Errorf("upload failed: %w", err))
		return
	}

	doc.Title = res.Title
	doc.Complete(url, key, res.Size)
	if err := s.repo.Update(ctx, doc); err != nil {
		logger.Error(ctx, "failed to mark document completed", err, "document_id", doc.ID)
		return
	}
	s.publish(ctx, messaging.EventDocumentCompleted, doc)
}

func (s *Service) upload(ctx context.Context, doc *entity.Document, res *book.Result) (string, string, error) {
	if s.store == nil {
		return "", "", nil
	}
	f, err := res.Open()
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	key := doc.ObjectKeyFor()
	url, err := s.store.Put(ctx, key, res.ContentType, f)
	if err != nil {
		return "", "", err
	}
	return url, key, nil
}

// Fail 把记录标记为 failed
func (s *Service) Fail(ctx context.Context, doc *entity.Document, cause error) {
	if !s.Enabled() || doc == nil {
		return
	}
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	doc.Fail(msg)
	if err := s.repo.Update(ctx, doc); err != nil {
		logger.Error(ctx, "failed to mark document failed", err, "document_id", doc.ID)
		return
	}
	s.publish(ctx, messaging.EventDocumentFailed, doc)
}

// List 用户的文档列表
func (s *Service) List(ctx context.Context, userID string, filter *repository.DocumentFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Document], error) {
	if !s.Enabled() {
		return nil, apperrors.ErrMetadataDisabled
	}
	result, err := s.repo.ListByUser(ctx, userID, filter, pagination)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list documents")
	}
	return result, nil
}

// Delete 删除记录及其存储的文件
// requesterID 非空时只允许所有者删除
func (s *Service) Delete(ctx context.Context, documentID, requesterID string) error {
	var doc *entity.Document
	err := s.inTx(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.owned(ctx, documentID, requesterID)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, doc.ID); err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to delete document")
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 记录已删除，文件删除失败只留下孤儿对象
	if s.store != nil && doc.ObjectKey != "" {
		if err := s.store.Delete(ctx, doc.ObjectKey); err != nil {
			logger.Warn(ctx, "failed to delete stored file", "object_key", doc.ObjectKey, "error", err.Error())
		}
	}
	if doc.ShareToken != nil {
		s.invalidateShare(ctx, *doc.ShareToken)
	}
	s.publish(ctx, messaging.EventDocumentDeleted, doc)
	return nil
}

// Share 生成分享令牌并公开文档，重复调用返回同一令牌
func (s *Service) Share(ctx context.Context, documentID, requesterID string) (*entity.Document, error) {
	var (
		doc   *entity.Document
		token string
	)
	err := s.inTx(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.owned(ctx, documentID, requesterID)
		if err != nil {
			return err
		}
		if !doc.Shareable() {
			return apperrors.ErrDocumentNotReady
		}
		token = doc.Share()
		if err := s.repo.Update(ctx, doc); err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to share document")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateShare(ctx, token)
	s.publish(ctx, messaging.EventDocumentShared, doc)
	return doc, nil
}

// GetShared 按分享令牌读取公开文档
func (s *Service) GetShared(ctx context.Context, token string) (*entity.Document, error) {
	if !s.Enabled() {
		return nil, apperrors.ErrMetadataDisabled
	}
	load := func() (interface{}, error) {
		doc, err := s.repo.GetByShareToken(ctx, token)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load shared document")
		}
		if doc == nil {
			return nil, apperrors.ErrShareNotFound
		}
		return doc, nil
	}

	if s.cache == nil {
		v, err := load()
		if err != nil {
			return nil, err
		}
		return v.(*entity.Document), nil
	}

	data, err := s.cache.GetOrLoad(ctx, shareCachePrefix+token, s.shareTTL, load)
	if err != nil {
		return nil, err
	}
	var doc entity.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to decode shared document")
	}
	return &doc, nil
}

func (s *Service) owned(ctx context.Context, documentID, requesterID string) (*entity.Document, error) {
	if !s.Enabled() {
		return nil, apperrors.ErrMetadataDisabled
	}
	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load document")
	}
	if doc == nil {
		return nil, apperrors.ErrDocumentNotFound
	}
	if requesterID != "" && doc.UserID != requesterID {
		return nil, apperrors.ErrForbidden
	}
	return doc, nil
}

func (s *Service) invalidateShare(ctx context.Context, token string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, shareCachePrefix+token); err != nil {
		logger.Warn(ctx, "failed to invalidate share cache", "error", err.Error())
	}
}

func (s *Service) publish(ctx context.Context, eventType string, doc *entity.Document) {
	if s.publisher == nil {
		return
	}
	evt := &messaging.DocumentEvent{
		Type:       eventType,
		DocumentID: doc.ID,
		UserID:     doc.UserID,
		Status:     string(doc.Status),
		Profile:    doc.Profile,
		Format:     string(doc.Format),
		FileURL:    doc.FileURL,
		Size:       doc.Size,
		Error:      doc.ErrorMessage,
		DurationMS: doc.Duration().Milliseconds(),
		OccurredAt: time.Now(),
	}
	if _, err := s.publisher.PublishDocumentEvent(ctx, evt); err != nil {
		logger.Warn(ctx, "failed to publish document event", "type", eventType, "error", err.Error())
	}
}
