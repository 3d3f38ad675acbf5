// Package storage 提供对象存储实现
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/option"

	"bookforge-ai-api/internal/config"
)

var tracer = otel.Tracer("storage")

const (
	uploadTimeout = 2 * time.Minute
	deleteTimeout = 30 * time.Second
)

// GCSStore Google Cloud Storage 对象存储
type GCSStore struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

// NewGCSStore 创建 GCS 客户端；未指定凭据文件时使用默认凭据
func NewGCSStore(ctx context.Context, cfg *config.GCSConfig) (*GCSStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
	}, nil
}

// Put 上传对象并返回公开 URL
func (s *GCSStore) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	ctx, span := tracer.Start(ctx, "storage.GCSStore.Put")
	defer span.End()
	span.SetAttributes(attribute.String("storage.key", key))

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		span.RecordError(err)
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return s.PublicURL(key), nil
}

// Delete 删除对象，对象不存在视为成功
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "storage.GCSStore.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("storage.key", key))

	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		span.RecordError(err)
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, s.bucket, err)
	}
	return nil
}

// PublicURL 对象的公开访问地址
func (s *GCSStore) PublicURL(key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if s.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s", s.publicBaseURL, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)
}

// Close 关闭客户端
func (s *GCSStore) Close() error {
	return s.client.Close()
}
