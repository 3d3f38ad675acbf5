package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bookforge-ai-api/internal/domain/entity"
	"bookforge-ai-api/internal/domain/repository"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库每个连接独立，固定为单连接
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	client := NewClientFromDB(db)
	require.NoError(t, client.Migrate(context.Background()))
	return client
}

func TestDocumentRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(newTestClient(t))

	doc := entity.NewDocument("u1", "Cats", "cats", "book_small", entity.DocumentTypeBook, entity.DocumentFormatPDF)
	require.NoError(t, repo.Create(ctx, doc))

	got, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.DocumentStatusPending, got.Status)

	got.Start()
	got.Complete("https://storage.example/u1/"+doc.ID+".pdf", got.ObjectKeyFor(), 1234)
	token := got.Share()
	require.NoError(t, repo.Update(ctx, got))

	shared, err := repo.GetByShareToken(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, shared)
	assert.Equal(t, doc.ID, shared.ID)
	assert.Equal(t, int64(1234), shared.Size)
	assert.Equal(t, "u1/"+doc.ID+".pdf", shared.ObjectKey)

	missing, err := repo.GetByShareToken(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Delete(ctx, doc.ID))
	gone, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestDocumentRepositoryListByUser(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(newTestClient(t))

	base := time.Now().Add(-time.Hour)
	for i, docType := range []entity.DocumentType{entity.DocumentTypeBook, entity.DocumentTypeResearchPaper, entity.DocumentTypeBook} {
		doc := entity.NewDocument("u1", "Doc", "topic", "p", docType, entity.DocumentFormatPDF)
		doc.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, doc))
	}
	require.NoError(t, repo.Create(ctx, entity.NewDocument("u2", "Other", "topic", "p", entity.DocumentTypeBook, entity.DocumentFormatDOCX)))

	page, err := repo.ListByUser(ctx, "u1", nil, repository.NewPagination(1, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt))

	books, err := repo.ListByUser(ctx, "u1", &repository.DocumentFilter{Type: entity.DocumentTypeResearchPaper}, repository.NewPagination(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), books.Total)
}

func TestTxManagerRollback(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	repo := NewDocumentRepository(client)
	tx := NewTxManager(client)

	doc := entity.NewDocument("u1", "Doc", "topic", "p", entity.DocumentTypeBook, entity.DocumentFormatPDF)
	boom := errors.New("boom")
	err := tx.WithTransaction(ctx, func(txCtx context.Context) error {
		require.NoError(t, repo.Create(txCtx, doc))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
