package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"bookforge-ai-api/internal/application/book"
	"bookforge-ai-api/internal/application/document"
	"bookforge-ai-api/internal/application/queue"
	"bookforge-ai-api/internal/application/render"
	"bookforge-ai-api/internal/domain/entity"
	"bookforge-ai-api/internal/domain/repository"
	"bookforge-ai-api/internal/infrastructure/artifact"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type replyModel struct {
	mu    sync.Mutex
	calls int
	reply func(call int) (string, error)
	// hook 在每次调用后执行，用于模拟调用期间的外部操作
	hook func(call int)
}

func (m *replyModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	call := m.calls
	m.calls++
	m.mu.Unlock()

	content, err := m.reply(call)
	if m.hook != nil {
		m.hook(call)
	}
	if err != nil {
		return nil, err
	}
	return schema.AssistantMessage(content, nil), nil
}

func (m *replyModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

type modelFactory struct{ m model.BaseChatModel }

func (f modelFactory) Get(context.Context, string) (model.BaseChatModel, error) { return f.m, nil }

type pdfStub struct{}

func (pdfStub) PrintPDF(context.Context, string) ([]byte, error) { return []byte("%PDF-stub"), nil }
func (pdfStub) Close() error                                      { return nil }

func catsReply(call int) (string, error) {
	if call == 0 {
		return "# Table of Contents\n\n1. Cats at home", nil
	}
	return fmt.Sprintf("## Section %d\n\nMore about cats.", call), nil
}

type memRepo struct {
	mu   sync.Mutex
	docs map[string]entity.Document
}

func newMemRepo() *memRepo { return &memRepo{docs: make(map[string]entity.Document)} }

func (r *memRepo) Create(_ context.Context, doc *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

func (r *memRepo) GetByShareToken(_ context.Context, token string) (*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.IsPublic && doc.ShareToken != nil && *doc.ShareToken == token {
			d := doc
			return &d, nil
		}
	}
	return nil, nil
}

func (r *memRepo) Update(_ context.Context, doc *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}

func (r *memRepo) ListByUser(_ context.Context, userID string, _ *repository.DocumentFilter, p repository.Pagination) (*repository.PagedResult[*entity.Document], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*entity.Document
	for _, doc := range r.docs {
		if doc.UserID == userID {
			d := doc
			items = append(items, &d)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (r *memRepo) all() []entity.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Document, 0, len(r.docs))
	for _, d := range r.docs {
		out = append(out, d)
	}
	return out
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memStore) Put(_ context.Context, key, _ string, body io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = buf.Bytes()
	return "mem://" + key, nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// stack 真实的生成链路，只替换模型、打印机和存储
type stack struct {
	model     *replyModel
	artifacts *artifact.Store
	repo      *memRepo
	store     *memStore
	documents *document.Service
	service   *document.GenerationService
	engine    *gin.Engine
}

func newStack(t *testing.T, reply func(int) (string, error)) *stack {
	t.Helper()
	s := &stack{
		model:     &replyModel{reply: reply},
		artifacts: artifact.NewMemStore(),
		repo:      newMemRepo(),
		store:     &memStore{objects: make(map[string][]byte)},
	}
	gen := book.NewGenerator(
		book.NewSectionWriter(book.NewCompletionClient(modelFactory{m: s.model}, "fake", nil), nil),
		book.NewAssembler(),
		render.NewRenderer(pdfStub{}, render.Config{}),
		s.artifacts,
		nil,
		book.GeneratorConfig{Persona: "persona"},
	)

	q := queue.New(queue.Config{Capacity: 4})
	require.NoError(t, q.Start())
	t.Cleanup(func() { _ = q.Close(context.Background()) })

	s.documents = document.NewService(s.repo, s.store, nil, nil, document.ServiceConfig{})
	s.service = document.NewGenerationService(gen, q, book.NewCancelRegistry(), s.documents)

	gh := NewGenerateHandler(s.service)
	dh := NewDocumentHandler(s.documents)
	s.engine = gin.New()
	s.engine.POST("/generateBookSmall", gh.Generate(book.MustProfile(book.ProfileBookSmall)))
	s.engine.POST("/generate/cancel", gh.Cancel)
	s.engine.GET("/profiles", gh.ListProfiles)
	s.engine.GET("/documents/:userId", dh.ListDocuments)
	s.engine.DELETE("/documents/:documentId", dh.DeleteDocument)
	s.engine.POST("/documents/:documentId/share", dh.ShareDocument)
	s.engine.GET("/share/:token", dh.GetShared)
	return s
}

// workspaceCount 工作目录根下剩余的任务目录数
func (s *stack) workspaceCount(t *testing.T) int {
	t.Helper()
	entries, err := afero.ReadDir(s.artifacts.Fs(), "/jobs")
	if err != nil {
		return 0
	}
	return len(entries)
}

func doJSON(engine http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
