package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"bookforge-ai-api/internal/application/book"
	"bookforge-ai-api/internal/application/queue"
	"bookforge-ai-api/internal/application/render"
	"bookforge-ai-api/internal/domain/entity"
	"bookforge-ai-api/internal/domain/repository"
	"bookforge-ai-api/internal/infrastructure/artifact"
	"bookforge-ai-api/internal/infrastructure/messaging"
)

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
	if _, ok := r.docs[doc.ID]; !ok {
		return errors.New("not found")
	}
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

func (r *memRepo) only(t *testing.T) entity.Document {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.docs, 1)
	for _, doc := range r.docs {
		return doc
	}
	return entity.Document{}
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	delErr  error
}

func newMemStore() *memStore { return &memStore{objects: make(map[string][]byte)} }

func (s *memStore) Put(_ context.Context, key, _ string, body io.Reader) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
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
	if s.delErr != nil {
		return s.delErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// countingTx 记录事务次数，失败时不回滚
type countingTx struct {
	calls int
}

func (t *countingTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type recPublisher struct {
	mu     sync.Mutex
	events []*messaging.DocumentEvent
}

func (p *recPublisher) PublishDocumentEvent(_ context.Context, evt *messaging.DocumentEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return fmt.Sprintf("%d-0", len(p.events)), nil
}

func (p *recPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type replyModel struct {
	mu    sync.Mutex
	calls int
	reply func(call int) (string, error)
}

func (m *replyModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	call := m.calls
	m.calls++
	m.mu.Unlock()
	content, err := m.reply(call)
	if err != nil {
		return nil, err
	}
	return schema.AssistantMessage(content, nil), nil
}

func (m *replyModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func (m *replyModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
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

type fixture struct {
	model     *replyModel
	repo      *memRepo
	store     *memStore
	publisher *recPublisher
	artifacts *artifact.Store
	documents *Service
	service   *GenerationService
}

func newFixture(t *testing.T, reply func(int) (string, error), withMetadata bool) *fixture {
	t.Helper()
	m := &replyModel{reply: reply}
	artifacts := artifact.NewMemStore()
	gen := book.NewGenerator(
		book.NewSectionWriter(book.NewCompletionClient(modelFactory{m: m}, "fake", nil), nil),
		book.NewAssembler(),
		render.NewRenderer(pdfStub{}, render.Config{}),
		artifacts,
		nil,
		book.GeneratorConfig{Persona: "persona"},
	)

	q := queue.New(queue.Config{Capacity: 4})
	require.NoError(t, q.Start())
	t.Cleanup(func() { _ = q.Close(context.Background()) })

	f := &fixture{model: m, repo: newMemRepo(), store: newMemStore(), publisher: &recPublisher{}, artifacts: artifacts}
	if withMetadata {
		f.documents = NewService(f.repo, f.store, nil, f.publisher, ServiceConfig{})
	}
	f.service = NewGenerationService(gen, q, book.NewCancelRegistry(), f.documents)
	return f
}

func bookSmall() book.Profile { return book.MustProfile(book.ProfileBookSmall) }
