package book

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"bookforge-ai-api/internal/application/render"
	"bookforge-ai-api/internal/domain/entity"
	"bookforge-ai-api/internal/infrastructure/artifact"
)

// scriptedModel 按调用序号返回预设回复
type scriptedModel struct {
	mu     sync.Mutex
	reply  func(call int, msgs []*schema.Message) (string, error)
	inputs [][]*schema.Message
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	call := len(m.inputs)
	m.inputs = append(m.inputs, input)
	m.mu.Unlock()

	content, err := m.reply(call, input)
	if err != nil {
		return nil, err
	}
	return schema.AssistantMessage(content, nil), nil
}

func (m *scriptedModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func (m *scriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inputs)
}

func (m *scriptedModel) Input(i int) []*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inputs[i]
}

type staticFactory struct {
	model model.BaseChatModel
	err   error
}

func (f staticFactory) Get(context.Context, string) (model.BaseChatModel, error) {
	return f.model, f.err
}

// topicReplies 目录、各章、结尾都围绕主题
func topicReplies(topic string) func(int, []*schema.Message) (string, error) {
	return func(call int, _ []*schema.Message) (string, error) {
		if call == 0 {
			return fmt.Sprintf("<think>planning the outline</think>\n# Table of Contents\n\n- Chapter 1: %s basics", topic), nil
		}
		return fmt.Sprintf("## Part %d\n\nThis part is about %s.", call, topic), nil
	}
}

type recordingPrinter struct {
	mu    sync.Mutex
	pages []string
}

func (p *recordingPrinter) PrintPDF(_ context.Context, html string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages = append(p.pages, html)
	return []byte("%PDF-1.7 test"), nil
}

func (p *recordingPrinter) Close() error { return nil }

// recordingSnapshots 记录每次保存的快照与删除的键
type recordingSnapshots struct {
	mu      sync.Mutex
	saved   []entity.ConversationSnapshot
	deleted []string
}

func (r *recordingSnapshots) Save(_ context.Context, snap *entity.ConversationSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, *snap)
	return nil
}

func (r *recordingSnapshots) Get(_ context.Context, key string) (*entity.ConversationSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.saved) - 1; i >= 0; i-- {
		if r.saved[i].SessionKey == key {
			snap := r.saved[i]
			return &snap, nil
		}
	}
	return nil, nil
}

func (r *recordingSnapshots) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, key)
	return nil
}

type harness struct {
	model     *scriptedModel
	snapshots *recordingSnapshots
	printer   *recordingPrinter
	store     *artifact.Store
	generator *Generator
}

func newHarness(reply func(int, []*schema.Message) (string, error)) *harness {
	m := &scriptedModel{reply: reply}
	printer := &recordingPrinter{}
	store := artifact.NewMemStore()
	snapshots := &recordingSnapshots{}
	client := NewCompletionClient(staticFactory{model: m}, "fake", nil)
	gen := NewGenerator(
		NewSectionWriter(client, snapshots),
		NewAssembler(),
		render.NewRenderer(printer, render.Config{Author: "Test"}),
		store,
		snapshots,
		GeneratorConfig{Persona: "You are a test author."},
	)
	return &harness{model: m, snapshots: snapshots, printer: printer, store: store, generator: gen}
}
