package book

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookforge-ai-api/internal/domain/entity"
	"bookforge-ai-api/internal/domain/repository"
	"bookforge-ai-api/pkg/logger"
	"bookforge-ai-api/pkg/metrics"
	"bookforge-ai-api/pkg/tracer"

	"go.opentelemetry.io/otel/attribute"
)

// HistoryFile 工作目录内的会话快照文件
const HistoryFile = "history.json"

// SectionArtifact 已写入工作目录的一节内容
type SectionArtifact struct {
	Index int
	Kind  PromptKind
	Name  string
	Words int
}

// SectionFileName section-NN.md，按序号排序即为文档顺序
func SectionFileName(index int) string {
	return fmt.Sprintf("section-%02d.md", index)
}

// SectionWriter 生成一节并落盘
type SectionWriter struct {
	completion *CompletionClient
	snapshots  repository.ConversationStore
}

// NewSectionWriter 创建章节写入器；snapshots 可为空
func NewSectionWriter(completion *CompletionClient, snapshots repository.ConversationStore) *SectionWriter {
	return &SectionWriter{completion: completion, snapshots: snapshots}
}

// Write 对提示词执行一次补全并保存为章节文件，任何错误都终止任务
func (w *SectionWriter) Write(ctx context.Context, s *Session, p Prompt) (SectionArtifact, error) {
	ctx, span := tracer.Start(ctx, "book.SectionWriter.Write")
	defer span.End()
	span.SetAttributes(
		attribute.Int("book.section_index", p.Index),
		attribute.String("book.section_kind", string(p.Kind)),
	)

	text := p.Text
	if p.IncludeTOC {
		if toc, ok := s.Conversation.LatestTOC(); ok {
			text = text + "\n\nTable of Contents to follow:\n\n" + toc
		}
	}

	reply, err := w.completion.Complete(ctx, CompletionCall{
		Conversation: s.Conversation,
		Topic:        s.Topic,
		Prompt:       text,
		Stage:        p.Kind,
		Profile:      s.Profile,
	})
	if err != nil {
		tracer.Fail(span, err)
		return SectionArtifact{}, err
	}

	name := SectionFileName(p.Index)
	if err := s.Workspace.WriteFile(name, []byte(reply)); err != nil {
		return SectionArtifact{}, fmt.Errorf("write %s: %w", name, err)
	}
	w.snapshot(ctx, s)

	words := WordCount(reply)
	metrics.SectionsWritten.WithLabelValues(s.Profile.Name, string(p.Kind)).Inc()
	metrics.SectionWordCount.WithLabelValues(s.Profile.Name).Observe(float64(words))
	logger.Info(ctx, "section written",
		"index", p.Index,
		"kind", p.Kind,
		"words", words,
	)

	return SectionArtifact{Index: p.Index, Kind: p.Kind, Name: name, Words: words}, nil
}

// snapshot 保存完整会话日志，失败只记录日志
func (w *SectionWriter) snapshot(ctx context.Context, s *Session) {
	snap := &entity.ConversationSnapshot{
		SessionKey: s.Key,
		JobID:      s.JobID,
		Entries:    s.Conversation.Entries(),
		SavedAt:    time.Now(),
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err == nil {
		err = s.Workspace.WriteFile(HistoryFile, data)
	}
	if err != nil {
		logger.Warn(ctx, "failed to write conversation history", "error", err.Error())
	}

	if w.snapshots == nil {
		return
	}
	if err := w.snapshots.Save(ctx, snap); err != nil {
		logger.Warn(ctx, "failed to save conversation snapshot", "error", err.Error())
	}
}
