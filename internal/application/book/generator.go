package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"

	"bookforge-ai-api/internal/application/render"
	"bookforge-ai-api/internal/domain/entity"
	"bookforge-ai-api/internal/domain/repository"
	"bookforge-ai-api/internal/infrastructure/artifact"
	"bookforge-ai-api/pkg/logger"
	"bookforge-ai-api/pkg/metrics"
	"bookforge-ai-api/pkg/tracer"
)

// DocumentRenderer 渲染组装好的 Markdown
type DocumentRenderer interface {
	Render(ctx context.Context, ws *artifact.Workspace, req render.Request) (*render.Output, error)
}

// Request 一次完整的文档生成请求
type Request struct {
	JobID   string
	UserID  string
	Topic   string
	Profile Profile
	Format  entity.DocumentFormat
	Cancel  *CancelToken
	// Progress 每完成一节回调一次，可为空
	Progress func(done, total int)
}

// Result 生成结果；调用方读取文件后必须调用 Release 删除工作目录
type Result struct {
	JobID       string
	Title       string
	FileName    string
	ContentType string
	Size        int64
	Sections    int
	Words       int

	workspace  *artifact.Workspace
	outputName string
}

// Open 打开输出文件
func (r *Result) Open() (afero.File, error) {
	return r.workspace.Open(r.outputName)
}

// Release 删除任务工作目录
func (r *Result) Release() error {
	if r == nil || r.workspace == nil {
		return nil
	}
	return r.workspace.Destroy()
}

// GeneratorConfig 生成器配置
type GeneratorConfig struct {
	Persona string
}

// Generator 驱动一次任务：提示词序列 -> 逐节补全 -> 组装 -> 渲染
type Generator struct {
	writer    *SectionWriter
	assembler *Assembler
	renderer  DocumentRenderer
	store     *artifact.Store
	snapshots repository.ConversationStore
	persona   string
}

// NewGenerator 创建生成器；snapshots 可为空
func NewGenerator(
	writer *SectionWriter,
	assembler *Assembler,
	renderer DocumentRenderer,
	store *artifact.Store,
	snapshots repository.ConversationStore,
	cfg GeneratorConfig,
) *Generator {
	return &Generator{
		writer:    writer,
		assembler: assembler,
		renderer:  renderer,
		store:     store,
		snapshots: snapshots,
		persona:   cfg.Persona,
	}
}

// Generate 生成整份文档
// 任何一步失败都会终止任务并删除工作目录，不返回部分结果
func (g *Generator) Generate(ctx context.Context, req Request) (res *Result, err error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.JobID == "" {
		req.JobID = uuid.NewString()
	}

	ctx = logger.WithContext(ctx, logger.JobIDKey, req.JobID)
	ctx, span := tracer.Start(ctx, "book.Generator.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("book.job_id", req.JobID),
		attribute.String("book.profile", req.Profile.Name),
		attribute.String("book.format", string(req.Format)),
	)

	start := time.Now()
	defer func() {
		status := "success"
		switch {
		case errors.Is(err, ErrCancelled):
			status = "cancelled"
		case err != nil:
			status = "error"
		}
		metrics.DocumentGenerationTotal.WithLabelValues(req.Profile.Name, string(req.Format), status).Inc()
		metrics.DocumentGenerationDuration.WithLabelValues(req.Profile.Name).Observe(time.Since(start).Seconds())
		if err != nil {
			tracer.Fail(span, err)
		}
	}()

	prompts, err := BuildPrompts(ctx, req.Topic, req.Profile)
	if err != nil {
		return nil, err
	}

	ws, err := g.store.Open(req.JobID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rmErr := ws.Destroy(); rmErr != nil {
				logger.Warn(ctx, "failed to remove job workspace", "error", rmErr.Error())
			}
		}
	}()

	persona := g.persona
	if persona == "" {
		persona = defaultPersona()
	}
	session := &Session{
		Key:          SessionKey(req.UserID, req.Topic),
		JobID:        req.JobID,
		UserID:       req.UserID,
		Topic:        req.Topic,
		Profile:      req.Profile,
		Conversation: NewConversation(persona),
		Workspace:    ws,
	}

	logger.Info(ctx, "document generation started",
		"profile", req.Profile.Name,
		"format", req.Format,
		"sections", len(prompts),
	)

	sections := make([]SectionArtifact, 0, len(prompts))
	words := 0
	for _, p := range prompts {
		if req.Cancel.Cancelled() {
			logger.Info(ctx, "document generation cancelled", "completed_sections", len(sections))
			return nil, fmt.Errorf("%w after %d of %d sections", ErrCancelled, len(sections), len(prompts))
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrCancelled, ctxErr)
		}

		sec, err := g.writer.Write(ctx, session, p)
		if err != nil {
			return nil, err
		}
		sections = append(sections, sec)
		words += sec.Words
		if req.Progress != nil {
			req.Progress(len(sections), len(prompts))
		}
	}

	combined, err := g.assembler.Combine(ctx, ws, sections)
	if err != nil {
		return nil, err
	}

	title := render.Title(req.Topic)
	fileName := render.Slug(req.Topic) + "." + string(req.Format)
	out, err := g.renderer.Render(ctx, ws, render.Request{
		Markdown:   combined,
		Format:     req.Format,
		OutputName: fileName,
		Meta: render.Meta{
			Title:    title,
			Subtitle: subtitleFor(req.Profile.DocumentType),
		},
	})
	if err != nil {
		if !errors.Is(err, ErrRender) {
			err = fmt.Errorf("%w: %w", ErrRender, err)
		}
		return nil, err
	}
	if rmErr := ws.Remove(CombinedFile); rmErr != nil {
		logger.Warn(ctx, "failed to remove combined document", "error", rmErr.Error())
	}

	if g.snapshots != nil {
		if delErr := g.snapshots.Delete(ctx, session.Key); delErr != nil {
			logger.Warn(ctx, "failed to delete conversation snapshot", "error", delErr.Error())
		}
	}

	logger.Info(ctx, "document generation finished",
		"file", out.Name,
		"size", out.Size,
		"words", words,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Result{
		JobID:       req.JobID,
		Title:       title,
		FileName:    out.Name,
		ContentType: out.ContentType,
		Size:        out.Size,
		Sections:    len(sections),
		Words:       words,
		workspace:   ws,
		outputName:  out.Name,
	}, nil
}

func validateRequest(req Request) error {
	if req.Topic == "" {
		return fmt.Errorf("%w: topic is empty", ErrInvalidRequest)
	}
	if !req.Format.Valid() {
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidRequest, req.Format)
	}
	if err := req.Profile.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

func subtitleFor(t entity.DocumentType) string {
	if t == entity.DocumentTypeResearchPaper {
		return "A Research Paper"
	}
	return "A Book"
}
