package render

import (
	"context"
	"fmt"
	"time"

	"github.com/yuin/goldmark"
	"go.opentelemetry.io/otel/attribute"

	"bookforge-ai-api/internal/domain/entity"
	"bookforge-ai-api/internal/infrastructure/artifact"
	"bookforge-ai-api/pkg/logger"
	"bookforge-ai-api/pkg/metrics"
	"bookforge-ai-api/pkg/tracer"
)

// Request 一次渲染请求
type Request struct {
	Markdown   string
	Format     entity.DocumentFormat
	OutputName string
	Meta       Meta
}

// Output 渲染结果，文件位于任务工作目录
type Output struct {
	Name        string
	Size        int64
	ContentType string
}

// Config 渲染器配置
type Config struct {
	Author    string
	CodeStyle string
}

// Renderer 清理 Markdown 并输出 PDF/DOCX
type Renderer struct {
	printer PDFPrinter
	md      goldmark.Markdown
	docx    *DocxBuilder
	author  string
}

// NewRenderer 创建渲染器
func NewRenderer(printer PDFPrinter, cfg Config) *Renderer {
	md := newMarkdown(cfg.CodeStyle)
	return &Renderer{
		printer: printer,
		md:      md,
		docx:    NewDocxBuilder(md),
		author:  cfg.Author,
	}
}

// HTML 返回清理后文本对应的完整 HTML 页面
func (r *Renderer) HTML(markdown string, meta Meta) (string, error) {
	body, err := ToHTML(r.md, Cleanup(markdown))
	if err != nil {
		return "", err
	}
	return BuildPage(r.withDefaults(meta), body)
}

// Render 输出文件到工作目录；失败统一包装为 ErrRender
func (r *Renderer) Render(ctx context.Context, ws *artifact.Workspace, req Request) (*Output, error) {
	ctx, span := tracer.Start(ctx, "render.Renderer.Render")
	defer span.End()
	span.SetAttributes(attribute.String("render.format", string(req.Format)))

	start := time.Now()
	out, err := r.render(ctx, ws, req)
	status := "success"
	if err != nil {
		status = "error"
		tracer.Fail(span, err)
		err = fmt.Errorf("%w: %w", ErrRender, err)
	}
	metrics.RenderDuration.WithLabelValues(string(req.Format), status).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "document rendered",
		"format", req.Format,
		"file", out.Name,
		"size", out.Size,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (r *Renderer) render(ctx context.Context, ws *artifact.Workspace, req Request) (*Output, error) {
	if req.OutputName == "" {
		return nil, fmt.Errorf("output name is required")
	}
	meta := r.withDefaults(req.Meta)
	cleaned := Cleanup(req.Markdown)

	switch req.Format {
	case entity.DocumentFormatPDF:
		if r.printer == nil {
			return nil, fmt.Errorf("pdf printer not configured")
		}
		body, err := ToHTML(r.md, cleaned)
		if err != nil {
			return nil, fmt.Errorf("markdown to html: %w", err)
		}
		page, err := BuildPage(meta, body)
		if err != nil {
			return nil, fmt.Errorf("build page: %w", err)
		}
		pdf, err := r.printer.PrintPDF(ctx, page)
		if err != nil {
			return nil, err
		}
		if err := ws.WriteFile(req.OutputName, pdf); err != nil {
			return nil, err
		}

	case entity.DocumentFormatDOCX:
		f, err := ws.Create(req.OutputName)
		if err != nil {
			return nil, err
		}
		buildErr := r.docx.Build(cleaned, meta, f)
		closeErr := f.Close()
		if buildErr != nil {
			return nil, buildErr
		}
		if closeErr != nil {
			return nil, closeErr
		}

	default:
		return nil, fmt.Errorf("unsupported format %q", req.Format)
	}

	size, err := ws.Size(req.OutputName)
	if err != nil {
		return nil, err
	}
	return &Output{Name: req.OutputName, Size: size, ContentType: req.Format.ContentType()}, nil
}

func (r *Renderer) withDefaults(meta Meta) Meta {
	if meta.Author == "" {
		meta.Author = r.author
	}
	if meta.Date.IsZero() {
		meta.Date = time.Now()
	}
	return meta
}
