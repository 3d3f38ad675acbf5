package render

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookforge-ai-api/internal/domain/entity"
	"bookforge-ai-api/internal/infrastructure/artifact"
)

type fakePrinter struct {
	html string
	err  error
}

func (p *fakePrinter) PrintPDF(_ context.Context, html string) ([]byte, error) {
	p.html = html
	if p.err != nil {
		return nil, p.err
	}
	return []byte("%PDF-1.7 fake"), nil
}

func (p *fakePrinter) Close() error { return nil }

func newWorkspace(t *testing.T) *artifact.Workspace {
	t.Helper()
	ws, err := artifact.NewMemStore().Open("render-test")
	require.NoError(t, err)
	return ws
}

func TestRenderPDF(t *testing.T) {
	printer := &fakePrinter{}
	r := NewRenderer(printer, Config{Author: "BookForge"})
	ws := newWorkspace(t)

	out, err := r.Render(context.Background(), ws, Request{
		Markdown:   "## Chapter 1 — Start\n\n-----\n\n```go\nfmt.Println(1)\n```\n",
		Format:     entity.DocumentFormatPDF,
		OutputName: "cats.pdf",
		Meta:       Meta{Title: "Cats", Subtitle: "A Book"},
	})
	require.NoError(t, err)

	assert.Equal(t, "cats.pdf", out.Name)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.EqualValues(t, len("%PDF-1.7 fake"), out.Size)
	assert.True(t, ws.Exists("cats.pdf"))

	assert.Contains(t, printer.html, "<h1>Cats</h1>")
	assert.Contains(t, printer.html, "BookForge")
	assert.Contains(t, printer.html, "Chapter 1 - Start")
	assert.NotContains(t, printer.html, "-----")
	assert.Contains(t, printer.html, "<pre")
}

func TestRenderPDFFailure(t *testing.T) {
	r := NewRenderer(&fakePrinter{err: errors.New("browser crashed")}, Config{})
	_, err := r.Render(context.Background(), newWorkspace(t), Request{
		Markdown:   "# x",
		Format:     entity.DocumentFormatPDF,
		OutputName: "x.pdf",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRender)
}

func TestRenderDOCX(t *testing.T) {
	r := NewRenderer(nil, Config{})
	ws := newWorkspace(t)
	out, err := r.Render(context.Background(), ws, Request{
		Markdown:   "# Title\n\nHello **world**.",
		Format:     entity.DocumentFormatDOCX,
		OutputName: "hello.docx",
		Meta:       Meta{Title: "Hello"},
	})
	require.NoError(t, err)
	assert.Greater(t, out.Size, int64(0))
	assert.Equal(t, entity.DocumentFormatDOCX.ContentType(), out.ContentType)

	data, err := ws.ReadFile("hello.docx")
	require.NoError(t, err)
	assert.Contains(t, docxParagraphs(t, data), "Hello world.")
}

func TestRenderUnsupportedFormat(t *testing.T) {
	r := NewRenderer(&fakePrinter{}, Config{})
	_, err := r.Render(context.Background(), newWorkspace(t), Request{Markdown: "x", Format: "epub", OutputName: "x.epub"})
	assert.ErrorIs(t, err, ErrRender)
}
