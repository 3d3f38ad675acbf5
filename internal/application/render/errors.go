// Package render 把组装好的 Markdown 渲染为 PDF 或 DOCX
package render

import "errors"

// ErrRender 渲染失败，没有降级方案
var ErrRender = errors.New("render failed")
