package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// newMarkdown GFM + 代码高亮；不开启 unsafe，模型输出中的原始 HTML 会被丢弃
func newMarkdown(codeStyle string) goldmark.Markdown {
	if codeStyle == "" {
		codeStyle = "github"
	}
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(highlighting.WithStyle(codeStyle)),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
}

// ToHTML Markdown 转 HTML 片段
func ToHTML(md goldmark.Markdown, source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
