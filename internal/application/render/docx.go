package render

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	docx "github.com/fumiama/go-docx"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// 单次扫描识别 **粗体**、*斜体*、`代码`；不成对的标记按原文保留
var inlinePattern = regexp.MustCompile("\\*\\*[^*\\n]+\\*\\*|\\*[^*\\n]+\\*|`[^`\\n]+`")

const (
	codeShade   = "F2F2F2"
	quoteColor  = "57606A"
	codeSize    = "20"
	bodySize    = "23"
	captionSize = "28"
)

var headingSizes = map[int]string{1: "44", 2: "34", 3: "28", 4: "26"}

// DocxBuilder 遍历 goldmark AST 生成 Word 文档
type DocxBuilder struct {
	md goldmark.Markdown
}

// NewDocxBuilder 创建 DOCX 构建器
func NewDocxBuilder(md goldmark.Markdown) *DocxBuilder {
	return &DocxBuilder{md: md}
}

// Build 把 Markdown 写成 DOCX
func (b *DocxBuilder) Build(source string, meta Meta, w io.Writer) error {
	src := []byte(source)
	root := b.md.Parser().Parse(text.NewReader(src))

	doc := docx.New().WithDefaultTheme()
	writeCover(doc, meta)

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		b.writeBlock(doc, n, src, "")
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func writeCover(doc *docx.Docx, meta Meta) {
	if meta.Title == "" {
		return
	}
	doc.AddParagraph().Justification("center").AddText(meta.Title).Bold().Size("56")
	if meta.Subtitle != "" {
		doc.AddParagraph().Justification("center").AddText(meta.Subtitle).Size(captionSize).Color(quoteColor)
	}
	if meta.Author != "" {
		doc.AddParagraph().Justification("center").AddText(meta.Author).Size(bodySize)
	}
	if !meta.Date.IsZero() {
		doc.AddParagraph().Justification("center").AddText(meta.Date.Format("January 2, 2006")).Size(bodySize).Color(quoteColor)
	}
	doc.AddParagraph()
}

func (b *DocxBuilder) writeBlock(doc *docx.Docx, n ast.Node, src []byte, indent string) {
	switch node := n.(type) {
	case *ast.Heading:
		size, ok := headingSizes[node.Level]
		if !ok {
			size = "24"
		}
		doc.AddParagraph().AddText(plainText(node, src)).Bold().Size(size)

	case *ast.Paragraph, *ast.TextBlock:
		p := doc.AddParagraph()
		if indent != "" {
			p.AddText(indent).Size(bodySize)
		}
		addInlineRuns(p, blockSource(n, src), bodySize)

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		for _, line := range codeLines(n, src) {
			doc.AddParagraph().AddText(line).Size(codeSize).Shade("clear", "auto", codeShade)
		}

	case *ast.List:
		b.writeList(doc, node, src, indent)

	case *ast.Blockquote:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			p := doc.AddParagraph()
			if indent != "" {
				p.AddText(indent).Size(bodySize)
			}
			for _, r := range splitInline(blockSource(c, src)) {
				styleRun(p, r, bodySize).Italic().Color(quoteColor)
			}
		}

	case *extast.Table:
		for row := n.FirstChild(); row != nil; row = row.NextSibling() {
			cells := make([]string, 0, row.ChildCount())
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, plainText(cell, src))
			}
			run := doc.AddParagraph().AddText(strings.Join(cells, " | ")).Size(bodySize)
			if _, header := row.(*extast.TableHeader); header {
				run.Bold()
			}
		}

	case *ast.HTMLBlock:
		for _, line := range codeLines(n, src) {
			doc.AddParagraph().AddText(line).Size(bodySize)
		}

	case *ast.ThematicBreak:
		doc.AddParagraph()
	}
}

func (b *DocxBuilder) writeList(doc *docx.Docx, list *ast.List, src []byte, indent string) {
	number := list.Start
	if number <= 0 {
		number = 1
	}
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "• "
		if list.IsOrdered() {
			marker = fmt.Sprintf("%d. ", number)
			number++
		}
		first := true
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch c.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				prefix := indent + "    "
				if first {
					prefix = indent + marker
				}
				p := doc.AddParagraph()
				p.AddText(prefix).Size(bodySize)
				addInlineRuns(p, blockSource(c, src), bodySize)
			default:
				b.writeBlock(doc, c, src, indent+"    ")
			}
			first = false
		}
	}
}

// inlineRun 行内片段
type inlineRun struct {
	text   string
	bold   bool
	italic bool
	code   bool
}

// splitInline 把一段 Markdown 源文本切分为行内片段
func splitInline(s string) []inlineRun {
	var runs []inlineRun
	last := 0
	for _, loc := range inlinePattern.FindAllStringIndex(s, -1) {
		if loc[0] > last {
			runs = append(runs, inlineRun{text: s[last:loc[0]]})
		}
		m := s[loc[0]:loc[1]]
		switch {
		case strings.HasPrefix(m, "**"):
			runs = append(runs, inlineRun{text: m[2 : len(m)-2], bold: true})
		case strings.HasPrefix(m, "`"):
			runs = append(runs, inlineRun{text: m[1 : len(m)-1], code: true})
		default:
			runs = append(runs, inlineRun{text: m[1 : len(m)-1], italic: true})
		}
		last = loc[1]
	}
	if last < len(s) {
		runs = append(runs, inlineRun{text: s[last:]})
	}
	return runs
}

func addInlineRuns(p *docx.Paragraph, s string, size string) {
	for _, r := range splitInline(s) {
		styleRun(p, r, size)
	}
}

func styleRun(p *docx.Paragraph, r inlineRun, size string) *docx.Run {
	run := p.AddText(r.text)
	switch {
	case r.bold:
		run.Bold().Size(size)
	case r.italic:
		run.Italic().Size(size)
	case r.code:
		run.Size(codeSize).Shade("clear", "auto", codeShade)
	default:
		run.Size(size)
	}
	return run
}

// blockSource 段落的原始 Markdown，软换行合并为空格
func blockSource(n ast.Node, src []byte) string {
	lines := n.Lines()
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		parts = append(parts, strings.TrimSpace(string(seg.Value(src))))
	}
	return strings.Join(parts, " ")
}

// codeLines 代码块逐行原文
func codeLines(n ast.Node, src []byte) []string {
	lines := n.Lines()
	out := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, strings.TrimRight(string(seg.Value(src)), "\r\n"))
	}
	return out
}

// plainText 收集节点下所有文本
func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
