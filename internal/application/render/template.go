package render

import (
	"bytes"
	"html/template"
	"time"
)

// Meta 封面信息
type Meta struct {
	Title    string
	Subtitle string
	Author   string
	Date     time.Time
}

type pageData struct {
	Meta
	DateText string
	Body     template.HTML
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: A4; margin: 22mm 18mm 22mm 18mm; }
body { font-family: "Georgia", "Times New Roman", serif; font-size: 11.5pt; line-height: 1.55; color: #1f2328; }
h1, h2, h3, h4 { font-family: "Helvetica Neue", Arial, sans-serif; color: #111; line-height: 1.25; }
h1 { font-size: 22pt; margin-top: 0; }
h2 { font-size: 17pt; margin-top: 28pt; page-break-before: always; }
h3 { font-size: 13pt; margin-top: 16pt; }
p { text-align: justify; margin: 0 0 9pt 0; }
pre { background: #f6f8fa; padding: 10pt; border-radius: 4pt; font-size: 9.5pt; white-space: pre-wrap; word-wrap: break-word; page-break-inside: avoid; }
code { font-family: "SFMono-Regular", Consolas, "Liberation Mono", monospace; font-size: 9.5pt; }
blockquote { margin: 0 0 9pt 0; padding-left: 10pt; border-left: 3pt solid #d0d7de; color: #57606a; }
table { border-collapse: collapse; margin-bottom: 9pt; }
th, td { border: 1px solid #d0d7de; padding: 4pt 7pt; }
.cover { height: 240mm; display: flex; flex-direction: column; justify-content: center; text-align: center; page-break-after: always; }
.cover h1 { font-size: 32pt; margin-bottom: 12pt; }
.cover .subtitle { font-size: 15pt; color: #57606a; }
.cover .author { margin-top: 40pt; font-size: 12pt; }
.cover .date { font-size: 11pt; color: #57606a; }
.content > h2:first-child { page-break-before: avoid; }
</style>
</head>
<body>
<section class="cover">
<h1>{{.Title}}</h1>
{{if .Subtitle}}<div class="subtitle">{{.Subtitle}}</div>{{end}}
{{if .Author}}<div class="author">{{.Author}}</div>{{end}}
<div class="date">{{.DateText}}</div>
</section>
<main class="content">
{{.Body}}
</main>
</body>
</html>
`))

// footerTemplate Chrome 打印页脚，显示 "X of Y"
const footerTemplate = `<div style="width:100%;font-size:8pt;color:#6e7781;text-align:center;font-family:Arial,sans-serif;"><span class="pageNumber"></span> of <span class="totalPages"></span></div>`

// headerTemplate 页眉留空，DisplayHeaderFooter 要求两者都提供
const headerTemplate = `<div></div>`

// BuildPage 生成完整 HTML 页面；body 来自 goldmark 输出
func BuildPage(meta Meta, body string) (string, error) {
	if meta.Date.IsZero() {
		meta.Date = time.Now()
	}
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, pageData{
		Meta:     meta,
		DateText: meta.Date.Format("January 2, 2006"),
		Body:     template.HTML(body),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
