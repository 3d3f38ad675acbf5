package render

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Title 把主题转换为标题格式
func Title(topic string) string {
	topic = strings.Join(strings.Fields(topic), " ")
	return cases.Title(language.English).String(topic)
}

// Slug 把主题转换为文件名
func Slug(topic string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(topic) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash && b.Len() > 0:
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > 80 {
		slug = strings.TrimRight(slug[:80], "-")
	}
	if slug == "" {
		return "document"
	}
	return slug
}
