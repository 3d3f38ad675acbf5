package book

import (
	"regexp"
	"strings"
)

var (
	// 推理模型会在正文前输出 <think>...</think>
	thinkBlockPattern = regexp.MustCompile(`(?is)<think>.*?</think>`)

	// 模型惯用的开场白，只匹配回复开头的一整行
	cannedIntroPattern = regexp.MustCompile(`(?i)^(?:as an ai(?: language model)?\b|i am an ai(?: assistant| language model)?\b|i'm an ai(?: assistant| language model)?\b|sure[!,.]?\s+here(?:'s| is| are)\b|certainly[!,.]?\s+here(?:'s| is| are)\b|of course[!,.]?\s+here(?:'s| is| are)\b)[^\n]*(?:\n|$)`)
)

// StripReasoning 删除所有 <think> 块（大小写不敏感、可跨行），幂等
func StripReasoning(s string) string {
	return strings.TrimSpace(thinkBlockPattern.ReplaceAllString(s, ""))
}

// StripCannedIntro 删除开头的客套开场白，可能连续多行
func StripCannedIntro(s string) string {
	s = strings.TrimSpace(s)
	for {
		next := strings.TrimSpace(cannedIntroPattern.ReplaceAllString(s, ""))
		if next == s {
			return s
		}
		s = next
	}
}

// Sanitize 清理模型回复
func Sanitize(s string) string {
	return StripCannedIntro(StripReasoning(s))
}

// WordCount 粗略统计词数
func WordCount(s string) int {
	return len(strings.Fields(s))
}
