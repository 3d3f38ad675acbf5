package book

import (
	"context"
	"strings"
)

// RelevanceChecker 判断回复是否与主题相关
type RelevanceChecker interface {
	Check(ctx context.Context, topic, reply string) bool
}

// RelevanceFunc 函数适配器
type RelevanceFunc func(ctx context.Context, topic, reply string) bool

// Check 实现 RelevanceChecker
func (f RelevanceFunc) Check(ctx context.Context, topic, reply string) bool {
	return f(ctx, topic, reply)
}

// KeywordRelevance 主题按空白切分后，任一词（大小写不敏感）作为子串出现在回复中即视为相关
type KeywordRelevance struct{}

// Check 实现 RelevanceChecker
func (KeywordRelevance) Check(_ context.Context, topic, reply string) bool {
	return containsAny(strings.ToLower(reply), strings.Fields(strings.ToLower(topic)))
}

var relevanceStopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "and": {}, "or": {}, "in": {},
	"on": {}, "for": {}, "to": {}, "with": {}, "about": {}, "by": {}, "at": {},
}

// StrictKeywordRelevance 比 KeywordRelevance 更严格：去掉标点与停用词后再匹配，
// 主题只剩停用词时退化为逐词匹配
type StrictKeywordRelevance struct{}

// Check 实现 RelevanceChecker
func (StrictKeywordRelevance) Check(_ context.Context, topic, reply string) bool {
	return containsAny(strings.ToLower(reply), significantKeywords(topic))
}

func containsAny(reply string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(reply, tok) {
			return true
		}
	}
	return false
}

func significantKeywords(topic string) []string {
	all := strings.Fields(strings.ToLower(topic))
	keywords := make([]string, 0, len(all))
	for _, tok := range all {
		tok = strings.Trim(tok, `.,;:!?"'()[]`)
		if tok == "" {
			continue
		}
		if _, stop := relevanceStopWords[tok]; stop {
			continue
		}
		keywords = append(keywords, tok)
	}
	if len(keywords) == 0 {
		return all
	}
	return keywords
}
