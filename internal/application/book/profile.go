// Package book 实现从主题到整本文档的顺序生成流水线
package book

import (
	"fmt"
	"sort"

	"bookforge-ai-api/internal/domain/entity"
	"bookforge-ai-api/internal/workflow/prompt"
)

// 内置规格名称
const (
	ProfileBookSmall         = "book_small"
	ProfileBookMedium        = "book_medium"
	ProfileBookLong          = "book_long"
	ProfileResearchPaper     = "research_paper"
	ProfileResearchPaperLong = "research_paper_long"
)

// Sampling 单次补全的采样参数
type Sampling struct {
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// Profile 一种文档规格的全部可变参数
// 不同长度、不同类型的文档共用同一条流水线，只在这里体现差异
type Profile struct {
	Name                string
	DocumentType        entity.DocumentType
	ChapterCount        int
	SubtopicsPerChapter int
	MinWordsPerChapter  int
	Audience            string
	Tone                string
	Templates           prompt.TemplateSet
	Sampling            Sampling
}

// Validate 检查规格是否可用
func (p Profile) Validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("profile name is required")
	case p.ChapterCount <= 0:
		return fmt.Errorf("profile %s: chapter count must be positive", p.Name)
	case p.SubtopicsPerChapter <= 0:
		return fmt.Errorf("profile %s: subtopics per chapter must be positive", p.Name)
	case p.MinWordsPerChapter <= 0:
		return fmt.Errorf("profile %s: min words per chapter must be positive", p.Name)
	case p.Templates == "":
		return fmt.Errorf("profile %s: template set is required", p.Name)
	}
	return nil
}

// SectionCount 目录 + 章节 + 结尾
func (p Profile) SectionCount() int {
	return p.ChapterCount + 2
}

var bookSampling = Sampling{Temperature: 0.7, TopP: 0.9}

var researchSampling = Sampling{Temperature: 0.4, TopP: 0.85}

func withMaxTokens(s Sampling, n int) Sampling {
	s.MaxTokens = n
	return s
}

var builtinProfiles = map[string]Profile{
	ProfileBookSmall: {
		Name:                ProfileBookSmall,
		DocumentType:        entity.DocumentTypeBook,
		ChapterCount:        5,
		SubtopicsPerChapter: 3,
		MinWordsPerChapter:  400,
		Audience:            "general readers new to the subject",
		Tone:                "clear, engaging and friendly",
		Templates:           prompt.TemplateSetBook,
		Sampling:            withMaxTokens(bookSampling, 2048),
	},
	ProfileBookMedium: {
		Name:                ProfileBookMedium,
		DocumentType:        entity.DocumentTypeBook,
		ChapterCount:        10,
		SubtopicsPerChapter: 4,
		MinWordsPerChapter:  600,
		Audience:            "interested readers with some background",
		Tone:                "informative and engaging",
		Templates:           prompt.TemplateSetBook,
		Sampling:            withMaxTokens(bookSampling, 3072),
	},
	ProfileBookLong: {
		Name:                ProfileBookLong,
		DocumentType:        entity.DocumentTypeBook,
		ChapterCount:        10,
		SubtopicsPerChapter: 5,
		MinWordsPerChapter:  1200,
		Audience:            "dedicated readers who want depth",
		Tone:                "thorough, authoritative and readable",
		Templates:           prompt.TemplateSetBook,
		Sampling:            withMaxTokens(bookSampling, 4096),
	},
	ProfileResearchPaper: {
		Name:                ProfileResearchPaper,
		DocumentType:        entity.DocumentTypeResearchPaper,
		ChapterCount:        5,
		SubtopicsPerChapter: 3,
		MinWordsPerChapter:  500,
		Audience:            "students and academic readers",
		Tone:                "formal, precise and objective",
		Templates:           prompt.TemplateSetResearch,
		Sampling:            withMaxTokens(researchSampling, 2048),
	},
	ProfileResearchPaperLong: {
		Name:                ProfileResearchPaperLong,
		DocumentType:        entity.DocumentTypeResearchPaper,
		ChapterCount:        10,
		SubtopicsPerChapter: 4,
		MinWordsPerChapter:  1000,
		Audience:            "researchers and graduate students",
		Tone:                "formal, rigorous and objective",
		Templates:           prompt.TemplateSetResearch,
		Sampling:            withMaxTokens(researchSampling, 4096),
	},
}

// LookupProfile 按名称查找内置规格
func LookupProfile(name string) (Profile, bool) {
	p, ok := builtinProfiles[name]
	return p, ok
}

// MustProfile 查找内置规格，不存在时 panic
func MustProfile(name string) Profile {
	p, ok := LookupProfile(name)
	if !ok {
		panic(fmt.Sprintf("unknown profile %q", name))
	}
	return p
}

// Profiles 返回所有内置规格，按名称排序
func Profiles() []Profile {
	out := make([]Profile, 0, len(builtinProfiles))
	for _, p := range builtinProfiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
