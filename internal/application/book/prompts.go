package book

import (
	"context"
	"fmt"
	"strings"

	"bookforge-ai-api/internal/workflow/prompt"
)

// PromptKind 提示词类别
type PromptKind string

const (
	PromptKindTOC     PromptKind = "toc"
	PromptKindChapter PromptKind = "chapter"
	PromptKindClosing PromptKind = "closing"
)

// Prompt 流水线中的一步
type Prompt struct {
	// Index 在整个序列中的位置，从 0 开始
	Index int
	Kind  PromptKind
	// Chapter 章节序号，仅 chapter 类有效，从 1 开始
	Chapter int
	Text    string
	// IncludeTOC 发送前是否附上最近一次生成的目录
	IncludeTOC bool
}

var defaultRegistry = prompt.NewRegistry()

// BuildPrompts 为主题和规格生成完整的提示词序列：[目录, 第 1..N 章, 结尾]
func BuildPrompts(ctx context.Context, topic string, profile Profile) ([]Prompt, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is empty", ErrInvalidRequest)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	base := map[string]any{
		"topic":         topic,
		"chapter_count": profile.ChapterCount,
		"subtopics":     profile.SubtopicsPerChapter,
		"min_words":     profile.MinWordsPerChapter,
		"audience":      profile.Audience,
		"tone":          profile.Tone,
	}

	prompts := make([]Prompt, 0, profile.SectionCount())

	text, err := defaultRegistry.Render(ctx, profile.Templates, prompt.PromptTOC, base)
	if err != nil {
		return nil, err
	}
	prompts = append(prompts, Prompt{Index: 0, Kind: PromptKindTOC, Text: text})

	for i := 1; i <= profile.ChapterCount; i++ {
		vars := make(map[string]any, len(base)+1)
		for k, v := range base {
			vars[k] = v
		}
		vars["chapter_number"] = i

		text, err := defaultRegistry.Render(ctx, profile.Templates, prompt.PromptChapter, vars)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, Prompt{
			Index:      i,
			Kind:       PromptKindChapter,
			Chapter:    i,
			Text:       text,
			IncludeTOC: true,
		})
	}

	text, err = defaultRegistry.Render(ctx, profile.Templates, prompt.PromptClosing, base)
	if err != nil {
		return nil, err
	}
	prompts = append(prompts, Prompt{Index: profile.ChapterCount + 1, Kind: PromptKindClosing, Text: text})

	return prompts, nil
}
