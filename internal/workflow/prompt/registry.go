// Package prompt 管理内嵌的提示词模板
package prompt

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt templates/*/*.txt
var templatesFS embed.FS

// TemplateSet 模板集合，对应文档类型
type TemplateSet string

const (
	TemplateSetBook     TemplateSet = "book"
	TemplateSetResearch TemplateSet = "research"
)

// PromptID 模板内的提示词标识
type PromptID string

const (
	PromptTOC     PromptID = "toc"
	PromptChapter PromptID = "chapter"
	PromptClosing PromptID = "closing"
)

const personaPath = "templates/persona.system.txt"

type cacheKey struct {
	set TemplateSet
	id  PromptID
}

// Registry 按 (模板集合, 提示词) 缓存解析后的 ChatTemplate
type Registry struct {
	mu    sync.RWMutex
	cache map[cacheKey]einoprompt.ChatTemplate
}

// NewRegistry 创建模板注册表
func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[cacheKey]einoprompt.ChatTemplate),
	}
}

// ChatTemplate 返回单条 user 消息构成的模板
func (r *Registry) ChatTemplate(set TemplateSet, id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}
	key := cacheKey{set: set, id: id}

	r.mu.RLock()
	if tpl, ok := r.cache[key]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[key]; ok {
		return tpl, nil
	}

	path, err := resolvePromptFile(set, id)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(path)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(schema.FString, schema.UserMessage(user))
	r.cache[key] = tpl
	return tpl, nil
}

// Render 渲染提示词正文
func (r *Registry) Render(ctx context.Context, set TemplateSet, id PromptID, vars map[string]any) (string, error) {
	tpl, err := r.ChatTemplate(set, id)
	if err != nil {
		return "", err
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("format prompt %s/%s: %w", set, id, err)
	}
	if len(msgs) == 0 {
		return "", fmt.Errorf("prompt %s/%s rendered no messages", set, id)
	}
	return strings.TrimSpace(msgs[0].Content), nil
}

// Persona 返回默认的系统前言
func Persona() string {
	text, err := readEmbeddedText(personaPath)
	if err != nil {
		return ""
	}
	return text
}

func resolvePromptFile(set TemplateSet, id PromptID) (string, error) {
	switch set {
	case TemplateSetBook, TemplateSetResearch:
	default:
		return "", fmt.Errorf("unknown template set: %s", set)
	}
	switch id {
	case PromptTOC, PromptChapter, PromptClosing:
		return fmt.Sprintf("templates/%s/%s.user.txt", set, id), nil
	default:
		return "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
