package book

import (
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"

	"bookforge-ai-api/internal/domain/entity"
	"bookforge-ai-api/internal/workflow/prompt"
)

const tocMarker = "table of contents"

// Conversation 单个任务的会话日志
// 日志只追加；Trim 返回发送给模型的裁剪视图，不修改日志本身
type Conversation struct {
	mu      sync.RWMutex
	persona string
	entries []entity.ConversationEntry
}

// NewConversation 创建会话，persona 是裁剪视图中的系统前言
func NewConversation(persona string) *Conversation {
	return &Conversation{persona: strings.TrimSpace(persona)}
}

// Append 追加一条消息
func (c *Conversation) Append(role entity.Role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entity.ConversationEntry{Role: role, Content: content})
}

// Entries 返回完整日志的副本
func (c *Conversation) Entries() []entity.ConversationEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]entity.ConversationEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len 日志条数
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// LatestTOC 最近一条包含目录的 assistant 回复
func (c *Conversation) LatestTOC() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.entries) - 1; i >= 0; i-- {
		e := c.entries[i]
		if e.Role == entity.RoleAssistant && strings.Contains(strings.ToLower(e.Content), tocMarker) {
			return e.Content, true
		}
	}
	return "", false
}

// Trim 返回裁剪后的上下文
// 还没有目录时为空；否则只有一条 system 消息：前言 + 空行 + 最近的目录
func (c *Conversation) Trim() []entity.ConversationEntry {
	toc, ok := c.LatestTOC()
	if !ok {
		return nil
	}
	content := toc
	if c.persona != "" {
		content = c.persona + "\n\n" + toc
	}
	return []entity.ConversationEntry{{Role: entity.RoleSystem, Content: content}}
}

// Messages 裁剪视图 + 本次 user 提示词，转换为模型输入
func (c *Conversation) Messages(promptText string) []*schema.Message {
	trimmed := c.Trim()
	msgs := make([]*schema.Message, 0, len(trimmed)+1)
	for _, e := range trimmed {
		msgs = append(msgs, toMessage(e))
	}
	return append(msgs, schema.UserMessage(promptText))
}

func toMessage(e entity.ConversationEntry) *schema.Message {
	switch e.Role {
	case entity.RoleSystem:
		return schema.SystemMessage(e.Content)
	case entity.RoleAssistant:
		return schema.AssistantMessage(e.Content, nil)
	default:
		return schema.UserMessage(e.Content)
	}
}

func defaultPersona() string {
	return prompt.Persona()
}
