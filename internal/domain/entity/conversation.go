// Package entity 定义领域实体
package entity

import "time"

// Role 对话角色枚举
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationEntry 会话日志中的一条消息
type ConversationEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ConversationSnapshot 某一时刻的完整会话日志
type ConversationSnapshot struct {
	SessionKey string              `json:"session_key"`
	JobID      string              `json:"job_id"`
	Entries    []ConversationEntry `json:"entries"`
	SavedAt    time.Time           `json:"saved_at"`
}
