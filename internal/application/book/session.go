package book

import (
	"strings"
	"sync/atomic"

	"bookforge-ai-api/internal/infrastructure/artifact"
)

// SessionKey 用户 + 规范化主题，标识一次任务的会话与工作目录
func SessionKey(userID, topic string) string {
	return strings.TrimSpace(userID) + ":" + normalizeTopic(topic)
}

func normalizeTopic(topic string) string {
	return strings.Join(strings.Fields(strings.ToLower(topic)), "_")
}

// Session 单个任务独占的可变状态
type Session struct {
	Key          string
	JobID        string
	UserID       string
	Topic        string
	Profile      Profile
	Conversation *Conversation
	Workspace    *artifact.Workspace
}

// CancelToken 取消标记，只在每节开始前检查
// 正在进行的模型调用会跑完
type CancelToken struct {
	flag atomic.Bool
}

// NewCancelToken 创建未取消的标记
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Cancel 请求取消
func (t *CancelToken) Cancel() {
	if t != nil {
		t.flag.Store(true)
	}
}

// Cancelled 是否已请求取消，nil 视为未取消
func (t *CancelToken) Cancelled() bool {
	return t != nil && t.flag.Load()
}
