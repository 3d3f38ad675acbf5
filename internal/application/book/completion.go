package book

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"bookforge-ai-api/internal/domain/entity"
	llmctx "bookforge-ai-api/internal/domain/service"
	"bookforge-ai-api/pkg/logger"
	"bookforge-ai-api/pkg/metrics"
)

// ChatModelFactory 应用层对 LLM ChatModel 的最小依赖（port）
type ChatModelFactory interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
}

// CompletionClient 发送裁剪后的上下文与提示词，清理并校验回复
type CompletionClient struct {
	factory   ChatModelFactory
	provider  string
	relevance RelevanceChecker
}

// NewCompletionClient 创建补全客户端，relevance 为空时使用 KeywordRelevance
func NewCompletionClient(factory ChatModelFactory, provider string, relevance RelevanceChecker) *CompletionClient {
	if relevance == nil {
		relevance = KeywordRelevance{}
	}
	return &CompletionClient{
		factory:   factory,
		provider:  strings.TrimSpace(provider),
		relevance: relevance,
	}
}

// CompletionCall 一次补全的输入
type CompletionCall struct {
	Conversation *Conversation
	Topic        string
	Prompt       string
	Stage        PromptKind
	Profile      Profile
}

// Complete 调用模型；成功时把提示词与清理后的回复追加到会话并返回回复
// 失败时会话保持不变
func (c *CompletionClient) Complete(ctx context.Context, call CompletionCall) (string, error) {
	if c == nil || c.factory == nil {
		return "", fmt.Errorf("%w: llm factory not configured", ErrUpstream)
	}
	if call.Conversation == nil {
		return "", fmt.Errorf("%w: conversation is nil", ErrInvalidRequest)
	}

	ctx = llmctx.WithLLMCall(ctx, string(call.Stage), c.provider, call.Profile.Name)
	chatModel, err := c.factory.Get(ctx, c.provider)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	msgs := call.Conversation.Messages(call.Prompt)
	out, err := chatModel.Generate(ctx, msgs, samplingOptions(call.Profile.Sampling)...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if out == nil {
		return "", fmt.Errorf("%w: empty llm response", ErrUpstream)
	}

	reply := Sanitize(out.Content)
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply after cleanup", ErrUpstream)
	}

	if !c.relevance.Check(ctx, call.Topic, reply) {
		metrics.IrrelevantReplies.WithLabelValues(call.Profile.Name).Inc()
		logger.Warn(ctx, "completion rejected as off-topic",
			"stage", call.Stage,
			"topic", call.Topic,
			"reply_preview", preview(reply, 120),
		)
		return "", fmt.Errorf("%w: %s", ErrIrrelevantReply, call.Stage)
	}

	call.Conversation.Append(entity.RoleUser, call.Prompt)
	call.Conversation.Append(entity.RoleAssistant, reply)
	return reply, nil
}

// samplingOptions 规格相关的采样参数；惩罚系数随提供商在工厂中固定
func samplingOptions(s Sampling) []model.Option {
	opts := make([]model.Option, 0, 3)
	if s.Temperature > 0 {
		opts = append(opts, model.WithTemperature(s.Temperature))
	}
	if s.TopP > 0 {
		opts = append(opts, model.WithTopP(s.TopP))
	}
	if s.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(s.MaxTokens))
	}
	return opts
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
