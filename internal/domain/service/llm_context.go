// Package service 放置跨层共享的领域辅助逻辑
package service

import (
	"context"
	"strings"
)

type llmCtxKey string

const (
	llmCtxKeyStage    llmCtxKey = "llm_stage"
	llmCtxKeyProvider llmCtxKey = "llm_provider"
	llmCtxKeyProfile  llmCtxKey = "llm_profile"
)

const unknownLabel = "unknown"

// WithStage 标记当前 LLM 调用所处的生成阶段（toc/chapter/closing）
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, llmCtxKeyStage, stage)
}

// WithProvider 标记当前 LLM 调用使用的提供商
func WithProvider(ctx context.Context, provider string) context.Context {
	return withValue(ctx, llmCtxKeyProvider, provider)
}

// WithProfile 标记当前 LLM 调用所属的文档规格
func WithProfile(ctx context.Context, profile string) context.Context {
	return withValue(ctx, llmCtxKeyProfile, profile)
}

// WithLLMCall 一次性写入阶段、提供商与规格
func WithLLMCall(ctx context.Context, stage, provider, profile string) context.Context {
	return WithProfile(WithProvider(WithStage(ctx, stage), provider), profile)
}

// StageFromContext 读取生成阶段
func StageFromContext(ctx context.Context) string {
	return valueOrUnknown(ctx, llmCtxKeyStage)
}

// ProviderFromContext 读取提供商
func ProviderFromContext(ctx context.Context) string {
	return valueOrUnknown(ctx, llmCtxKeyProvider)
}

// ProfileFromContext 读取文档规格
func ProfileFromContext(ctx context.Context) string {
	return valueOrUnknown(ctx, llmCtxKeyProfile)
}

func withValue(ctx context.Context, key llmCtxKey, value string) context.Context {
	if ctx == nil {
		return nil
	}
	v := strings.TrimSpace(value)
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func valueOrUnknown(ctx context.Context, key llmCtxKey) string {
	if ctx == nil {
		return unknownLabel
	}
	s, ok := ctx.Value(key).(string)
	if !ok || strings.TrimSpace(s) == "" {
		return unknownLabel
	}
	return s
}
