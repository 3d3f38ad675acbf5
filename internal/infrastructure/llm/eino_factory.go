// Package llm 提供基于 Eino 的 ChatModel 工厂
package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"bookforge-ai-api/internal/config"
)

// EinoFactory 按提供商名称惰性创建并缓存 ChatModel
type EinoFactory struct {
	config *config.LLMConfig
	models map[string]model.BaseChatModel
	mu     sync.RWMutex
}

// NewEinoFactory 创建 Eino LLM 工厂
func NewEinoFactory(cfg *config.Config) *EinoFactory {
	return &EinoFactory{
		config: &cfg.LLM,
		models: make(map[string]model.BaseChatModel),
	}
}

// Get 获取指定名称的 ChatModel，未指定时使用默认提供商
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	if name == "" {
		name = f.config.DefaultProvider
	}

	f.mu.RLock()
	m, ok := f.models[name]
	f.mu.RUnlock()
	if ok {
		return m, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// 再次检查防止竞态
	if m, ok = f.models[name]; ok {
		return m, nil
	}

	providerCfg, ok := f.config.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not found in LLM config (known: %v)", name, f.Providers())
	}

	chatModel, err := openai.NewChatModel(ctx, chatModelConfig(providerCfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
	}

	f.models[name] = chatModel
	return chatModel, nil
}

// Default 返回默认 ChatModel
func (f *EinoFactory) Default(ctx context.Context) (model.BaseChatModel, error) {
	return f.Get(ctx, "")
}

// Providers 已配置的提供商名称
func (f *EinoFactory) Providers() []string {
	names := make([]string, 0, len(f.config.Providers))
	for name := range f.config.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ModelName 提供商对应的模型标识
func (f *EinoFactory) ModelName(name string) string {
	if name == "" {
		name = f.config.DefaultProvider
	}
	return f.config.Providers[name].Model
}

// chatModelConfig 惩罚系数与模型在此固定；温度等采样参数由调用方按规格覆盖
func chatModelConfig(p config.ProviderConfig) *openai.ChatModelConfig {
	cfg := &openai.ChatModelConfig{
		APIKey:  p.APIKey,
		BaseURL: p.BaseURL,
		Model:   p.Model,
		Timeout: p.Timeout,
	}
	if p.MaxTokens > 0 {
		cfg.MaxTokens = ptr(p.MaxTokens)
	}
	if p.Temperature > 0 {
		cfg.Temperature = ptr(float32(p.Temperature))
	}
	if p.PresencePenalty != 0 {
		cfg.PresencePenalty = ptr(float32(p.PresencePenalty))
	}
	if p.FrequencyPenalty != 0 {
		cfg.FrequencyPenalty = ptr(float32(p.FrequencyPenalty))
	}
	return cfg
}

func ptr[T any](v T) *T {
	return &v
}
