// Package eino 将 Eino 组件回调接入 Prometheus、OpenTelemetry 与日志
package eino

import (
	"context"
	"sync"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	llmctx "bookforge-ai-api/internal/domain/service"
	"bookforge-ai-api/pkg/logger"
	"bookforge-ai-api/pkg/metrics"
)

var initOnce sync.Once

// Init 注册进程级 ChatModel 回调，重复调用无副作用
// API 服务与命令行工具都在构建生成器之前调用
func Init() {
	initOnce.Do(func() {
		einocb.AppendGlobalHandlers(cbtemplate.NewHandlerHelper().
			ChatModel(newChatModelCallbackHandler()).
			Handler())
	})
}

// startTimeKey 在 Context 中记录调用开始时间，OnEnd/OnError 用它计算耗时
type startTimeKey struct{}

// modelKey 记录 OnStart 时解析到的模型名，OnError 没有输出配置可读
type modelKey struct{}

// newChatModelCallbackHandler 创建 ChatModel 回调：调用计数、耗时、Token 消耗与追踪 Span
func newChatModelCallbackHandler() *cbtemplate.ModelCallbackHandler {
	return &cbtemplate.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			modelName := modelNameFromInput(input)
			ctx = context.WithValue(ctx, startTimeKey{}, time.Now())
			ctx = context.WithValue(ctx, modelKey{}, modelName)

			attrs := []attribute.KeyValue{
				attribute.String("book.stage", llmctx.StageFromContext(ctx)),
				attribute.String("book.profile", llmctx.ProfileFromContext(ctx)),
				attribute.String("llm.provider", llmctx.ProviderFromContext(ctx)),
				attribute.String("llm.model", modelName),
			}
			if input != nil {
				attrs = append(attrs, attribute.Int("llm.messages", len(input.Messages)))
			}
			if info != nil {
				attrs = append(attrs,
					attribute.String("eino.node_name", info.Name),
					attribute.String("eino.type", info.Type),
				)
			}

			ctx, _ = otel.Tracer("eino").Start(ctx, "llm.generate", trace.WithAttributes(attrs...))
			return ctx
		},

		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			stage := llmctx.StageFromContext(ctx)
			provider := llmctx.ProviderFromContext(ctx)
			modelName := modelNameFromOutput(output)
			if modelName == "" {
				modelName = modelFromContext(ctx)
			}

			metrics.LLMCallTotal.WithLabelValues(stage, provider, modelName, "success").Inc()
			d := elapsedSeconds(ctx)
			if d > 0 {
				metrics.LLMCallDuration.WithLabelValues(stage, provider, modelName).Observe(d)
			}

			span := trace.SpanFromContext(ctx)
			if output != nil && output.TokenUsage != nil {
				usage := output.TokenUsage
				metrics.LLMTokensUsed.WithLabelValues(stage, provider, modelName, "prompt").Add(float64(usage.PromptTokens))
				metrics.LLMTokensUsed.WithLabelValues(stage, provider, modelName, "completion").Add(float64(usage.CompletionTokens))
				span.SetAttributes(
					attribute.Int("llm.prompt_tokens", usage.PromptTokens),
					attribute.Int("llm.completion_tokens", usage.CompletionTokens),
				)
				logger.Debug(ctx, "llm call finished",
					"stage", stage,
					"model", modelName,
					"prompt_tokens", usage.PromptTokens,
					"completion_tokens", usage.CompletionTokens,
					"duration_ms", int64(d*1000),
				)
			}
			span.End()
			return ctx
		},

		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			stage := llmctx.StageFromContext(ctx)
			provider := llmctx.ProviderFromContext(ctx)
			modelName := modelFromContext(ctx)

			metrics.LLMCallTotal.WithLabelValues(stage, provider, modelName, "error").Inc()
			if d := elapsedSeconds(ctx); d > 0 {
				metrics.LLMCallDuration.WithLabelValues(stage, provider, modelName).Observe(d)
			}

			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return ctx
		},
	}
}

// elapsedSeconds 计算从 OnStart 到当前的耗时（秒），取不到开始时间时返回 0
func elapsedSeconds(ctx context.Context) float64 {
	start, ok := ctx.Value(startTimeKey{}).(time.Time)
	if !ok || start.IsZero() {
		return 0
	}
	return time.Since(start).Seconds()
}

func modelFromContext(ctx context.Context) string {
	name, _ := ctx.Value(modelKey{}).(string)
	return name
}

// modelNameFromInput 从输入配置中提取模型名称
func modelNameFromInput(in *model.CallbackInput) string {
	if in == nil || in.Config == nil {
		return ""
	}
	return in.Config.Model
}

// modelNameFromOutput 从输出配置中提取模型名称
func modelNameFromOutput(out *model.CallbackOutput) string {
	if out == nil || out.Config == nil {
		return ""
	}
	return out.Config.Model
}
