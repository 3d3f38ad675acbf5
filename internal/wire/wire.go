//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"bookforge-ai-api/internal/application/book"
	"bookforge-ai-api/internal/application/document"
	"bookforge-ai-api/internal/application/queue"
	"bookforge-ai-api/internal/config"
	"bookforge-ai-api/internal/infrastructure/llm"
	"bookforge-ai-api/internal/interfaces/http/handler"
	"bookforge-ai-api/internal/interfaces/http/router"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		DataSet,
		GenerationSet,
		DocumentSet,
		RouterSet,
	)
	return nil, nil, nil
}

// InitializeGenerator 只初始化生成链路，供命令行使用，不连接数据库与 Redis
func InitializeGenerator(ctx context.Context, cfg *config.Config) (*book.Generator, func(), error) {
	wire.Build(
		LocalSet,
		GenerationSet,
	)
	return nil, nil, nil
}

// DataSet 数据层提供者集合，各依赖均可按配置关闭
var DataSet = wire.NewSet(
	ProvidePostgresClient,
	ProvideDocumentRepository,
	ProvideRedisClient,
	ProvideCache,
	ProvideConversationStore,
	ProvideRateLimiter,
	ProvideEventPublisher,
	ProvideObjectStore,
)

// LocalSet 命令行使用的进程内会话存储
var LocalSet = wire.NewSet(
	ProvideLocalConversationStore,
)

// GenerationSet 生成链路提供者集合
var GenerationSet = wire.NewSet(
	llm.NewEinoFactory,
	ProvideCompletionClient,
	book.NewSectionWriter,
	book.NewAssembler,
	ProvidePDFPrinter,
	ProvideRenderer,
	ProvideArtifactStore,
	ProvideGenerator,
)

// DocumentSet 元数据、取消与队列
var DocumentSet = wire.NewSet(
	ProvideQueue,
	book.NewCancelRegistry,
	ProvideDocumentService,
	document.NewGenerationService,
	wire.Bind(new(document.DocumentGenerator), new(*book.Generator)),
	wire.Bind(new(document.JobQueue), new(*queue.Queue)),
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	handler.NewGenerateHandler,
	handler.NewDocumentHandler,
	wire.Struct(new(router.Handlers), "*"),
	ProvideRouter,
)
