package wire

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"bookforge-ai-api/internal/application/book"
	"bookforge-ai-api/internal/application/document"
	"bookforge-ai-api/internal/application/queue"
	"bookforge-ai-api/internal/application/render"
	"bookforge-ai-api/internal/config"
	"bookforge-ai-api/internal/domain/repository"
	"bookforge-ai-api/internal/infrastructure/artifact"
	"bookforge-ai-api/internal/infrastructure/cache"
	"bookforge-ai-api/internal/infrastructure/llm"
	"bookforge-ai-api/internal/infrastructure/messaging"
	"bookforge-ai-api/internal/infrastructure/persistence/postgres"
	"bookforge-ai-api/internal/infrastructure/persistence/redis"
	"bookforge-ai-api/internal/infrastructure/storage"
	"bookforge-ai-api/internal/interfaces/http/handler"
	"bookforge-ai-api/internal/interfaces/http/middleware"
	"bookforge-ai-api/internal/interfaces/http/router"
	"bookforge-ai-api/pkg/logger"
)

// queueCloseTimeout 关闭时等待排队任务执行完的上限
const queueCloseTimeout = 30 * time.Second

func noop() {}

// ProvidePostgresClient 提供 PostgreSQL 客户端；未启用时返回 nil
func ProvidePostgresClient(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	pgCfg := cfg.Database.Postgres
	if !pgCfg.Enabled {
		logger.Info(ctx, "postgres disabled, document metadata will not be recorded")
		return nil, noop, nil
	}
	// auto_migrate 开启时 NewClient 内完成建表
	client, err := postgres.NewClient(&pgCfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideDocumentRepository 提供文档仓储；没有数据库时返回 nil 接口
func ProvideDocumentRepository(client *postgres.Client) repository.DocumentRepository {
	if client == nil {
		return nil
	}
	return postgres.NewDocumentRepository(client)
}

// ProvideRedisClient 提供 Redis 客户端；未启用时返回 nil
func ProvideRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		logger.Info(ctx, "redis disabled, using in-process cache")
		return nil, noop, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideCache Redis 可用时使用 Redis，否则使用进程内缓存
func ProvideCache(cfg *config.Config, client *redis.Client) repository.Cache {
	if client != nil {
		return redis.NewCache(client)
	}
	local := cfg.Cache.Local
	return cache.NewMemoryCache(local.DefaultTTL, local.CleanupInterval)
}

// ProvideConversationStore 会话快照存储
func ProvideConversationStore(cfg *config.Config, client *redis.Client) repository.ConversationStore {
	ttl := cfg.Cache.Redis.ConversationTTL
	if client != nil {
		return redis.NewConversationStore(client, ttl)
	}
	return cache.NewConversationStore(ttl)
}

// ProvideRateLimiter 限流器依赖 Redis，没有 Redis 时不限流
func ProvideRateLimiter(client *redis.Client) middleware.RateLimiter {
	if client == nil {
		return nil
	}
	return redis.NewRateLimiter(client)
}

// ProvideEventPublisher 文档事件发布到 Redis Stream
func ProvideEventPublisher(cfg *config.Config, client *redis.Client) document.EventPublisher {
	streamCfg := cfg.Messaging.RedisStream
	if client == nil || !streamCfg.Enabled {
		return nil
	}
	maxLen := streamCfg.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}
	return messaging.NewProducer(client.Redis(), streamCfg.Stream, int64(maxLen))
}

// ProvideObjectStore 提供对象存储；未启用 GCS 时文件只随响应返回
func ProvideObjectStore(ctx context.Context, cfg *config.Config) (repository.ObjectStore, func(), error) {
	if !cfg.Storage.GCS.Enabled {
		return nil, noop, nil
	}
	store, err := storage.NewGCSStore(ctx, &cfg.Storage.GCS)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = store.Close()
	}
	return store, cleanup, nil
}

// ProvideArtifactStore 任务工作目录
func ProvideArtifactStore(cfg *config.Config) *artifact.Store {
	root := cfg.Generation.ArtifactRoot
	if root == "" {
		root = filepath.Join(os.TempDir(), "bookforge", "jobs")
	}
	return artifact.NewOsStore(root)
}

// ProvidePDFPrinter 无头浏览器打印器，浏览器在首次打印时启动
func ProvidePDFPrinter(cfg *config.Config) (render.PDFPrinter, func()) {
	printer := render.NewRodPrinter(render.RodConfig{
		BrowserBin: cfg.Renderer.BrowserBin,
		NoSandbox:  cfg.Renderer.NoSandbox,
		Timeout:    cfg.Renderer.Timeout,
		PageSize:   cfg.Renderer.PageSize,
	})
	cleanup := func() {
		if err := printer.Close(); err != nil {
			logger.Warn(context.Background(), "failed to close browser", "error", err.Error())
		}
	}
	return printer, cleanup
}

// ProvideRenderer 渲染器
func ProvideRenderer(cfg *config.Config, printer render.PDFPrinter) *render.Renderer {
	return render.NewRenderer(printer, render.Config{
		Author:    cfg.Renderer.Author,
		CodeStyle: cfg.Renderer.CodeStyle,
	})
}

// ProvideCompletionClient 补全客户端
func ProvideCompletionClient(cfg *config.Config, factory *llm.EinoFactory) *book.CompletionClient {
	return book.NewCompletionClient(factory, cfg.Generation.Provider, nil)
}

// ProvideGenerator 文档生成器
func ProvideGenerator(
	cfg *config.Config,
	writer *book.SectionWriter,
	assembler *book.Assembler,
	renderer *render.Renderer,
	store *artifact.Store,
	snapshots repository.ConversationStore,
) *book.Generator {
	return book.NewGenerator(writer, assembler, renderer, store, snapshots, book.GeneratorConfig{
		Persona: cfg.Generation.Persona,
	})
}

// ProvideQueue 启动串行任务队列，关闭时等待已排队任务
func ProvideQueue(cfg *config.Config) (*queue.Queue, func(), error) {
	q := queue.New(queue.Config{
		Capacity:   cfg.Generation.QueueCapacity,
		JobTimeout: cfg.Generation.JobTimeout,
	})
	if err := q.Start(); err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), queueCloseTimeout)
		defer cancel()
		if err := q.Close(ctx); err != nil {
			logger.Warn(ctx, "job queue closed before draining", "error", err.Error())
		}
	}
	return q, cleanup, nil
}

// ProvideDocumentService 文档元数据服务，有数据库时启用事务
func ProvideDocumentService(
	client *postgres.Client,
	repo repository.DocumentRepository,
	store repository.ObjectStore,
	c repository.Cache,
	publisher document.EventPublisher,
) *document.Service {
	svc := document.NewService(repo, store, c, publisher, document.ServiceConfig{})
	if client != nil {
		svc.WithTransactor(postgres.NewTxManager(client))
	}
	return svc
}

// ProvideHealthHandler 健康检查处理器
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, redisClient *redis.Client, q *queue.Queue) *handler.HealthHandler {
	return handler.NewHealthHandler(cfg.App.Version, pg, redisClient, q)
}

// ProvideRouter 路由器
func ProvideRouter(cfg *config.Config, handlers router.Handlers, limiter middleware.RateLimiter) *router.Router {
	return router.New(cfg, handlers, limiter)
}

// ProvideLocalConversationStore 进程内会话快照存储
func ProvideLocalConversationStore(cfg *config.Config) repository.ConversationStore {
	return cache.NewConversationStore(cfg.Cache.Redis.ConversationTTL)
}
