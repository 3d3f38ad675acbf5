package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"bookforge-ai-api/internal/application/book"
	"bookforge-ai-api/internal/application/queue"
	"bookforge-ai-api/internal/domain/entity"
	"bookforge-ai-api/pkg/logger"
)

// DocumentGenerator 生成整份文档
type DocumentGenerator interface {
	Generate(ctx context.Context, req book.Request) (*book.Result, error)
}

// JobQueue 串行任务队列
type JobQueue interface {
	Enqueue(ctx context.Context, job queue.Job) (*queue.Ticket, error)
}

// GenerateCommand 一次生成请求
type GenerateCommand struct {
	UserID  string
	Topic   string
	Profile book.Profile
	Format  entity.DocumentFormat
}

// GenerationService 串起元数据、取消标记与队列
type GenerationService struct {
	generator DocumentGenerator
	queue     JobQueue
	cancels   *book.CancelRegistry
	documents *Service
}

// NewGenerationService 创建生成服务；documents 可为空
func NewGenerationService(generator DocumentGenerator, q JobQueue, cancels *book.CancelRegistry, documents *Service) *GenerationService {
	if cancels == nil {
		cancels = book.NewCancelRegistry()
	}
	return &GenerationService{
		generator: generator,
		queue:     q,
		cancels:   cancels,
		documents: documents,
	}
}

// Generate 入队并等待结果
// 返回的 Result 由调用方在读取文件后 Release；ctx 结束时任务仍会执行完，结果自动释放
func (s *GenerationService) Generate(ctx context.Context, cmd GenerateCommand) (*book.Result, error) {
	cmd.Topic = strings.TrimSpace(cmd.Topic)
	if cmd.Topic == "" {
		return nil, fmt.Errorf("%w: topic is empty", book.ErrInvalidRequest)
	}
	if cmd.Format == "" {
		cmd.Format = entity.DocumentFormatPDF
	}
	if !cmd.Format.Valid() {
		return nil, fmt.Errorf("%w: unsupported format %q", book.ErrInvalidRequest, cmd.Format)
	}

	doc, err := s.documents.CreatePending(ctx, cmd.UserID, cmd.Topic, cmd.Profile, cmd.Format)
	if err != nil {
		return nil, err
	}
	jobID := uuid.NewString()
	if doc != nil {
		jobID = doc.ID
	}

	token, release := s.cancels.Register(cmd.UserID)
	ticket, err := s.queue.Enqueue(ctx, queue.Job{
		ID: jobID,
		Run: func(jobCtx context.Context) (any, error) {
			defer release()
			jobCtx = logger.WithContext(jobCtx, logger.UserIDKey, cmd.UserID)
			// panic 交给队列记录，这里只保证记录不会停在 processing
			defer func() {
				if r := recover(); r != nil {
					s.documents.Fail(jobCtx, doc, fmt.Errorf("%w: %v", queue.ErrJobPanicked, r))
					panic(r)
				}
			}()
			s.documents.MarkProcessing(jobCtx, doc)

			res, err := s.generator.Generate(jobCtx, book.Request{
				JobID:   jobID,
				UserID:  cmd.UserID,
				Topic:   cmd.Topic,
				Profile: cmd.Profile,
				Format:  cmd.Format,
				Cancel:  token,
			})
			if err != nil {
				s.documents.Fail(jobCtx, doc, err)
				return nil, err
			}
			s.documents.Complete(jobCtx, doc, res)
			return res, nil
		},
	})
	if err != nil {
		release()
		s.documents.Fail(ctx, doc, err)
		return nil, err
	}

	v, err := ticket.Wait(ctx)
	if err != nil {
		if ctx.Err() != nil {
			go discardResult(ticket)
		}
		return nil, err
	}
	res, ok := v.(*book.Result)
	if !ok || res == nil {
		return nil, fmt.Errorf("%w: job returned no result", book.ErrUpstream)
	}
	return res, nil
}

// Cancel 取消该用户排队中和运行中的任务
func (s *GenerationService) Cancel(userID string) int {
	return s.cancels.CancelUser(userID)
}

// discardResult 调用方已离开，等任务结束后删除工作目录
func discardResult(ticket *queue.Ticket) {
	v, err := ticket.Wait(context.Background())
	if err != nil {
		return
	}
	if res, ok := v.(*book.Result); ok {
		_ = res.Release()
	}
}
